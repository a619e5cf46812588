package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/linuxmatters/denoisebench/internal/processor"
)

// DefaultBitDepth is used when WriteWAV is given a non-positive bit depth
const DefaultBitDepth = 16

// wavFormatPCM is the WAVE_FORMAT_PCM format tag
const wavFormatPCM = 1

// WriteWAV encodes buf as mono integer PCM. Samples outside [-1, 1] are clamped.
func WriteWAV(filename string, buf processor.Buffer, bitDepth int) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("cannot encode %s: %w", filename, err)
	}
	if bitDepth <= 0 {
		bitDepth = DefaultBitDepth
	}
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}

	out, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	encoder := wav.NewEncoder(out, buf.SampleRate, bitDepth, 1, wavFormatPCM)
	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:           quantise(buf.Samples, bitDepth),
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(pcm); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV header: %w", err)
	}
	return out.Close()
}

// quantise converts float samples to integers at bitDepth, clamping to full scale
func quantise(samples []float64, bitDepth int) []int {
	scale := fullScale(bitDepth)
	maxInt := scale - 1

	data := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(s * scale)
		data[i] = int(math.Max(-scale, math.Min(maxInt, v)))
	}
	return data
}
