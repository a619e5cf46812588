// Package audio decodes audio files to mono processor buffers and encodes
// processed buffers back to WAV.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"

	"github.com/linuxmatters/denoisebench/internal/processor"
)

// ErrUnsupportedFormat is returned for file types no decoder handles
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Metadata contains audio file metadata
type Metadata struct {
	Format     string  // "wav", "mp3" or "flac"
	Duration   float64 // seconds
	SampleRate int
	Channels   int // Channels in the source file; the returned buffer is always mono
	BitDepth   int
}

// SupportedExtensions lists the file extensions OpenAudioFile can decode
var SupportedExtensions = []string{".wav", ".mp3", ".flac"}

// IsSupported reports whether filename has a decodable extension
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// OpenAudioFile decodes an entire audio file at its native sample rate and
// downmixes it to mono with samples scaled to [-1, 1].
func OpenAudioFile(filename string) (processor.Buffer, *Metadata, error) {
	var (
		buf  processor.Buffer
		meta *Metadata
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".wav":
		buf, meta, err = readWAV(filename)
	case ".mp3":
		buf, meta, err = readMP3(filename)
	case ".flac":
		buf, meta, err = readFLAC(filename)
	default:
		return processor.Buffer{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return processor.Buffer{}, nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	if err := buf.Validate(); err != nil {
		return processor.Buffer{}, nil, fmt.Errorf("no audio in %s: %w", filename, err)
	}
	meta.Duration = buf.Duration()
	return buf, meta, nil
}

// readWAV decodes PCM WAV with go-audio
func readWAV(filename string) (processor.Buffer, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return processor.Buffer{}, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return processor.Buffer{}, nil, errors.New("invalid WAV file")
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return processor.Buffer{}, nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels < 1 {
		return processor.Buffer{}, nil, errors.New("WAV file has no channel information")
	}

	bitDepth := int(decoder.BitDepth)
	channels := pcm.Format.NumChannels
	scale := fullScale(bitDepth)

	frames := len(pcm.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(pcm.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}

	meta := &Metadata{
		Format:     "wav",
		SampleRate: pcm.Format.SampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}
	return processor.NewBuffer(samples, pcm.Format.SampleRate), meta, nil
}

// readMP3 decodes MP3 with go-mp3, which always yields 16-bit stereo
func readMP3(filename string) (processor.Buffer, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return processor.Buffer{}, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return processor.Buffer{}, nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	const bytesPerFrame = 4 // two int16 channels
	var samples []float64
	if length := decoder.Length(); length > 0 {
		samples = make([]float64, 0, length/bytesPerFrame)
	}

	chunk := make([]byte, 8192)
	var pending []byte
	for {
		n, err := decoder.Read(chunk)
		pending = append(pending, chunk[:n]...)
		whole := len(pending) / bytesPerFrame * bytesPerFrame
		for i := 0; i < whole; i += bytesPerFrame {
			left := int16(binary.LittleEndian.Uint16(pending[i:]))
			right := int16(binary.LittleEndian.Uint16(pending[i+2:]))
			samples = append(samples, (float64(left)+float64(right))/2/32768)
		}
		pending = pending[whole:]

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return processor.Buffer{}, nil, fmt.Errorf("mp3 decode error: %w", err)
		}
	}

	meta := &Metadata{
		Format:     "mp3",
		SampleRate: decoder.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}
	return processor.NewBuffer(samples, decoder.SampleRate()), meta, nil
}

// readFLAC decodes FLAC frame by frame with mewkiz/flac
func readFLAC(filename string) (processor.Buffer, *Metadata, error) {
	stream, err := flac.Open(filename)
	if err != nil {
		return processor.Buffer{}, nil, fmt.Errorf("failed to open FLAC stream: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if channels < 1 {
		return processor.Buffer{}, nil, errors.New("FLAC stream has no channels")
	}
	scale := fullScale(int(info.BitsPerSample))

	samples := make([]float64, 0, info.NSamples)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return processor.Buffer{}, nil, fmt.Errorf("failed to decode FLAC frame: %w", err)
		}

		blockSize := len(frame.Subframes[0].Samples)
		for i := 0; i < blockSize; i++ {
			var sum float64
			for _, sub := range frame.Subframes {
				sum += float64(sub.Samples[i])
			}
			samples = append(samples, sum/float64(channels)/scale)
		}
	}

	meta := &Metadata{
		Format:     "flac",
		SampleRate: int(info.SampleRate),
		Channels:   channels,
		BitDepth:   int(info.BitsPerSample),
	}
	return processor.NewBuffer(samples, int(info.SampleRate)), meta, nil
}

// fullScale returns the magnitude of the most negative integer sample at
// bitDepth, which maps to -1.0.
func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return math.Ldexp(1, bitDepth-1)
}
