// Package processor implements the denoising and quality scoring pipeline.
//
// Every operation in this package is a pure function over an immutable Buffer:
// inputs are never modified, outputs are freshly allocated and always have the
// same sample count and sample rate as the input. Nothing here keeps state
// between calls, so independent buffers can be processed concurrently without
// locking.
package processor

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for caller contract violations
var (
	ErrEmptyBuffer       = errors.New("empty audio buffer")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrUnknownMethod     = errors.New("unknown denoise method")
)

// Sentinel values used to keep metrics finite on degenerate input
const (
	// SilenceDB is reported for zero amplitude or zero energy
	SilenceDB = -100.0

	// NoNoiseSNR is reported when the noise estimate has zero power
	NoNoiseSNR = 100.0

	// MaxInstability is the coefficient of variation reported for a zero-mean magnitude
	MaxInstability = 1.0
)

// Buffer is a mono PCM buffer with samples nominally in [-1, 1].
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// NewBuffer wraps samples in a Buffer. The slice is not copied.
func NewBuffer(samples []float64, sampleRate int) Buffer {
	return Buffer{Samples: samples, SampleRate: sampleRate}
}

// Len returns the number of samples
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the buffer length in seconds
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Validate rejects buffers no transform can run on.
func (b Buffer) Validate() error {
	if len(b.Samples) == 0 {
		return ErrEmptyBuffer
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSampleRate, b.SampleRate)
	}
	return nil
}

// withSamples returns a new Buffer sharing this buffer's sample rate.
func (b Buffer) withSamples(samples []float64) Buffer {
	return Buffer{Samples: samples, SampleRate: b.SampleRate}
}

// Mask marks samples that fall inside a detected low-energy frame.
type Mask []bool

// Count returns the number of true entries
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Any reports whether at least one sample is marked
func (m Mask) Any() bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// rms returns the root-mean-square of samples (0 for an empty slice).
func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// peak returns the maximum absolute sample value.
func peak(samples []float64) float64 {
	var p float64
	for _, s := range samples {
		if a := math.Abs(s); a > p {
			p = a
		}
	}
	return p
}

// amplitudeToDB converts a linear amplitude to dBFS, using SilenceDB for zero.
func amplitudeToDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return SilenceDB
	}
	return 20 * math.Log10(amplitude)
}

// powerRatioToDB converts a power ratio to dB, using SilenceDB for zero.
func powerRatioToDB(ratio float64) float64 {
	if ratio <= 0 {
		return SilenceDB
	}
	return math.Max(10*math.Log10(ratio), SilenceDB)
}
