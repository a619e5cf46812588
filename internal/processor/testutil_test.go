package processor

import (
	"math"
	"testing"
)

// TestSignalOptions configures a synthetic test signal
type TestSignalOptions struct {
	DurationSecs float64 // Total duration in seconds (default: 1.0)
	SampleRate   int     // Sample rate (default: 16000)
	ToneFreq     float64 // Sine frequency in Hz (0 = no tone)
	ToneAmp      float64 // Linear sine amplitude
	NoiseAmp     float64 // Linear white noise amplitude (0 = no noise)
	Silence      struct {
		Start    float64 // Start of the tone-free region in seconds
		Duration float64 // Length of the tone-free region in seconds
	}
}

// generateSignal builds a deterministic synthetic buffer. The tone is muted
// inside the silence region; noise is present everywhere.
func generateSignal(t *testing.T, opts TestSignalOptions) Buffer {
	t.Helper()

	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 1.0
	}

	total := int(opts.DurationSecs * float64(opts.SampleRate))
	silenceStart := int(opts.Silence.Start * float64(opts.SampleRate))
	silenceEnd := int((opts.Silence.Start + opts.Silence.Duration) * float64(opts.SampleRate))

	// LCG from Numerical Recipes keeps noise identical across runs
	rngState := uint32(12345)
	nextRandom := func() float64 {
		rngState = rngState*1664525 + 1013904223
		return (float64(rngState)/float64(0xFFFFFFFF))*2.0 - 1.0
	}

	samples := make([]float64, total)
	for i := range samples {
		var s float64
		inSilence := opts.Silence.Duration > 0 && i >= silenceStart && i < silenceEnd
		if opts.ToneFreq > 0 && !inSilence {
			ts := float64(i) / float64(opts.SampleRate)
			s += opts.ToneAmp * math.Sin(2*math.Pi*opts.ToneFreq*ts)
		}
		if opts.NoiseAmp > 0 {
			s += opts.NoiseAmp * nextRandom()
		}
		samples[i] = s
	}
	return NewBuffer(samples, opts.SampleRate)
}

// sineBuffer is a shorthand for a pure tone
func sineBuffer(t *testing.T, freq, amp, seconds float64, sampleRate int) Buffer {
	t.Helper()
	return generateSignal(t, TestSignalOptions{
		DurationSecs: seconds,
		SampleRate:   sampleRate,
		ToneFreq:     freq,
		ToneAmp:      amp,
	})
}

// toneOfLength is a pure tone of exactly n samples, for lengths that are not
// a whole number of hops
func toneOfLength(t *testing.T, n int, freq, amp float64, sampleRate int) Buffer {
	t.Helper()
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return NewBuffer(samples, sampleRate)
}

// copySamples returns an independent copy for mutation checks
func copySamples(s []float64) []float64 {
	c := make([]float64, len(s))
	copy(c, s)
	return c
}

// assertSameSamples fails unless a and b are bit-identical
func assertSameSamples(t *testing.T, name string, a, b []float64) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("%s: length %d != %d", name, len(a), len(b))
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("%s: sample %d differs: %v vs %v", name, i, a[i], b[i])
		}
	}
}

// regionRMS returns the RMS of s[from:to]
func regionRMS(s []float64, from, to int) float64 {
	return rms(s[from:to])
}
