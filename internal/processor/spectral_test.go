package processor

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestSpectralSubtraction_FallbackOnContinuousTone(t *testing.T) {
	// A 4 kHz tone with no silence forces the low-pass fallback, whose
	// cutoff sits at 800 Hz for 16 kHz audio.
	buf := sineBuffer(t, 4000, 0.5, 1.0, 16000)

	out, usedFallback := spectralSubtract(buf, DefaultConfig())
	if !usedFallback {
		t.Fatal("expected low-pass fallback for a buffer with no silence")
	}
	if len(out) != buf.Len() {
		t.Fatalf("output length = %d, want %d", len(out), buf.Len())
	}

	inRMS, outRMS := rms(buf.Samples), rms(out)
	if outRMS > 0.05*inRMS {
		t.Errorf("4 kHz tone not attenuated: input RMS %.4f, output RMS %.4f", inRMS, outRMS)
	}
}

func TestSpectralSubtraction_FallbackWithPartialLastHop(t *testing.T) {
	for _, n := range []int{16001, 16159} {
		buf := toneOfLength(t, n, 440, 0.5, 16000)
		out, usedFallback := spectralSubtract(buf, DefaultConfig())
		if !usedFallback {
			t.Errorf("n=%d: expected low-pass fallback for a continuous tone", n)
		}
		if len(out) != n {
			t.Errorf("n=%d: output length = %d", n, len(out))
		}
	}
}

func TestSpectralSubtraction_FallbackKeepsLowFrequencies(t *testing.T) {
	buf := sineBuffer(t, 100, 0.5, 1.0, 16000)

	out, usedFallback := spectralSubtract(buf, DefaultConfig())
	if !usedFallback {
		t.Fatal("expected low-pass fallback")
	}

	// Zero-phase filtering keeps a passband tone in place and at level
	mid := buf.Len() / 2
	for i := mid; i < mid+200; i++ {
		if math.Abs(out[i]-buf.Samples[i]) > 0.01 {
			t.Fatalf("sample %d: got %.5f, want %.5f", i, out[i], buf.Samples[i])
		}
	}
}

func TestSpectralSubtraction_UsesNoiseProfile(t *testing.T) {
	opts := TestSignalOptions{
		DurationSecs: 2.0,
		SampleRate:   16000,
		ToneFreq:     440,
		ToneAmp:      0.5,
		NoiseAmp:     0.002,
	}
	opts.Silence.Start = 0
	opts.Silence.Duration = 0.5
	buf := generateSignal(t, opts)

	out, usedFallback := spectralSubtract(buf, DefaultConfig())
	if usedFallback {
		t.Fatal("expected spectral subtraction when silence is present")
	}
	if len(out) != buf.Len() {
		t.Fatalf("output length = %d, want %d", len(out), buf.Len())
	}

	// The noise-only lead-in is reduced well below its original level
	lead := 4000 // first 0.25s, away from the tone onset
	before := regionRMS(buf.Samples, 0, lead)
	after := regionRMS(out, 0, lead)
	if after >= 0.5*before {
		t.Errorf("noise-only region RMS %.6f -> %.6f, expected at least 6 dB reduction", before, after)
	}

	// The tone survives
	toneBefore := regionRMS(buf.Samples, 16000, 24000)
	toneAfter := regionRMS(out, 16000, 24000)
	if toneAfter < 0.8*toneBefore {
		t.Errorf("tone region RMS %.4f -> %.4f, tone should be preserved", toneBefore, toneAfter)
	}
}

func TestSubtractNoise_MagnitudeBounds(t *testing.T) {
	const floor = 0.01

	spec := Spectrogram{
		{complex(1, 0), complex(0, 2), complex(-3, 4), 0},
		{complex(0.001, 0), complex(0.5, -0.5), complex(10, 0), complex(-0.2, 0)},
	}
	profile := NoiseProfile{0.5, 5, 1, 0.1}

	out := subtractNoise(spec, profile, floor)

	for ti := range spec {
		for k := range spec[ti] {
			orig := cmplx.Abs(spec[ti][k])
			got := cmplx.Abs(out[ti][k])
			want := math.Max(orig-profile[k], floor*orig)

			if math.Abs(got-want) > 1e-12 {
				t.Errorf("[%d][%d] magnitude = %v, want %v", ti, k, got, want)
			}
			if got > orig+1e-12 {
				t.Errorf("[%d][%d] magnitude %v exceeds original %v", ti, k, got, orig)
			}
			if got < floor*orig-1e-12 {
				t.Errorf("[%d][%d] magnitude %v below floor %v", ti, k, got, floor*orig)
			}
			// Phase is preserved for every non-zero bin
			if orig > 0 && math.Abs(cmplx.Phase(out[ti][k])-cmplx.Phase(spec[ti][k])) > 1e-9 {
				t.Errorf("[%d][%d] phase changed", ti, k)
			}
		}
	}
}

func TestEstimateNoiseProfile_Length(t *testing.T) {
	cfg := DefaultConfig()
	buf := generateSignal(t, TestSignalOptions{DurationSecs: 0.1, SampleRate: 16000, NoiseAmp: 0.01})
	mask := make(Mask, buf.Len())
	for i := 0; i < 500; i++ {
		mask[i] = true
	}

	profile := estimateNoiseProfile(buf.Samples, mask, cfg.fourier(), cfg)
	if len(profile) != cfg.STFTFrame/2+1 {
		t.Fatalf("profile bins = %d, want %d", len(profile), cfg.STFTFrame/2+1)
	}
	for k, v := range profile {
		if v < 0 || math.IsNaN(v) {
			t.Fatalf("bin %d has invalid magnitude %v", k, v)
		}
	}
}

func TestSpectralSubtraction_DoesNotModifyInput(t *testing.T) {
	buf := generateSignal(t, TestSignalOptions{DurationSecs: 0.5, SampleRate: 16000, ToneFreq: 300, ToneAmp: 0.4, NoiseAmp: 0.01})
	before := copySamples(buf.Samples)

	out, err := SpectralSubtraction(buf, DefaultConfig())
	if err != nil {
		t.Fatalf("SpectralSubtraction failed: %v", err)
	}
	assertSameSamples(t, "input", buf.Samples, before)
	if out.SampleRate != buf.SampleRate {
		t.Errorf("sample rate = %d, want %d", out.SampleRate, buf.SampleRate)
	}
}
