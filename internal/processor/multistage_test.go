package processor

import (
	"math"
	"testing"
)

// halfSilentBuffer returns 1s at 8kHz: low-level noise for the first half,
// then a loud tone with the same noise underneath.
func halfSilentBuffer(t *testing.T) Buffer {
	t.Helper()
	opts := TestSignalOptions{
		DurationSecs: 1.0,
		SampleRate:   8000,
		ToneFreq:     200,
		ToneAmp:      0.5,
		NoiseAmp:     1e-4,
	}
	opts.Silence.Start = 0
	opts.Silence.Duration = 0.5
	return generateSignal(t, opts)
}

func TestSilenceAwareMix(t *testing.T) {
	original := []float64{1, 1, 1, 1}
	denoised := []float64{0.5, 0.5, -1, 2}
	mask := Mask{true, false, true, false}

	tests := []struct {
		name       string
		wDenoised  float64
		wOriginal  float64
		wantVoiced []float64
	}{
		{"multi-stage weights", 0.6, 0.4, []float64{0.6*0.5 + 0.4, 0.6*2 + 0.4}},
		{"voice-preserving weights", 0.7, 0.3, []float64{0.7*0.5 + 0.3, 0.7*2 + 0.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := silenceAwareMix(original, denoised, mask, tt.wDenoised, tt.wOriginal)

			if got[0] != 0.9*0.5 || got[2] != 0.9*-1 {
				t.Errorf("silent samples = %v, %v; want %v, %v", got[0], got[2], 0.9*0.5, 0.9*-1)
			}
			if math.Abs(got[1]-tt.wantVoiced[0]) > 1e-15 || math.Abs(got[3]-tt.wantVoiced[1]) > 1e-15 {
				t.Errorf("voiced samples = %v, %v; want %v", got[1], got[3], tt.wantVoiced)
			}
		})
	}
}

func TestMultiStage_SilenceAwareBlend(t *testing.T) {
	buf := halfSilentBuffer(t)
	cfg := DefaultConfig()

	out, err := MultiStage(buf, cfg)
	if err != nil {
		t.Fatalf("MultiStage failed: %v", err)
	}
	if out.Len() != buf.Len() || out.SampleRate != buf.SampleRate {
		t.Fatalf("shape changed: %d@%d -> %d@%d", buf.Len(), buf.SampleRate, out.Len(), out.SampleRate)
	}

	stage1, usedFallback := spectralSubtract(buf, cfg)
	if usedFallback {
		t.Fatal("half-silent buffer should use the noise profile, not the fallback")
	}
	stage2 := waveletDenoise(stage1, cfg)
	silence := detectSilence(buf.Samples, buf.SampleRate, cfg.SilenceThresholdDB, cfg)

	for i, silent := range silence.Mask {
		want := multiStageDenoisedWeight*stage2[i] + multiStageOriginalWeight*buf.Samples[i]
		if silent {
			want = silentGain * stage2[i]
		}
		if math.Abs(out.Samples[i]-want) > 1e-12 {
			t.Fatalf("sample %d (silent=%v) = %v, want %v", i, silent, out.Samples[i], want)
		}
	}

	// The noise-only half is almost entirely masked, the tone half not at all
	if c := silence.Mask[:3900].Count(); c != 3900 {
		t.Errorf("silent half: %d of 3900 samples masked", c)
	}
	if silence.Mask[4200:].Any() {
		t.Error("tone half should not be masked")
	}
}

func TestEnhancedMultiStage_ScenarioHalfSilent(t *testing.T) {
	buf := halfSilentBuffer(t)

	// A one-sample smoothing window leaves the blend untouched
	cfg := DefaultConfig()
	cfg.SmoothingWindow = 0

	out, err := EnhancedMultiStage(buf, cfg)
	if err != nil {
		t.Fatalf("EnhancedMultiStage failed: %v", err)
	}
	base := multiStage(buf, cfg)
	silence := detectSilence(buf.Samples, buf.SampleRate, cfg.SilenceThresholdDB, cfg)

	voicedDiffers := 0
	for i, silent := range silence.Mask {
		scaled := silentGain * base[i]
		if silent {
			if math.Abs(out.Samples[i]-scaled) > 1e-12 {
				t.Fatalf("silent sample %d = %v, want 0.9 x base = %v", i, out.Samples[i], scaled)
			}
			continue
		}
		want := voiceDenoisedWeight*base[i] + voiceOriginalWeight*buf.Samples[i]
		if math.Abs(out.Samples[i]-want) > 1e-12 {
			t.Fatalf("voiced sample %d = %v, want %v", i, out.Samples[i], want)
		}
		if math.Abs(out.Samples[i]-scaled) > 1e-6 {
			voicedDiffers++
		}
	}
	if voicedDiffers == 0 {
		t.Error("voiced samples should blend in the original rather than track 0.9 x base")
	}
}

func TestEnhancedMultiStage_Smoothing(t *testing.T) {
	buf := halfSilentBuffer(t)
	cfg := DefaultConfig()

	out, err := EnhancedMultiStage(buf, cfg)
	if err != nil {
		t.Fatalf("EnhancedMultiStage failed: %v", err)
	}

	base := multiStage(buf, cfg)
	silence := detectSilence(buf.Samples, buf.SampleRate, cfg.SilenceThresholdDB, cfg)
	mixed := silenceAwareMix(buf.Samples, base, silence.Mask, voiceDenoisedWeight, voiceOriginalWeight)
	want := movingAverage(mixed, samplesFor(cfg.SmoothingWindow, buf.SampleRate))

	if out.Len() != buf.Len() {
		t.Fatalf("length = %d, want %d", out.Len(), buf.Len())
	}
	for i := range want {
		if math.Abs(out.Samples[i]-want[i]) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, out.Samples[i], want[i])
		}
	}
}

func TestEnhancedMultiStage_VoicePreserveDisabled(t *testing.T) {
	buf := halfSilentBuffer(t)
	cfg := DefaultConfig()
	cfg.VoicePreserve = false

	enhanced, err := EnhancedMultiStage(buf, cfg)
	if err != nil {
		t.Fatalf("EnhancedMultiStage failed: %v", err)
	}
	base, err := MultiStage(buf, cfg)
	if err != nil {
		t.Fatalf("MultiStage failed: %v", err)
	}
	assertSameSamples(t, "voice preservation off", enhanced.Samples, base.Samples)
}

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name  string
		x     []float64
		width int
		want  []float64
	}{
		{"width 1 is identity", []float64{1, -2, 3}, 1, []float64{1, -2, 3}},
		{"odd width", []float64{3, 3, 3, 3, 3}, 3, []float64{2, 3, 3, 3, 2}},
		{"even width", []float64{2, 4, 6, 8}, 2, []float64{1, 3, 5, 7}},
		{"wider than input", []float64{4, 4}, 5, []float64{1.6, 1.6}},
		{"empty", nil, 3, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := movingAverage(tt.x, tt.width)
			if len(got) != len(tt.x) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.x))
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
