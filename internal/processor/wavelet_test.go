package processor

import (
	"math"
	"testing"
)

func TestRickerKernel(t *testing.T) {
	k := rickerKernel(11, 2)

	// Symmetric with its maximum at the centre
	for i := 0; i < len(k)/2; i++ {
		if math.Abs(k[i]-k[len(k)-1-i]) > 1e-15 {
			t.Fatalf("kernel not symmetric at %d: %v vs %v", i, k[i], k[len(k)-1-i])
		}
	}
	wantPeak := 2 / (math.Sqrt(6) * math.Pow(math.Pi, 0.25))
	if math.Abs(k[5]-wantPeak) > 1e-12 {
		t.Errorf("centre = %v, want %v", k[5], wantPeak)
	}
	// Zero crossings at +/- width
	if math.Abs(k[3]) > 1e-12 || math.Abs(k[7]) > 1e-12 {
		t.Errorf("expected zeros at centre +/- width, got %v and %v", k[3], k[7])
	}
}

func TestConvolveSame(t *testing.T) {
	tests := []struct {
		name   string
		x      []float64
		kernel []float64
		want   []float64
	}{
		{"odd kernel", []float64{0, 0, 1, 0, 0}, []float64{1, 2, 3}, []float64{0, 1, 2, 3, 0}},
		{"even kernel", []float64{1, 2, 3, 4}, []float64{1, 1}, []float64{1, 3, 5, 7}},
		{"identity", []float64{0.5, -0.25, 1}, []float64{1}, []float64{0.5, -0.25, 1}},
		{"kernel as long as input", []float64{1, 0, 0}, []float64{1, 2, 3}, []float64{2, 3, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convolveSame(tt.x, tt.kernel)
			if len(got) != len(tt.want) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestRickerCWT_Shape(t *testing.T) {
	samples := make([]float64, 50)
	samples[25] = 1

	cwt := RickerCWT{}
	coeffs := cwt.Forward(samples, 30)
	if len(coeffs) != 30 {
		t.Fatalf("scales = %d, want 30", len(coeffs))
	}
	for s, row := range coeffs {
		if len(row) != len(samples) {
			t.Fatalf("scale %d has %d columns, want %d", s+1, len(row), len(samples))
		}
	}

	out := cwt.Inverse(coeffs)
	if len(out) != len(samples) {
		t.Fatalf("inverse length = %d, want %d", len(out), len(samples))
	}
}

func TestMedianAbs(t *testing.T) {
	tests := []struct {
		name   string
		coeffs [][]float64
		want   float64
	}{
		{"odd count", [][]float64{{-3, 1}, {2}}, 2},
		{"even count", [][]float64{{-4, 1}, {2, -3}}, 2.5},
		{"all zero", [][]float64{{0, 0}, {0, 0}}, 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := medianAbs(tt.coeffs); got != tt.want {
				t.Errorf("medianAbs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHardThreshold(t *testing.T) {
	coeffs := [][]float64{{-2, -1, 0, 1, 1.5}, {0.999, -1.001}}
	hardThreshold(coeffs, 1)

	want := [][]float64{{-2, 0, 0, 0, 1.5}, {0, -1.001}}
	for i := range want {
		for j := range want[i] {
			if coeffs[i][j] != want[i][j] {
				t.Errorf("coeffs[%d][%d] = %v, want %v", i, j, coeffs[i][j], want[i][j])
			}
		}
	}
}

func TestWaveletThreshold_PreservesRMS(t *testing.T) {
	tests := []struct {
		name string
		opts TestSignalOptions
	}{
		{"noisy tone", TestSignalOptions{DurationSecs: 0.5, SampleRate: 16000, ToneFreq: 300, ToneAmp: 0.5, NoiseAmp: 0.05}},
		{"quiet noise", TestSignalOptions{DurationSecs: 0.25, SampleRate: 8000, NoiseAmp: 0.001}},
		{"low tone", TestSignalOptions{DurationSecs: 0.5, SampleRate: 8000, ToneFreq: 80, ToneAmp: 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := generateSignal(t, tt.opts)
			out, err := WaveletThreshold(buf, DefaultConfig())
			if err != nil {
				t.Fatalf("WaveletThreshold failed: %v", err)
			}
			if out.Len() != buf.Len() || out.SampleRate != buf.SampleRate {
				t.Fatalf("shape changed: %d@%d -> %d@%d", buf.Len(), buf.SampleRate, out.Len(), out.SampleRate)
			}

			inRMS, outRMS := rms(buf.Samples), rms(out.Samples)
			if math.Abs(outRMS-inRMS) > 1e-9*math.Max(1, inRMS) {
				t.Errorf("RMS = %v, want %v", outRMS, inRMS)
			}
		})
	}
}

func TestWaveletThreshold_AllZero(t *testing.T) {
	buf := NewBuffer(make([]float64, 1000), 8000)

	out, err := WaveletThreshold(buf, DefaultConfig())
	if err != nil {
		t.Fatalf("WaveletThreshold failed: %v", err)
	}
	for i, v := range out.Samples {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestWaveletThreshold_ShortBuffer(t *testing.T) {
	// Fewer samples than the widest kernel
	buf := NewBuffer([]float64{0.1, -0.2, 0.3, -0.1, 0.05}, 8000)

	out, err := WaveletThreshold(buf, DefaultConfig())
	if err != nil {
		t.Fatalf("WaveletThreshold failed: %v", err)
	}
	if out.Len() != buf.Len() {
		t.Errorf("length = %d, want %d", out.Len(), buf.Len())
	}
	for i, v := range out.Samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("sample %d is %v", i, v)
		}
	}
}
