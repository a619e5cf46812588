package processor

import (
	"fmt"
	"time"
)

// Config holds the tuning parameters shared by every denoiser.
// It is passed explicitly to each call and never mutated by the pipeline.
type Config struct {
	// Silence detection
	SilenceThresholdDB float64       // Frames below this level (dB relative to loudest frame) are silent
	EnergyFrame        time.Duration // Energy framing window (20ms)
	EnergyHop          time.Duration // Energy framing hop (10ms, 50% overlap)

	// Spectral subtraction
	STFTFrame     int     // FFT frame size in samples (2048)
	STFTHop       int     // STFT hop in samples (512)
	SpectralFloor float64 // Fraction of the original magnitude always retained (0.01)

	// Low-pass fallback when no silence is available for a noise estimate
	LowpassOrder  int     // Butterworth order (8)
	LowpassCutoff float64 // Normalised cutoff, 1.0 = Nyquist (0.1)

	// Wavelet thresholding
	WaveletScales        int     // Number of Ricker widths, 1..N (30)
	WaveletThresholdMult float64 // Threshold multiplier on the MAD noise estimate (2.5)

	// Enhanced multi-stage
	VoicePreserve   bool          // Apply voice-preserving remix and smoothing
	SmoothingWindow time.Duration // Boxcar smoothing length (10ms)

	// TargetSNR is the SNR (dB) an experiment aims for. The denoisers do not
	// consume it; experiment summaries report how many files reach it.
	TargetSNR float64

	// Transform backends
	Fourier    FourierTransformer
	Multiscale MultiscaleTransformer
}

// DefaultConfig returns the standard tuning used for experiments
func DefaultConfig() Config {
	return Config{
		SilenceThresholdDB:   -45.0,
		EnergyFrame:          20 * time.Millisecond,
		EnergyHop:            10 * time.Millisecond,
		STFTFrame:            2048,
		STFTHop:              512,
		SpectralFloor:        0.01,
		LowpassOrder:         8,
		LowpassCutoff:        0.1,
		WaveletScales:        30,
		WaveletThresholdMult: 2.5,
		VoicePreserve:        true,
		SmoothingWindow:      10 * time.Millisecond,
		TargetSNR:            20.0,
		Fourier:              GonumSTFT{},
		Multiscale:           RickerCWT{},
	}
}

// Validate checks the configuration for values no transform can use.
func (c Config) Validate() error {
	switch {
	case c.EnergyFrame <= 0 || c.EnergyHop <= 0:
		return fmt.Errorf("energy frame and hop must be positive (frame %v, hop %v)", c.EnergyFrame, c.EnergyHop)
	case c.STFTFrame < 2 || c.STFTHop < 1:
		return fmt.Errorf("invalid STFT geometry: frame %d, hop %d", c.STFTFrame, c.STFTHop)
	case c.STFTHop > c.STFTFrame:
		return fmt.Errorf("STFT hop %d exceeds frame %d", c.STFTHop, c.STFTFrame)
	case c.SpectralFloor < 0 || c.SpectralFloor > 1:
		return fmt.Errorf("spectral floor %.3f outside [0, 1]", c.SpectralFloor)
	case c.LowpassOrder < 1:
		return fmt.Errorf("low-pass order must be at least 1, got %d", c.LowpassOrder)
	case c.LowpassCutoff <= 0 || c.LowpassCutoff >= 1:
		return fmt.Errorf("low-pass cutoff %.3f outside (0, 1)", c.LowpassCutoff)
	case c.WaveletScales < 1:
		return fmt.Errorf("wavelet scales must be at least 1, got %d", c.WaveletScales)
	case c.WaveletThresholdMult < 0:
		return fmt.Errorf("wavelet threshold multiplier must not be negative, got %.3f", c.WaveletThresholdMult)
	case c.SmoothingWindow < 0:
		return fmt.Errorf("smoothing window must not be negative, got %v", c.SmoothingWindow)
	}
	return nil
}

// fourier returns the configured FourierTransformer, defaulting to gonum
func (c Config) fourier() FourierTransformer {
	if c.Fourier == nil {
		return GonumSTFT{}
	}
	return c.Fourier
}

// multiscale returns the configured MultiscaleTransformer, defaulting to Ricker CWT
func (c Config) multiscale() MultiscaleTransformer {
	if c.Multiscale == nil {
		return RickerCWT{}
	}
	return c.Multiscale
}

// samplesFor converts a duration to a whole number of samples at sampleRate,
// never returning less than one sample.
func samplesFor(d time.Duration, sampleRate int) int {
	n := int(int64(sampleRate) * int64(d) / int64(time.Second))
	if n < 1 {
		return 1
	}
	return n
}
