package processor

import (
	"fmt"
	"strings"
)

// Method identifies a denoising algorithm
type Method string

// Denoising methods, in increasing order of sophistication
const (
	MethodStandard           Method = "standard"             // Spectral subtraction (low-pass fallback)
	MethodWavelet            Method = "wavelet"              // Ricker multiscale hard thresholding
	MethodMultiStage         Method = "multi_stage"          // Spectral then wavelet, silence-aware mix
	MethodEnhancedMultiStage Method = "enhanced_multi_stage" // Multi-stage plus voice preservation and smoothing
)

// Methods lists every method in comparison order
var Methods = []Method{
	MethodStandard,
	MethodWavelet,
	MethodMultiStage,
	MethodEnhancedMultiStage,
}

// denoiseFunc is the signature shared by every denoiser.
type denoiseFunc func(Buffer, Config) (Buffer, error)

// denoisers maps each Method to its implementation.
var denoisers = map[Method]denoiseFunc{
	MethodStandard:           SpectralSubtraction,
	MethodWavelet:            WaveletThreshold,
	MethodMultiStage:         MultiStage,
	MethodEnhancedMultiStage: EnhancedMultiStage,
}

// ParseMethod converts a method name (case-insensitive, '-' or '_') to a Method.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	if _, ok := denoisers[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	return m, nil
}

// String returns the method name
func (m Method) String() string {
	return string(m)
}

// Denoise applies the named method to buf. The returned Buffer always has the
// same length and sample rate as buf.
func Denoise(buf Buffer, method Method, cfg Config) (Buffer, error) {
	fn, ok := denoisers[method]
	if !ok {
		return Buffer{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	out, err := fn(buf, cfg)
	if err != nil {
		return Buffer{}, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}
