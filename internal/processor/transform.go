package processor

// Spectrogram is a short-time spectrum, indexed [frame][bin].
// Each frame holds frameSize/2+1 bins (DC through Nyquist).
type Spectrogram [][]complex128

// Bins returns the number of frequency bins per frame (0 for an empty spectrogram)
func (s Spectrogram) Bins() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// FourierTransformer moves a signal between the time domain and a
// short-time frequency representation with fixed frame and hop sizes.
type FourierTransformer interface {
	// Forward computes the STFT of samples.
	Forward(samples []float64, frameSize, hopSize int) Spectrogram

	// Inverse reconstructs exactly length samples from spec.
	Inverse(spec Spectrogram, frameSize, hopSize, length int) []float64
}

// MultiscaleTransformer decomposes a signal into a scale x time coefficient
// matrix and reconstructs a signal from such a matrix.
type MultiscaleTransformer interface {
	// Forward returns one row of len(samples) coefficients per scale 1..scales.
	Forward(samples []float64, scales int) [][]float64

	// Inverse collapses the coefficient matrix back to a single signal.
	Inverse(coeffs [][]float64) []float64
}
