package processor

import (
	"math"
)

// RickerCWT is a MultiscaleTransformer built on the Ricker (Mexican hat)
// wavelet. Scale w (1-based) convolves the signal with a kernel of
// min(10w, len(signal)) points and width parameter w, keeping the centred
// "same" portion of the convolution so every row has len(signal) columns.
type RickerCWT struct{}

// Forward returns the scales x len(samples) coefficient matrix.
func (RickerCWT) Forward(samples []float64, scales int) [][]float64 {
	coeffs := make([][]float64, scales)
	for s := 0; s < scales; s++ {
		width := float64(s + 1)
		points := min(10*(s+1), len(samples))
		coeffs[s] = convolveSame(samples, rickerKernel(points, width))
	}
	return coeffs
}

// Inverse averages the coefficient rows into one signal.
func (RickerCWT) Inverse(coeffs [][]float64) []float64 {
	if len(coeffs) == 0 {
		return nil
	}
	out := make([]float64, len(coeffs[0]))
	for _, row := range coeffs {
		for i, c := range row {
			out[i] += c
		}
	}
	inv := 1.0 / float64(len(coeffs))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// rickerKernel samples the Ricker wavelet of width a at points positions
// centred on zero.
func rickerKernel(points int, a float64) []float64 {
	amp := 2 / (math.Sqrt(3*a) * math.Pow(math.Pi, 0.25))
	wsq := a * a
	centre := float64(points-1) / 2

	k := make([]float64, points)
	for i := range k {
		x := float64(i) - centre
		xsq := x * x
		k[i] = amp * (1 - xsq/wsq) * math.Exp(-xsq/(2*wsq))
	}
	return k
}

// convolveSame returns the len(x) centre samples of the full convolution of
// x with kernel (len(kernel) <= len(x)).
func convolveSame(x, kernel []float64) []float64 {
	n, m := len(x), len(kernel)
	out := make([]float64, n)
	offset := (m - 1) / 2
	for i := 0; i < n; i++ {
		// full index k = i + offset; contributing x[j] with 0 <= k-j < m
		k := i + offset
		lo := max(0, k-m+1)
		hi := min(n-1, k)
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += x[j] * kernel[k-j]
		}
		out[i] = sum
	}
	return out
}
