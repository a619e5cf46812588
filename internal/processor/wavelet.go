package processor

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// madToSigma converts a median absolute deviation into a Gaussian standard deviation
const madToSigma = 0.6745

// WaveletThreshold suppresses multiscale coefficients that fall at or below a
// noise-derived threshold, then restores the input's RMS level.
func WaveletThreshold(buf Buffer, cfg Config) (Buffer, error) {
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Buffer{}, err
	}
	return buf.withSamples(waveletDenoise(buf.Samples, cfg)), nil
}

func waveletDenoise(samples []float64, cfg Config) []float64 {
	mt := cfg.multiscale()
	coeffs := mt.Forward(samples, cfg.WaveletScales)

	threshold := cfg.WaveletThresholdMult * medianAbs(coeffs) / madToSigma
	hardThreshold(coeffs, threshold)

	out := mt.Inverse(coeffs)
	if len(out) != len(samples) {
		// Guard against backends that drop or add edge samples
		resized := make([]float64, len(samples))
		copy(resized, out)
		out = resized
	}

	if p := peak(out); p > 0 {
		floats.Scale(1/p, out)
	}
	if denoisedRMS := rms(out); denoisedRMS > 0 {
		floats.Scale(rms(samples)/denoisedRMS, out)
	}
	return out
}

// hardThreshold zeroes, in place, every coefficient with |c| <= threshold.
func hardThreshold(coeffs [][]float64, threshold float64) {
	for _, row := range coeffs {
		for i, c := range row {
			if math.Abs(c) <= threshold {
				row[i] = 0
			}
		}
	}
}

// medianAbs returns the median of |c| over the whole matrix. For an even
// count it is the mean of the two middle values.
func medianAbs(coeffs [][]float64) float64 {
	total := 0
	for _, row := range coeffs {
		total += len(row)
	}
	if total == 0 {
		return 0
	}

	values := make([]float64, 0, total)
	for _, row := range coeffs {
		for _, c := range row {
			values = append(values, math.Abs(c))
		}
	}
	slices.Sort(values)

	mid := total / 2
	if total%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
