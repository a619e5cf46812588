package processor

import (
	"math"
	"math/cmplx"
)

// biquad is one second-order IIR section in transposed direct form II.
// First-order sections leave b2 and a2 at zero.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// dcGain returns the section's gain at 0 Hz
func (q biquad) dcGain() float64 {
	return (q.b0 + q.b1 + q.b2) / (1 + q.a1 + q.a2)
}

// butterworthLowpass designs a digital Butterworth low-pass filter as a
// cascade of second-order sections. cutoff is normalised so that 1.0 is the
// Nyquist frequency. The analog prototype is pre-warped and mapped with the
// bilinear transform; each section is scaled for unity gain at DC.
func butterworthLowpass(order int, cutoff float64) []biquad {
	const fs2 = 4.0 // 2 * fs with fs normalised to 2
	warped := fs2 * math.Tan(math.Pi*cutoff/2)

	sections := make([]biquad, 0, (order+1)/2)
	for k := 0; k < order/2; k++ {
		m := float64(-order + 1 + 2*k)
		pole := -cmplx.Exp(complex(0, math.Pi*m/float64(2*order))) * complex(warped, 0)
		z := (complex(fs2, 0) + pole) / (complex(fs2, 0) - pole)

		a1 := -2 * real(z)
		a2 := real(z)*real(z) + imag(z)*imag(z)
		g := (1 + a1 + a2) / 4
		sections = append(sections, biquad{b0: g, b1: 2 * g, b2: g, a1: a1, a2: a2})
	}
	if order%2 == 1 {
		z := (fs2 - warped) / (fs2 + warped)
		g := (1 - z) / 2
		sections = append(sections, biquad{b0: g, b1: g, a1: -z})
	}
	return sections
}

// filtfilt runs the cascade forward and backward for zero phase distortion.
//
// The input is extended at both ends by an odd (point-symmetric) reflection
// of 3*(order+1) samples, and every section starts from its steady-state
// response to the first sample of each pass, which suppresses start-up
// transients at the buffer edges.
func filtfilt(sections []biquad, x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	padLen := min(3*(2*len(sections)+1), n-1)
	ext := make([]float64, n+2*padLen)
	for i := 0; i < padLen; i++ {
		ext[i] = 2*x[0] - x[padLen-i]
		ext[padLen+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[padLen:], x)

	y := filterCascade(sections, ext)
	reverse(y)
	y = filterCascade(sections, y)
	reverse(y)

	out := make([]float64, n)
	copy(out, y[padLen:padLen+n])
	return out
}

// filterCascade filters x through every section in order, returning a new slice.
func filterCascade(sections []biquad, x []float64) []float64 {
	y := make([]float64, len(x))
	copy(y, x)
	if len(y) == 0 {
		return y
	}

	scale := y[0]
	for _, q := range sections {
		// Steady-state state for a constant input equal to the first sample
		g := q.dcGain()
		s2 := (q.b2 - q.a2*g) * scale
		s1 := (q.b1-q.a1*g)*scale + s2

		for i, in := range y {
			out := q.b0*in + s1
			s1 = q.b1*in - q.a1*out + s2
			s2 = q.b2*in - q.a2*out
			y[i] = out
		}
		scale *= g
	}
	return y
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
