package processor

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// windowSumFloor is the smallest normal float64; overlap-add positions whose
// squared-window sum falls at or below it are left unnormalised.
const windowSumFloor = 2.2250738585072014e-308

// GonumSTFT is a FourierTransformer backed by gonum's real FFT.
//
// Frames are centred: the signal is zero-padded by frameSize/2 on both sides
// before framing, and a periodic Hann window is applied. Inverse uses weighted
// overlap-add normalised by the summed squared window, then removes the
// centring pad and trims or zero-pads to the requested length.
type GonumSTFT struct{}

// Forward computes the centred STFT of samples.
func (GonumSTFT) Forward(samples []float64, frameSize, hopSize int) Spectrogram {
	if frameSize < 1 || hopSize < 1 {
		return nil
	}

	pad := frameSize / 2
	padded := make([]float64, len(samples)+2*pad)
	copy(padded[pad:], samples)
	if len(padded) < frameSize {
		padded = append(padded, make([]float64, frameSize-len(padded))...)
	}

	nFrames := 1 + (len(padded)-frameSize)/hopSize
	window := hannPeriodic(frameSize)
	fft := fourier.NewFFT(frameSize)

	spec := make(Spectrogram, nFrames)
	frame := make([]float64, frameSize)
	for t := 0; t < nFrames; t++ {
		start := t * hopSize
		for j := 0; j < frameSize; j++ {
			frame[j] = padded[start+j] * window[j]
		}
		spec[t] = fft.Coefficients(nil, frame)
	}
	return spec
}

// Inverse reconstructs length samples from a centred STFT.
func (GonumSTFT) Inverse(spec Spectrogram, frameSize, hopSize, length int) []float64 {
	out := make([]float64, length)
	if len(spec) == 0 || frameSize < 1 || hopSize < 1 {
		return out
	}

	fullLen := frameSize + hopSize*(len(spec)-1)
	signal := make([]float64, fullLen)
	windowSum := make([]float64, fullLen)
	window := hannPeriodic(frameSize)
	fft := fourier.NewFFT(frameSize)
	scale := 1.0 / float64(frameSize)

	seq := make([]float64, frameSize)
	for t, coeffs := range spec {
		// gonum's inverse is unnormalised
		fft.Sequence(seq, coeffs)
		start := t * hopSize
		for j := 0; j < frameSize; j++ {
			signal[start+j] += seq[j] * scale * window[j]
			windowSum[start+j] += window[j] * window[j]
		}
	}

	for i := range signal {
		if windowSum[i] > windowSumFloor {
			signal[i] /= windowSum[i]
		}
	}

	pad := frameSize / 2
	for i := 0; i < length; i++ {
		if pad+i >= fullLen {
			break
		}
		out[i] = signal[pad+i]
	}
	return out
}

// hannPeriodic returns the periodic (DFT-even) Hann window of length n.
func hannPeriodic(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// magnitudes returns |X| for every frame and bin of spec.
func magnitudes(spec Spectrogram) [][]float64 {
	mags := make([][]float64, len(spec))
	for t, frame := range spec {
		row := make([]float64, len(frame))
		for k, c := range frame {
			row[k] = math.Hypot(real(c), imag(c))
		}
		mags[t] = row
	}
	return mags
}
