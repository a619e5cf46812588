package processor

// EnhancedMultiStage builds on MultiStage with a lighter voice-preserving
// blend and a boxcar smoothing pass over the whole result.
//
// With cfg.VoicePreserve disabled it returns the MultiStage output unchanged.
func EnhancedMultiStage(buf Buffer, cfg Config) (Buffer, error) {
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Buffer{}, err
	}

	base := multiStage(buf, cfg)
	if !cfg.VoicePreserve {
		return buf.withSamples(base), nil
	}

	silence := detectSilence(buf.Samples, buf.SampleRate, cfg.SilenceThresholdDB, cfg)
	mixed := silenceAwareMix(buf.Samples, base, silence.Mask, voiceDenoisedWeight, voiceOriginalWeight)

	window := samplesFor(cfg.SmoothingWindow, buf.SampleRate)
	return buf.withSamples(movingAverage(mixed, window)), nil
}

// movingAverage convolves x with a boxcar of the given width and returns the
// centred len(x) samples, matching "same"-mode convolution.
func movingAverage(x []float64, width int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 || width < 1 {
		copy(out, x)
		return out
	}

	prefix := make([]float64, n+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}

	offset := (width - 1) / 2
	inv := 1.0 / float64(width)
	for i := range out {
		// full convolution index k covers x[k-width+1 .. k]
		k := i + offset
		lo := max(0, k-width+1)
		hi := min(n-1, k)
		if lo > hi {
			continue
		}
		out[i] = (prefix[hi+1] - prefix[lo]) * inv
	}
	return out
}
