package processor

// NoiseProfile is an average magnitude spectrum, one value per STFT bin.
type NoiseProfile []float64

// SpectralSubtraction removes a noise spectrum estimated from the buffer's
// silent regions. When no frame is silent there is nothing to estimate noise
// from, and a zero-phase Butterworth low-pass is applied instead.
func SpectralSubtraction(buf Buffer, cfg Config) (Buffer, error) {
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Buffer{}, err
	}
	out, _ := spectralSubtract(buf, cfg)
	return buf.withSamples(out), nil
}

// spectralSubtract returns the denoised samples and whether the low-pass
// fallback was used.
func spectralSubtract(buf Buffer, cfg Config) ([]float64, bool) {
	silence := detectSilence(buf.Samples, buf.SampleRate, cfg.SilenceThresholdDB, cfg)
	if !silence.Mask.Any() {
		return lowpassFallback(buf.Samples, cfg), true
	}

	ft := cfg.fourier()
	spec := ft.Forward(buf.Samples, cfg.STFTFrame, cfg.STFTHop)
	profile := estimateNoiseProfile(buf.Samples, silence.Mask, ft, cfg)
	cleaned := subtractNoise(spec, profile, cfg.SpectralFloor)
	return ft.Inverse(cleaned, cfg.STFTFrame, cfg.STFTHop, buf.Len()), false
}

// estimateNoiseProfile averages the magnitude spectra of the silent-sample
// subsequence (silent samples concatenated in order).
func estimateNoiseProfile(samples []float64, mask Mask, ft FourierTransformer, cfg Config) NoiseProfile {
	noise := make([]float64, 0, mask.Count())
	for i, silent := range mask {
		if silent {
			noise = append(noise, samples[i])
		}
	}

	mags := magnitudes(ft.Forward(noise, cfg.STFTFrame, cfg.STFTHop))
	profile := make(NoiseProfile, cfg.STFTFrame/2+1)
	if len(mags) == 0 {
		return profile
	}
	for _, frame := range mags {
		for k, m := range frame {
			profile[k] += m
		}
	}
	for k := range profile {
		profile[k] /= float64(len(mags))
	}
	return profile
}

// subtractNoise applies max(|X| - N, floor*|X|) to every bin while keeping
// the original phase. The result never exceeds the original magnitude and
// never drops below floor times it.
func subtractNoise(spec Spectrogram, profile NoiseProfile, floor float64) Spectrogram {
	out := make(Spectrogram, len(spec))
	mags := magnitudes(spec)
	for t, frame := range spec {
		row := make([]complex128, len(frame))
		for k, c := range frame {
			mag := mags[t][k]
			if mag == 0 {
				continue
			}
			var noise float64
			if k < len(profile) {
				noise = profile[k]
			}
			cleaned := max(mag-noise, floor*mag)
			row[k] = c * complex(cleaned/mag, 0)
		}
		out[t] = row
	}
	return out
}

// lowpassFallback applies the configured zero-phase Butterworth low-pass.
func lowpassFallback(samples []float64, cfg Config) []float64 {
	return filtfilt(butterworthLowpass(cfg.LowpassOrder, cfg.LowpassCutoff), samples)
}
