package processor

// Mixing weights for the silence-aware blends
const (
	// silentGain scales the denoised signal inside silent regions
	silentGain = 0.9

	// multiStageDenoisedWeight/multiStageOriginalWeight blend voiced regions in MultiStage
	multiStageDenoisedWeight = 0.6
	multiStageOriginalWeight = 0.4

	// voiceDenoisedWeight/voiceOriginalWeight blend voiced regions in EnhancedMultiStage
	voiceDenoisedWeight = 0.7
	voiceOriginalWeight = 0.3
)

// MultiStage runs spectral subtraction followed by wavelet thresholding and
// mixes the result with the original according to the original's silence mask:
// silent samples keep 0.9 of the denoised signal, voiced samples blend
// 0.6 denoised with 0.4 original.
func MultiStage(buf Buffer, cfg Config) (Buffer, error) {
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Buffer{}, err
	}
	return buf.withSamples(multiStage(buf, cfg)), nil
}

func multiStage(buf Buffer, cfg Config) []float64 {
	stage1, _ := spectralSubtract(buf, cfg)
	stage2 := waveletDenoise(stage1, cfg)

	silence := detectSilence(buf.Samples, buf.SampleRate, cfg.SilenceThresholdDB, cfg)
	return silenceAwareMix(buf.Samples, stage2, silence.Mask, multiStageDenoisedWeight, multiStageOriginalWeight)
}

// silenceAwareMix returns a new slice where masked samples are
// silentGain*denoised and the rest are wDenoised*denoised + wOriginal*original.
func silenceAwareMix(original, denoised []float64, mask Mask, wDenoised, wOriginal float64) []float64 {
	out := make([]float64, len(original))
	for i := range out {
		if mask[i] {
			out[i] = silentGain * denoised[i]
		} else {
			out[i] = wDenoised*denoised[i] + wOriginal*original[i]
		}
	}
	return out
}
