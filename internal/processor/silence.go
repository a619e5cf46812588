package processor

import (
	"math"
)

// digitalSilencePower is the mean-square frame power (-100 dBFS) at or below
// which a frame counts as digital silence regardless of the loudest frame.
const digitalSilencePower = 1e-10

// SilenceAnalysis is the result of energy-based silence detection.
type SilenceAnalysis struct {
	Mask        Mask      // Sample-aligned: true inside at least one silent frame
	FrameSilent []bool    // Per-frame silence decision
	FrameDB     []float64 // Per-frame energy in dB relative to the loudest frame

	FrameLength int // Samples per energy frame
	HopLength   int // Samples between frame starts

	NonSpeechRatio    float64 // Fraction of frames that are silent
	MaxSilenceSeconds float64 // Longest run of consecutive silent frames, in seconds
}

// SilentFrames returns the number of silent frames
func (a SilenceAnalysis) SilentFrames() int {
	n := 0
	for _, s := range a.FrameSilent {
		if s {
			n++
		}
	}
	return n
}

// FrameBounds returns the sample range [start, end) that frame i measured.
func (a SilenceAnalysis) FrameBounds(i int) (start, end int) {
	return frameBounds(i, a.FrameLength, a.HopLength, len(a.Mask))
}

// frameBounds places frame i at i*hop, clamped so it ends no later than n.
func frameBounds(i, frameLen, hop, n int) (start, end int) {
	start = min(i*hop, max(0, n-frameLen))
	return start, min(start+frameLen, n)
}

// DetectSilence frames buf with cfg's energy window and hop and flags frames
// whose energy falls below thresholdDB relative to the loudest frame.
func DetectSilence(buf Buffer, thresholdDB float64, cfg Config) (SilenceAnalysis, error) {
	if err := buf.Validate(); err != nil {
		return SilenceAnalysis{}, err
	}
	return detectSilence(buf.Samples, buf.SampleRate, thresholdDB, cfg), nil
}

// detectSilence is DetectSilence without input validation.
//
// Frames start at every hop position inside the buffer, so every sample is
// covered by at least one frame. A frame that would run past the end is slid
// back to end on the last sample, so every frame holds frameLen real samples
// (or the whole buffer when it is shorter than a frame). Energy is the sum of
// squared samples; its level is 10*log10(E/Emax). Frames at or below digital
// silence report SilenceDB, and when the loudest frame is itself digital
// silence every frame reports SilenceDB.
func detectSilence(samples []float64, sampleRate int, thresholdDB float64, cfg Config) SilenceAnalysis {
	n := len(samples)
	frameLen := samplesFor(cfg.EnergyFrame, sampleRate)
	hop := samplesFor(cfg.EnergyHop, sampleRate)
	nFrames := (n + hop - 1) / hop

	energy := make([]float64, nFrames)
	maxEnergy := 0.0
	for i := range energy {
		start, end := frameBounds(i, frameLen, hop, n)
		var e float64
		for _, s := range samples[start:end] {
			e += s * s
		}
		energy[i] = e
		if e > maxEnergy {
			maxEnergy = e
		}
	}

	floor := digitalSilencePower * float64(min(frameLen, n))
	frameDB := make([]float64, nFrames)
	silent := make([]bool, nFrames)
	for i, e := range energy {
		switch {
		case maxEnergy <= floor || e <= floor:
			frameDB[i] = SilenceDB
		default:
			frameDB[i] = math.Max(10*math.Log10(e/maxEnergy), SilenceDB)
		}
		silent[i] = frameDB[i] < thresholdDB
	}

	mask := make(Mask, n)
	silentCount := 0
	longestRun, run := 0, 0
	for i, s := range silent {
		if !s {
			run = 0
			continue
		}
		silentCount++
		run++
		longestRun = max(longestRun, run)

		start, end := frameBounds(i, frameLen, hop, n)
		for j := start; j < end; j++ {
			mask[j] = true
		}
	}

	analysis := SilenceAnalysis{
		Mask:        mask,
		FrameSilent: silent,
		FrameDB:     frameDB,
		FrameLength: frameLen,
		HopLength:   hop,
	}
	if nFrames > 0 {
		analysis.NonSpeechRatio = float64(silentCount) / float64(nFrames)
	}
	// The last frame may start less than a hop before the end of the buffer
	maxSeconds := float64(longestRun*hop) / float64(sampleRate)
	analysis.MaxSilenceSeconds = math.Min(maxSeconds, float64(n)/float64(sampleRate))
	return analysis
}
