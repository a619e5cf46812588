package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linuxmatters/denoisebench/internal/processor"
)

// QualityTip is a single piece of actionable advice derived from quality
// measurements.
type QualityTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "level_too_quiet")
}

// MaxQualityTips is the maximum number of tips to return.
const MaxQualityTips = 5

// HumAdviceRatio is the hum energy share above which mains hum is reported.
const HumAdviceRatio = 0.1

type tipRule func(processor.QualityMetrics, processor.Standard, *processor.HumMeasurement) *QualityTip

// GenerateQualityTips returns prioritised suggestions for the criteria m
// fails under standard. hum may be nil when no hum measurement was taken.
func GenerateQualityTips(m processor.QualityMetrics, standard processor.Standard, hum *processor.HumMeasurement) []QualityTip {
	// Nothing else is meaningful without signal
	if m.RMS == 0 {
		return []QualityTip{{
			Priority: 10,
			RuleID:   "no_signal",
			Message:  "The file contains only digital silence - check that the right input was recorded.",
		}}
	}

	rules := []tipRule{
		tipLevelTooHot,
		tipLevelTooQuiet,
		tipLevelQuiet,
		tipPoorSNR,
		tipMainsHum,
		tipUnstableVolume,
		tipTooMuchSilence,
		tipLongPause,
	}

	var tips []QualityTip
	fired := make(map[string]bool)
	for _, rule := range rules {
		if tip := rule(m, standard, hum); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxQualityTips {
		tips = tips[:MaxQualityTips]
	}
	return tips
}

// applyExclusions removes tips made redundant by a more specific one.
func applyExclusions(tips []QualityTip, fired map[string]bool) []QualityTip {
	var result []QualityTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "level_too_quiet", "level_quiet":
			if fired["level_clipping"] || fired["level_near_clipping"] {
				continue
			}
		case "long_pause":
			if fired["too_much_silence"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipLevelTooHot fires when the peak reaches or approaches full scale.
func tipLevelTooHot(m processor.QualityMetrics, _ processor.Standard, _ *processor.HumMeasurement) *QualityTip {
	if m.PeakDB <= -1.0 {
		return nil
	}
	if m.PeakDB >= 0.0 {
		return &QualityTip{
			Priority: 10,
			RuleID:   "level_clipping",
			Message:  "The recording is clipping - turn the input gain down by 6-10 dB to prevent distortion.",
		}
	}
	return &QualityTip{
		Priority: 9,
		RuleID:   "level_near_clipping",
		Message:  "Peaks are within 1 dB of full scale - turn the input gain down by 3-6 dB for headroom.",
	}
}

// tipLevelTooQuiet fires when RMS is more than 10 dB below the standard.
func tipLevelTooQuiet(m processor.QualityMetrics, s processor.Standard, _ *processor.HumMeasurement) *QualityTip {
	if m.RMSDB >= s.RMSDB-10 {
		return nil
	}
	return &QualityTip{
		Priority: 10,
		RuleID:   "level_too_quiet",
		Message:  fmt.Sprintf("The level is far too low (%.1f dBFS) - raise the input gain by about %.0f dB.", m.RMSDB, s.RMSDB-m.RMSDB),
	}
}

// tipLevelQuiet fires when RMS misses the standard by up to 10 dB.
func tipLevelQuiet(m processor.QualityMetrics, s processor.Standard, _ *processor.HumMeasurement) *QualityTip {
	if m.RMSDB >= s.RMSDB || m.RMSDB < s.RMSDB-10 {
		return nil
	}
	return &QualityTip{
		Priority: 8,
		RuleID:   "level_quiet",
		Message:  fmt.Sprintf("The level is a little low (%.1f dBFS) - raise the input gain by about %.0f dB.", m.RMSDB, s.RMSDB-m.RMSDB),
	}
}

func tipPoorSNR(m processor.QualityMetrics, s processor.Standard, _ *processor.HumMeasurement) *QualityTip {
	if m.SNRDB >= s.SNRDB {
		return nil
	}
	return &QualityTip{
		Priority: 8,
		RuleID:   "poor_snr",
		Message: fmt.Sprintf("Signal-to-noise is %.1f dB against a %.0f dB target - move closer to the microphone or reduce background noise.",
			m.SNRDB, s.SNRDB),
	}
}

// tipMainsHum fires when hum bins hold more than HumAdviceRatio of the energy.
func tipMainsHum(_ processor.QualityMetrics, _ processor.Standard, hum *processor.HumMeasurement) *QualityTip {
	if hum == nil || hum.EnergyRatio <= HumAdviceRatio {
		return nil
	}
	return &QualityTip{
		Priority: 7,
		RuleID:   "mains_hum",
		Message: fmt.Sprintf("%.0f%% of the energy sits at %.0f Hz and its harmonics - check for ground loops or power supplies near the microphone.",
			hum.EnergyRatio*100, hum.MainsHz),
	}
}

func tipUnstableVolume(m processor.QualityMetrics, s processor.Standard, _ *processor.HumMeasurement) *QualityTip {
	if m.CV <= s.CV {
		return nil
	}
	return &QualityTip{
		Priority: 6,
		RuleID:   "unstable_volume",
		Message:  fmt.Sprintf("Volume varies a lot (CV %.2f, limit %.2f) - keep a steady distance from the microphone.", m.CV, s.CV),
	}
}

func tipTooMuchSilence(m processor.QualityMetrics, s processor.Standard, _ *processor.HumMeasurement) *QualityTip {
	if m.NonSpeechRatio <= s.NonSpeechRatio {
		return nil
	}
	return &QualityTip{
		Priority: 5,
		RuleID:   "too_much_silence",
		Message: fmt.Sprintf("%.0f%% of the recording is silence (limit %.0f%%) - trim leading and trailing gaps.",
			m.NonSpeechRatio*100, s.NonSpeechRatio*100),
	}
}

func tipLongPause(m processor.QualityMetrics, s processor.Standard, _ *processor.HumMeasurement) *QualityTip {
	if m.MaxSilenceSeconds <= s.MaxSilenceSeconds {
		return nil
	}
	return &QualityTip{
		Priority: 4,
		RuleID:   "long_pause",
		Message: fmt.Sprintf("The longest pause is %.1fs (limit %.1fs) - shorten long gaps between phrases.",
			m.MaxSilenceSeconds, s.MaxSilenceSeconds),
	}
}
