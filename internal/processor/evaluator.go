package processor

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// QualityMetrics holds the quality measurements for one buffer
type QualityMetrics struct {
	RMS               float64 `json:"rms"`                 // Root-mean-square amplitude
	RMSDB             float64 `json:"rms_db"`              // RMS in dBFS (SilenceDB for zero)
	Peak              float64 `json:"peak"`                // Maximum absolute amplitude
	PeakDB            float64 `json:"peak_db"`             // Peak in dBFS (SilenceDB for zero)
	CV                float64 `json:"cv"`                  // Coefficient of variation of |sample|
	SNRDB             float64 `json:"snr_db"`              // Signal power over detrended residual power, dB
	NonSpeechRatio    float64 `json:"non_speech_ratio"`    // Fraction of silent energy frames
	MaxSilenceSeconds float64 `json:"max_silence_seconds"` // Longest silent run, seconds
}

// Standard is the set of thresholds a buffer must meet to be compliant.
type Standard struct {
	RMSDB             float64 `yaml:"rms_db" json:"rms_db"`                           // Minimum RMS level (dBFS)
	PeakDB            float64 `yaml:"peak_db" json:"peak_db"`                         // Maximum peak level (dBFS)
	CV                float64 `yaml:"cv" json:"cv"`                                   // Maximum loudness variation
	SNRDB             float64 `yaml:"snr_db" json:"snr_db"`                           // Minimum SNR (dB)
	NonSpeechRatio    float64 `yaml:"non_speech_ratio" json:"non_speech_ratio"`       // Maximum silent fraction
	MaxSilenceSeconds float64 `yaml:"max_silence_seconds" json:"max_silence_seconds"` // Maximum silent run (s)
}

// DefaultStandard returns the default compliance thresholds
func DefaultStandard() Standard {
	return Standard{
		RMSDB:             -30.0,
		PeakDB:            0.0,
		CV:                0.5,
		SNRDB:             20.0,
		NonSpeechRatio:    0.3,
		MaxSilenceSeconds: 1.0,
	}
}

// Criterion is the outcome of one compliance comparison
type Criterion struct {
	Name      string  // Short identifier, e.g. "snr_db"
	Label     string  // Human-readable name
	Value     float64 // Measured value
	Limit     float64 // Threshold from the Standard
	AtLeast   bool    // true: Value >= Limit passes; false: Value <= Limit passes
	Satisfied bool
}

// Criteria evaluates each threshold of s against m, in a fixed order.
func (s Standard) Criteria(m QualityMetrics) []Criterion {
	c := []Criterion{
		{Name: "rms_db", Label: "RMS Level", Value: m.RMSDB, Limit: s.RMSDB, AtLeast: true},
		{Name: "peak_db", Label: "Peak Level", Value: m.PeakDB, Limit: s.PeakDB},
		{Name: "cv", Label: "Volume Stability (CV)", Value: m.CV, Limit: s.CV},
		{Name: "snr_db", Label: "Signal-to-Noise", Value: m.SNRDB, Limit: s.SNRDB, AtLeast: true},
		{Name: "non_speech_ratio", Label: "Non-Speech Ratio", Value: m.NonSpeechRatio, Limit: s.NonSpeechRatio},
		{Name: "max_silence_seconds", Label: "Longest Silence", Value: m.MaxSilenceSeconds, Limit: s.MaxSilenceSeconds},
	}
	for i := range c {
		if c[i].AtLeast {
			c[i].Satisfied = c[i].Value >= c[i].Limit
		} else {
			c[i].Satisfied = c[i].Value <= c[i].Limit
		}
	}
	return c
}

// Complies reports whether m meets all six thresholds.
func (s Standard) Complies(m QualityMetrics) bool {
	return m.RMSDB >= s.RMSDB &&
		m.PeakDB <= s.PeakDB &&
		m.CV <= s.CV &&
		m.SNRDB >= s.SNRDB &&
		m.NonSpeechRatio <= s.NonSpeechRatio &&
		m.MaxSilenceSeconds <= s.MaxSilenceSeconds
}

// Evaluator scores buffers against a Standard. The zero value is not usable;
// use NewEvaluator.
type Evaluator struct {
	Standard           Standard
	SilenceThresholdDB float64
	Config             Config // Energy framing for silence metrics
}

// NewEvaluator returns an Evaluator using standard and the default -45 dB
// silence threshold.
func NewEvaluator(standard Standard) Evaluator {
	cfg := DefaultConfig()
	return Evaluator{
		Standard:           standard,
		SilenceThresholdDB: cfg.SilenceThresholdDB,
		Config:             cfg,
	}
}

// Evaluate computes metrics for buf against DefaultStandard.
func Evaluate(buf Buffer) (QualityMetrics, bool, error) {
	return NewEvaluator(DefaultStandard()).Evaluate(buf)
}

// Evaluate computes the quality metrics of buf and whether they comply with
// the evaluator's Standard. buf is not modified.
func (e Evaluator) Evaluate(buf Buffer) (QualityMetrics, bool, error) {
	if err := buf.Validate(); err != nil {
		return QualityMetrics{}, false, err
	}
	if err := e.Config.Validate(); err != nil {
		return QualityMetrics{}, false, err
	}
	m := e.Measure(buf)
	return m, e.Standard.Complies(m), nil
}

// Measure computes quality metrics without validation or compliance. e.Config
// must be valid.
func (e Evaluator) Measure(buf Buffer) QualityMetrics {
	x := buf.Samples
	var m QualityMetrics

	m.RMS = rms(x)
	m.RMSDB = amplitudeToDB(m.RMS)
	m.Peak = peak(x)
	m.PeakDB = amplitudeToDB(m.Peak)
	m.CV = coefficientOfVariation(x)
	m.SNRDB = estimateSNR(x)

	silence := detectSilence(x, buf.SampleRate, e.SilenceThresholdDB, e.Config)
	m.NonSpeechRatio = silence.NonSpeechRatio
	m.MaxSilenceSeconds = silence.MaxSilenceSeconds
	return m
}

// coefficientOfVariation returns std(|x|)/mean(|x|), or MaxInstability when
// the mean magnitude is zero.
func coefficientOfVariation(x []float64) float64 {
	abs := make([]float64, len(x))
	for i, s := range x {
		abs[i] = math.Abs(s)
	}
	mean, std := stat.PopMeanStdDev(abs, nil)
	if mean <= 0 {
		return MaxInstability
	}
	return std / mean
}

// estimateSNR compares total signal power against the power of the signal
// with its mean removed. This is a self-referential heuristic, not a
// reference-based SNR.
func estimateSNR(x []float64) float64 {
	if len(x) == 0 {
		return NoNoiseSNR
	}
	mean := stat.Mean(x, nil)
	var signalPower, noisePower float64
	for _, s := range x {
		signalPower += s * s
		d := s - mean
		noisePower += d * d
	}
	n := float64(len(x))
	signalPower /= n
	noisePower /= n
	if noisePower <= 0 {
		return NoNoiseSNR
	}
	return 10 * math.Log10(signalPower/noisePower)
}
