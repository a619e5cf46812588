package experiment

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/linuxmatters/denoisebench/internal/processor"
)

// ErrSampleRateMismatch is returned when a pair was not recorded at one rate
var ErrSampleRateMismatch = errors.New("sample rate mismatch")

// PairResult compares one original recording with its processed version
type PairResult struct {
	File          string           // Base name of the original recording
	Path          string           // Full path of the original recording
	ProcessedPath string           // Where the processed WAV was written
	Method        processor.Method // Method that produced the processed audio
	RunID         string

	Original           processor.QualityMetrics
	Processed          processor.QualityMetrics
	OriginalCompliant  bool
	ProcessedCompliant bool

	// Changes from original to processed. RMS, peak and CV are percentage
	// changes (0 when the original value is 0); SNR is a difference in dB.
	RMSImprovement  float64
	PeakImprovement float64
	CVImprovement   float64
	SNRImprovement  float64

	OriginalHum  processor.HumMeasurement
	ProcessedHum processor.HumMeasurement

	SampleRate int
	Duration   float64 // Seconds of audio compared

	DecodeTime   time.Duration
	DenoiseTime  time.Duration
	EvaluateTime time.Duration

	Err error // Set when the file could not be processed
}

// OK reports whether the file was processed and analysed
func (r PairResult) OK() bool {
	return r.Err == nil
}

// TotalTime returns the wall time spent on the file
func (r PairResult) TotalTime() time.Duration {
	return r.DecodeTime + r.DenoiseTime + r.EvaluateTime
}

// AnalyzePair evaluates original and processed after trimming both to their
// common length, and computes the improvement figures.
func AnalyzePair(name string, original, processed processor.Buffer, ev processor.Evaluator) (PairResult, error) {
	if original.SampleRate != processed.SampleRate {
		return PairResult{File: filepath.Base(name), Path: name}, fmt.Errorf("%w: original %d Hz, processed %d Hz",
			ErrSampleRateMismatch, original.SampleRate, processed.SampleRate)
	}
	n := min(original.Len(), processed.Len())
	original = processor.NewBuffer(original.Samples[:n], original.SampleRate)
	processed = processor.NewBuffer(processed.Samples[:n], processed.SampleRate)

	result := PairResult{
		File:       filepath.Base(name),
		Path:       name,
		SampleRate: original.SampleRate,
		Duration:   original.Duration(),
	}

	var err error
	result.Original, result.OriginalCompliant, err = ev.Evaluate(original)
	if err != nil {
		return result, err
	}
	result.Processed, result.ProcessedCompliant, err = ev.Evaluate(processed)
	if err != nil {
		return result, err
	}

	o, p := result.Original, result.Processed
	result.RMSImprovement = percentChange(o.RMS, p.RMS)
	result.PeakImprovement = percentChange(o.Peak, p.Peak)
	result.CVImprovement = percentChange(o.CV, p.CV)
	result.SNRImprovement = p.SNRDB - o.SNRDB
	return result, nil
}

// percentChange returns (after-before)/before*100, or 0 for a zero baseline
func percentChange(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return (after - before) / before * 100
}
