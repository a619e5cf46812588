package experiment

import (
	"github.com/linuxmatters/denoisebench/internal/processor"
)

// MethodSummary aggregates one method's results over a file set
type MethodSummary struct {
	Method processor.Method

	AvgSNRImprovement  float64 // dB
	AvgCVImprovement   float64 // percent
	AvgRMSImprovement  float64 // percent
	AvgPeakImprovement float64 // percent

	ComplianceRate float64 // Fraction of analysed files meeting the standard after processing
	TargetSNRRate  float64 // Fraction of analysed files reaching the target SNR

	Files    int // Files analysed successfully
	Failures int // Files that could not be processed
}

// Summarise averages the successful results for one method. Failed files
// are counted but do not contribute to the averages.
func Summarise(method processor.Method, results []PairResult, targetSNR float64) MethodSummary {
	s := MethodSummary{Method: method}

	var compliant, onTarget int
	for _, r := range results {
		if !r.OK() {
			s.Failures++
			continue
		}
		s.Files++
		s.AvgSNRImprovement += r.SNRImprovement
		s.AvgCVImprovement += r.CVImprovement
		s.AvgRMSImprovement += r.RMSImprovement
		s.AvgPeakImprovement += r.PeakImprovement
		if r.ProcessedCompliant {
			compliant++
		}
		if r.Processed.SNRDB >= targetSNR {
			onTarget++
		}
	}

	if s.Files == 0 {
		return s
	}
	n := float64(s.Files)
	s.AvgSNRImprovement /= n
	s.AvgCVImprovement /= n
	s.AvgRMSImprovement /= n
	s.AvgPeakImprovement /= n
	s.ComplianceRate = float64(compliant) / n
	s.TargetSNRRate = float64(onTarget) / n
	return s
}

// BestMethod returns the method with the highest average SNR improvement,
// ignoring methods with no analysed files. Ties keep the earlier method.
func BestMethod(summaries []MethodSummary) (processor.Method, bool) {
	var best *MethodSummary
	for i := range summaries {
		s := &summaries[i]
		if s.Files == 0 {
			continue
		}
		if best == nil || s.AvgSNRImprovement > best.AvgSNRImprovement {
			best = s
		}
	}
	if best == nil {
		return "", false
	}
	return best.Method, true
}

// RunSummary is the headline outcome of a single-method run
type RunSummary struct {
	Files           int
	Failures        int
	Improved        int     // Files whose SNR estimate went up
	AvgSNRChange    float64 // dB
	CompliantBefore int
	CompliantAfter  int
}

// SummariseRun condenses a run's results for the console
func SummariseRun(results []PairResult) RunSummary {
	var s RunSummary
	for _, r := range results {
		if !r.OK() {
			s.Failures++
			continue
		}
		s.Files++
		s.AvgSNRChange += r.SNRImprovement
		if r.SNRImprovement > 0 {
			s.Improved++
		}
		if r.OriginalCompliant {
			s.CompliantBefore++
		}
		if r.ProcessedCompliant {
			s.CompliantAfter++
		}
	}
	if s.Files > 0 {
		s.AvgSNRChange /= float64(s.Files)
	}
	return s
}
