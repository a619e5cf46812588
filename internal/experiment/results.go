package experiment

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/linuxmatters/denoisebench/internal/processor"
)

// ComparisonCSVName is the file written by WriteComparisonCSV
const ComparisonCSVName = "method_comparison_results.csv"

// ResultsCSVName returns the per-method results file name
func ResultsCSVName(method processor.Method) string {
	return fmt.Sprintf("noise_reduction_%s_results.csv", method)
}

var resultsHeader = []string{
	"filename", "run_id", "method",
	"original_compliant", "processed_compliant",
	"original_rms", "original_rms_db", "original_peak", "original_peak_db",
	"original_cv", "original_snr", "original_non_speech_ratio", "original_max_silence",
	"processed_rms", "processed_rms_db", "processed_peak", "processed_peak_db",
	"processed_cv", "processed_snr", "processed_non_speech_ratio", "processed_max_silence",
	"rms_improvement", "peak_improvement", "snr_improvement", "cv_improvement",
}

// WriteResultsCSV writes one row per successfully analysed file into dir and
// returns the file path.
func WriteResultsCSV(dir string, method processor.Method, results []PairResult) (string, error) {
	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, resultsHeader)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		row := []string{r.File, r.RunID, r.Method.String(),
			strconv.FormatBool(r.OriginalCompliant), strconv.FormatBool(r.ProcessedCompliant)}
		row = append(row, metricFields(r.Original)...)
		row = append(row, metricFields(r.Processed)...)
		row = append(row,
			formatFloat(r.RMSImprovement), formatFloat(r.PeakImprovement),
			formatFloat(r.SNRImprovement), formatFloat(r.CVImprovement))
		rows = append(rows, row)
	}

	path := filepath.Join(dir, ResultsCSVName(method))
	return path, writeCSV(path, rows)
}

// WriteComparisonCSV writes one row per method that analysed at least one file
func WriteComparisonCSV(dir string, summaries []MethodSummary) (string, error) {
	rows := [][]string{{
		"method", "avg_snr_improvement", "avg_cv_improvement", "avg_rms_improvement",
		"avg_peak_improvement", "compliance_rate", "target_snr_rate", "files", "failures",
	}}
	for _, s := range summaries {
		if s.Files == 0 {
			continue
		}
		rows = append(rows, []string{
			s.Method.String(),
			formatFloat(s.AvgSNRImprovement), formatFloat(s.AvgCVImprovement),
			formatFloat(s.AvgRMSImprovement), formatFloat(s.AvgPeakImprovement),
			formatFloat(s.ComplianceRate), formatFloat(s.TargetSNRRate),
			strconv.Itoa(s.Files), strconv.Itoa(s.Failures),
		})
	}

	path := filepath.Join(dir, ComparisonCSVName)
	return path, writeCSV(path, rows)
}

func metricFields(m processor.QualityMetrics) []string {
	return []string{
		formatFloat(m.RMS), formatFloat(m.RMSDB), formatFloat(m.Peak), formatFloat(m.PeakDB),
		formatFloat(m.CV), formatFloat(m.SNRDB), formatFloat(m.NonSpeechRatio), formatFloat(m.MaxSilenceSeconds),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
