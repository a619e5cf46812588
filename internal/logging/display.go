// This file provides console output for evaluate and compare modes.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/denoisebench/internal/audio"
	"github.com/linuxmatters/denoisebench/internal/experiment"
	"github.com/linuxmatters/denoisebench/internal/processor"
)

// DisplayEvaluation prints the quality metrics and compliance verdict for a
// single file. meta may be nil.
func DisplayEvaluation(w io.Writer, inputPath string, meta *audio.Metadata, m processor.QualityMetrics, compliant bool, standard processor.Standard) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "EVALUATION: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if meta != nil {
		fmt.Fprintf(w, "Format:      %s, %d-bit\n", strings.ToUpper(meta.Format), meta.BitDepth)
		fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(meta.Duration))
		fmt.Fprintf(w, "Sample Rate: %d Hz\n", meta.SampleRate)
		fmt.Fprintf(w, "Channels:    %s\n", channelName(meta.Channels))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "QUALITY")
	for _, c := range standard.Criteria(m) {
		mark := "✓"
		if !c.Satisfied {
			mark = "✗"
		}
		op := "<="
		if c.AtLeast {
			op = ">="
		}
		fmt.Fprintf(w, "  %s %-22s %10s  (%s %s)\n", mark, c.Label+":", formatMetric(c.Value, 2), op, formatMetric(c.Limit, 2))
	}
	fmt.Fprintln(w)

	if compliant {
		fmt.Fprintln(w, "Verdict: COMPLIANT")
		return
	}
	fmt.Fprintln(w, "Verdict: NOT COMPLIANT")
	for _, tip := range GenerateQualityTips(m, standard, nil) {
		fmt.Fprintf(w, "  - %s\n", wrapText(tip.Message, 66, "    "))
	}
}

// DisplayComparison prints one line per method and the recommended method.
func DisplayComparison(w io.Writer, summaries []experiment.MethodSummary) {
	fmt.Fprintln(w, "METHOD COMPARISON")

	table := &MetricTable{Headers: []string{"SNR dB", "CV %", "RMS %", "Compliant", "Files"}}
	for _, s := range summaries {
		if s.Files == 0 {
			table.AddRow(s.Method.String(), nil, "", fmt.Sprintf("all %d files failed", s.Failures))
			continue
		}
		interpretation := ""
		if s.Failures > 0 {
			interpretation = fmt.Sprintf("%d failed", s.Failures)
		}
		table.AddRow(s.Method.String(), []string{
			formatMetricSigned(s.AvgSNRImprovement, 2),
			formatMetricSigned(s.AvgCVImprovement, 1),
			formatMetricSigned(s.AvgRMSImprovement, 1),
			formatPercent(s.ComplianceRate),
			fmt.Sprintf("%d", s.Files),
		}, "", interpretation)
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w)

	if best, ok := experiment.BestMethod(summaries); ok {
		fmt.Fprintf(w, "Recommended method: %s\n", best)
	} else {
		fmt.Fprintln(w, "No method processed any files")
	}
}

// DisplayRunSummary prints the headline outcome of a single-method run.
func DisplayRunSummary(w io.Writer, method processor.Method, s experiment.RunSummary) {
	fmt.Fprintf(w, "Processed %d file(s) with %s", s.Files, method)
	if s.Failures > 0 {
		fmt.Fprintf(w, ", %d failed", s.Failures)
	}
	fmt.Fprintln(w)
	if s.Files == 0 {
		return
	}
	fmt.Fprintf(w, "  SNR improved:    %d of %d (mean %s dB)\n", s.Improved, s.Files, formatMetricSigned(s.AvgSNRChange, 2))
	fmt.Fprintf(w, "  Compliant files: %d → %d\n", s.CompliantBefore, s.CompliantAfter)
}

// channelName returns a human-readable channel count
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}
