package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/denoisebench/internal/experiment"
	"github.com/linuxmatters/denoisebench/internal/processor"
)

// writeSection writes a section header with title and dashed underline.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains everything needed to write a quality report
type ReportData struct {
	InputPath  string
	OutputPath string
	RunID      string
	Method     processor.Method
	EndTime    time.Time

	DecodeTime   time.Duration
	DenoiseTime  time.Duration
	EvaluateTime time.Duration

	SampleRate   int
	DurationSecs float64

	Standard           processor.Standard
	Original           processor.QualityMetrics
	Processed          processor.QualityMetrics
	OriginalCompliant  bool
	ProcessedCompliant bool

	// Hum measurements; MainsHz is 0 when hum was not measured
	OriginalHum  processor.HumMeasurement
	ProcessedHum processor.HumMeasurement
}

// NewReportData collects report fields from an analysed pair
func NewReportData(r experiment.PairResult, standard processor.Standard) ReportData {
	return ReportData{
		InputPath:          r.Path,
		OutputPath:         r.ProcessedPath,
		RunID:              r.RunID,
		Method:             r.Method,
		EndTime:            time.Now(),
		DecodeTime:         r.DecodeTime,
		DenoiseTime:        r.DenoiseTime,
		EvaluateTime:       r.EvaluateTime,
		SampleRate:         r.SampleRate,
		DurationSecs:       r.Duration,
		Standard:           standard,
		Original:           r.Original,
		Processed:          r.Processed,
		OriginalCompliant:  r.OriginalCompliant,
		ProcessedCompliant: r.ProcessedCompliant,
		OriginalHum:        r.OriginalHum,
		ProcessedHum:       r.ProcessedHum,
	}
}

// ReportPath returns where GenerateReport writes the report for outputPath:
// processed_voice.wav → processed_voice.log
func ReportPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".log"
}

// GenerateReport writes a quality report alongside the processed file and
// returns its path.
//
// Report structure:
// 1. Header - file info, method and run ID
// 2. Processing Summary - stage timings
// 3. Compliance - each criterion against the standard
// 4. Quality Metrics - Original/Processed/Change table
// 5. Mains Hum - hum energy share before and after
// 6. Advice - prioritised tips for the processed audio
func GenerateReport(data ReportData) (string, error) {
	logPath := ReportPath(data.OutputPath)

	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return logPath, f.Close()
}

// WriteReport renders the report to w
func WriteReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)
	writeComplianceTable(w, data)
	writeQualityTable(w, data)
	writeHumSection(w, data)
	writeAdvice(w, data)
}

func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Denoisebench Quality Report")
	fmt.Fprintln(w, "===========================")
	fmt.Fprintf(w, "File:      %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(w, "Output:    %s\n", filepath.Base(data.OutputPath))
	fmt.Fprintf(w, "Method:    %s\n", data.Method)
	if data.RunID != "" {
		fmt.Fprintf(w, "Run ID:    %s\n", data.RunID)
	}
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Duration:  %s at %d Hz\n", formatDurationHMS(data.DurationSecs), data.SampleRate)
	fmt.Fprintln(w, "")
}

// writeProcessingSummary outputs the per-stage timings.
func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	total := data.DecodeTime + data.DenoiseTime + data.EvaluateTime
	fmt.Fprintf(w, "Decode:    %s\n", formatDuration(data.DecodeTime))
	fmt.Fprintf(w, "Denoise:   %s\n", formatDuration(data.DenoiseTime))
	fmt.Fprintf(w, "Evaluate:  %s\n", formatDuration(data.EvaluateTime))
	fmt.Fprintf(w, "Total:     %s", formatDuration(total))
	if data.DurationSecs > 0 && total > 0 {
		audioDuration := time.Duration(data.DurationSecs * float64(time.Second))
		fmt.Fprintf(w, " (%.0fx real-time)", float64(audioDuration)/float64(total))
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

// writeComplianceTable lists every criterion with its limit and both verdicts.
func writeComplianceTable(w io.Writer, data ReportData) {
	writeSection(w, "Compliance")

	before := data.Standard.Criteria(data.Original)
	after := data.Standard.Criteria(data.Processed)

	table := &MetricTable{Headers: []string{"Limit", "Original", "Processed"}}
	for i, c := range after {
		op := "<="
		if c.AtLeast {
			op = ">="
		}
		table.AddRow(c.Label, []string{
			op + " " + formatMetric(c.Limit, 2),
			formatMetric(before[i].Value, 2),
			formatMetric(c.Value, 2),
		}, "", verdictChange(before[i].Satisfied, c.Satisfied))
	}
	fmt.Fprint(w, table.String())

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Overall: %s\n", verdictChange(data.OriginalCompliant, data.ProcessedCompliant))
	fmt.Fprintln(w, "")
}

func writeQualityTable(w io.Writer, data ReportData) {
	writeSection(w, "Quality Metrics")

	o, p := data.Original, data.Processed
	table := NewMetricTable()
	table.AddLevelRow("RMS Level", o.RMSDB, p.RMSDB, "dBFS", "")
	table.AddLevelRow("Peak Level", o.PeakDB, p.PeakDB, "dBFS", "")
	table.AddMetricRow("Volume Stability (CV)", o.CV, p.CV, 3, "", interpretCV(p.CV))
	table.AddMetricRow("Signal-to-Noise", o.SNRDB, p.SNRDB, 1, "dB", interpretSNR(p.SNRDB))
	table.AddRow("Non-Speech Ratio", []string{
		formatPercent(o.NonSpeechRatio),
		formatPercent(p.NonSpeechRatio),
		formatMetricSigned((p.NonSpeechRatio-o.NonSpeechRatio)*100, 1),
	}, "%", "")
	table.AddMetricRow("Longest Silence", o.MaxSilenceSeconds, p.MaxSilenceSeconds, 2, "s", "")
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writeHumSection(w io.Writer, data ReportData) {
	if data.OriginalHum.MainsHz == 0 {
		return
	}
	writeSection(w, fmt.Sprintf("Mains Hum (%.0f Hz)", data.OriginalHum.MainsHz))

	table := &MetricTable{Headers: []string{"Original", "Processed"}}
	table.AddRow("Energy share", []string{
		formatPercent(data.OriginalHum.EnergyRatio),
		formatPercent(data.ProcessedHum.EnergyRatio),
	}, "", "")
	table.AddRow("Hum level", []string{
		formatMetricDB(data.OriginalHum.LevelDB(), 1),
		formatMetricDB(data.ProcessedHum.LevelDB(), 1),
	}, "dB", "")
	fmt.Fprint(w, table.String())
	fmt.Fprintf(w, "Resolution: %.1f Hz per bin\n", data.OriginalHum.BinWidthHz)
	fmt.Fprintln(w, "")
}

func writeAdvice(w io.Writer, data ReportData) {
	var hum *processor.HumMeasurement
	if data.ProcessedHum.MainsHz != 0 {
		hum = &data.ProcessedHum
	}
	tips := GenerateQualityTips(data.Processed, data.Standard, hum)

	writeSection(w, "Advice")
	if len(tips) == 0 {
		fmt.Fprintln(w, "No issues found - the processed audio meets the standard.")
		return
	}
	for i, tip := range tips {
		fmt.Fprintf(w, "%d. %s\n", i+1, wrapText(tip.Message, 72, "   "))
	}
}

// verdictChange describes a compliance transition, e.g. "fail → pass"
func verdictChange(before, after bool) string {
	return verdict(before) + " → " + verdict(after)
}

func verdict(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

// interpretSNR describes an SNR estimate in broadcast terms
func interpretSNR(db float64) string {
	switch {
	case db >= processor.NoNoiseSNR:
		return "no measurable noise"
	case db >= 30:
		return "clean"
	case db >= 20:
		return "acceptable"
	case db >= 10:
		return "noisy"
	default:
		return "very noisy"
	}
}

// interpretCV describes loudness stability
func interpretCV(cv float64) string {
	switch {
	case cv <= 0.3:
		return "steady"
	case cv <= 0.5:
		return "natural variation"
	case cv < processor.MaxInstability:
		return "uneven"
	default:
		return "highly erratic"
	}
}

// formatDuration formats a processing time, e.g. "850ms", "12.3s" or "2m 5s"
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", minutes/60, minutes%60, seconds)
}

// formatDurationHMS formats seconds of audio as "Xh Ym Zs", "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
