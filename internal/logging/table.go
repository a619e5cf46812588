// Package logging renders per-file quality reports and console summaries.
// This file contains the table formatting used to compare original and
// processed measurements side by side (Original → Processed → Change).

package logging

import (
	"fmt"
	"math"
	"strings"

	"github.com/linuxmatters/denoisebench/internal/processor"
)

// MetricRow represents a single row in a comparison table.
// Values are pre-formatted strings so rows can mix precisions.
type MetricRow struct {
	Label          string   // Row label, e.g., "RMS Level"
	Values         []string // One value per column
	Unit           string   // Unit suffix, e.g., "dBFS", "" for unitless
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// MetricTable formats aligned columns for metric comparison.
type MetricTable struct {
	Headers []string    // Column headers, e.g., ["Original", "Processed", "Change"]
	Rows    []MetricRow // Data rows
}

// String renders the table with aligned columns.
// - Labels are left-aligned
// - Values are right-aligned within their column
// - Units follow the last value column
// - The interpretation column only appears if a row has one
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	hasInterpretation := false
	for _, row := range t.Rows {
		if row.Interpretation != "" {
			hasInterpretation = true
			break
		}
	}

	labelWidth := 0
	for _, row := range t.Rows {
		labelWidth = max(labelWidth, len(row.Label))
	}

	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) {
				valueWidths[i] = max(valueWidths[i], len(val))
			}
		}
	}

	unitWidth := 0
	for _, row := range t.Rows {
		unitWidth = max(unitWidth, len(row.Unit))
	}

	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		fmt.Fprintf(&sb, "%*s  ", valueWidths[i], header)
	}
	if unitWidth > 0 {
		sb.WriteString(strings.Repeat(" ", unitWidth+1))
	}
	if hasInterpretation {
		sb.WriteString("Interpretation")
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		fmt.Fprintf(&sb, "%-*s  ", labelWidth, row.Label)

		for i := range t.Headers {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			fmt.Fprintf(&sb, "%*s  ", valueWidths[i], val)
		}

		if unitWidth > 0 {
			fmt.Fprintf(&sb, "%-*s ", unitWidth, row.Unit)
		}
		if hasInterpretation {
			sb.WriteString(row.Interpretation)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// =============================================================================
// Metric Formatting Helpers
// =============================================================================

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// SilentValue is shown for levels pinned at the processor's silence floor
const SilentValue = "silent"

// formatMetric formats a numeric value with the given precision.
// Very small non-zero values use scientific notation; NaN and Inf are missing.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricDB formats a dB level, showing SilentValue at the silence floor.
func formatMetricDB(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 1) {
		return MissingValue
	}
	if math.IsInf(value, -1) || value <= processor.SilenceDB {
		return SilentValue
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricSigned formats a value with an explicit sign, e.g. "+2.5" or "-1.2".
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%+.*f", decimals, value)
}

// formatPercent formats a fraction in [0, 1] as a percentage
func formatPercent(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// =============================================================================
// Table Builder Helpers
// =============================================================================

// NewMetricTable creates a table with Original/Processed/Change headers.
func NewMetricTable() *MetricTable {
	return &MetricTable{
		Headers: []string{"Original", "Processed", "Change"},
		Rows:    make([]MetricRow, 0),
	}
}

// AddRow adds a row to the table with pre-formatted values.
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         values,
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddMetricRow adds a row comparing two numeric values; the change column is
// processed minus original. Pass math.NaN() for missing values.
func (t *MetricTable) AddMetricRow(label string, original, processed float64, decimals int, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label: label,
		Values: []string{
			formatMetric(original, decimals),
			formatMetric(processed, decimals),
			formatMetricSigned(processed-original, decimals),
		},
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddLevelRow is AddMetricRow for dB levels that may sit at the silence floor.
func (t *MetricTable) AddLevelRow(label string, original, processed float64, unit string, interpretation string) {
	change := MissingValue
	if original > processor.SilenceDB && processed > processor.SilenceDB {
		change = formatMetricSigned(processed-original, 1)
	}
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         []string{formatMetricDB(original, 1), formatMetricDB(processed, 1), change},
		Unit:           unit,
		Interpretation: interpretation,
	})
}
