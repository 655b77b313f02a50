// Package logging renders indicator tables, session listings and
// analysis logs, and opens the structured debug log.
// This file contains the aligned multi-column table used for indicator
// comparisons (Final → Average → Peak).

package logging

import (
	"fmt"
	"math"
	"strings"

	"github.com/elayon/psiq/internal/engine"
)

// MetricRow represents a single row in a comparison table.
// Values are pre-formatted strings so rows can mix percentages and plain numbers.
type MetricRow struct {
	Label          string   // Row label, e.g., "Energy"
	Values         []string // One value per column
	Unit           string   // Unit suffix, e.g., "%", "s", "" for unitless
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// MetricTable formats aligned columns for metric comparison.
// Handles variable column widths, missing values, and an optional interpretation column.
type MetricTable struct {
	Headers []string
	Rows    []MetricRow
}

// String renders the table with aligned columns.
// - Labels are left-aligned
// - Values are right-aligned within their column
// - Units follow the last value column
// - Interpretation column only shown if any row has one
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
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
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

// MissingValue is the placeholder for unavailable values
const MissingValue = "-"

// formatMetric formats a numeric value with the given precision.
// NaN and Inf display as MissingValue; very small non-zero values use
// scientific notation.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatPercent shows a [0,1] indicator as a whole percentage.
func formatPercent(value float64) string {
	if math.IsNaN(value) {
		return MissingValue
	}
	return fmt.Sprintf("%d", int(math.Round(value*100)))
}

// =============================================================================
// Table Builder Helpers
// =============================================================================

// NewIndicatorTable creates a table with Final/Average/Peak headers.
func NewIndicatorTable() *MetricTable {
	return &MetricTable{
		Headers: []string{"Final", "Average", "Peak"},
		Rows:    make([]MetricRow, 0, engine.ChannelCount),
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

// AddIndicatorRow adds one channel as percentages.
func (t *MetricTable) AddIndicatorRow(label string, final, avg, peak float64, interpretation string) {
	t.AddRow(label, []string{formatPercent(final), formatPercent(avg), formatPercent(peak)}, "%", interpretation)
}

// IndicatorTable builds the full eight-channel comparison.
func IndicatorTable(final, avg, peak engine.Indicators) *MetricTable {
	t := NewIndicatorTable()
	for c, name := range engine.ChannelNames {
		t.AddIndicatorRow(name, final[c], avg[c], peak[c], interpretLevel(final[c]))
	}
	return t
}

// interpretLevel describes a final indicator value.
func interpretLevel(v float64) string {
	switch {
	case v < 0.15:
		return "minimal"
	case v < 0.40:
		return "low"
	case v < 0.65:
		return "moderate"
	case v < 0.85:
		return "high"
	default:
		return "very high"
	}
}
