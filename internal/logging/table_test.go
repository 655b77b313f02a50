package logging

import (
	"math"
	"strings"
	"testing"

	"github.com/elayon/psiq/internal/engine"
)

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     string
	}{
		{"zero", 0.0, 2, "0.00"},
		{"positive", 3.14159, 2, "3.14"},
		{"negative", -16.5, 1, "-16.5"},
		{"very_small_scientific", 0.00001, 2, "1.00e-05"},
		{"nan", math.NaN(), 2, MissingValue},
		{"positive_inf", math.Inf(1), 2, MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetric(tt.value, tt.decimals)
			if got != tt.want {
				t.Errorf("formatMetric(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "0"},
		{0.555, "56"},
		{1, "100"},
		{math.NaN(), MissingValue},
	}
	for _, tt := range tests {
		if got := formatPercent(tt.value); got != tt.want {
			t.Errorf("formatPercent(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestMetricTableString(t *testing.T) {
	t.Run("indicator_rows", func(t *testing.T) {
		table := NewIndicatorTable()
		table.AddIndicatorRow("Energy", 0.72, 0.5, 0.9, "")
		table.AddIndicatorRow("Focus", 0.3, 0.25, 0.41, "")

		output := table.String()
		for _, want := range []string{"Final", "Average", "Peak", "Energy", "72", "90", "%"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("with_interpretation", func(t *testing.T) {
		table := NewIndicatorTable()
		table.AddIndicatorRow("Clarity", 0.5, 0.5, 0.5, "moderate")

		output := table.String()
		if !strings.Contains(output, "Interpretation") || !strings.Contains(output, "moderate") {
			t.Errorf("interpretation column missing:\n%s", output)
		}
	})

	t.Run("missing_values", func(t *testing.T) {
		table := NewIndicatorTable()
		table.AddRow("Test", []string{"10", ""}, "%", "")

		if !strings.Contains(table.String(), " -  ") {
			t.Error("missing values should display as dash")
		}
	})

	t.Run("empty_table", func(t *testing.T) {
		if out := NewIndicatorTable().String(); out != "" {
			t.Errorf("empty table should return empty string, got %q", out)
		}
	})
}

func TestMetricTableAlignment(t *testing.T) {
	table := &MetricTable{Headers: []string{"A", "B"}}
	table.AddRow("Short", []string{"1", "2"}, "", "")
	table.AddRow("Much Longer Label", []string{"100", "200"}, "", "")

	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if len(lines[1]) != len(lines[2]) {
		t.Errorf("rows not aligned:\n%q\n%q", lines[1], lines[2])
	}
}

func TestIndicatorTable(t *testing.T) {
	final := engine.Indicators{0.05, 0.3, 0.5, 0.7, 0.9, 0, 0, 0}
	table := IndicatorTable(final, final, final)
	if len(table.Rows) != engine.ChannelCount {
		t.Fatalf("rows = %d, want %d", len(table.Rows), engine.ChannelCount)
	}
	wantInterp := []string{"minimal", "low", "moderate", "high", "very high"}
	for i, want := range wantInterp {
		if table.Rows[i].Interpretation != want {
			t.Errorf("%s interpretation = %q, want %q", table.Rows[i].Label, table.Rows[i].Interpretation, want)
		}
	}
	if table.Rows[engine.Steadiness].Label != "Stability" {
		t.Errorf("last row = %q", table.Rows[engine.Steadiness].Label)
	}
}
