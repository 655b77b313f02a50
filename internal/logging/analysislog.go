package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elayon/psiq/internal/engine"
	"github.com/elayon/psiq/internal/session"
)

// LogData is everything the detailed analysis log needs.
type LogData struct {
	InputPath  string
	StartTime  time.Time
	EndTime    time.Time
	SampleRate int
	HumHz      float64
	Analysis   session.Analysis
}

// LogPath returns the log file written next to the input:
// interview.wav → interview-psiq.log
func LogPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "-psiq.log"
}

// GenerateAnalysisLog writes the detailed analysis log next to the input
// file and returns its path.
func GenerateAnalysisLog(data LogData) (string, error) {
	logPath := LogPath(data.InputPath)
	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	WriteAnalysisLog(f, data)
	return logPath, nil
}

// WriteAnalysisLog writes the log body to w.
func WriteAnalysisLog(w io.Writer, data LogData) {
	a := data.Analysis

	fmt.Fprintln(w, "PSI-Q Analysis Log")
	fmt.Fprintln(w, "==================")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(w, "Analysed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Duration: %s\n", formatDurationHMS(a.Duration.Seconds()))
	fmt.Fprintln(w)

	writeSection(w, "Processing Summary")
	fmt.Fprintf(w, "Sample rate:  %d Hz\n", data.SampleRate)
	if data.HumHz > 0 {
		fmt.Fprintf(w, "Hum notch:    %.0f Hz\n", data.HumHz)
	} else {
		fmt.Fprintln(w, "Hum notch:    disabled")
	}
	total := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:        %s", formatDurationHMS(total.Seconds()))
	if total > 0 && a.Duration > 0 {
		fmt.Fprintf(w, " (%.0fx real-time)", float64(a.Duration)/float64(total))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	writeSection(w, "Indicators")
	fmt.Fprint(w, IndicatorTable(a.Snapshot.Final, a.Snapshot.Averaged, a.Snapshot.Peak).String())
	fmt.Fprintln(w)

	writeSection(w, "Timeline (one row per second)")
	writeTimeline(w, a.Series)
}

// writeSection writes a section header with a dashed underline.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

func writeTimeline(w io.Writer, series []engine.Indicators) {
	if len(series) == 0 {
		fmt.Fprintln(w, "(no ticks)")
		return
	}
	perSecond := int(time.Second / engine.TickInterval)

	headers := make([]string, engine.ChannelCount)
	for c, name := range engine.ChannelNames {
		headers[c] = name[:3]
	}
	t := &MetricTable{Headers: headers}
	for i := perSecond - 1; i < len(series); i += perSecond {
		vals := make([]string, engine.ChannelCount)
		for c, v := range series[i] {
			vals[c] = formatPercent(v)
		}
		t.AddRow(fmt.Sprintf("%ds", (i+1)/perSecond), vals, "", "")
	}
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "(shorter than one second)")
		return
	}
	fmt.Fprint(w, t.String())
}
