package logging

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/elayon/psiq/internal/locale"
	"github.com/elayon/psiq/internal/report"
	"github.com/elayon/psiq/internal/session"
	"github.com/elayon/psiq/internal/store"
)

// highlightCount is how many channels a summary line names.
const highlightCount = 3

// DisplaySessionList prints one line per stored session, newest first.
func DisplaySessionList(w io.Writer, sessions []store.Session, loc locale.Locale) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions stored on this device.")
		return
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			loc.Format(s.CreatedAt),
			s.ID,
			fmt.Sprintf("%4ds", s.DurationSeconds),
			refs(s.SubjectRef, s.LocationRef))
		fmt.Fprintf(w, "    %s\n", HighlightLine(s.FinalIndicators, highlightCount))
	}
	fmt.Fprintf(w, "\n%d session(s)\n", len(sessions))
}

// DisplaySession prints a single session in full.
func DisplaySession(w io.Writer, s store.Session, loc locale.Locale) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "SESSION: %s\n", s.ID)
	fmt.Fprintln(w, strings.Repeat("=", 70))

	fmt.Fprintf(w, "Created:   %s\n", loc.Format(s.CreatedAt))
	fmt.Fprintf(w, "Duration:  %s\n", formatDurationHMS(float64(s.DurationSeconds)))
	fmt.Fprintf(w, "Subject:   %s\n", orDash(s.SubjectRef))
	fmt.Fprintf(w, "Location:  %s\n", orDash(s.LocationRef))
	if len(s.Audio) > 0 {
		fmt.Fprintf(w, "Audio:     %s, %d bytes\n", s.AudioType, len(s.Audio))
	} else {
		fmt.Fprintln(w, "Audio:     none")
	}
	fmt.Fprintln(w)

	writeAnalysisSection(w, "INDICATORS")
	fmt.Fprint(w, IndicatorTable(s.FinalIndicators, s.AveragedIndicators, s.PeakIndicators).String())
	fmt.Fprintln(w)

	writeAnalysisSection(w, "HIGHLIGHTS")
	fmt.Fprintf(w, "  %s\n", HighlightLine(s.FinalIndicators, highlightCount))

	if s.Note != "" {
		fmt.Fprintln(w)
		writeAnalysisSection(w, "NOTE")
		for _, line := range strings.Split(s.Note, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// DisplayReport prints the summary and one card per item of an ingested
// report.
func DisplayReport(w io.Writer, r *report.Report, loc locale.Locale) {
	generated := MissingValue
	if !r.Header.GeneratedAt.IsZero() {
		generated = loc.Format(r.Header.GeneratedAt)
	}
	fmt.Fprintf(w, "Report:           %s\n", orDash(r.Header.Tool))
	fmt.Fprintf(w, "Generated:        %s\n", generated)
	if rv := r.Header.Reviewer; rv.Name != "" || rv.CredentialID != "" {
		fmt.Fprintf(w, "Reviewer:         %s (%s)\n", orDash(rv.Name), orDash(rv.CredentialID))
	}
	fmt.Fprintf(w, "Sessions:         %d\n", r.Agg.SessionCount)
	fmt.Fprintf(w, "Average duration: %ss\n", formatMetric(r.Agg.AvgDurationSeconds, 1))
	if r.Agg.SessionCount > 0 {
		fmt.Fprintf(w, "Average profile:  %s\n", HighlightLine(r.Agg.AvgFinalIndicators, highlightCount))
	}
	fmt.Fprintln(w)

	if len(r.Items) == 0 {
		fmt.Fprintln(w, "No sessions in this report.")
		return
	}
	for _, it := range r.Items {
		fmt.Fprintln(w, strings.Repeat("-", 70))
		fmt.Fprintf(w, "%s  %s  %ds\n", loc.Format(it.CreatedAt), refs(it.SubjectRef, it.LocationRef), it.DurationSeconds)
		fmt.Fprintf(w, "Session %s\n", it.SessionID)
		fmt.Fprintf(w, "Highlights: %s\n", HighlightLine(it.FinalIndicators, highlightCount))
	}
}

// DisplayAnalysis prints the offline analysis of an audio file.
func DisplayAnalysis(w io.Writer, inputPath string, sampleRate int, a session.Analysis) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "ANALYSIS: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(a.Duration.Seconds()))
	fmt.Fprintf(w, "Sample Rate: %d Hz\n", sampleRate)
	fmt.Fprintf(w, "Ticks:       %d (%d active, %s%%)\n", a.Snapshot.Ticks, a.ActiveTicks, formatPercent(activeRatio(a)))
	fmt.Fprintln(w)

	writeAnalysisSection(w, "DETECTOR")
	fmt.Fprintf(w, "  Noise Floor:    %s\n", formatMetric(a.Snapshot.NoiseFloor, 4))
	fmt.Fprintf(w, "  Loudness:       %s\n", formatMetric(a.Snapshot.Loudness, 4))
	fmt.Fprintf(w, "  Stability:      %s\n", formatMetric(a.Snapshot.Stability, 3))
	fmt.Fprintf(w, "  Continuity:     %ss\n", formatMetric(a.Snapshot.Continuity, 1))
	fmt.Fprintln(w)

	writeAnalysisSection(w, "INDICATORS")
	fmt.Fprint(w, IndicatorTable(a.Snapshot.Final, a.Snapshot.Averaged, a.Snapshot.Peak).String())
	fmt.Fprintln(w)

	tips := GenerateRecordingTips(TipInput{Duration: a.Duration, Snapshot: a.Snapshot, ActiveRatio: activeRatio(a)})
	if len(tips) > 0 {
		writeAnalysisSection(w, "RECORDING TIPS")
		for _, tip := range tips {
			fmt.Fprintf(w, "  • %s\n", tip.Message)
		}
	}
}

func activeRatio(a session.Analysis) float64 {
	if a.Snapshot.Ticks == 0 {
		return 0
	}
	return float64(a.ActiveTicks) / float64(a.Snapshot.Ticks)
}

// writeAnalysisSection writes a section header for console output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

func refs(subject, location string) string {
	if subject == "" {
		subject = "RT"
	}
	if location == "" {
		location = "Location"
	}
	return subject + " • " + location
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return MissingValue
	}
	return s
}

// formatDurationHMS formats seconds as "Xh Ym Zs", "Ym Zs" or "Z.Xs".
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

// FormatClock formats an elapsed duration as mm:ss.
func FormatClock(d time.Duration) string {
	total := int(math.Max(0, d.Seconds()))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
