// Package report builds the anonymized, audio-free report over stored
// sessions and reads it back for ingest.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/elayon/psiq/internal/engine"
	"github.com/elayon/psiq/internal/store"
)

const (
	// Tool identifies the generator in every report header.
	Tool = "Elayon PSI-Q"

	// Note is the anonymization notice carried in the header.
	Note = "Anonymized report: no audio and no personal identification."
)

// Reviewer is the professional responsible for the report.
type Reviewer struct {
	Name         string `json:"name" yaml:"name"`
	CredentialID string `json:"credentialId" yaml:"credentialId"`
}

type Header struct {
	Tool        string    `json:"tool" yaml:"tool"`
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	Reviewer    Reviewer  `json:"reviewer" yaml:"reviewer"`
	Note        string    `json:"note,omitempty" yaml:"note,omitempty"`
}

// Aggregate holds cross-session means.
type Aggregate struct {
	SessionCount       int               `json:"sessionCount" yaml:"sessionCount"`
	AvgDurationSeconds float64           `json:"avgDurationSeconds" yaml:"avgDurationSeconds"`
	AvgFinalIndicators engine.Indicators `json:"avgFinalIndicators" yaml:"avgFinalIndicators"`
}

// Item is one session without its audio. Subject and location refs are
// opaque free text.
type Item struct {
	SessionID          string            `json:"sessionId" yaml:"sessionId"`
	CreatedAt          time.Time         `json:"createdAt" yaml:"createdAt"`
	DurationSeconds    int               `json:"durationSeconds" yaml:"durationSeconds"`
	SubjectRef         string            `json:"subjectRef" yaml:"subjectRef"`
	LocationRef        string            `json:"locationRef" yaml:"locationRef"`
	FinalIndicators    engine.Indicators `json:"finalIndicators" yaml:"finalIndicators"`
	AveragedIndicators engine.Indicators `json:"averagedIndicators" yaml:"averagedIndicators"`
	PeakIndicators     engine.Indicators `json:"peakIndicators" yaml:"peakIndicators"`
}

// Report is the anonymized interchange document. It is never persisted.
type Report struct {
	Header Header    `json:"header" yaml:"header"`
	Agg    Aggregate `json:"agg" yaml:"agg"`
	Items  []Item    `json:"items" yaml:"items"`
}

// Build assembles a report from sessions in the given order. now is the
// only non-deterministic input.
func Build(sessions []store.Session, reviewer Reviewer, now time.Time) *Report {
	items := make([]Item, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, Item{
			SessionID:          s.ID,
			CreatedAt:          s.CreatedAt.UTC(),
			DurationSeconds:    max(0, s.DurationSeconds),
			SubjectRef:         s.SubjectRef,
			LocationRef:        s.LocationRef,
			FinalIndicators:    s.FinalIndicators.Clamped(),
			AveragedIndicators: s.AveragedIndicators.Clamped(),
			PeakIndicators:     s.PeakIndicators.Clamped(),
		})
	}

	return &Report{
		Header: Header{
			Tool:        Tool,
			GeneratedAt: now.UTC(),
			Reviewer: Reviewer{
				Name:         strings.TrimSpace(reviewer.Name),
				CredentialID: strings.TrimSpace(reviewer.CredentialID),
			},
			Note: Note,
		},
		Agg:   Aggregates(items),
		Items: items,
	}
}

// Aggregates computes the count, mean duration and per-channel mean of
// the final indicators. An empty input yields zeros.
func Aggregates(items []Item) Aggregate {
	agg := Aggregate{SessionCount: len(items)}
	if len(items) == 0 {
		return agg
	}
	var dur float64
	for _, it := range items {
		dur += float64(it.DurationSeconds)
		for c, v := range it.FinalIndicators {
			agg.AvgFinalIndicators[c] += v
		}
	}
	n := float64(len(items))
	agg.AvgDurationSeconds = dur / n
	for c := range agg.AvgFinalIndicators {
		agg.AvgFinalIndicators[c] /= n
	}
	agg.AvgFinalIndicators = agg.AvgFinalIndicators.Clamped()
	return agg
}

// Format selects the document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatJSON, fmt.Errorf("unknown report format %q (want json or yaml)", s)
}

// FormatForPath picks the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// FileName is the default download name for a report generated at now.
func FileName(now time.Time, f Format) string {
	return fmt.Sprintf("psiq_report_anon_%d%s", now.UnixMilli(), f.Ext())
}
