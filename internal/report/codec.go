package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/elayon/psiq/internal/engine"
	"gopkg.in/yaml.v3"
)

// ErrMalformedReport matches every *MalformedError.
var ErrMalformedReport = errors.New("malformed report")

// MalformedError describes why an ingested document is not a report.
type MalformedError struct {
	Field  string // dotted path, empty for the whole document
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Field == "" {
		return "malformed report: " + e.Reason
	}
	return fmt.Sprintf("malformed report: %s: %s", e.Field, e.Reason)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformedReport }

func (e *MalformedError) Unwrap() error { return e.Err }

// Encode writes r as indented JSON or YAML.
func Encode(w io.Writer, r *Report, f Format) error {
	if f == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// Marshal is Encode into a byte slice.
func Marshal(r *Report, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, r, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// The wire types use pointers and slices so absent fields and short
// vectors can be told apart from zeros.
type wireReport struct {
	Header *wireHeader `json:"header" yaml:"header"`
	Agg    *wireAgg    `json:"agg" yaml:"agg"`
	Items  []wireItem  `json:"items" yaml:"items"`
}

type wireHeader struct {
	Tool        string     `json:"tool" yaml:"tool"`
	GeneratedAt *time.Time `json:"generatedAt" yaml:"generatedAt"`
	Reviewer    Reviewer   `json:"reviewer" yaml:"reviewer"`
	Note        string     `json:"note" yaml:"note"`
}

type wireAgg struct {
	SessionCount       *int      `json:"sessionCount" yaml:"sessionCount"`
	AvgDurationSeconds *float64  `json:"avgDurationSeconds" yaml:"avgDurationSeconds"`
	AvgFinalIndicators []float64 `json:"avgFinalIndicators" yaml:"avgFinalIndicators"`
}

type wireItem struct {
	SessionID          string     `json:"sessionId" yaml:"sessionId"`
	CreatedAt          *time.Time `json:"createdAt" yaml:"createdAt"`
	DurationSeconds    int        `json:"durationSeconds" yaml:"durationSeconds"`
	SubjectRef         string     `json:"subjectRef" yaml:"subjectRef"`
	LocationRef        string     `json:"locationRef" yaml:"locationRef"`
	FinalIndicators    []float64  `json:"finalIndicators" yaml:"finalIndicators"`
	AveragedIndicators []float64  `json:"averagedIndicators" yaml:"averagedIndicators"`
	PeakIndicators     []float64  `json:"peakIndicators" yaml:"peakIndicators"`
}

func unmarshal(data []byte, v any, f Format) error {
	if f == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// Decode parses and validates a report document. Any shape violation is
// returned as a *MalformedError. A missing agg section is recomputed from
// the items.
func Decode(data []byte, f Format) (*Report, error) {
	var root any
	if err := unmarshal(data, &root, f); err != nil {
		return nil, &MalformedError{Reason: fmt.Sprintf("not valid %s", f), Err: err}
	}
	if _, ok := root.(map[string]any); !ok {
		return nil, &MalformedError{Reason: "document root must be an object"}
	}

	var w wireReport
	if err := unmarshal(data, &w, f); err != nil {
		return nil, &MalformedError{Reason: err.Error(), Err: err}
	}

	r := &Report{Items: make([]Item, 0, len(w.Items))}
	if h := w.Header; h != nil {
		r.Header = Header{Tool: h.Tool, Reviewer: h.Reviewer, Note: h.Note}
		if h.GeneratedAt != nil {
			r.Header.GeneratedAt = *h.GeneratedAt
		}
	}

	for i, wi := range w.Items {
		it, err := wi.item(fmt.Sprintf("items[%d]", i))
		if err != nil {
			return nil, err
		}
		r.Items = append(r.Items, it)
	}

	agg, err := w.Agg.aggregate(r.Items)
	if err != nil {
		return nil, err
	}
	r.Agg = agg
	return r, nil
}

func (wi wireItem) item(path string) (Item, error) {
	it := Item{
		SessionID:       wi.SessionID,
		DurationSeconds: wi.DurationSeconds,
		SubjectRef:      wi.SubjectRef,
		LocationRef:     wi.LocationRef,
	}
	if wi.SessionID == "" {
		return it, &MalformedError{Field: path + ".sessionId", Reason: "missing"}
	}
	if wi.DurationSeconds < 0 {
		return it, &MalformedError{Field: path + ".durationSeconds", Reason: "negative"}
	}
	if wi.CreatedAt != nil {
		it.CreatedAt = *wi.CreatedAt
	}

	var err error
	if it.FinalIndicators, err = vector(path+".finalIndicators", wi.FinalIndicators, true); err != nil {
		return it, err
	}
	if it.AveragedIndicators, err = vector(path+".averagedIndicators", wi.AveragedIndicators, false); err != nil {
		return it, err
	}
	if it.PeakIndicators, err = vector(path+".peakIndicators", wi.PeakIndicators, false); err != nil {
		return it, err
	}
	return it, nil
}

func (wa *wireAgg) aggregate(items []Item) (Aggregate, error) {
	computed := Aggregates(items)
	if wa == nil {
		return computed, nil
	}

	agg := computed
	if wa.SessionCount != nil {
		if *wa.SessionCount < 0 {
			return agg, &MalformedError{Field: "agg.sessionCount", Reason: "negative"}
		}
		agg.SessionCount = *wa.SessionCount
	}
	if wa.AvgDurationSeconds != nil {
		if d := *wa.AvgDurationSeconds; d < 0 || math.IsNaN(d) {
			return agg, &MalformedError{Field: "agg.avgDurationSeconds", Reason: "negative"}
		}
		agg.AvgDurationSeconds = *wa.AvgDurationSeconds
	}
	if len(wa.AvgFinalIndicators) > 0 {
		v, err := vector("agg.avgFinalIndicators", wa.AvgFinalIndicators, true)
		if err != nil {
			return agg, err
		}
		agg.AvgFinalIndicators = v
	}
	return agg, nil
}

func vector(field string, vals []float64, required bool) (engine.Indicators, error) {
	var v engine.Indicators
	if len(vals) == 0 && !required {
		return v, nil
	}
	if len(vals) != engine.ChannelCount {
		return v, &MalformedError{
			Field:  field,
			Reason: fmt.Sprintf("want %d values, got %d", engine.ChannelCount, len(vals)),
		}
	}
	for i, x := range vals {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return v, &MalformedError{
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Reason: fmt.Sprintf("%v outside [0,1]", x),
			}
		}
		v[i] = x
	}
	return v, nil
}
