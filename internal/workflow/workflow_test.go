package workflow

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elayon/psiq/internal/capture"
	"github.com/elayon/psiq/internal/config"
	"github.com/elayon/psiq/internal/engine"
	"github.com/elayon/psiq/internal/locale"
	"github.com/elayon/psiq/internal/report"
	"github.com/elayon/psiq/internal/store"
)

var utc = locale.ForTimezone("UTC")

func TestKinds(t *testing.T) {
	tests := []struct {
		w    Workflow
		want Kind
	}{
		{&Capture{}, KindCapture},
		{&Review{}, KindReview},
		{&Ingest{}, KindReportIngest},
		{&Analyse{}, KindAnalyse},
	}
	for _, tt := range tests {
		if got := tt.w.Kind(); got != tt.want {
			t.Errorf("%T.Kind() = %v, want %v", tt.w, got, tt.want)
		}
		parsed, err := ParseKind(tt.want.String())
		if err != nil || parsed != tt.want {
			t.Errorf("ParseKind(%q) = %v, %v", tt.want.String(), parsed, err)
		}
	}
	if k, err := ParseKind("Analyze"); err != nil || k != KindAnalyse {
		t.Errorf("ParseKind(Analyze) = %v, %v", k, err)
	}
	if _, err := ParseKind("secretary"); err == nil {
		t.Error("expected error for unknown workflow")
	}
}

func seededStore(t *testing.T) *store.Async {
	t.Helper()
	mem := store.NewMemory()
	wav, err := capture.EncodeWAV([]int{0, 100, -100, 0}, 8000)
	if err != nil {
		t.Fatal(err)
	}
	sessions := []store.Session{
		{
			ID:              "old",
			CreatedAt:       time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
			DurationSeconds: 10,
			FinalIndicators: engine.Indicators{1, 0, 0, 0, 0, 0, 0, 0},
			Audio:           wav,
			AudioType:       capture.MediaTypeWAV,
		},
		{
			ID:              "new",
			CreatedAt:       time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
			SubjectRef:      "RT-9",
			DurationSeconds: 20,
			FinalIndicators: engine.Indicators{0, 1, 0, 0, 0, 0, 0, 0},
		},
	}
	for _, s := range sessions {
		if err := mem.Put(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}
	return store.NewAsync(mem)
}

func newReview(t *testing.T, action ReviewAction) (*Review, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := config.Default()
	cfg.Reviewer = config.Reviewer{Name: "Ana", CredentialID: "06/123"}
	return &Review{
		Store:      seededStore(t),
		Out:        &out,
		Locale:     utc,
		Config:     &cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Action:     action,
		Now:        func() time.Time { return time.UnixMilli(1735722000000) },
	}, &out
}

func TestReviewList(t *testing.T) {
	r, out := newReview(t, ReviewList)
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if strings.Index(got, "new") > strings.Index(got, "old") {
		t.Errorf("sessions not newest first:\n%s", got)
	}
	if !strings.Contains(got, "2 session(s)") {
		t.Errorf("missing count:\n%s", got)
	}
}

func TestReviewShowMissing(t *testing.T) {
	r, _ := newReview(t, ReviewShow)
	r.ID = "nope"
	if err := r.Run(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestReviewNote(t *testing.T) {
	r, _ := newReview(t, ReviewNote)
	r.ID, r.Note = "old", "calm voice"
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	s, err := r.Store.Get("old").Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Note != "calm voice" {
		t.Errorf("note = %q", s.Note)
	}
}

func TestReviewDelete(t *testing.T) {
	r, _ := newReview(t, ReviewDelete)
	r.ID = "old"
	if err := r.Run(context.Background()); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("unconfirmed delete error = %v", err)
	}

	r.Yes = true
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Store.Get("old").Wait(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("session still present: %v", err)
	}
}

func TestReviewPlayAndExport(t *testing.T) {
	r, _ := newReview(t, ReviewPlay)
	r.ID = "old"
	var played []byte
	r.Play = func(_ context.Context, wav []byte) error {
		played = wav
		return nil
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(played, []byte("RIFF")) {
		t.Error("player did not receive the WAV payload")
	}

	r.ID = "new"
	if err := r.Run(context.Background()); err == nil {
		t.Error("expected error playing a session without audio")
	}

	r.Action = ReviewExportAudio
	r.ID = "old"
	r.Path = filepath.Join(t.TempDir(), "old.wav")
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(r.Path)
	if err != nil || !bytes.Equal(data, played) {
		t.Errorf("exported audio mismatch: %v", err)
	}
}

func TestReviewReport(t *testing.T) {
	r, out := newReview(t, ReviewReport)
	r.Path = "-"
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	rep, err := report.Decode(out.Bytes(), report.FormatJSON)
	if err != nil {
		t.Fatalf("decode own report: %v\n%s", err, out.String())
	}
	if rep.Agg.SessionCount != 2 || rep.Agg.AvgDurationSeconds != 15 {
		t.Errorf("agg = %+v", rep.Agg)
	}
	if rep.Header.Reviewer.Name != "Ana" {
		t.Errorf("reviewer = %+v", rep.Header.Reviewer)
	}

	dir := t.TempDir()
	r.Path = filepath.Join(dir, "r.yaml")
	r.Format = report.FormatYAML
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := report.Decode(data, report.FormatYAML); err != nil {
		t.Errorf("yaml report invalid: %v", err)
	}
}

func TestReviewIdentity(t *testing.T) {
	r, out := newReview(t, ReviewIdentity)
	r.Config.Storage.Path = "/from/env.sqlite"
	r.Reviewer = report.Reviewer{Name: " Bea ", CredentialID: "07/9"}
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	saved, err := config.Load(r.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Reviewer.Name != "Bea" || saved.Reviewer.CredentialID != "07/9" {
		t.Errorf("saved reviewer = %+v", saved.Reviewer)
	}
	if saved.Storage.Path == "/from/env.sqlite" {
		t.Error("runtime override leaked into the config file")
	}
	if r.Config.Reviewer.Name != "Bea" {
		t.Errorf("in-memory reviewer = %+v", r.Config.Reviewer)
	}

	out.Reset()
	r.Reviewer = report.Reviewer{}
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Bea") {
		t.Errorf("identity not shown:\n%s", out.String())
	}
}

func TestIngest(t *testing.T) {
	rep := report.Build([]store.Session{{ID: "s1", DurationSeconds: 30, FinalIndicators: engine.Indicators{0.2, 0.8}}},
		report.Reviewer{Name: "Ana"}, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	data, err := report.Marshal(rep, report.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		in        string
		wantErr   bool
		wantInOut string
	}{
		{"valid", string(data), false, "Highlights: Constancy 80%"},
		{"empty report", `{"items": []}`, false, "No sessions in this report."},
		{"malformed", `{"items": [{"sessionId": "x", "finalIndicators": [1]}]}`, true, ""},
		{"not json", `hello`, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			in := &Ingest{Path: "-", In: strings.NewReader(tt.in), Out: &out, Locale: utc}
			err := in.Run(context.Background())
			if tt.wantErr {
				if !errors.Is(err, report.ErrMalformedReport) {
					t.Errorf("error = %v, want ErrMalformedReport", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), tt.wantInOut) {
				t.Errorf("output missing %q:\n%s", tt.wantInOut, out.String())
			}
		})
	}
}

func TestAnalyse(t *testing.T) {
	samples := make([]int, 8000*3)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 12000
		} else {
			samples[i] = -12000
		}
	}
	wav, err := capture.EncodeWAV(samples, 8000)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, wav, 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	a := &Analyse{Path: path, HumHz: 50, BlockSize: 256, WriteLog: true, Out: &out}
	if err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ANALYSIS: take.wav", "8000 Hz", "Ticks:       15", "Log written to"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "take-psiq.log")); err != nil {
		t.Errorf("log file: %v", err)
	}

	missing := &Analyse{Path: filepath.Join(t.TempDir(), "none.wav"), Out: &out}
	if err := missing.Run(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
