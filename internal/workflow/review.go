package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/elayon/psiq/internal/capture"
	"github.com/elayon/psiq/internal/config"
	"github.com/elayon/psiq/internal/locale"
	"github.com/elayon/psiq/internal/logging"
	"github.com/elayon/psiq/internal/report"
	"github.com/elayon/psiq/internal/store"
)

// ErrConfirmationRequired is returned by a delete that was not confirmed.
var ErrConfirmationRequired = errors.New("refusing to delete without --yes")

// ReviewAction selects what a Review run does.
type ReviewAction int

const (
	ReviewList ReviewAction = iota
	ReviewShow
	ReviewNote
	ReviewDelete
	ReviewPlay
	ReviewExportAudio
	ReviewReport
	ReviewIdentity
)

// Review is the reviewer's view over persisted sessions.
type Review struct {
	Store  *store.Async
	Out    io.Writer
	Locale locale.Locale
	Logger *slog.Logger

	// Config and ConfigPath are needed by the report and identity actions.
	Config     *config.Root
	ConfigPath string

	Action ReviewAction
	ID     string
	Note   string
	Yes    bool

	// Path is the output file for export-audio and report; "" or "-"
	// writes a report to Out.
	Path   string
	Format report.Format

	Reviewer report.Reviewer // identity action

	Play func(ctx context.Context, wav []byte) error
	Now  func() time.Time
}

func (r *Review) Kind() Kind { return KindReview }

func (r *Review) Run(ctx context.Context) error {
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}
	switch r.Action {
	case ReviewList:
		return r.list(ctx)
	case ReviewShow:
		return r.show(ctx)
	case ReviewNote:
		return r.setNote(ctx)
	case ReviewDelete:
		return r.delete(ctx)
	case ReviewPlay:
		return r.play(ctx)
	case ReviewExportAudio:
		return r.exportAudio(ctx)
	case ReviewReport:
		return r.report(ctx)
	case ReviewIdentity:
		return r.identity()
	}
	return fmt.Errorf("unknown review action %d", r.Action)
}

func (r *Review) list(ctx context.Context) error {
	sessions, err := r.Store.All().Wait(ctx)
	if err != nil {
		return err
	}
	logging.DisplaySessionList(r.Out, sessions, r.Locale)
	return nil
}

func (r *Review) get(ctx context.Context) (*store.Session, error) {
	if r.ID == "" {
		return nil, errors.New("session id is required")
	}
	return r.Store.Get(r.ID).Wait(ctx)
}

func (r *Review) show(ctx context.Context) error {
	s, err := r.get(ctx)
	if err != nil {
		return err
	}
	logging.DisplaySession(r.Out, *s, r.Locale)
	return nil
}

func (r *Review) setNote(ctx context.Context) error {
	if r.ID == "" {
		return errors.New("session id is required")
	}
	if _, err := r.Store.SetNote(r.ID, r.Note).Wait(ctx); err != nil {
		return err
	}
	r.Logger.Info("note saved", "session", r.ID, "chars", len(r.Note))
	fmt.Fprintf(r.Out, "Note saved for session %s.\n", r.ID)
	return nil
}

func (r *Review) delete(ctx context.Context) error {
	if r.ID == "" {
		return errors.New("session id is required")
	}
	if !r.Yes {
		return ErrConfirmationRequired
	}
	if _, err := r.get(ctx); err != nil {
		return err
	}
	if _, err := r.Store.Delete(r.ID).Wait(ctx); err != nil {
		return err
	}
	r.Logger.Info("session deleted", "session", r.ID)
	fmt.Fprintf(r.Out, "Session %s deleted from this device.\n", r.ID)
	return nil
}

func (r *Review) play(ctx context.Context) error {
	s, err := r.get(ctx)
	if err != nil {
		return err
	}
	if len(s.Audio) == 0 {
		return fmt.Errorf("session %s has no audio", s.ID)
	}
	play := r.Play
	if play == nil {
		play = capture.Play
	}
	fmt.Fprintf(r.Out, "Playing session %s (%ds)...\n", s.ID, s.DurationSeconds)
	return play(ctx, s.Audio)
}

func (r *Review) exportAudio(ctx context.Context) error {
	s, err := r.get(ctx)
	if err != nil {
		return err
	}
	if len(s.Audio) == 0 {
		return fmt.Errorf("session %s has no audio", s.ID)
	}
	path := r.Path
	if path == "" {
		path = s.ID + ".wav"
	}
	if err := os.WriteFile(path, s.Audio, 0o600); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	fmt.Fprintf(r.Out, "Audio written to %s (%d bytes).\n", path, len(s.Audio))
	return nil
}

func (r *Review) report(ctx context.Context) error {
	sessions, err := r.Store.All().Wait(ctx)
	if err != nil {
		return err
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	var reviewer report.Reviewer
	if r.Config != nil {
		reviewer = report.Reviewer{Name: r.Config.Reviewer.Name, CredentialID: r.Config.Reviewer.CredentialID}
	}
	rep := report.Build(sessions, reviewer, now())

	if r.Path == "-" {
		return report.Encode(r.Out, rep, r.Format)
	}
	path := r.Path
	if path == "" {
		path = report.FileName(now(), r.Format)
	}
	data, err := report.Marshal(rep, r.Format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	r.Logger.Info("report written", "path", path, "sessions", rep.Agg.SessionCount)
	fmt.Fprintf(r.Out, "Anonymized report with %d session(s) written to %s.\n", rep.Agg.SessionCount, path)
	return nil
}

func (r *Review) identity() error {
	if r.Config == nil || r.ConfigPath == "" {
		return errors.New("no configuration file to store the identity in")
	}
	name := strings.TrimSpace(r.Reviewer.Name)
	cred := strings.TrimSpace(r.Reviewer.CredentialID)
	if name == "" && cred == "" {
		fmt.Fprintf(r.Out, "Name:       %s\nCredential: %s\n",
			orDash(r.Config.Reviewer.Name), orDash(r.Config.Reviewer.CredentialID))
		return nil
	}

	// Reload so environment overrides are not written back to the file.
	onDisk, err := config.Load(r.ConfigPath)
	if err != nil {
		return err
	}
	for _, c := range []*config.Root{onDisk, r.Config} {
		if name != "" {
			c.Reviewer.Name = name
		}
		if cred != "" {
			c.Reviewer.CredentialID = cred
		}
	}
	if err := config.Save(r.ConfigPath, onDisk); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "Reviewer identity saved to %s.\n", r.ConfigPath)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
