package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/elayon/psiq/internal/capture"
	"github.com/elayon/psiq/internal/session"
	"github.com/elayon/psiq/internal/store"
	"github.com/elayon/psiq/internal/ui"
)

// Capture runs the interactive recording screen.
type Capture struct {
	Source      capture.Source
	Persister   session.Persister
	MaxDuration time.Duration
	HumHz       float64
	SubjectRef  string
	LocationRef string
	Logger      *slog.Logger

	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer
}

func (c *Capture) Kind() Kind { return KindCapture }

// Run blocks until the user quits. A recording still in progress at quit
// is stopped and saved.
func (c *Capture) Run(ctx context.Context) error {
	log := c.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var p *tea.Program
	rec := session.New(session.Options{
		Source:      c.Source,
		Persister:   c.Persister,
		MaxDuration: c.MaxDuration,
		HumHz:       c.HumHz,
		Logger:      log.With("component", "recorder"),
		OnTick: func(u session.Update) {
			p.Send(ui.TickMsg{Update: u})
		},
		OnStop: func(s store.Session, err error) {
			p.Send(ui.StoppedMsg{Session: s, Err: err})
		},
	})

	model := ui.NewCaptureModel(rec, c.SubjectRef, c.LocationRef, log.With("component", "ui"))
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if c.Input != nil {
		opts = append(opts, tea.WithInput(c.Input))
	}
	if c.Output != nil {
		opts = append(opts, tea.WithOutput(c.Output))
	}
	p = tea.NewProgram(model, opts...)

	_, runErr := p.Run()

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rec.Close(closeCtx); err != nil {
		log.Error("closing recorder", "err", err)
		return fmt.Errorf("close capture: %w", err)
	}
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal ui: %w", runErr)
	}
	return nil
}
