// Package ui provides the Bubbletea terminal user interface for a capture session
package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/elayon/psiq/internal/engine"
	"github.com/elayon/psiq/internal/session"
	"github.com/elayon/psiq/internal/store"
)

// Controller is the recorder as seen by the UI. *session.Recorder
// implements it.
type Controller interface {
	MicOn() error
	MicOff() error
	Start(subjectRef, locationRef string) (string, error)
	Stop(ctx context.Context) (*store.Session, error)
	Reset() error
	MaxDuration() time.Duration
}

// Hints shown under the bars
const (
	hintWelcome   = "Read the guidelines, turn the microphone on and start listening."
	hintMicOn     = "Microphone on. Press r when you are ready to start."
	hintMicOff    = "Microphone off."
	hintMicFailed = "Could not open the microphone. Check the device and permissions."
	hintRecording = "Listening. You can finish before the time limit with s."
	hintNeedMic   = "Turn the microphone on first (m)."
	hintBusy      = "Stop the recording first (s)."
	hintSaving    = "Saving session..."
	hintSaved     = "Session saved. The reviewer can now listen to it."
	hintLost      = "The session could not be saved and may be lost."
	hintCleared   = "Fields cleared. Ready for a new session."
	hintNew       = "Ready. Turn the microphone on and start a new session when you like."
)

// CaptureModel is the Bubbletea model for a capture session
type CaptureModel struct {
	ctrl Controller
	log  *slog.Logger

	SubjectRef  string
	LocationRef string

	MicOn     bool
	Recording bool
	Saving    bool
	SessionID string

	Indicators engine.Indicators
	Elapsed    time.Duration
	Hint       string
	EndMessage string
	LastErr    error

	// Terminal dimensions
	Width  int
	Height int
}

// NewCaptureModel creates the capture UI for ctrl
func NewCaptureModel(ctrl Controller, subjectRef, locationRef string, log *slog.Logger) CaptureModel {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return CaptureModel{
		ctrl:        ctrl,
		log:         log,
		SubjectRef:  subjectRef,
		LocationRef: locationRef,
		Hint:        hintWelcome,
	}
}

// Init initializes the model
func (m CaptureModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m CaptureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case TickMsg:
		m.Indicators = msg.Update.Snapshot.Final
		if msg.Update.State == session.StateRecording {
			m.Elapsed = msg.Update.Elapsed
		}

	case MicMsg:
		m.LastErr = msg.Err
		switch {
		case msg.Err != nil && msg.On:
			m.log.Warn("mic on failed", "err", msg.Err)
			m.MicOn = false
			m.Hint = hintMicFailed
		case msg.Err != nil:
			m.log.Warn("mic off failed", "err", msg.Err)
			m.Hint = msg.Err.Error()
		default:
			m.MicOn = msg.On
			m.Hint = hintMicOff
			if msg.On {
				m.Hint = hintMicOn
			} else {
				m.Indicators = engine.Indicators{}
			}
		}

	case StoppedMsg:
		m.log.Debug("stopped", "session", msg.Session.ID, "err", msg.Err)
		m.Recording = false
		m.Saving = false
		m.LastErr = msg.Err
		m.Elapsed = time.Duration(msg.Session.DurationSeconds) * time.Second
		m.EndMessage = ClosingMessage(msg.Session.FinalIndicators)
		m.Hint = hintSaved
		if msg.Err != nil {
			m.Hint = hintLost
		}
	}

	return m, nil
}

func (m CaptureModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "m":
		if m.Recording {
			m.Hint = hintBusy
			return m, nil
		}
		ctrl := m.ctrl
		if !m.MicOn {
			return m, func() tea.Msg { return MicMsg{On: true, Err: ctrl.MicOn()} }
		}
		return m, func() tea.Msg { return MicMsg{On: false, Err: ctrl.MicOff()} }

	case "r":
		if m.Recording || m.Saving {
			return m, nil
		}
		id, err := m.ctrl.Start(m.SubjectRef, m.LocationRef)
		if err != nil {
			m.LastErr = err
			m.Hint = hintNeedMic
			if !errors.Is(err, session.ErrMicOff) {
				m.Hint = err.Error()
			}
			return m, nil
		}
		m.SessionID = id
		m.Recording = true
		m.Elapsed = 0
		m.EndMessage = ""
		m.LastErr = nil
		m.Hint = hintRecording

	case "s":
		if !m.Recording || m.Saving {
			return m, nil
		}
		m.Saving = true
		m.Hint = hintSaving
		ctrl := m.ctrl
		// The recorder reports the result through StoppedMsg.
		return m, func() tea.Msg {
			ctrl.Stop(context.Background())
			return nil
		}

	case "c":
		if m.Recording {
			m.Hint = hintBusy
			return m, nil
		}
		m.SubjectRef, m.LocationRef = "", ""
		m.resetBars()
		m.Hint = hintCleared

	case "n":
		if m.Recording {
			m.Hint = hintBusy
			return m, nil
		}
		m.EndMessage = ""
		m.resetBars()
		m.Hint = hintNew
	}
	return m, nil
}

func (m *CaptureModel) resetBars() {
	if err := m.ctrl.Reset(); err != nil {
		m.log.Warn("reset", "err", err)
	}
	m.Indicators = engine.Indicators{}
	m.Elapsed = 0
}

// Status is the short state label: ready, mic on or recording.
func (m CaptureModel) Status() string {
	switch {
	case m.Recording:
		return "recording"
	case m.MicOn:
		return "mic on"
	default:
		return "ready"
	}
}

// ClosingMessage thanks the speaker and names the two strongest channels.
func ClosingMessage(final engine.Indicators) string {
	top := engine.Highlights(final, 2)
	return "Thank you for being here. Today you showed " + top[0].Name + " and " + top[1].Name +
		" in a lively way. Go at your own pace; what is sincere grows."
}
