package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/elayon/psiq/internal/engine"
	"github.com/elayon/psiq/internal/session"
	"github.com/elayon/psiq/internal/store"
)

type fakeController struct {
	micErr  error
	micOn   bool
	started int
	stopped int
	resets  int
}

func (f *fakeController) MicOn() error {
	if f.micErr != nil {
		return f.micErr
	}
	f.micOn = true
	return nil
}

func (f *fakeController) MicOff() error { f.micOn = false; return nil }

func (f *fakeController) Start(string, string) (string, error) {
	if !f.micOn {
		return "", session.ErrMicOff
	}
	f.started++
	return "sess-1", nil
}

func (f *fakeController) Stop(context.Context) (*store.Session, error) {
	f.stopped++
	return nil, nil
}

func (f *fakeController) Reset() error { f.resets++; return nil }

func (f *fakeController) MaxDuration() time.Duration { return 2 * time.Minute }

func press(t *testing.T, m CaptureModel, key string) (CaptureModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(CaptureModel), cmd
}

func send(t *testing.T, m CaptureModel, msg tea.Msg) CaptureModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(CaptureModel)
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m CaptureModel, cmd tea.Cmd) CaptureModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg := cmd(); msg != nil {
		return send(t, m, msg)
	}
	return m
}

func TestCaptureFlow(t *testing.T) {
	ctrl := &fakeController{}
	m := NewCaptureModel(ctrl, "RT-3", "", nil)
	if m.Status() != "ready" {
		t.Fatalf("status = %q", m.Status())
	}

	m, _ = press(t, m, "r")
	if m.Recording || m.Hint != hintNeedMic {
		t.Fatalf("record with mic off: recording=%v hint=%q", m.Recording, m.Hint)
	}

	m, cmd := press(t, m, "m")
	m = run(t, m, cmd)
	if !m.MicOn || m.Status() != "mic on" {
		t.Fatalf("mic not on: %+v", m)
	}

	m, _ = press(t, m, "r")
	if !m.Recording || m.SessionID != "sess-1" || m.Status() != "recording" {
		t.Fatalf("not recording: %+v", m)
	}

	m, cmd = press(t, m, "m")
	if cmd != nil || m.Hint != hintBusy || !m.MicOn {
		t.Errorf("mic toggle during recording should be refused")
	}

	m = send(t, m, TickMsg{Update: session.Update{
		Snapshot: engine.Snapshot{Final: engine.Indicators{0.4, 0.9}},
		State:    session.StateRecording,
		Elapsed:  65 * time.Second,
	}})
	if m.Indicators[1] != 0.9 || m.Elapsed != 65*time.Second {
		t.Errorf("tick not applied: %v %v", m.Indicators, m.Elapsed)
	}
	if !strings.Contains(m.View(), "01:05 / 02:00") {
		t.Errorf("clock missing from view:\n%s", m.View())
	}

	m, cmd = press(t, m, "s")
	if !m.Saving {
		t.Error("expected saving state")
	}
	m = run(t, m, cmd)
	if ctrl.stopped != 1 {
		t.Errorf("Stop called %d times", ctrl.stopped)
	}

	m = send(t, m, StoppedMsg{Session: store.Session{
		ID:              "sess-1",
		DurationSeconds: 66,
		FinalIndicators: engine.Indicators{0.4, 0.9, 0, 0, 0, 0, 0, 0.5},
	}})
	if m.Recording || m.Saving || m.Hint != hintSaved {
		t.Errorf("after stop: %+v", m)
	}
	if !strings.Contains(m.EndMessage, "Constancy and Stability") {
		t.Errorf("end message = %q", m.EndMessage)
	}

	m, _ = press(t, m, "n")
	if m.EndMessage != "" || m.Indicators != (engine.Indicators{}) || ctrl.resets != 1 {
		t.Errorf("new session did not reset: %+v", m)
	}
}

func TestMicFailure(t *testing.T) {
	ctrl := &fakeController{micErr: errors.New("capture unavailable: no device")}
	m := NewCaptureModel(ctrl, "", "", nil)

	m, cmd := press(t, m, "m")
	m = run(t, m, cmd)
	if m.MicOn || m.Hint != hintMicFailed || m.LastErr == nil {
		t.Errorf("mic failure not surfaced: %+v", m)
	}
}

func TestPersistenceFailureHint(t *testing.T) {
	m := NewCaptureModel(&fakeController{}, "", "", nil)
	m.Recording = true
	m = send(t, m, StoppedMsg{Session: store.Session{ID: "x"}, Err: store.ErrPersistence})
	if m.Hint != hintLost {
		t.Errorf("hint = %q, want %q", m.Hint, hintLost)
	}
}

func TestClearKeepsNothing(t *testing.T) {
	ctrl := &fakeController{}
	m := NewCaptureModel(ctrl, "RT-1", "Clinic", nil)
	m.Indicators = engine.Indicators{0.5}
	m, _ = press(t, m, "c")
	if m.SubjectRef != "" || m.LocationRef != "" || m.Indicators != (engine.Indicators{}) {
		t.Errorf("clear left state: %+v", m)
	}
}

func TestQuit(t *testing.T) {
	_, cmd := press(t, NewCaptureModel(&fakeController{}, "", "", nil), "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestViewBars(t *testing.T) {
	m := NewCaptureModel(&fakeController{}, "", "", nil)
	m.Indicators = engine.Indicators{1, 0.5}
	view := m.View()
	for _, want := range []string{"Energy", "100%", " 50%", "Stability", "00:00 / 02:00", hintWelcome} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestClosingMessage(t *testing.T) {
	msg := ClosingMessage(engine.Indicators{0.1, 0.2, 0.9, 0, 0, 0, 0.8, 0})
	if !strings.Contains(msg, "Clarity and Motivation") {
		t.Errorf("closing message = %q", msg)
	}
}
