package ui

import (
	"github.com/elayon/psiq/internal/session"
	"github.com/elayon/psiq/internal/store"
)

// TickMsg carries one engine tick from the recorder
type TickMsg struct {
	Update session.Update
}

// StoppedMsg indicates a recording has ended, by key or by the duration cap
type StoppedMsg struct {
	Session store.Session
	Err     error // non-nil when the session may not have been saved
}

// MicMsg reports the outcome of a microphone toggle
type MicMsg struct {
	On  bool
	Err error
}
