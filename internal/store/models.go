// Package store persists recording sessions keyed by session id.
package store

import (
	"time"

	"github.com/elayon/psiq/internal/engine"
)

// Session is one finished recording. Only Note changes after creation.
type Session struct {
	ID              string
	CreatedAt       time.Time
	SubjectRef      string // free text, never a legal identity
	LocationRef     string // free text
	DurationSeconds int

	FinalIndicators    engine.Indicators
	AveragedIndicators engine.Indicators
	PeakIndicators     engine.Indicators

	Audio     []byte
	AudioType string // media type of Audio, e.g. "audio/wav"

	Note string
}
