package logging

import (
	"sort"
	"strings"
	"time"

	"github.com/elayon/psiq/internal/engine"
)

// RecordingTip is one piece of actionable advice derived from an analysis.
type RecordingTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "mostly_silent")
}

// MaxRecordingTips is the maximum number of tips to return.
const MaxRecordingTips = 3

// TipInput is what the tip rules look at.
type TipInput struct {
	Duration    time.Duration
	Snapshot    engine.Snapshot
	ActiveRatio float64 // active ticks / total ticks
}

// GenerateRecordingTips returns prioritised suggestions for a better
// recording, most important first.
func GenerateRecordingTips(in TipInput) []RecordingTip {
	if in.Snapshot.Ticks == 0 {
		return nil
	}

	var tips []RecordingTip
	fired := make(map[string]bool)

	rules := []func(TipInput) *RecordingTip{
		tipTooShort,
		tipMostlySilent,
		tipNoisyRoom,
		tipTooLoud,
		tipUnsteady,
	}
	for _, rule := range rules {
		if tip := rule(in); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})
	if len(tips) > MaxRecordingTips {
		tips = tips[:MaxRecordingTips]
	}
	return tips
}

// applyExclusions drops tips that a more specific tip already explains.
func applyExclusions(tips []RecordingTip, fired map[string]bool) []RecordingTip {
	var result []RecordingTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "unsteady":
			// Mostly silence always reads as unsteady.
			if fired["mostly_silent"] {
				continue
			}
		case "noisy_room":
			if fired["too_loud"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

func tipTooShort(in TipInput) *RecordingTip {
	if in.Duration >= 10*time.Second {
		return nil
	}
	return &RecordingTip{
		Priority: 6,
		Message:  "Recordings under ten seconds rarely settle. Aim for at least thirty seconds of speech.",
		RuleID:   "too_short",
	}
}

func tipMostlySilent(in TipInput) *RecordingTip {
	if in.ActiveRatio >= 0.2 {
		return nil
	}
	return &RecordingTip{
		Priority: 9,
		Message:  "Little speech was detected. Move closer to the microphone or raise the input gain.",
		RuleID:   "mostly_silent",
	}
}

func tipNoisyRoom(in TipInput) *RecordingTip {
	if in.Snapshot.NoiseFloor < 0.045 {
		return nil
	}
	return &RecordingTip{
		Priority: 8,
		Message:  "Background noise is high. Move away from fans, traffic or open windows.",
		RuleID:   "noisy_room",
	}
}

func tipTooLoud(in TipInput) *RecordingTip {
	if in.Snapshot.Loudness < 0.7 {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		Message:  "The input is very loud and may be clipping. Lower the microphone gain.",
		RuleID:   "too_loud",
	}
}

func tipUnsteady(in TipInput) *RecordingTip {
	if in.Snapshot.Stability >= 0.3 {
		return nil
	}
	return &RecordingTip{
		Priority: 5,
		Message:  "Loudness swung widely. Keep a steady distance from the microphone.",
		RuleID:   "unsteady",
	}
}

// HighlightLine lists the n strongest channels as "Name 72% • Name 65%".
func HighlightLine(v engine.Indicators, n int) string {
	hs := engine.Highlights(v, n)
	if len(hs) == 0 {
		return MissingValue
	}
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = h.Name + " " + formatPercent(float64(h.Percent)/100) + "%"
	}
	return strings.Join(parts, " • ")
}
