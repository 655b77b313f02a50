package logging

import (
	"testing"
	"time"

	"github.com/elayon/psiq/internal/engine"
)

func ruleIDs(tips []RecordingTip) []string {
	ids := make([]string, len(tips))
	for i, t := range tips {
		ids[i] = t.RuleID
	}
	return ids
}

func TestGenerateRecordingTips(t *testing.T) {
	good := engine.Snapshot{Ticks: 300, NoiseFloor: 0.01, Loudness: 0.2, Stability: 0.8}

	tests := []struct {
		name string
		in   TipInput
		want []string
	}{
		{
			name: "no ticks",
			in:   TipInput{},
			want: []string{},
		},
		{
			name: "clean recording",
			in:   TipInput{Duration: time.Minute, Snapshot: good, ActiveRatio: 0.7},
			want: []string{},
		},
		{
			name: "short",
			in:   TipInput{Duration: 4 * time.Second, Snapshot: good, ActiveRatio: 0.7},
			want: []string{"too_short"},
		},
		{
			name: "silent suppresses unsteady",
			in: TipInput{
				Duration:    time.Minute,
				Snapshot:    engine.Snapshot{Ticks: 300, NoiseFloor: 0.01, Stability: 0.1},
				ActiveRatio: 0.05,
			},
			want: []string{"mostly_silent"},
		},
		{
			name: "loud suppresses noisy room",
			in: TipInput{
				Duration:    time.Minute,
				Snapshot:    engine.Snapshot{Ticks: 300, NoiseFloor: 0.05, Loudness: 0.9, Stability: 0.9},
				ActiveRatio: 0.9,
			},
			want: []string{"too_loud"},
		},
		{
			name: "priority order and cap",
			in: TipInput{
				Duration:    2 * time.Second,
				Snapshot:    engine.Snapshot{Ticks: 10, NoiseFloor: 0.05, Stability: 0.1},
				ActiveRatio: 0.1,
			},
			want: []string{"mostly_silent", "noisy_room", "too_short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ruleIDs(GenerateRecordingTips(tt.in))
			if len(got) != len(tt.want) {
				t.Fatalf("tips = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tip %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHighlightLine(t *testing.T) {
	v := engine.Indicators{0.1, 0.9, 0.5, 0.5, 0, 0, 0.95, 0}
	if got, want := HighlightLine(v, 3), "Motivation 95% • Constancy 90% • Clarity 50%"; got != want {
		t.Errorf("HighlightLine = %q, want %q", got, want)
	}
	if got := HighlightLine(v, 0); got != MissingValue {
		t.Errorf("HighlightLine(n=0) = %q", got)
	}
}
