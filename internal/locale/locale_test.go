package locale

import (
	"testing"
	"time"
)

func TestForTimezone(t *testing.T) {
	tests := []struct {
		timezone string
		mainsHz  int
	}{
		{"Europe/London", 50},
		{"Europe/Lisbon", 50},
		{"Asia/Tokyo", 50},
		{"America/Sao_Paulo", 60},
		{"America/New_York", 60},
		{"America/Bogota", 60},
		{"Asia/Seoul", 60},

		// No country association
		{"UTC", 50},
		{"GMT", 50},
		{"Etc/UTC", 50},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			l := ForTimezone(tt.timezone)
			if l.MainsHz != tt.mainsHz {
				t.Errorf("MainsHz = %d, want %d", l.MainsHz, tt.mainsHz)
			}
			if l.Location == nil {
				t.Error("Location is nil")
			}
		})
	}
}

func TestForTimezoneUnknown(t *testing.T) {
	l := ForTimezone("Nowhere/Atlantis")
	if l.MainsHz != DefaultMainsHz || l.Country != "" || l.Location != time.UTC {
		t.Errorf("unknown timezone = %+v, want UTC fallback", l)
	}
}

func TestDetect(t *testing.T) {
	l := Detect()
	if l.MainsHz != 50 && l.MainsHz != 60 {
		t.Errorf("MainsHz = %d, want 50 or 60", l.MainsHz)
	}
	if l.Location == nil {
		t.Error("Location is nil")
	}
}

func TestFormat(t *testing.T) {
	l := ForTimezone("UTC")
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := l.Format(ts); got != "2026-03-04 05:06:07" {
		t.Errorf("Format = %q", got)
	}
	if got := l.Format(time.Time{}); got != "—" {
		t.Errorf("Format(zero) = %q", got)
	}
}
