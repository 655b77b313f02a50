package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/elayon/psiq/internal/engine"
	"github.com/elayon/psiq/internal/logging"
)

const barWidth = 32

var (
	primaryColor = lipgloss.Color("#6A4C93")
	accentColor  = lipgloss.Color("#1982C4")
	mutedColor   = lipgloss.Color("#888888")
	alertColor   = lipgloss.Color("#C1121F")
	okColor      = lipgloss.Color("#00AA00")
)

// View renders the UI
func (m CaptureModel) View() string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderBars(m.Indicators))
	b.WriteString("\n")
	b.WriteString(renderHint(m))
	if m.EndMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(renderEndBox(m.EndMessage))
	}
	b.WriteString("\n\n")
	b.WriteString(renderKeys(m))
	b.WriteString("\n")

	return b.String()
}

// renderHeader renders the title, status and clock
func renderHeader(m CaptureModel) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Render("Elayon PSI-Q · Listening session")

	statusColor := mutedColor
	switch m.Status() {
	case "recording":
		statusColor = alertColor
	case "mic on":
		statusColor = okColor
	}
	status := lipgloss.NewStyle().Bold(true).Foreground(statusColor).Render("● " + m.Status())

	clock := fmt.Sprintf("%s / %s", logging.FormatClock(m.Elapsed), logging.FormatClock(m.ctrl.MaxDuration()))

	refs := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("Subject: %s   Location: %s", orDash(m.SubjectRef), orDash(m.LocationRef)))

	return title + "\n" + status + "   " + clock + "\n" + refs
}

// renderBars renders one labelled bar per channel
func renderBars(v engine.Indicators) string {
	fill := lipgloss.NewStyle().Foreground(accentColor)
	empty := lipgloss.NewStyle().Foreground(mutedColor)

	var b strings.Builder
	for c, name := range engine.ChannelNames {
		filled := int(math.Round(v[c] * barWidth))
		filled = max(0, min(barWidth, filled))
		fmt.Fprintf(&b, " %-11s %s%s %3d%%\n",
			name,
			fill.Render(strings.Repeat("█", filled)),
			empty.Render(strings.Repeat("░", barWidth-filled)),
			int(math.Round(v[c]*100)))
	}
	return b.String()
}

func renderHint(m CaptureModel) string {
	style := lipgloss.NewStyle().Foreground(mutedColor)
	if m.LastErr != nil {
		style = style.Foreground(alertColor)
	}
	return style.Render(m.Hint)
}

func renderEndBox(msg string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(0, 1).
		Width(60).
		Render(msg)
}

// renderKeys renders the key help, dimming keys that do nothing right now
func renderKeys(m CaptureModel) string {
	on := lipgloss.NewStyle().Bold(true)
	off := lipgloss.NewStyle().Foreground(mutedColor)
	key := func(enabled bool, k, label string) string {
		if enabled {
			return on.Render(k) + " " + label
		}
		return off.Render(k + " " + label)
	}

	micLabel := "mic on"
	if m.MicOn {
		micLabel = "mic off"
	}
	return strings.Join([]string{
		key(!m.Recording, "m", micLabel),
		key(m.MicOn && !m.Recording, "r", "record"),
		key(m.Recording && !m.Saving, "s", "stop"),
		key(!m.Recording, "c", "clear"),
		key(!m.Recording, "n", "new"),
		key(true, "q", "quit"),
	}, "  ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
