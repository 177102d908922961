// Package display provides shared labels and text helpers for terminal output.
package display

import (
	"fmt"
	"strings"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/integrity"
)

// EventGlyph maps rig messages to the glyph shown next to them.
var EventGlyph = map[string]string{
	events.MarkerLick:        "👅",
	events.MarkerPuffStart:   "💨",
	events.MarkerWaterOn:     "💧",
	integrity.TrialStarted:   "▶",
	integrity.TrialEnded:     "■",
	integrity.SessionStarted: "⏵",
	integrity.SessionEnded:   "⏹",
}

// GetEventGlyph returns the glyph for a rig message.
// Returns "•" for anything else.
func GetEventGlyph(name string) string {
	if g, ok := EventGlyph[name]; ok {
		return g
	}
	return "•"
}

// TrialTypeLabel names a trial type by its signal class.
func TrialTypeLabel(t int) string {
	switch {
	case events.CSPlus(t):
		return fmt.Sprintf("CS+ (%d)", t)
	case events.CSMinus(t):
		return fmt.Sprintf("CS- (%d)", t)
	case events.NoSignal(t):
		return fmt.Sprintf("no signal (%d)", t)
	default:
		return "unknown"
	}
}

// TruncateText truncates text to maxLen runes, replacing newlines with spaces.
// If truncated, adds "..." suffix.
func TruncateText(s string, maxLen int) string {
	text := []rune(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
	if len(text) <= maxLen {
		return string(text)
	}
	if maxLen <= 3 {
		return string(text[:max(maxLen, 0)])
	}
	return string(text[:maxLen-3]) + "..."
}
