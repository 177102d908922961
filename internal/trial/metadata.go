package trial

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/grammar"
)

// Metadata keys used to place stage boundaries and reward windows.
const (
	KeyAuditoryStart     = events.ParamAuditoryStart
	KeyAuditoryStop      = events.ParamAuditoryStop
	KeyAirPuffStart      = events.ParamAirPuffStart
	KeyAirPuffTotal      = events.ParamAirPuffTotal
	KeyTrialDuration     = "TRIAL_DURATION"
	KeyWaterDispenseTime = "WATER_DISPENSE_TIME"
)

var keyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Metadata holds the rig configuration printed before a session. Missing
// keys read as 0.
type Metadata map[string]string

// ParseMetadata collects every "KEY: value" payload whose key is an upper
// case constant name. Later lines override earlier ones, matching how the
// state machine tracks the same parameters.
func ParseMetadata(evs []events.Event) Metadata {
	md := Metadata{}
	for _, e := range evs {
		parts := grammar.Fields(e.Name())
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if !keyPattern.MatchString(key) {
			continue
		}
		md[key] = strings.TrimSpace(parts[1])
	}
	return md
}

// Int returns the numeric value of key, or 0 when the key is missing or not
// a number.
func (m Metadata) Int(key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return 0
}

// String returns the raw value of key.
func (m Metadata) String(key string) string { return m[key] }

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
