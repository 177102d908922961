// Package session loads rig session documents and derives identifiers from
// their file names.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// TimeLayout is the absolute_time format written by the acquisition software.
// Parsing also accepts a missing fractional part.
const TimeLayout = "2006-01-02_15-04-05.000000"

const parseLayout = "2006-01-02_15-04-05"

// Timestamp is an absolute rig time. Values that fail to parse decode to the
// zero time and keep their original text in Raw.
type Timestamp struct {
	time.Time
	Raw string
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s in the rig layout.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(parseLayout, strings.TrimSpace(s))
	if err != nil {
		return Timestamp{Raw: s}, fmt.Errorf("invalid absolute_time %q: %w", s, err)
	}
	return Timestamp{Time: t}, nil
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return t.Raw
	}
	return t.Format(TimeLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		*t = Timestamp{Raw: s}
		return nil
	}
	*t = parsed
	return nil
}

// RawEvent is one serial line as recorded by the acquisition software.
type RawEvent struct {
	Message      string    `json:"message"`
	AbsoluteTime Timestamp `json:"absolute_time"`
	// Source marks events injected by the stream aligner.
	Source string `json:"source,omitempty"`
}

// Document is one session file: a header plus one event stream per mouse.
type Document struct {
	Header map[string]any        `json:"header"`
	Data   map[string][]RawEvent `json:"data"`
}

// MouseIDs returns the header's mouse_ids in order.
func (d *Document) MouseIDs() []string {
	if d == nil || d.Header == nil {
		return nil
	}
	switch v := d.Header["mouse_ids"].(type) {
	case []string:
		return v
	case []any:
		ids := make([]string, 0, len(v))
		for _, id := range v {
			ids = append(ids, fmt.Sprint(id))
		}
		return ids
	case string:
		return []string{v}
	}
	return nil
}

// Messages returns the raw message text of one mouse's stream.
func (d *Document) Messages(mouseID string) []string {
	events := d.Data[mouseID]
	msgs := make([]string, len(events))
	for i, e := range events {
		msgs[i] = e.Message
	}
	return msgs
}
