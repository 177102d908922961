package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// ErrNoData is returned for documents without any event stream.
var ErrNoData = errors.New("document has no data")

// rawDocument mirrors Document with loosely typed fields so older file
// layouts can be repaired before use.
type rawDocument struct {
	Header map[string]any  `json:"header"`
	Data   json.RawMessage `json:"data"`
}

// rawEntry accepts the historical "mesage" spelling.
type rawEntry struct {
	Message      *string   `json:"message"`
	Mesage       *string   `json:"mesage"`
	AbsoluteTime Timestamp `json:"absolute_time"`
	Source       string    `json:"source,omitempty"`
}

func (e rawEntry) event() RawEvent {
	ev := RawEvent{AbsoluteTime: e.AbsoluteTime, Source: e.Source}
	switch {
	case e.Message != nil:
		ev.Message = *e.Message
	case e.Mesage != nil:
		ev.Message = *e.Mesage
	}
	return ev
}

// Decode parses a session document, normalizing legacy layouts:
// a singular "mouse_id" header, list-shaped data for single-mouse files and
// the "mesage" key typo.
func Decode(b []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse session document: %w", err)
	}
	if raw.Header == nil {
		raw.Header = map[string]any{}
	}
	if _, ok := raw.Header["mouse_ids"]; !ok {
		if id, ok := raw.Header["mouse_id"]; ok {
			raw.Header["mouse_ids"] = []any{fmt.Sprint(id)}
			delete(raw.Header, "mouse_id")
		}
	}

	doc := &Document{Header: raw.Header, Data: map[string][]RawEvent{}}
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return doc, ErrNoData
	}

	var streams map[string][]rawEntry
	if err := json.Unmarshal(raw.Data, &streams); err == nil {
		for id, entries := range streams {
			doc.Data[id] = convertEntries(entries)
		}
		return doc, nil
	}

	var list []rawEntry
	if err := json.Unmarshal(raw.Data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	ids := doc.MouseIDs()
	if len(ids) != 1 {
		return nil, fmt.Errorf("list-shaped data needs exactly one mouse id, header has %d", len(ids))
	}
	doc.Data[ids[0]] = convertEntries(list)
	return doc, nil
}

func convertEntries(entries []rawEntry) []RawEvent {
	events := make([]RawEvent, len(entries))
	for i, e := range entries {
		events[i] = e.event()
	}
	return events
}

// Load reads and decodes the session document at path.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Decode(b)
	if err != nil {
		return doc, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Encode renders the document in the acquisition software's indented layout.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "    ")
}

// Save writes doc to path.
func Save(path string, doc *Document) error {
	b, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode session document: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
