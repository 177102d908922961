package show

import (
	"fmt"
	"time"

	"github.com/QuesmaOrg/tfc-rig/internal/display"
	"github.com/QuesmaOrg/tfc-rig/internal/metrics"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
	"github.com/QuesmaOrg/tfc-rig/internal/trial"
)

// NodeType represents the type of node in the tree
type NodeType int

const (
	NodeTypeSession NodeType = iota
	NodeTypeTrial
	NodeTypeStage
	NodeTypeEvent
)

// Node represents a node in the tree hierarchy
type Node interface {
	Type() NodeType
	Label() string      // Short label for the tree view
	Depth() int         // Indentation level
	IsExpandable() bool // Can this node be expanded?
	IsExpanded() bool   // Is this node currently expanded?
	SetExpanded(bool)   // Set expansion state
	Children() []Node   // Child nodes (nil for leaves)
	Time() time.Time    // Absolute time of the first event
}

// BaseNode provides common fields for all node types
type BaseNode struct {
	depth    int
	expanded bool
	children []Node
}

func (b *BaseNode) Depth() int         { return b.depth }
func (b *BaseNode) IsExpanded() bool   { return b.expanded }
func (b *BaseNode) SetExpanded(e bool) { b.expanded = e }
func (b *BaseNode) Children() []Node   { return b.children }

// SessionNode is one (mouse, session).
type SessionNode struct {
	BaseNode
	MouseID   string
	SessionID int64
	Path      string
	Start     time.Time
	Metrics   metrics.SessionMetrics
	Trials    int
	Malformed int
}

func (s *SessionNode) Type() NodeType     { return NodeTypeSession }
func (s *SessionNode) IsExpandable() bool { return true }
func (s *SessionNode) Time() time.Time    { return s.Start }

func (s *SessionNode) Label() string {
	return fmt.Sprintf("Mouse %s @ %s", s.MouseID, session.SessionIDString(s.SessionID))
}

// TrialNode is one segmented trial with its metrics row, when there is one.
type TrialNode struct {
	BaseNode
	Trial   trial.Trial
	Metrics *metrics.TrialMetrics
	MouseID string
}

func NewTrialNode(t trial.Trial, row *metrics.TrialMetrics, mouseID string, depth int) *TrialNode {
	return &TrialNode{
		BaseNode: BaseNode{depth: depth, expanded: false},
		Trial:    t,
		Metrics:  row,
		MouseID:  mouseID,
	}
}

func (t *TrialNode) Type() NodeType     { return NodeTypeTrial }
func (t *TrialNode) IsExpandable() bool { return len(t.children) > 0 }

func (t *TrialNode) Time() time.Time {
	if len(t.Trial.Events) > 0 {
		return t.Trial.Events[0].AbsoluteTime
	}
	return time.Time{}
}

func (t *TrialNode) Label() string {
	mark := ""
	if !t.Trial.Complete {
		mark = " (partial)"
	}
	return fmt.Sprintf("Trial %d: %s, %d licks%s",
		t.Trial.Number, display.TrialTypeLabel(t.Trial.Type), len(t.Trial.Licks()), mark)
}

// StageNode groups the events of one trial stage.
type StageNode struct {
	BaseNode
	Stage  trial.Stage
	Events []*EventNode
	Licks  int
}

func NewStageNode(stage trial.Stage, evs []*EventNode, depth int) *StageNode {
	sn := &StageNode{
		BaseNode: BaseNode{depth: depth, expanded: false},
		Stage:    stage,
		Events:   evs,
	}
	sn.children = make([]Node, len(evs))
	for i, e := range evs {
		sn.children[i] = e
		if e.Event.Lick {
			sn.Licks++
		}
	}
	return sn
}

func (sn *StageNode) Type() NodeType     { return NodeTypeStage }
func (sn *StageNode) IsExpandable() bool { return true }

func (sn *StageNode) Time() time.Time {
	if len(sn.Events) > 0 {
		return sn.Events[0].Event.AbsoluteTime
	}
	return time.Time{}
}

func (sn *StageNode) Label() string {
	return fmt.Sprintf("├─ %s: %s, %s", sn.Stage, count(len(sn.Events), "event"), count(sn.Licks, "lick"))
}

func count(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// EventNode is one line of a trial.
type EventNode struct {
	BaseNode
	Event trial.Event
}

func NewEventNode(e trial.Event, depth int) *EventNode {
	return &EventNode{BaseNode: BaseNode{depth: depth}, Event: e}
}

func (e *EventNode) Type() NodeType     { return NodeTypeEvent }
func (e *EventNode) IsExpandable() bool { return false }
func (e *EventNode) Time() time.Time    { return e.Event.AbsoluteTime }

func (e *EventNode) Label() string {
	glyph := display.GetEventGlyph(e.Event.Name)
	text := display.TruncateText(e.Event.Name, 25)
	if e.Event.PuffedLick {
		text += " (puffed)"
	}
	return fmt.Sprintf("%s %6d ms %s", glyph, e.Event.TrialTime, text)
}
