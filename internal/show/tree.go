package show

import (
	"github.com/QuesmaOrg/tfc-rig/internal/metrics"
	"github.com/QuesmaOrg/tfc-rig/internal/pipeline"
	"github.com/QuesmaOrg/tfc-rig/internal/trial"
)

// Tree represents the hierarchical tree of nodes
type Tree struct {
	Roots         []Node // Top-level nodes (sessions or trials)
	TotalSessions int
	TotalTrials   int
	TotalLicks    int
}

// BuildTree arranges processed sessions into a tree. A single session is
// shown without its session header.
func BuildTree(results []*pipeline.SessionResult) *Tree {
	tree := &Tree{TotalSessions: len(results)}
	showSessions := len(results) > 1

	for _, res := range results {
		if showSessions {
			sessNode := buildSessionNode(res, 0)
			tree.Roots = append(tree.Roots, sessNode)
		} else {
			tree.Roots = append(tree.Roots, buildTrialNodes(res, 0)...)
		}
		tree.TotalTrials += len(res.Trials)
		if res.Metrics != nil {
			tree.TotalLicks += res.Metrics.Session.TotalLicks
		}
	}
	return tree
}

// buildSessionNode creates a session node with its trial children
func buildSessionNode(res *pipeline.SessionResult, depth int) *SessionNode {
	sn := &SessionNode{
		BaseNode:  BaseNode{depth: depth, expanded: true},
		MouseID:   res.MouseID,
		SessionID: res.Info.SessionID,
		Path:      res.Info.Path,
		Trials:    len(res.Trials),
		Malformed: res.Malformed,
	}
	if res.Metrics != nil {
		sn.Metrics = res.Metrics.Session
	}
	if len(res.Events) > 0 {
		sn.Start = res.Events[0].Raw.AbsoluteTime.Time
	}
	sn.children = buildTrialNodes(res, depth+1)
	return sn
}

// buildTrialNodes creates trial nodes with one stage group per non-empty
// stage
func buildTrialNodes(res *pipeline.SessionResult, depth int) []Node {
	rows := map[int]*metrics.TrialMetrics{}
	if res.Metrics != nil {
		for i := range res.Metrics.Trials {
			row := &res.Metrics.Trials[i]
			rows[row.Trial] = row
		}
	}
	bounds := trial.BoundsFrom(res.Metadata)

	nodes := make([]Node, 0, len(res.Trials))
	for _, t := range res.Trials {
		tn := NewTrialNode(t, rows[t.Number], res.MouseID, depth)

		byStage := map[trial.Stage][]*EventNode{}
		for _, e := range t.Events {
			st := bounds.StageOf(e.TrialTime)
			byStage[st] = append(byStage[st], NewEventNode(e, depth+2))
		}
		for _, st := range trial.Stages {
			if evs := byStage[st]; len(evs) > 0 {
				tn.children = append(tn.children, NewStageNode(st, evs, depth+1))
			}
		}
		nodes = append(nodes, tn)
	}
	return nodes
}

// FlattenVisible returns all currently visible nodes in display order
func (t *Tree) FlattenVisible() []Node {
	var result []Node
	for _, root := range t.Roots {
		result = flattenNode(root, result)
	}
	return result
}

func flattenNode(n Node, result []Node) []Node {
	result = append(result, n)

	if n.IsExpandable() && n.IsExpanded() {
		for _, child := range n.Children() {
			result = flattenNode(child, result)
		}
	}

	return result
}

// ToggleExpand toggles the expansion state of the node at the given index
func (t *Tree) ToggleExpand(visible []Node, index int) {
	if n := nodeAt(visible, index); n != nil && n.IsExpandable() {
		n.SetExpanded(!n.IsExpanded())
	}
}

// Expand expands the node at the given index
func (t *Tree) Expand(visible []Node, index int) {
	if n := nodeAt(visible, index); n != nil && n.IsExpandable() {
		n.SetExpanded(true)
	}
}

// Collapse collapses the node at the given index
func (t *Tree) Collapse(visible []Node, index int) {
	if n := nodeAt(visible, index); n != nil && n.IsExpandable() {
		n.SetExpanded(false)
	}
}

func nodeAt(visible []Node, index int) Node {
	if index < 0 || index >= len(visible) {
		return nil
	}
	return visible[index]
}

// ExpandAll expands all expandable nodes
func (t *Tree) ExpandAll() {
	for _, root := range t.Roots {
		expandAllRecursive(root)
	}
}

func expandAllRecursive(n Node) {
	if n.IsExpandable() {
		n.SetExpanded(true)
		for _, child := range n.Children() {
			expandAllRecursive(child)
		}
	}
}

// CollapseAll collapses everything below session level
func (t *Tree) CollapseAll() {
	for _, root := range t.Roots {
		collapseAllRecursive(root)
	}
}

func collapseAllRecursive(n Node) {
	if n.Type() == NodeTypeSession {
		n.SetExpanded(true)
	} else {
		n.SetExpanded(false)
	}
	for _, child := range n.Children() {
		collapseAllRecursive(child)
	}
}
