package show

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/QuesmaOrg/tfc-rig/internal/display"
	"github.com/QuesmaOrg/tfc-rig/internal/pipeline"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("255"))

	// partial trials and puffed licks stand out in the list
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	puffedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const indentWidth = 2

// indicator returns the expansion marker drawn before a label.
func indicator(n Node) string {
	switch {
	case !n.IsExpandable():
		return " "
	case n.IsExpanded():
		return "▼"
	default:
		return "▶"
	}
}

// model is the Bubble Tea model for the TUI
type model struct {
	tree         *Tree
	visible      []Node
	cursor       int
	listOffset   int
	detailOffset int
	width        int
	height       int
	quitting     bool
}

// NewModel creates a new TUI model over processed sessions
func NewModel(results []*pipeline.SessionResult) tea.Model {
	tree := BuildTree(results)
	return model{
		tree:    tree,
		visible: tree.FlattenVisible(),
	}
}

// Init implements tea.Model
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		// Navigation
		case "j", "down":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				m.detailOffset = 0
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
				m.detailOffset = 0
			}
		case "g", "home":
			m.cursor = 0
			m.detailOffset = 0
		case "G", "end":
			m.cursor = len(m.visible) - 1
			m.detailOffset = 0
		case "ctrl+d":
			m.cursor = min(m.cursor+m.listHeight()/2, len(m.visible)-1)
			m.detailOffset = 0
		case "ctrl+u":
			m.cursor = max(m.cursor-m.listHeight()/2, 0)
			m.detailOffset = 0

		// Detail pane scrolling
		case "J", "shift+down":
			m.detailOffset++
		case "K", "shift+up":
			if m.detailOffset > 0 {
				m.detailOffset--
			}

		// Expand/Collapse
		case " ":
			m.tree.ToggleExpand(m.visible, m.cursor)
			m.visible = m.tree.FlattenVisible()
		case "e", "enter", "l", "right":
			m.tree.Expand(m.visible, m.cursor)
			m.visible = m.tree.FlattenVisible()
		case "c", "h", "left":
			m.tree.Collapse(m.visible, m.cursor)
			m.visible = m.tree.FlattenVisible()
		case "E":
			m.tree.ExpandAll()
			m.visible = m.tree.FlattenVisible()
		case "C":
			m.tree.CollapseAll()
			m.visible = m.tree.FlattenVisible()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
	m.adjustListScroll()

	return m, nil
}

// View implements tea.Model
func (m model) View() string {
	if m.quitting {
		return ""
	}

	if len(m.visible) == 0 {
		return "No trials to display\n"
	}

	// Wait for terminal dimensions
	if m.width < 20 || m.height < 10 {
		return "Loading..."
	}

	// Leave room for status bar (1 line) and borders (2 lines each panel)
	contentHeight := max(m.height-3, 5)
	listWidth := max(m.width*2/5, 10)
	detailWidth := max(m.width-listWidth-1, 10)

	listPanel := m.renderList(max(listWidth-2, 5), max(contentHeight-2, 3))
	detailPanel := m.renderDetail(max(detailWidth-2, 5), max(contentHeight-2, 3))

	listPanel = panelStyle.
		Width(max(listWidth-2, 5)).
		Height(max(contentHeight-2, 3)).
		Render(listPanel)

	detailPanel = panelStyle.
		Width(max(detailWidth-2, 5)).
		Height(max(contentHeight-2, 3)).
		Render(detailPanel)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, detailPanel)
	return lipgloss.JoinVertical(lipgloss.Left, content, m.renderStatusBar())
}

// renderList renders the visible window of the tree
func (m model) renderList(width, height int) string {
	end := min(m.listOffset+height, len(m.visible))
	lines := make([]string, 0, height)
	for i := m.listOffset; i < end; i++ {
		lines = append(lines, m.renderTreeLine(m.visible[i], width, i == m.cursor))
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderTreeLine(node Node, width int, selected bool) string {
	line := strings.Repeat(" ", indentWidth*node.Depth()) + indicator(node) + " " + node.Label()
	line = display.TruncateText(line, width)
	if w := lipgloss.Width(line); w < width {
		line += strings.Repeat(" ", width-w)
	}

	switch n := node.(type) {
	case *TrialNode:
		if !n.Trial.Complete && !selected {
			return partialStyle.Render(line)
		}
	case *EventNode:
		if n.Event.PuffedLick && !selected {
			return puffedStyle.Render(line)
		}
	}
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

// renderDetail renders the detail panel for the selected node
func (m model) renderDetail(width, height int) string {
	if m.cursor >= len(m.visible) {
		return "No selection"
	}

	var sb strings.Builder
	switch n := m.visible[m.cursor].(type) {
	case *SessionNode:
		writeSessionDetail(&sb, n)

	case *TrialNode:
		writeTrialDetail(&sb, n)

	case *StageNode:
		sb.WriteString(fmt.Sprintf("Stage: %s\n", n.Stage))
		sb.WriteString(fmt.Sprintf("Events: %d\n", len(n.Events)))
		sb.WriteString(fmt.Sprintf("Licks: %d\n", n.Licks))
		if !n.IsExpanded() && len(n.Events) > 0 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat("─", min(width-2, 40)))
			sb.WriteString(fmt.Sprintf("\nEvents (%d) - press 'e' to expand:\n", len(n.Events)))
			for _, e := range n.Events {
				sb.WriteString(display.TruncateText(e.Label(), width-2))
				sb.WriteString("\n")
			}
		}

	case *EventNode:
		e := n.Event
		sb.WriteString(fmt.Sprintf("Event: %s %s\n", display.GetEventGlyph(e.Name), e.Name))
		sb.WriteString(fmt.Sprintf("Time: %s\n", e.AbsoluteTime.Format("2006-01-02 15:04:05.000")))
		sb.WriteString(fmt.Sprintf("Trial time: %d ms\n", e.TrialTime))
		if e.Lick {
			sb.WriteString(fmt.Sprintf("Puffed: %v\n", e.PuffedLick))
		}
	}

	lines := strings.Split(wrapText(sb.String(), width), "\n")

	if m.detailOffset > 0 && m.detailOffset < len(lines) {
		lines = lines[m.detailOffset:]
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func writeSessionDetail(sb *strings.Builder, n *SessionNode) {
	sb.WriteString(fmt.Sprintf("Mouse: %s\n", n.MouseID))
	sb.WriteString(fmt.Sprintf("Session: %s\n", session.SessionIDString(n.SessionID)))
	if n.Path != "" {
		sb.WriteString(fmt.Sprintf("File: %s\n", n.Path))
	}
	if !n.Start.IsZero() {
		sb.WriteString(fmt.Sprintf("Start: %s\n", n.Start.Format("2006-01-02 15:04:05")))
	}
	sb.WriteString(fmt.Sprintf("Trials: %d\n", n.Trials))
	if n.Malformed > 0 {
		sb.WriteString(fmt.Sprintf("Malformed lines: %d\n", n.Malformed))
	}
	sb.WriteString("\n")
	s := n.Metrics
	sb.WriteString(fmt.Sprintf("Licks: %d (%d puffed, %d in trial)\n", s.TotalLicks, s.TotalPuffedLicks, s.TotalLicksInTrial))
	sb.WriteString(fmt.Sprintf("Avg lick freq: %.3f\n", s.AvgLickFreq))
	sb.WriteString(fmt.Sprintf("  CS+: %.3f  CS-: %.3f  ITI: %.3f\n", s.AvgLickFreqCSPlus, s.AvgLickFreqCSMinus, s.AvgLickFreqITI))
	sb.WriteString(fmt.Sprintf("Learning rate: %.3f\n", s.ZLearningRate))
	sb.WriteString(fmt.Sprintf("Trace learning rate: %.3f\n", s.ZTraceLearningRate))
	sb.WriteString(fmt.Sprintf("Reward learning rate: %.3f\n", s.ZLearningRateReward))
}

func writeTrialDetail(sb *strings.Builder, n *TrialNode) {
	t := n.Trial
	sb.WriteString(fmt.Sprintf("Trial: %d\n", t.Number))
	sb.WriteString(fmt.Sprintf("Type: %s\n", display.TrialTypeLabel(t.Type)))
	sb.WriteString(fmt.Sprintf("Complete: %v\n", t.Complete))
	sb.WriteString(fmt.Sprintf("Events: %d\n", len(t.Events)))
	if n.Metrics == nil {
		return
	}
	r := n.Metrics
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-10s %6s %8s %10s\n", "stage", "licks", "norm", "duration"))
	sb.WriteString(fmt.Sprintf("%-10s %6d %8.3f %10d\n", "pre_tone", r.PreToneLicks, r.NormPreToneLicks, r.PreToneDuration))
	sb.WriteString(fmt.Sprintf("%-10s %6d %8.3f %10d\n", "tone", r.ToneLicks, r.NormToneLicks, r.ToneDuration))
	sb.WriteString(fmt.Sprintf("%-10s %6d %8.3f %10d\n", "trace", r.TraceLicks, r.NormTraceLicks, r.TraceDuration))
	sb.WriteString(fmt.Sprintf("%-10s %6d %8.3f %10d\n", "post_trace", r.PostTraceLicks, r.NormPostTraceLicks, r.PostTraceDuration))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Rewards: %d (%d rewarded licks)\n", r.Rewards, r.RewardedLicks))
	sb.WriteString(fmt.Sprintf("Avg lick freq: %.3f\n", r.AvgLickFreq))
}

// renderStatusBar renders the status bar
func (m model) renderStatusBar() string {
	position := fmt.Sprintf("%d/%d", m.cursor+1, len(m.visible))

	var context string
	if m.tree.TotalSessions > 1 {
		context = fmt.Sprintf("%d sessions, %d trials", m.tree.TotalSessions, m.tree.TotalTrials)
	} else {
		context = fmt.Sprintf("%d trials, %d licks", m.tree.TotalTrials, m.tree.TotalLicks)
	}

	help := "j/k:nav  e:expand  c:collapse  E/C:all  J/K:scroll  q:quit"
	status := fmt.Sprintf(" %s | %s | %s", position, context, help)

	return statusBarStyle.Width(m.width).Render(status)
}

// listHeight is the number of tree rows that fit between the borders and
// the status bar.
func (m model) listHeight() int {
	return max(m.height-5, 1)
}

func (m *model) adjustListScroll() {
	h := m.listHeight()
	switch {
	case m.cursor < m.listOffset:
		m.listOffset = m.cursor
	case m.cursor >= m.listOffset+h:
		m.listOffset = m.cursor - h + 1
	}
}

// wrapText hard-wraps every line of s at width runes.
func wrapText(s string, width int) string {
	width = max(width, 1)

	var out []string
	for _, line := range strings.Split(s, "\n") {
		r := []rune(line)
		for len(r) > width {
			out = append(out, string(r[:width]))
			r = r[width:]
		}
		out = append(out, string(r))
	}
	return strings.Join(out, "\n")
}

// RunTUI starts the interactive browser over processed sessions
func RunTUI(results []*pipeline.SessionResult) error {
	p := tea.NewProgram(NewModel(results), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
