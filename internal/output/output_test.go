package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuesmaOrg/tfc-rig/internal/metrics"
)

type row struct {
	MouseID string  `json:"mouse_id"`
	Licks   int     `json:"licks"`
	Freq    float64 `json:"freq"`
	Note    string  `json:"note,omitempty"`
	Skipped bool    `json:"-"`
}

var rows = []row{
	{MouseID: "106_1", Licks: 3, Freq: 0.5, Note: "a|b"},
	{MouseID: "106_2", Licks: 0, Freq: 1.25},
}

func TestNewTable(t *testing.T) {
	tab, err := NewTable(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"mouse_id", "licks", "freq", "note"}, tab.Columns)
	assert.Equal(t, [][]string{
		{"106_1", "3", "0.5", "a|b"},
		{"106_2", "0", "1.25", ""},
	}, tab.Rows)
}

func TestNewTable_Pointers(t *testing.T) {
	tab, err := NewTable([]*row{&rows[1]})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"106_2", "0", "1.25", ""}}, tab.Rows)
}

func TestNewTable_RejectsNonStructs(t *testing.T) {
	_, err := NewTable([]int{1})
	assert.Error(t, err)
	_, err = NewTable(row{})
	assert.Error(t, err)
}

func TestNewTable_MetricColumns(t *testing.T) {
	tab, err := NewTable([]metrics.SessionMetrics{})
	require.NoError(t, err)
	assert.Equal(t, []string{"mouse_id", "session_id", "day_of_week"}, tab.Columns[:3])
	assert.Contains(t, tab.Columns, "z_learning_rate_reward")
	assert.Empty(t, tab.Rows)
}

func TestRender(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{CSV, "mouse_id,licks,freq,note\n106_1,3,0.5,a|b\n106_2,0,1.25,\n"},
		{TSV, "mouse_id\tlicks\tfreq\tnote\n106_1\t3\t0.5\ta|b\n106_2\t0\t1.25\t\n"},
		{Markdown, "| mouse_id | licks | freq | note |\n|---|---|---|---|\n| 106_1 | 3 | 0.5 | a\\|b |\n| 106_2 | 0 | 1.25 |  |\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, tt.format, rows))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, JSON, rows[1:]))
	assert.JSONEq(t, `[{"mouse_id": "106_2", "licks": 0, "freq": 1.25}]`, buf.String())
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, "xlsx", rows)
	assert.ErrorContains(t, err, "unknown format")
}

func TestRenderMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "No records.\n", RenderMarkdown(Table{Columns: []string{"a"}}))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteFile(dir, "session_metrics", Markdown, rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session_metrics.md"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "| 106_1 | 3 |")
}
