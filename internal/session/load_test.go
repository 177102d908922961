package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(`{
		"header": {"mouse_ids": ["106_1", "106_2"], "rig": "A"},
		"data": {
			"106_1": [{"message": "0: 10: 10: Session has started", "absolute_time": "2024-03-01_10-20-30.123456"}],
			"106_2": []
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"106_1", "106_2"}, doc.MouseIDs())
	require.Len(t, doc.Data["106_1"], 1)
	ev := doc.Data["106_1"][0]
	assert.Equal(t, "0: 10: 10: Session has started", ev.Message)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC), ev.AbsoluteTime.Time)
	assert.Equal(t, "A", doc.Header["rig"])
}

func TestDecode_LegacyLayouts(t *testing.T) {
	doc, err := Decode([]byte(`{
		"header": {"mouse_id": "106_1"},
		"data": [{"mesage": "0: 1: 1: Lick", "absolute_time": "2024-03-01_10-20-30.000001"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"106_1"}, doc.MouseIDs())
	require.Len(t, doc.Data["106_1"], 1)
	assert.Equal(t, "0: 1: 1: Lick", doc.Data["106_1"][0].Message)
}

func TestDecode_BadTimestampIsLenient(t *testing.T) {
	doc, err := Decode([]byte(`{
		"header": {"mouse_ids": ["1_1"]},
		"data": {"1_1": [{"message": "0: 1: 1: Lick", "absolute_time": "yesterday"}]}
	}`))
	require.NoError(t, err)

	ts := doc.Data["1_1"][0].AbsoluteTime
	assert.True(t, ts.IsZero())
	assert.Equal(t, "yesterday", ts.String())
}

func TestDecode_NoData(t *testing.T) {
	_, err := Decode([]byte(`{"header": {"mouse_ids": ["1_1"]}}`))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSaveLoad(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-01_10-20-30.5")
	require.NoError(t, err)

	doc := &Document{
		Header: map[string]any{"mouse_ids": []string{"1_1"}},
		Data: map[string][]RawEvent{
			"1_1": {{Message: "0: 1: 1: Puff start", AbsoluteTime: ts, Source: "align:abc"}},
		},
	}
	path := filepath.Join(t.TempDir(), "1_1_2024-03-01_10-20-30.json")
	require.NoError(t, Save(path, doc))

	loaded, err := Load(path)
	require.NoError(t, err)
	got := loaded.Data["1_1"][0]
	assert.Equal(t, "align:abc", got.Source)
	assert.Equal(t, "2024-03-01_10-20-30.500000", got.AbsoluteTime.String())
}
