package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONL(t *testing.T) {
	in := strings.NewReader(`{"prompt":"你好","response":"hi"}

{"prompt":"再见","response":"bye"}
`)
	tb, err := LoadJSONL(in)
	require.NoError(t, err)

	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, []string{"prompt", "response"}, tb.Columns())

	col, err := tb.Col("prompt")
	require.NoError(t, err)
	assert.Equal(t, []any{"你好", "再见"}, col)
}

func TestLoadJSONLBadLine(t *testing.T) {
	_, err := LoadJSONL(strings.NewReader("{\"a\":1}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestJSONLRoundTrip(t *testing.T) {
	tb := FromRows([]Row{
		{"prompt": "一", "response": "1"},
		{"prompt": "二", "response": "2"},
	})

	var buf bytes.Buffer
	require.NoError(t, tb.SaveJSONL(&buf))

	back, err := LoadJSONL(&buf)
	require.NoError(t, err)
	assert.Equal(t, tb.Rows(), back.Rows())
}

func TestCSVRoundTrip(t *testing.T) {
	in := "prompt,response\n你好,hi\n\"a,b\",c\n"
	tb, err := LoadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())

	row, err := tb.Row(1)
	require.NoError(t, err)
	assert.Equal(t, "a,b", row["prompt"])

	var buf bytes.Buffer
	require.NoError(t, tb.SaveCSV(&buf))

	back, err := LoadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, tb.Rows(), back.Rows())
}

func TestLoadCSVEmpty(t *testing.T) {
	tb, err := LoadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, tb.Len())
}

func TestSaveLoadFile(t *testing.T) {
	dir := t.TempDir()
	tb := FromRows([]Row{{"prompt": "p", "response": "r"}})

	for _, name := range []string{"data.jsonl", "data.csv"} {
		path := filepath.Join(dir, name)
		require.NoError(t, tb.SaveFile(path))

		back, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 1, back.Len())
	}

	assert.Error(t, tb.SaveFile(filepath.Join(dir, "data.parquet")))
	_, err := LoadFile(filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)
}
