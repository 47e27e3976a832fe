package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

func TestErnieCountTokens(t *testing.T) {
	e := NewErnie()

	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"你好", 2},
		{"你好世界", 4},
		// 2 个英文词 × 1.3 向上取整 = 3
		{"hello world", 3},
		// 2 汉字 + 1 词
		{"你好 go", 4},
	}
	for _, tc := range cases {
		n, err := e.CountTokens(tc.text)
		require.NoError(t, err)
		assert.Equal(t, tc.want, n, "text %q", tc.text)
	}
}

func TestErnieCountMessages(t *testing.T) {
	e := NewErnie()
	n, err := e.CountMessages([]types.Message{
		{Role: types.RoleUser, Content: "你好"},
		{Role: types.RoleAssistant, Content: "你好世界"},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestErnieNeverZeroForNonEmpty(t *testing.T) {
	e := NewErnie()
	n, err := e.CountTokens("!@#$")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestForModelFallsBackToErnie(t *testing.T) {
	tok := ForModel("ERNIE-4.0-8K")
	assert.Equal(t, "ernie-estimator", tok.Name())

	tok = ForModel("totally-unknown")
	assert.Equal(t, "ernie-estimator", tok.Name())
}

func TestForModelRegistry(t *testing.T) {
	custom := NewErnie()
	Register("my-model", custom)
	tok := ForModel("my-model")
	assert.Same(t, Tokenizer(custom), tok)
}

func TestTiktokenEncodingSelection(t *testing.T) {
	tok, err := NewTiktoken("gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "tiktoken[o200k_base]", tok.Name())

	tok, err = NewTiktoken("something-else")
	require.NoError(t, err)
	assert.Equal(t, "tiktoken[cl100k_base]", tok.Name())
}
