package app

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baidubce/bce-qianfan-sdk-go/dataset"
	"github.com/baidubce/bce-qianfan-sdk-go/testutil/mocks"
)

// pointEnvAt 让 CLI 的配置链指向假服务。
func pointEnvAt(t *testing.T, fake *mocks.FakeQianfan) {
	t.Helper()
	t.Setenv("QIANFAN_ACCESS_KEY", "fake-ak")
	t.Setenv("QIANFAN_SECRET_KEY", "fake-sk")
	t.Setenv("QIANFAN_BASE_URL", fake.URL)
	t.Setenv("QIANFAN_CONSOLE_BASE_URL", fake.URL)
	t.Setenv("QIANFAN_AUTH_BASE_URL", fake.URL)
	t.Setenv("QIANFAN_RETRY_INITIAL_DELAY", "1ms")
	t.Setenv("QIANFAN_RETRY_JITTER", "false")
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewQianfanCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "qianfan")
}

func TestCompletionCommand(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithChatResult("补全结果")
	defer fake.Close()
	pointEnvAt(t, fake)

	out, err := runCommand(t, "completion", "续写：", "--endpoint", "sqlcoder_7b")
	require.NoError(t, err)
	assert.Contains(t, out, "补全结果")
}

func TestEmbeddingCommand(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()
	pointEnvAt(t, fake)

	out, err := runCommand(t, "embedding", "文本一", "文本二")
	require.NoError(t, err)
	assert.Contains(t, out, "dim=4")
	lines := strings.Count(strings.TrimSpace(out), "\n") + 1
	assert.Equal(t, 2, lines)
}

func TestDatasetSaveCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	dst := filepath.Join(dir, "out.csv")

	tb := dataset.FromRows([]dataset.Row{{"prompt": "p", "response": "r"}})
	require.NoError(t, tb.SaveFile(src))

	out, err := runCommand(t, "dataset", "save", src, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "1 行")

	back, err := dataset.LoadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, 1, back.Len())
}

func TestDatasetViewCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	tb := dataset.FromRows([]dataset.Row{
		{"prompt": "你好"},
		{"prompt": "你好世界"},
	})
	require.NoError(t, tb.SaveFile(src))

	out, err := runCommand(t, "dataset", "view", src, "--stats", "prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "2 行")
	assert.Contains(t, out, "token 统计")
}

func TestDatasetPredictCommand(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithChatResult("答案")
	defer fake.Close()
	pointEnvAt(t, fake)

	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	dst := filepath.Join(dir, "out.jsonl")
	tb := dataset.FromRows([]dataset.Row{{"prompt": "问题"}})
	require.NoError(t, tb.SaveFile(src))

	out, err := runCommand(t, "dataset", "predict", src, "-o", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "完成 1 条")

	back, err := dataset.LoadFile(dst)
	require.NoError(t, err)
	col, err := back.Col("response")
	require.NoError(t, err)
	assert.Equal(t, []any{"答案"}, col)
}

func TestCompletionCommandWithoutCredentials(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()
	pointEnvAt(t, fake)
	t.Setenv("QIANFAN_ACCESS_KEY", "")
	t.Setenv("QIANFAN_SECRET_KEY", "")

	// 凭据为空时模型面拿不到 token，命令报错而不是崩溃
	_, err := runCommand(t, "completion", "hi", "--endpoint", "eb-instant")
	require.Error(t, err)
}
