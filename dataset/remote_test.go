package dataset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baidubce/bce-qianfan-sdk-go/batch"
	"github.com/baidubce/bce-qianfan-sdk-go/client"
	"github.com/baidubce/bce-qianfan-sdk-go/testutil/mocks"
	"github.com/baidubce/bce-qianfan-sdk-go/tokenizer"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

func newService(t *testing.T, fake *mocks.FakeQianfan) (*Service, *client.Client) {
	t.Helper()
	c, err := client.New(fake.ClientConfig())
	require.NoError(t, err)
	return NewService(c, WithPollInterval(time.Millisecond)), c
}

func TestServiceCreateAndInfo(t *testing.T) {
	fake := mocks.NewFakeQianfan().
		WithConsoleResult(routeDatasetCreate, map[string]any{
			"datasetId": "ds-1", "displayName": "训练集", "projectType": types.DataProjectConversation,
		}).
		WithConsoleResult(routeDatasetInfo, map[string]any{
			"datasetId": "ds-1", "entityCount": 100, "releaseStatus": types.DatasetStatusDone,
		})
	defer fake.Close()

	svc, _ := newService(t, fake)
	ctx := context.Background()

	info, err := svc.Create(ctx, &CreateRequest{
		Name:         "训练集",
		ProjectType:  types.DataProjectConversation,
		TemplateType: types.DataTemplateNonSortedConversation,
	})
	require.NoError(t, err)
	assert.Equal(t, "ds-1", info.ID)

	// storageType 默认公有 BOS
	body := fake.LastBodyFor(routeDatasetCreate)
	assert.Equal(t, types.DataStoragePublicBOS, body["storageType"])

	got, err := svc.Info(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.EntityCount)
}

func TestServiceWaitRelease(t *testing.T) {
	fake := mocks.NewFakeQianfan().
		WithConsoleResult(routeDatasetRelease, map[string]any{}).
		WithConsoleResultSequence(routeDatasetInfo,
			map[string]any{"datasetId": "ds-1", "releaseStatus": types.DatasetStatusRunning},
			map[string]any{"datasetId": "ds-1", "releaseStatus": types.DatasetStatusRunning},
			map[string]any{"datasetId": "ds-1", "releaseStatus": types.DatasetStatusDone},
		)
	defer fake.Close()

	svc, _ := newService(t, fake)
	ctx := context.Background()

	require.NoError(t, svc.Release(ctx, "ds-1"))
	require.NoError(t, svc.WaitRelease(ctx, "ds-1"))
	// release + 三次轮询
	assert.Equal(t, 4, fake.ConsoleCalls())
}

func TestServiceWaitImportFailed(t *testing.T) {
	fake := mocks.NewFakeQianfan().
		WithConsoleResult(routeDatasetInfo, map[string]any{
			"datasetId": "ds-1", "importStatus": types.DatasetStatusFailed,
		})
	defer fake.Close()

	svc, _ := newService(t, fake)
	err := svc.WaitImport(context.Background(), "ds-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import")
}

func TestServiceWaitCancelled(t *testing.T) {
	fake := mocks.NewFakeQianfan().
		WithConsoleResult(routeDatasetInfo, map[string]any{
			"datasetId": "ds-1", "exportStatus": types.DatasetStatusRunning,
		})
	defer fake.Close()

	svc, _ := newService(t, fake)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := svc.WaitExport(ctx, "ds-1")
	require.Error(t, err)
}

func TestPredictFillsColumn(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithChatResult("答案")
	defer fake.Close()

	_, c := newService(t, fake)
	runner := batch.NewRunner(c, batch.WithWorkers(2))

	tb := FromRows([]Row{
		{"prompt": "问题一"},
		{"prompt": "问题二"},
	})

	results, err := Predict(context.Background(), tb, runner, "", "", "prompt", "response")
	require.NoError(t, err)
	require.Len(t, results, 2)

	col, err := tb.Col("response")
	require.NoError(t, err)
	assert.Equal(t, []any{"答案", "答案"}, col)
}

func TestPredictRejectsPackedTable(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()

	_, c := newService(t, fake)
	runner := batch.NewRunner(c)

	tb := FromRows([]Row{{"prompt": "q"}})
	require.NoError(t, tb.Pack())

	_, err := Predict(context.Background(), tb, runner, "", "", "prompt", "response")
	require.Error(t, err)
}

func TestTokenStats(t *testing.T) {
	tb := FromRows([]Row{
		{"prompt": "你好"},
		{"prompt": "你好世界"},
	})

	stats, err := tb.TokenStats(tokenizer.NewErnie(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 4, stats.Max)
	assert.Equal(t, 2, stats.Min)
	assert.InDelta(t, 3.0, stats.Mean, 1e-9)
}
