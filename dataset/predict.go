package dataset

import (
	"context"
	"fmt"

	"github.com/baidubce/bce-qianfan-sdk-go/batch"
	"github.com/baidubce/bce-qianfan-sdk-go/tokenizer"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// Predict runs every prompt of inCol through the model and stores the
// answers in outCol, one per row. Per-row failures leave an empty cell;
// the raw batch results carry the errors.
func Predict(ctx context.Context, t *Table, r *batch.Runner, model, endpoint, inCol, outCol string) ([]batch.Result, error) {
	if t.Packed() {
		return nil, fmt.Errorf("dataset: cannot predict over a packed table, unpack first")
	}
	prompts, err := t.Col(inCol)
	if err != nil {
		return nil, err
	}

	reqs := make([]*types.ChatRequest, len(prompts))
	for i, p := range prompts {
		text, ok := p.(string)
		if !ok {
			return nil, fmt.Errorf("dataset: column %q row %d is not a string", inCol, i)
		}
		reqs[i] = &types.ChatRequest{
			Messages: []types.Message{{Role: types.RoleUser, Content: text}},
		}
	}

	results := r.ChatCompletion(ctx, model, endpoint, reqs)

	values := make([]any, len(results))
	for i, res := range results {
		if res.Err != nil || res.Response == nil {
			values[i] = ""
			continue
		}
		values[i] = res.Response.Result
	}
	if err := t.AppendColumn(outCol, values); err != nil {
		return nil, err
	}
	return results, nil
}

// TokenStats 为一列文本的 token 用量汇总。
type TokenStats struct {
	Rows  int
	Total int
	Max   int
	Min   int
	Mean  float64
}

// TokenStats estimates token usage over a text column with tok.
func (t *Table) TokenStats(tok tokenizer.Tokenizer, column string) (TokenStats, error) {
	values, err := t.Col(column)
	if err != nil {
		return TokenStats{}, err
	}

	stats := TokenStats{Rows: len(values)}
	for i, v := range values {
		text, _ := v.(string)
		n, err := tok.CountTokens(text)
		if err != nil {
			return TokenStats{}, fmt.Errorf("dataset: count tokens row %d: %w", i, err)
		}
		stats.Total += n
		if n > stats.Max {
			stats.Max = n
		}
		if i == 0 || n < stats.Min {
			stats.Min = n
		}
	}
	if stats.Rows > 0 {
		stats.Mean = float64(stats.Total) / float64(stats.Rows)
	}
	return stats, nil
}
