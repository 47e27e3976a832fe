package tokenizer

import (
	"math"
	"strings"
	"unicode"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// ErnieTokenizer estimates ERNIE token usage locally:
// one token per Han character plus the latin word count scaled by a
// per-word ratio. Close enough for dataset statistics and budgeting;
// billing-grade counts come from the usage field of real responses.
type ErnieTokenizer struct {
	tokensPerWord float64
}

// NewErnie 创建 ERNIE 启发式估算器。
func NewErnie() *ErnieTokenizer {
	return &ErnieTokenizer{tokensPerWord: 1.3}
}

func (e *ErnieTokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	hanCount := 0
	var latin strings.Builder
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			hanCount++
			latin.WriteByte(' ')
			continue
		}
		latin.WriteRune(r)
	}
	wordCount := len(strings.Fields(latin.String()))

	estimated := hanCount + int(math.Ceil(float64(wordCount)*e.tokensPerWord))
	if estimated == 0 {
		estimated = 1
	}
	return estimated, nil
}

func (e *ErnieTokenizer) CountMessages(messages []types.Message) (int, error) {
	total := 0
	for _, msg := range messages {
		n, err := e.CountTokens(msg.Content)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (e *ErnieTokenizer) Name() string { return "ernie-estimator" }
