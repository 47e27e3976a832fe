package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Retryable(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{CodeQPSLimitReached, true},
		{CodeServerHighLoad, true},
		{CodeServiceUnavailable, true},
		{CodeServerInternal, true},
		{CodeInvalidParam, false},
		{CodeTokenExpired, false}, // token 错误走刷新路径，不盲目重试
		{CodeDailyLimitReached, false},
	}
	for _, c := range cases {
		err := ErrorFromCode(c.code, "x")
		assert.Equal(t, c.want, err.Retryable(), "code %d", c.code)
	}
}

func TestAPIError_TokenError(t *testing.T) {
	assert.True(t, ErrorFromCode(CodeTokenInvalid, "").TokenError())
	assert.True(t, ErrorFromCode(CodeTokenExpired, "").TokenError())
	assert.False(t, ErrorFromCode(CodeQPSLimitReached, "").TokenError())
}

func TestIsRetryable_Wrapped(t *testing.T) {
	inner := ErrorFromCode(CodeServerHighLoad, "try again")
	wrapped := fmt.Errorf("call failed: %w", inner)
	assert.True(t, IsRetryable(wrapped))

	apiErr, ok := AsAPIError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeServerHighLoad, apiErr.Code)
}

func TestTransportError_RetryableAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	te := &TransportError{Err: cause}
	assert.True(t, IsRetryable(te))
	assert.ErrorIs(t, te, cause)
}

func TestModelResponse_Err(t *testing.T) {
	ok := &ModelResponse{Result: "hello"}
	assert.NoError(t, ok.Err())

	bad := &ModelResponse{ErrorCode: CodeTokenExpired, ErrorMsg: "Access token expired"}
	err := bad.Err()
	assert.Error(t, err)
	apiErr, found := AsAPIError(err)
	assert.True(t, found)
	assert.True(t, apiErr.TokenError())
}
