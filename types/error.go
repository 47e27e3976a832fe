package types

import (
	"errors"
	"fmt"
)

// Qianfan API error codes. The platform returns these in the response body
// with HTTP status 200, so they are the primary error signal.
const (
	CodeUnknownError       = 1
	CodeServiceUnavailable = 2
	CodeUnsupportedMethod  = 3
	CodeIAMAuthFailed      = 13
	CodeAppNotExist        = 15
	CodeDailyLimitReached  = 17
	CodeQPSLimitReached    = 18
	CodeTotalQuotaReached  = 19
	CodeInvalidParam       = 100
	CodeTokenInvalid       = 110
	CodeTokenExpired       = 111
	CodeServerInternal     = 336000
	CodeInvalidArgument    = 336001
	CodeInvalidJSON        = 336002
	CodeInvalidBody        = 336003
	CodeOutputLimitReached = 336006
	CodeServerHighLoad     = 336100
)

// retryableCodes 为默认可重试的 API 错误码集合。
// 110/111 不在其中：token 失效走单独的强制刷新路径。
var retryableCodes = map[int]struct{}{
	CodeServiceUnavailable: {},
	CodeQPSLimitReached:    {},
	CodeServerInternal:     {},
	CodeServerHighLoad:     {},
}

// APIError is an error reported by the Qianfan API in a response body.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qianfan api error: code=%d msg=%s", e.Code, e.Message)
}

// Retryable reports whether the error code is safe to retry blindly.
func (e *APIError) Retryable() bool {
	_, ok := retryableCodes[e.Code]
	return ok
}

// TokenError reports whether the error indicates an invalid or expired
// access token, which should trigger a forced refresh and a single replay.
func (e *APIError) TokenError() bool {
	return e.Code == CodeTokenInvalid || e.Code == CodeTokenExpired
}

// AuthError is a failure from the OAuth token endpoint. Unlike APIError it
// carries the OAuth-style string error fields.
type AuthError struct {
	ErrorCode   string `json:"error"`
	Description string `json:"error_description"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("qianfan auth error: %s: %s", e.ErrorCode, e.Description)
}

// ErrorFromCode builds an APIError for a known code with a default message.
func ErrorFromCode(code int, msg string) *APIError {
	return &APIError{Code: code, Message: msg}
}

// AsAPIError unwraps err into an *APIError if possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsRetryable reports whether err may be retried: either a retryable API
// error code, or an explicitly wrapped transport error.
func IsRetryable(err error) bool {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Retryable()
	}
	var te *TransportError
	return errors.As(err, &te)
}

// TransportError wraps a network-level failure (connect, 5xx, body read).
// Transport errors are always retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "qianfan transport error: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
