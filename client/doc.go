// Package client implements the HTTP requestor for the Qianfan platform:
// request construction and signing, token attachment and forced refresh,
// retry with exponential backoff, rate limiting, SSE stream decoding, and
// the resource methods (chat, completion, embedding, console management).
package client
