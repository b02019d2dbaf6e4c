package llm

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// reply is what an adapter pulled out of a vendor response.
type reply struct {
	text   string
	model  string
	stop   string
	input  int
	output int
}

// response applies the structured-output checks and builds the Response.
func (r reply) response(req Request) (*Response, error) {
	content, err := structuredContent(req, json.RawMessage(r.text), r.stop)
	if err != nil {
		return nil, err
	}
	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  r.input,
			OutputTokens: r.output,
			TotalTokens:  r.input + r.output,
		},
		Model:      r.model,
		StopReason: r.stop,
	}, nil
}

// statusError classifies a failed vendor call by HTTP status. Zero means
// the call never got a status (network error).
func statusError(status int, header http.Header, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{RetryAfter: retryAfter(header), Err: err}
	}
	return &ErrProviderUnavailable{Status: status, Err: err}
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
