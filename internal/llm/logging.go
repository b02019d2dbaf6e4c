package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/casequiz/internal/logger"
	"github.com/abhisek/casequiz/internal/store"
)

// LoggingProvider writes a log line for every call and, when an event
// repo is attached, an llm_events row that `casequiz llm` can inspect.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
	log      *logger.Logger
}

// WithLogging wraps p. events may be nil.
func WithLogging(p Provider, providerName string, events store.EventRepo, log *logger.Logger) Provider {
	return &LoggingProvider{
		inner:    p,
		provider: providerName,
		events:   events,
		log:      logger.OrNop(log).With("component", "llm", "provider", providerName),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	ev := l.event(PurposeFrom(ctx), req, resp, err, time.Since(start))

	l.report(ev, err)
	if l.events != nil {
		// Recording outlives a cancelled caller and never fails the call.
		if recErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); recErr != nil {
			l.log.Warn("record llm event", "purpose", ev.Purpose, "error", recErr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) event(purpose string, req Request, resp *Response, err error, took time.Duration) store.LLMRequestEventData {
	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   took.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}
	return ev
}

func (l *LoggingProvider) report(ev store.LLMRequestEventData, err error) {
	if err != nil {
		l.log.Warn("llm call failed",
			"purpose", ev.Purpose, "model", ev.Model,
			"latency_ms", ev.LatencyMs, "error", err)
		return
	}
	l.log.Debug("llm call",
		"purpose", ev.Purpose, "model", ev.Model,
		"input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens,
		"latency_ms", ev.LatencyMs)
}

// transcript flattens a request into the text shown by `casequiz llm view`:
// one bracketed section per system prompt, message and schema.
func transcript(req Request) string {
	var b strings.Builder
	section := func(label, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", label, body)
	}

	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		section(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			section("schema: "+req.Schema.Name, string(def))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
