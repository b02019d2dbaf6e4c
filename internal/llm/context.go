package llm

import "context"

// Purpose labels recorded with every call.
const (
	PurposeBlueprint = "blueprint"
	PurposeJudge     = "answer-judge"
)

// Purposes lists every label the engine attaches.
var Purposes = []string{PurposeBlueprint, PurposeJudge}

type purposeKey struct{}

// WithPurpose tags ctx so the logging decorator can attribute the call.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
