// Package blueprint produces the category weighting and question bank for a
// case, from the LLM when it cooperates and from a fixed bank when it does
// not.
package blueprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/casequiz/internal/llm"
	"github.com/abhisek/casequiz/internal/logger"
	"github.com/abhisek/casequiz/internal/quiz"
)

// ErrGenerationDegraded marks a result served from the fallback bank.
var ErrGenerationDegraded = errors.New("blueprint generation degraded")

// errNoProvider is the degradation cause when no LLM is configured.
var errNoProvider = errors.New("no LLM provider configured")

// maxAttempts is the initial call plus one stricter re-prompt.
const maxAttempts = 2

// Result is a generated blueprint without identity. The caller assigns
// IDs and persists it.
type Result struct {
	Categories []quiz.CategoryWeight
	Questions  []quiz.Question
	Metadata   quiz.GenerationMetadata

	// Degraded is true when the fallback bank was used; Err then wraps
	// ErrGenerationDegraded with the cause.
	Degraded bool
	Err      error
}

// Generator builds blueprints. It neither caches nor persists.
type Generator struct {
	provider llm.Provider
	config   Config
	log      *logger.Logger
}

// New creates a Generator. A nil provider always yields the fallback.
// Unset fields of cfg come from DefaultConfig; a nil Validators gets the
// standard chain, an empty slice runs none.
func New(provider llm.Provider, cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Validators == nil {
		cfg.Validators = def.Validators
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.QuestionsPerCategory <= 0 {
		cfg.QuestionsPerCategory = def.QuestionsPerCategory
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Generator{
		provider: provider,
		config:   cfg,
		log:      logger.OrNop(cfg.Logger).With("component", "blueprint"),
	}
}

// invalidOutputError marks a reply that arrived but could not be used.
type invalidOutputError struct{ err error }

func (e *invalidOutputError) Error() string { return e.err.Error() }
func (e *invalidOutputError) Unwrap() error { return e.err }

// Generate returns a blueprint for the case. It always succeeds.
func (g *Generator) Generate(ctx context.Context, facts quiz.Facts, flags []string) Result {
	if g.provider == nil {
		return g.fallback(errNoProvider, 0)
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeBlueprint)
	userMsg := buildUserMessage(facts, flags, g.config)

	var lastErr error
	attempts := 0
	for attempts < maxAttempts {
		system := systemPrompt
		if attempts > 0 {
			system += strictSuffix
		}
		attempts++

		draft, model, err := g.attempt(ctx, system, userMsg)
		if err == nil {
			return Result{
				Categories: draft.Categories,
				Questions:  draft.Questions,
				Metadata: quiz.GenerationMetadata{
					Source:        quiz.SourceLLM,
					Model:         model,
					Attempts:      attempts,
					PromptVersion: PromptVersion,
					GeneratedAt:   g.config.Now().UTC(),
				},
			}
		}
		lastErr = err

		var inv *invalidOutputError
		if !errors.As(err, &inv) {
			break
		}
		g.log.Info("blueprint output rejected", "attempt", attempts, "error", err)
	}

	return g.fallback(lastErr, attempts)
}

// attempt makes one LLM call and turns the reply into an accepted draft.
// Unusable replies come back as *invalidOutputError; anything else is a
// transport failure.
func (g *Generator) attempt(ctx context.Context, system, userMsg string) (*Draft, string, error) {
	req := llm.UserPrompt(system, userMsg).Expect(BlueprintSchema, g.config.MaxTokens, g.config.Temperature)

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		if llm.IsInvalidOutput(err) {
			return nil, "", &invalidOutputError{err: err}
		}
		return nil, "", fmt.Errorf("LLM generation failed: %w", err)
	}

	obj := llm.ExtractJSON(resp.Content)
	if obj == nil {
		return nil, "", &invalidOutputError{err: errors.New("no JSON object in reply")}
	}
	var raw blueprintOutput
	if err := json.Unmarshal(obj, &raw); err != nil {
		return nil, "", &invalidOutputError{err: fmt.Errorf("parse blueprint: %w", err)}
	}

	draft := raw.toDraft()
	for _, v := range g.config.Validators {
		if verr := v.Validate(draft); verr != nil {
			return nil, "", &invalidOutputError{err: verr}
		}
	}

	model := resp.Model
	if model == "" {
		model = g.provider.ModelID()
	}
	return draft, model, nil
}

func (g *Generator) fallback(cause error, attempts int) Result {
	g.log.Warn("blueprint generation degraded, using fallback bank",
		"attempts", attempts, "reason", cause)

	categories, questions := FallbackBank()
	return Result{
		Categories: categories,
		Questions:  questions,
		Metadata: quiz.GenerationMetadata{
			Source:         quiz.SourceFallback,
			Attempts:       attempts,
			DegradedReason: cause.Error(),
			PromptVersion:  PromptVersion,
			GeneratedAt:    g.config.Now().UTC(),
		},
		Degraded: true,
		Err:      fmt.Errorf("%w: %w", ErrGenerationDegraded, cause),
	}
}

// blueprintOutput is the raw LLM response before normalization.
type blueprintOutput struct {
	Categories []struct {
		Key         string `json:"key"`
		TargetCount int    `json:"targetCount"`
	} `json:"categories"`
	Questions []questionOutput `json:"questions"`
}

type keyTextOutput struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type questionOutput struct {
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Difficulty    int             `json:"difficulty"`
	Prompt        string          `json:"prompt"`
	Choices       []keyTextOutput `json:"choices"`
	CorrectAnswer []string        `json:"correctAnswer"`
	Rationales    []keyTextOutput `json:"rationales"`
	Rubric        []string        `json:"rubric"`
}

// toDraft normalizes keys and drops fields that do not belong to a
// question's type, so an mcq never carries a rubric and vice versa.
func (o *blueprintOutput) toDraft() *Draft {
	d := &Draft{}
	for _, c := range o.Categories {
		d.Categories = append(d.Categories, quiz.CategoryWeight{
			Key:         categoryKey(c.Key),
			TargetCount: c.TargetCount,
		})
	}

	for i, qo := range o.Questions {
		q := quiz.Question{
			Type:       quiz.QuestionType(strings.ToLower(strings.TrimSpace(qo.Type))),
			Category:   categoryKey(qo.Category),
			Difficulty: qo.Difficulty,
			Prompt:     strings.TrimSpace(qo.Prompt),
			Position:   i,
		}

		if q.Type.FreeForm() {
			for _, r := range qo.Rubric {
				if r = strings.TrimSpace(r); r != "" {
					q.Rubric = append(q.Rubric, r)
				}
			}
		} else {
			for _, c := range qo.Choices {
				q.Choices = append(q.Choices, quiz.Choice{Key: choiceKey(c.Key), Text: strings.TrimSpace(c.Text)})
			}
			for _, k := range qo.CorrectAnswer {
				q.CorrectAnswer = append(q.CorrectAnswer, choiceKey(k))
			}
			if len(qo.Rationales) > 0 {
				q.Rationales = make(map[string]string, len(qo.Rationales))
				for _, r := range qo.Rationales {
					q.Rationales[choiceKey(r.Key)] = strings.TrimSpace(r.Text)
				}
			}
		}
		d.Questions = append(d.Questions, q)
	}
	return d
}

func categoryKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func choiceKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
