package evaluate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"github.com/abhisek/casequiz/internal/llm"
	"github.com/abhisek/casequiz/internal/logger"
	"github.com/abhisek/casequiz/internal/quiz"
)

// JudgeConfig holds configuration for the LLM judge.
type JudgeConfig struct {
	MaxTokens   int
	Temperature float64
	Logger      *logger.Logger
}

// DefaultJudgeConfig returns sensible defaults.
func DefaultJudgeConfig() JudgeConfig {
	return JudgeConfig{
		MaxTokens:   400,
		Temperature: 0.2,
	}
}

// JudgeSchema defines the verdict the judge must return. The score range is
// enforced after parsing, not by the schema.
var JudgeSchema = &llm.Schema{
	Name:        "answer-judge",
	Description: "Rubric-based grade for a free-text interview answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"description": "Share of the rubric the answer covers, from 0.0 to 1.0",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Two or three sentences addressed to the candidate. Do not quote the rubric.",
			},
		},
		"required":             []any{"score", "feedback"},
		"additionalProperties": false,
	},
}

const judgeSystemPrompt = `You are an experienced assessor grading a candidate's practice answer for a driving-fitness interview.

Instructions:
- Compare the answer with the rubric points. Score the share of points the answer genuinely covers, from 0.0 to 1.0.
- Reward concrete, personal and consistent statements. Penalise vague, rehearsed or blame-shifting answers.
- Use the case facts to spot contradictions with the candidate's record.
- Feedback speaks to the candidate, names what was missing, and never reveals the rubric verbatim.`

var judgeUserTemplate = template.Must(template.New("judge").Parse(`Question ({{.Type}}): {{.Prompt}}

Rubric:
{{range .Rubric}}- {{.}}
{{end}}
Case facts:
{{if .Summary}}{{.Summary}}{{else}}(none){{end}}

Candidate answer:
{{.Answer}}
`))

type judgeInput struct {
	Type    quiz.QuestionType
	Prompt  string
	Rubric  []string
	Summary string
	Answer  string
}

func buildJudgeMessage(q *quiz.Question, facts quiz.Facts, answer string) (string, error) {
	var buf bytes.Buffer
	err := judgeUserTemplate.Execute(&buf, judgeInput{
		Type:    q.Type,
		Prompt:  q.Prompt,
		Rubric:  q.Rubric,
		Summary: facts.Summary,
		Answer:  answer,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// judgeOutput is the raw LLM verdict.
type judgeOutput struct {
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback"`
}

// judgeStrategy grades free-form answers with the LLM and falls back to
// the length heuristic on any failure.
type judgeStrategy struct {
	provider llm.Provider
	cfg      JudgeConfig
	log      *logger.Logger
}

func newJudgeStrategy(provider llm.Provider, cfg JudgeConfig, log *logger.Logger) *judgeStrategy {
	return &judgeStrategy{provider: provider, cfg: cfg, log: log}
}

func (s *judgeStrategy) Evaluate(ctx context.Context, q *quiz.Question, facts quiz.Facts, answer quiz.Answer) Evaluation {
	if answer.Blank() {
		return Evaluation{Score: 0, Feedback: "No answer was given."}
	}
	text := answer.String()

	if s.provider == nil {
		return s.fallback(q, text, errors.New("no LLM provider configured"))
	}

	verdict, err := s.judge(ctx, q, facts, text)
	if err != nil {
		return s.fallback(q, text, err)
	}
	return Evaluation{
		Score:    Quantize(*verdict.Score),
		Feedback: verdict.Feedback,
	}
}

func (s *judgeStrategy) judge(ctx context.Context, q *quiz.Question, facts quiz.Facts, answer string) (*judgeOutput, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeJudge)

	userMsg, err := buildJudgeMessage(q, facts, answer)
	if err != nil {
		return nil, fmt.Errorf("build judge prompt: %w", err)
	}

	req := llm.UserPrompt(judgeSystemPrompt, userMsg).Expect(JudgeSchema, s.cfg.MaxTokens, s.cfg.Temperature)

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM judge failed: %w", err)
	}

	obj := llm.ExtractJSON(resp.Content)
	if obj == nil {
		return nil, errors.New("judge reply holds no JSON object")
	}
	var out judgeOutput
	if err := json.Unmarshal(obj, &out); err != nil {
		return nil, fmt.Errorf("parse judge reply: %w", err)
	}
	if out.Score == nil {
		return nil, errors.New("judge reply without score")
	}
	return &out, nil
}

func (s *judgeStrategy) fallback(q *quiz.Question, answer string, cause error) Evaluation {
	s.log.Warn("judge unavailable, scoring by length", "question_id", q.ID, "reason", cause)
	return Evaluation{
		Score:            HeuristicScore(answer),
		Feedback:         heuristicFeedback,
		JudgeUnavailable: true,
		Err:              fmt.Errorf("%w: %w", ErrJudgeUnavailable, cause),
	}
}
