// Package quiz defines the assessment domain model shared by the engine,
// its stores and its consumers.
package quiz

import (
	"slices"
	"time"
)

// QuestionType selects how a question is answered and evaluated.
type QuestionType string

const (
	TypeMCQ      QuestionType = "mcq"
	TypeShort    QuestionType = "short"
	TypeScenario QuestionType = "scenario"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMCQ, TypeShort, TypeScenario:
		return true
	}
	return false
}

// FreeForm reports whether answers to t are graded against a rubric.
func (t QuestionType) FreeForm() bool {
	return t == TypeShort || t == TypeScenario
}

// Difficulty bounds.
const (
	MinDifficulty = 1
	MaxDifficulty = 3
)

// Risk flags raised by the case normalizer.
const (
	FlagAlcohol  = "alcohol"
	FlagCannabis = "cannabis"
	FlagDrugs    = "drugs"
	FlagPoints   = "points"
)

// Generation sources recorded on a blueprint.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Facts is the structured digest of a case narrative.
type Facts struct {
	Summary     string   `json:"summary" bson:"summary"`
	Hints       []string `json:"hints" bson:"hints"`
	SourceChars int      `json:"sourceChars" bson:"source_chars"`
	Truncated   bool     `json:"truncated" bson:"truncated"`
}

// CaseProfile is the normalized case for one user and one source text.
// There is at most one per (UserID, SourceHash) and it never changes.
type CaseProfile struct {
	UserID     string    `json:"userId"`
	SourceHash string    `json:"sourceHash"`
	Facts      Facts     `json:"facts"`
	RiskFlags  []string  `json:"riskFlags"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CategoryWeight is one competency area and the number of questions a
// full session should draw from it.
type CategoryWeight struct {
	Key         string `json:"key" bson:"key"`
	TargetCount int    `json:"targetCount" bson:"target_count"`
}

// GenerationMetadata records how a blueprint was produced.
type GenerationMetadata struct {
	Source         string    `json:"source" bson:"source"`
	Model          string    `json:"model,omitempty" bson:"model,omitempty"`
	Attempts       int       `json:"attempts" bson:"attempts"`
	DegradedReason string    `json:"degradedReason,omitempty" bson:"degraded_reason,omitempty"`
	PromptVersion  string    `json:"promptVersion" bson:"prompt_version"`
	GeneratedAt    time.Time `json:"generatedAt" bson:"generated_at"`
}

// Blueprint is the cached generation result for one case profile.
type Blueprint struct {
	ID         string             `json:"id"`
	UserID     string             `json:"userId"`
	SourceHash string             `json:"sourceHash"`
	Categories []CategoryWeight   `json:"categories"`
	Metadata   GenerationMetadata `json:"metadata"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Degraded reports whether the blueprint came from the fallback bank.
func (b *Blueprint) Degraded() bool {
	return b.Metadata.Source == SourceFallback
}

// Choice is one option of a multiple-choice question.
type Choice struct {
	Key  string `json:"key" bson:"key"`
	Text string `json:"text" bson:"text"`
}

// Question is one bank entry. Answer keys and rubrics never leave the
// engine before the question is answered; see Redact.
type Question struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	BlueprintID   string            `json:"blueprintId"`
	Type          QuestionType      `json:"type"`
	Category      string            `json:"category"`
	Difficulty    int               `json:"difficulty"`
	Prompt        string            `json:"prompt"`
	Choices       []Choice          `json:"choices,omitempty"`
	CorrectAnswer []string          `json:"correctAnswer,omitempty"`
	Rationales    map[string]string `json:"rationales,omitempty"`
	Rubric        []string          `json:"rubric,omitempty"`
	Position      int               `json:"position"`
}

// Session is one practice run over an ordered subset of the bank.
type Session struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	BlueprintID      string         `json:"blueprintId"`
	QuestionIDs      []string       `json:"questionIds"`
	StartedAt        time.Time      `json:"startedAt"`
	FinishedAt       *time.Time     `json:"finishedAt,omitempty"`
	Score            *int           `json:"score,omitempty"`
	CompetencyScores map[string]int `json:"competencyScores,omitempty"`
}

// Closed reports whether the session has been finished.
func (s *Session) Closed() bool {
	return s.FinishedAt != nil
}

// Contains reports whether questionID belongs to the session.
func (s *Session) Contains(questionID string) bool {
	return slices.Contains(s.QuestionIDs, questionID)
}

// Result is the latest evaluated answer for one question of a session.
type Result struct {
	SessionID       string    `json:"sessionId"`
	QuestionID      string    `json:"questionId"`
	SubmittedAnswer string    `json:"submittedAnswer"`
	IsCorrect       *bool     `json:"isCorrect,omitempty"`
	Score           *float64  `json:"score,omitempty"`
	Feedback        string    `json:"feedback,omitempty"`
	TimeSpentSec    int       `json:"timeSpentSec"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Outcome is the aggregate of a finished session.
type Outcome struct {
	SessionID        string         `json:"sessionId"`
	Score            int            `json:"score"`
	CompetencyScores map[string]int `json:"competencyScores"`
	DurationSec      int            `json:"durationSec"`
	FinishedAt       time.Time      `json:"finishedAt"`
}
