package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/casequiz/internal/quiz"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // id > After
	Before  int64     // id < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match
}

// ResetCounts reports how many rows a user reset removed per kind.
type ResetCounts struct {
	Profiles   int64 `json:"profiles"`
	Blueprints int64 `json:"blueprints"`
	Questions  int64 `json:"questions"`
	Sessions   int64 `json:"sessions"`
	Results    int64 `json:"results"`
}

// QuizRepo persists case profiles, blueprints, question banks, sessions
// and results. Profiles and blueprints are unique per (userID, sourceHash)
// and the first writer wins.
type QuizRepo interface {
	// CreateProfile inserts p unless a profile with the same key exists.
	// It returns the stored profile and whether p was inserted.
	CreateProfile(ctx context.Context, p *quiz.CaseProfile) (*quiz.CaseProfile, bool, error)

	// Profile returns the profile stored for a source hash.
	Profile(ctx context.Context, userID, sourceHash string) (*quiz.CaseProfile, error)

	// LatestProfile returns the user's most recent profile.
	LatestProfile(ctx context.Context, userID string) (*quiz.CaseProfile, error)

	// CreateBlueprint inserts bp with its question bank unless a blueprint
	// with the same key exists. It returns the stored blueprint and
	// whether bp was inserted; a losing writer's questions are discarded.
	CreateBlueprint(ctx context.Context, bp *quiz.Blueprint, questions []quiz.Question) (*quiz.Blueprint, bool, error)

	Blueprint(ctx context.Context, id string) (*quiz.Blueprint, error)

	// BlueprintBySource returns the blueprint cached for a source hash.
	BlueprintBySource(ctx context.Context, userID, sourceHash string) (*quiz.Blueprint, error)

	// LatestBlueprint returns the user's most recent blueprint.
	LatestBlueprint(ctx context.Context, userID string) (*quiz.Blueprint, error)

	// Questions returns a blueprint's bank ordered by position.
	Questions(ctx context.Context, blueprintID string) ([]quiz.Question, error)

	CreateSession(ctx context.Context, s *quiz.Session) error
	Session(ctx context.Context, id string) (*quiz.Session, error)

	// FinishSession stores the outcome on an open session. It returns
	// false when the session was already finished.
	FinishSession(ctx context.Context, o quiz.Outcome) (bool, error)

	// UpsertResult stores r, replacing any earlier result for the same
	// (SessionID, QuestionID).
	UpsertResult(ctx context.Context, r *quiz.Result) error
	Results(ctx context.Context, sessionID string) ([]quiz.Result, error)

	// ResetUser deletes everything stored for a user.
	ResetUser(ctx context.Context, userID string) (ResetCounts, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}
