package mongostore

import (
	"time"

	"github.com/abhisek/casequiz/internal/quiz"
)

type profileDoc struct {
	UserID     string     `bson:"user_id"`
	SourceHash string     `bson:"source_hash"`
	Facts      quiz.Facts `bson:"facts"`
	RiskFlags  []string   `bson:"risk_flags"`
	CreatedAt  time.Time  `bson:"created_at"`
}

func toProfileDoc(p *quiz.CaseProfile) profileDoc {
	return profileDoc{
		UserID:     p.UserID,
		SourceHash: p.SourceHash,
		Facts:      p.Facts,
		RiskFlags:  p.RiskFlags,
		CreatedAt:  p.CreatedAt.UTC(),
	}
}

func (d profileDoc) model() *quiz.CaseProfile {
	return &quiz.CaseProfile{
		UserID:     d.UserID,
		SourceHash: d.SourceHash,
		Facts:      d.Facts,
		RiskFlags:  d.RiskFlags,
		CreatedAt:  utc(d.CreatedAt),
	}
}

type blueprintDoc struct {
	ID         string                  `bson:"_id"`
	UserID     string                  `bson:"user_id"`
	SourceHash string                  `bson:"source_hash"`
	Categories []quiz.CategoryWeight   `bson:"categories"`
	Metadata   quiz.GenerationMetadata `bson:"metadata"`
	CreatedAt  time.Time               `bson:"created_at"`
}

func toBlueprintDoc(bp *quiz.Blueprint) blueprintDoc {
	return blueprintDoc{
		ID:         bp.ID,
		UserID:     bp.UserID,
		SourceHash: bp.SourceHash,
		Categories: bp.Categories,
		Metadata:   bp.Metadata,
		CreatedAt:  bp.CreatedAt.UTC(),
	}
}

func (d blueprintDoc) model() *quiz.Blueprint {
	md := d.Metadata
	md.GeneratedAt = utc(md.GeneratedAt)
	return &quiz.Blueprint{
		ID:         d.ID,
		UserID:     d.UserID,
		SourceHash: d.SourceHash,
		Categories: d.Categories,
		Metadata:   md,
		CreatedAt:  utc(d.CreatedAt),
	}
}

type questionDoc struct {
	ID            string            `bson:"_id"`
	UserID        string            `bson:"user_id"`
	BlueprintID   string            `bson:"blueprint_id"`
	Type          string            `bson:"type"`
	Category      string            `bson:"category"`
	Difficulty    int               `bson:"difficulty"`
	Prompt        string            `bson:"prompt"`
	Choices       []quiz.Choice     `bson:"choices,omitempty"`
	CorrectAnswer []string          `bson:"correct_answer,omitempty"`
	Rationales    map[string]string `bson:"rationales,omitempty"`
	Rubric        []string          `bson:"rubric,omitempty"`
	Position      int               `bson:"position"`
}

func toQuestionDoc(q *quiz.Question) questionDoc {
	return questionDoc{
		ID:            q.ID,
		UserID:        q.UserID,
		BlueprintID:   q.BlueprintID,
		Type:          string(q.Type),
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		Prompt:        q.Prompt,
		Choices:       q.Choices,
		CorrectAnswer: q.CorrectAnswer,
		Rationales:    q.Rationales,
		Rubric:        q.Rubric,
		Position:      q.Position,
	}
}

func (d questionDoc) model() quiz.Question {
	return quiz.Question{
		ID:            d.ID,
		UserID:        d.UserID,
		BlueprintID:   d.BlueprintID,
		Type:          quiz.QuestionType(d.Type),
		Category:      d.Category,
		Difficulty:    d.Difficulty,
		Prompt:        d.Prompt,
		Choices:       d.Choices,
		CorrectAnswer: d.CorrectAnswer,
		Rationales:    d.Rationales,
		Rubric:        d.Rubric,
		Position:      d.Position,
	}
}

type sessionDoc struct {
	ID               string         `bson:"_id"`
	UserID           string         `bson:"user_id"`
	BlueprintID      string         `bson:"blueprint_id"`
	QuestionIDs      []string       `bson:"question_ids"`
	StartedAt        time.Time      `bson:"started_at"`
	FinishedAt       *time.Time     `bson:"finished_at,omitempty"`
	Score            *int           `bson:"score,omitempty"`
	CompetencyScores map[string]int `bson:"competency_scores,omitempty"`
}

func toSessionDoc(s *quiz.Session) sessionDoc {
	return sessionDoc{
		ID:               s.ID,
		UserID:           s.UserID,
		BlueprintID:      s.BlueprintID,
		QuestionIDs:      s.QuestionIDs,
		StartedAt:        s.StartedAt.UTC(),
		FinishedAt:       s.FinishedAt,
		Score:            s.Score,
		CompetencyScores: s.CompetencyScores,
	}
}

func (d sessionDoc) model() *quiz.Session {
	s := &quiz.Session{
		ID:               d.ID,
		UserID:           d.UserID,
		BlueprintID:      d.BlueprintID,
		QuestionIDs:      d.QuestionIDs,
		StartedAt:        utc(d.StartedAt),
		Score:            d.Score,
		CompetencyScores: d.CompetencyScores,
	}
	if d.FinishedAt != nil {
		t := utc(*d.FinishedAt)
		s.FinishedAt = &t
		if s.CompetencyScores == nil {
			s.CompetencyScores = map[string]int{}
		}
	}
	return s
}

type resultDoc struct {
	SessionID       string    `bson:"session_id"`
	QuestionID      string    `bson:"question_id"`
	SubmittedAnswer string    `bson:"submitted_answer"`
	IsCorrect       *bool     `bson:"is_correct,omitempty"`
	Score           *float64  `bson:"score,omitempty"`
	Feedback        string    `bson:"feedback"`
	TimeSpentSec    int       `bson:"time_spent_sec"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toResultDoc(r *quiz.Result) resultDoc {
	return resultDoc{
		SessionID:       r.SessionID,
		QuestionID:      r.QuestionID,
		SubmittedAnswer: r.SubmittedAnswer,
		IsCorrect:       r.IsCorrect,
		Score:           r.Score,
		Feedback:        r.Feedback,
		TimeSpentSec:    r.TimeSpentSec,
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func (d resultDoc) model() quiz.Result {
	return quiz.Result{
		SessionID:       d.SessionID,
		QuestionID:      d.QuestionID,
		SubmittedAnswer: d.SubmittedAnswer,
		IsCorrect:       d.IsCorrect,
		Score:           d.Score,
		Feedback:        d.Feedback,
		TimeSpentSec:    d.TimeSpentSec,
		UpdatedAt:       utc(d.UpdatedAt),
	}
}
