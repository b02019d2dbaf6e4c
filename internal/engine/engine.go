// Package engine drives the assessment flow: it normalizes case text,
// caches one blueprint per case, assembles sessions, scores answers and
// closes sessions. It owns persistence and turns caller mistakes into
// coded errors; LLM trouble never fails a request.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/casequiz/internal/blueprint"
	"github.com/abhisek/casequiz/internal/caseprofile"
	"github.com/abhisek/casequiz/internal/evaluate"
	"github.com/abhisek/casequiz/internal/event"
	"github.com/abhisek/casequiz/internal/lease"
	"github.com/abhisek/casequiz/internal/llm"
	"github.com/abhisek/casequiz/internal/logger"
	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/session"
	"github.com/abhisek/casequiz/internal/store"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Locker lease.Locker
	Events event.Publisher
	Logger *logger.Logger

	Blueprint blueprint.Config
	Judge     evaluate.JudgeConfig

	// SessionSize is used when a caller asks for 0 questions.
	SessionSize int

	// LeaseWait bounds how long a caller waits for another holder's
	// generation before generating itself.
	LeaseWait time.Duration
	LeasePoll time.Duration

	Rand  *rand.Rand
	Now   func() time.Time
	NewID func() string
}

// Engine is safe for concurrent use.
type Engine struct {
	repo      store.QuizRepo
	generator *blueprint.Generator
	evaluator *evaluate.Evaluator
	locker    lease.Locker
	events    event.Publisher
	log       *logger.Logger

	builderMu sync.Mutex
	builder   *session.Builder

	sessionSize int
	leaseWait   time.Duration
	leasePoll   time.Duration
	now         func() time.Time
	newID       func() string
}

// New creates an Engine over repo. A nil provider selects the fallback
// blueprint and the heuristic judge everywhere.
func New(repo store.QuizRepo, provider llm.Provider, opts Options) *Engine {
	log := logger.OrNop(opts.Logger)
	if opts.Locker == nil {
		opts.Locker = lease.Noop{}
	}
	if opts.Events == nil {
		opts.Events = event.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.SessionSize <= 0 {
		opts.SessionSize = session.DefaultQuestions
	}
	if opts.LeaseWait <= 0 {
		opts.LeaseWait = 30 * time.Second
	}
	if opts.LeasePoll <= 0 {
		opts.LeasePoll = 250 * time.Millisecond
	}

	bpCfg := opts.Blueprint
	if bpCfg.MaxTokens == 0 {
		bpCfg = blueprint.DefaultConfig()
	}
	if bpCfg.Logger == nil {
		bpCfg.Logger = log
	}
	if bpCfg.Now == nil {
		bpCfg.Now = opts.Now
	}

	judgeCfg := opts.Judge
	if judgeCfg.MaxTokens == 0 {
		judgeCfg = evaluate.DefaultJudgeConfig()
	}
	if judgeCfg.Logger == nil {
		judgeCfg.Logger = log
	}

	return &Engine{
		repo:        repo,
		generator:   blueprint.New(provider, bpCfg),
		evaluator:   evaluate.New(provider, judgeCfg),
		locker:      opts.Locker,
		events:      opts.Events,
		log:         log.With("component", "engine"),
		builder:     session.NewBuilder(opts.Rand),
		sessionSize: session.ClampCount(opts.SessionSize),
		leaseWait:   opts.LeaseWait,
		leasePoll:   opts.LeasePoll,
		now:         func() time.Time { return opts.Now().UTC() },
		newID:       opts.NewID,
	}
}

// BlueprintSummary describes a stored blueprint without its questions.
type BlueprintSummary struct {
	Blueprint           *quiz.Blueprint `json:"blueprint"`
	QuestionCount       int             `json:"questionCount"`
	QuestionsByCategory map[string]int  `json:"questionsByCategory"`
	Degraded            bool            `json:"degraded"`
}

// IngestResult is the outcome of submitting case text.
type IngestResult struct {
	Profile   *quiz.CaseProfile `json:"profile"`
	Blueprint BlueprintSummary  `json:"blueprint"`

	// Created is true when this call generated the blueprint; false when
	// an equal text was ingested before.
	Created bool `json:"created"`
}

// Ingest normalizes a user's case text and makes sure a blueprint exists
// for it. Ingesting the same text again returns the cached blueprint.
func (e *Engine) Ingest(ctx context.Context, userID, text string) (*IngestResult, error) {
	if userID == "" {
		return nil, invalidRequest("user id is required")
	}
	if caseprofile.Collapse(text) == "" {
		return nil, ErrNoCaseData
	}

	facts, flags := caseprofile.Normalize(text)
	profile, _, err := e.repo.CreateProfile(ctx, &quiz.CaseProfile{
		UserID:     userID,
		SourceHash: caseprofile.SourceHash(text),
		Facts:      facts,
		RiskFlags:  flags,
		CreatedAt:  e.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store case profile: %w", err)
	}

	bp, created, err := e.ensureBlueprint(ctx, profile)
	if err != nil {
		return nil, err
	}
	summary, err := e.summarize(ctx, bp)
	if err != nil {
		return nil, err
	}
	return &IngestResult{Profile: profile, Blueprint: *summary, Created: created}, nil
}

// ensureBlueprint returns the blueprint cached for the profile, generating
// and storing one when missing. Concurrent callers converge on the first
// stored blueprint.
func (e *Engine) ensureBlueprint(ctx context.Context, p *quiz.CaseProfile) (*quiz.Blueprint, bool, error) {
	if bp, err := e.cachedBlueprint(ctx, p); err != nil || bp != nil {
		return bp, false, err
	}

	release, acquired, err := e.locker.TryAcquire(ctx, "blueprint:"+p.UserID+":"+p.SourceHash)
	defer release()
	switch {
	case err != nil:
		e.log.Warn("generation lease unavailable, generating without it", "user", p.UserID, "error", err)
	case !acquired:
		bp, err := e.waitForBlueprint(ctx, p)
		if err != nil || bp != nil {
			return bp, false, err
		}
		e.log.Warn("generation lease holder did not finish in time, generating", "user", p.UserID)
	}

	res := e.generator.Generate(ctx, p.Facts, p.RiskFlags)
	bp, questions := e.materialize(p, res)

	stored, created, err := e.repo.CreateBlueprint(ctx, bp, questions)
	if err != nil {
		return nil, false, fmt.Errorf("store blueprint: %w", err)
	}
	if !created {
		e.log.Info("blueprint generated concurrently, using stored one", "user", p.UserID, "blueprint_id", stored.ID)
		return stored, false, nil
	}

	e.log.Info("blueprint generated",
		"user", p.UserID,
		"blueprint_id", stored.ID,
		"source", stored.Metadata.Source,
		"attempts", stored.Metadata.Attempts,
		"questions", len(questions),
	)
	e.publish(ctx, event.BlueprintGenerated{
		UserID:        p.UserID,
		BlueprintID:   stored.ID,
		Source:        stored.Metadata.Source,
		QuestionCount: len(questions),
	})
	return stored, true, nil
}

func (e *Engine) cachedBlueprint(ctx context.Context, p *quiz.CaseProfile) (*quiz.Blueprint, error) {
	bp, err := e.repo.BlueprintBySource(ctx, p.UserID, p.SourceHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load blueprint: %w", err)
	}
	return bp, nil
}

// waitForBlueprint polls for a blueprint another holder is generating. It
// returns nil without error when the wait runs out.
func (e *Engine) waitForBlueprint(ctx context.Context, p *quiz.CaseProfile) (*quiz.Blueprint, error) {
	deadline := time.NewTimer(e.leaseWait)
	defer deadline.Stop()
	tick := time.NewTicker(e.leasePoll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for blueprint: %w", ctx.Err())
		case <-deadline.C:
			return nil, nil
		case <-tick.C:
			if bp, err := e.cachedBlueprint(ctx, p); err != nil || bp != nil {
				return bp, err
			}
		}
	}
}

// materialize assigns identity to a generated blueprint and its bank.
func (e *Engine) materialize(p *quiz.CaseProfile, res blueprint.Result) (*quiz.Blueprint, []quiz.Question) {
	bp := &quiz.Blueprint{
		ID:         e.newID(),
		UserID:     p.UserID,
		SourceHash: p.SourceHash,
		Categories: res.Categories,
		Metadata:   res.Metadata,
		CreatedAt:  e.now(),
	}
	questions := res.Questions
	for i := range questions {
		questions[i].ID = e.newID()
		questions[i].UserID = p.UserID
		questions[i].BlueprintID = bp.ID
		questions[i].Position = i
	}
	return bp, questions
}

// Blueprint summarizes the user's latest blueprint.
func (e *Engine) Blueprint(ctx context.Context, userID string) (*BlueprintSummary, error) {
	bp, err := e.latestBlueprint(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.summarize(ctx, bp)
}

func (e *Engine) latestBlueprint(ctx context.Context, userID string) (*quiz.Blueprint, error) {
	if userID == "" {
		return nil, invalidRequest("user id is required")
	}
	bp, err := e.repo.LatestBlueprint(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoBlueprintFound
	}
	if err != nil {
		return nil, fmt.Errorf("load blueprint: %w", err)
	}
	return bp, nil
}

func (e *Engine) summarize(ctx context.Context, bp *quiz.Blueprint) (*BlueprintSummary, error) {
	bank, err := e.repo.Questions(ctx, bp.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byCategory := make(map[string]int)
	for _, q := range bank {
		byCategory[q.Category]++
	}
	return &BlueprintSummary{
		Blueprint:           bp,
		QuestionCount:       len(bank),
		QuestionsByCategory: byCategory,
		Degraded:            bp.Degraded(),
	}, nil
}

// StartedSession is a new session with its redacted questions in order.
type StartedSession struct {
	Session   *quiz.Session       `json:"session"`
	Questions []quiz.QuestionView `json:"questions"`
}

// StartSession samples a session from the user's latest blueprint. count
// is clamped to [1,20]; 0 selects the configured default.
func (e *Engine) StartSession(ctx context.Context, userID string, count int) (*StartedSession, error) {
	bp, err := e.latestBlueprint(ctx, userID)
	if err != nil {
		return nil, err
	}
	bank, err := e.repo.Questions(ctx, bp.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(bank) == 0 {
		return nil, ErrNoQuestionsAvailable
	}
	if count == 0 {
		count = e.sessionSize
	}

	e.builderMu.Lock()
	ids := e.builder.Build(bp.Categories, bank, count)
	e.builderMu.Unlock()

	s := &quiz.Session{
		ID:          e.newID(),
		UserID:      userID,
		BlueprintID: bp.ID,
		QuestionIDs: ids,
		StartedAt:   e.now(),
	}
	if err := e.repo.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	e.log.Info("session started", "user", userID, "session_id", s.ID, "questions", len(ids))
	return &StartedSession{Session: s, Questions: views(ids, indexByID(bank))}, nil
}

// SessionState is a session as its owner sees it.
type SessionState struct {
	Session   *quiz.Session       `json:"session"`
	Questions []quiz.QuestionView `json:"questions"`
	Answered  []string            `json:"answered"`
	Outcome   *quiz.Outcome       `json:"outcome,omitempty"`
}

// Session returns the state of one of the user's sessions.
func (e *Engine) Session(ctx context.Context, userID, sessionID string) (*SessionState, error) {
	s, err := e.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	bank, err := e.sessionBank(ctx, s)
	if err != nil {
		return nil, err
	}
	results, err := e.repo.Results(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	state := &SessionState{Session: s, Questions: views(s.QuestionIDs, bank), Answered: []string{}}
	for _, r := range results {
		state.Answered = append(state.Answered, r.QuestionID)
	}
	if out, ok := session.StoredOutcome(s); ok {
		state.Outcome = &out
	}
	return state, nil
}

func (e *Engine) loadSession(ctx context.Context, userID, sessionID string) (*quiz.Session, error) {
	if userID == "" {
		return nil, invalidRequest("user id is required")
	}
	s, err := e.repo.Session(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (e *Engine) sessionBank(ctx context.Context, s *quiz.Session) (map[string]quiz.Question, error) {
	bank, err := e.repo.Questions(ctx, s.BlueprintID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return indexByID(bank), nil
}

// Submission is one answer to a session question.
type Submission struct {
	QuestionID   string
	Answer       quiz.Answer
	TimeSpentSec int
}

// Submit scores an answer and stores it, replacing any earlier answer to
// the same question.
func (e *Engine) Submit(ctx context.Context, userID, sessionID string, sub Submission) (*quiz.Feedback, error) {
	if sub.QuestionID == "" {
		return nil, invalidRequest("questionId is required")
	}
	if sub.TimeSpentSec < 0 {
		return nil, invalidRequest("timeSpentSec must not be negative")
	}

	s, err := e.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	if !s.Contains(sub.QuestionID) {
		return nil, ErrQuestionNotInSession
	}
	bank, err := e.sessionBank(ctx, s)
	if err != nil {
		return nil, err
	}
	q, ok := bank[sub.QuestionID]
	if !ok {
		return nil, ErrQuestionNotInSession
	}

	facts, err := e.sessionFacts(ctx, s)
	if err != nil {
		return nil, err
	}

	ev := e.evaluator.Evaluate(ctx, &q, facts, sub.Answer)
	score := ev.Score
	err = e.repo.UpsertResult(ctx, &quiz.Result{
		SessionID:       s.ID,
		QuestionID:      q.ID,
		SubmittedAnswer: sub.Answer.String(),
		IsCorrect:       ev.IsCorrect,
		Score:           &score,
		Feedback:        ev.Feedback,
		TimeSpentSec:    sub.TimeSpentSec,
		UpdatedAt:       e.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}

	fb := evaluate.Feedback(&q, ev)
	return &fb, nil
}

// sessionFacts returns the case facts the session's blueprint was built
// from. A missing profile yields empty facts.
func (e *Engine) sessionFacts(ctx context.Context, s *quiz.Session) (quiz.Facts, error) {
	bp, err := e.repo.Blueprint(ctx, s.BlueprintID)
	if errors.Is(err, store.ErrNotFound) {
		return quiz.Facts{}, nil
	}
	if err != nil {
		return quiz.Facts{}, fmt.Errorf("load blueprint: %w", err)
	}
	p, err := e.repo.Profile(ctx, s.UserID, bp.SourceHash)
	if errors.Is(err, store.ErrNotFound) {
		return quiz.Facts{}, nil
	}
	if err != nil {
		return quiz.Facts{}, fmt.Errorf("load case profile: %w", err)
	}
	return p.Facts, nil
}

// Finish closes a session and returns its outcome. Finishing a closed
// session returns the stored outcome unchanged.
func (e *Engine) Finish(ctx context.Context, userID, sessionID string) (*quiz.Outcome, error) {
	s, err := e.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if out, ok := session.StoredOutcome(s); ok {
		return &out, nil
	}

	results, err := e.repo.Results(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	bank, err := e.sessionBank(ctx, s)
	if err != nil {
		return nil, err
	}

	out := session.Finish(s, results, bank, e.now())
	closed, err := e.repo.FinishSession(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("store outcome: %w", err)
	}
	if !closed {
		// Another request closed it first; its outcome stands.
		s, err = e.repo.Session(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("reload session: %w", err)
		}
		stored, _ := session.StoredOutcome(s)
		return &stored, nil
	}

	e.log.Info("session finished", "user", userID, "session_id", s.ID, "score", out.Score, "duration_sec", out.DurationSec)
	e.publish(ctx, event.SessionFinished{
		UserID:           userID,
		SessionID:        s.ID,
		Score:            out.Score,
		CompetencyScores: out.CompetencyScores,
		DurationSec:      out.DurationSec,
	})
	return &out, nil
}

// ResetUser deletes every profile, blueprint, question, session and
// result of a user.
func (e *Engine) ResetUser(ctx context.Context, userID string) (store.ResetCounts, error) {
	if userID == "" {
		return store.ResetCounts{}, invalidRequest("user id is required")
	}
	counts, err := e.repo.ResetUser(ctx, userID)
	if err != nil {
		return counts, fmt.Errorf("reset user: %w", err)
	}
	e.log.Info("user reset", "user", userID, "blueprints", counts.Blueprints, "sessions", counts.Sessions)
	return counts, nil
}

func (e *Engine) publish(ctx context.Context, ev event.Event) {
	if err := e.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		e.log.Warn("publish event failed", "type", ev.EventType(), "error", err)
	}
}

func indexByID(bank []quiz.Question) map[string]quiz.Question {
	m := make(map[string]quiz.Question, len(bank))
	for _, q := range bank {
		m[q.ID] = q
	}
	return m
}

func views(ids []string, bank map[string]quiz.Question) []quiz.QuestionView {
	out := make([]quiz.QuestionView, 0, len(ids))
	for _, id := range ids {
		if q, ok := bank[id]; ok {
			out = append(out, session.Redact(q))
		}
	}
	return out
}
