package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/casequiz/internal/quiz"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"case_profiles", "blueprints", "questions", "sessions", "results", "llm_events"} {
		var name string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpenDriverRejectsUnknown(t *testing.T) {
	_, err := OpenDriver(context.Background(), "oracle", "x")
	assert.Error(t, err)
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("CASEQUIZ_DB", filepath.Join(dir, "env", "x.db"))
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "env", "x.db"), p)
	assert.DirExists(t, filepath.Join(dir, "env"))

	t.Setenv("CASEQUIZ_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "casequiz", "casequiz.db"), p)
}

func testProfile(user, hash string) *quiz.CaseProfile {
	return &quiz.CaseProfile{
		UserID:     user,
		SourceHash: hash,
		Facts:      quiz.Facts{Summary: "Drove with 1.4 promille.", Hints: []string{"alcohol hint"}, SourceChars: 24},
		RiskFlags:  []string{quiz.FlagAlcohol},
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func testBlueprint(id, user, hash string) (*quiz.Blueprint, []quiz.Question) {
	bp := &quiz.Blueprint{
		ID:         id,
		UserID:     user,
		SourceHash: hash,
		Categories: []quiz.CategoryWeight{{Key: "knowledge", TargetCount: 2}, {Key: "insight", TargetCount: 1}},
		Metadata:   quiz.GenerationMetadata{Source: quiz.SourceLLM, Model: "mock", Attempts: 1, PromptVersion: "v1"},
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC),
	}
	qs := []quiz.Question{
		{
			ID: id + "-q1", UserID: user, BlueprintID: id, Type: quiz.TypeMCQ, Category: "knowledge",
			Difficulty: 1, Prompt: "Limit?", Position: 0,
			Choices:       []quiz.Choice{{Key: "A", Text: "0.5"}, {Key: "B", Text: "1.1"}},
			CorrectAnswer: []string{"A"},
			Rationales:    map[string]string{"A": "legal limit"},
		},
		{
			ID: id + "-q2", UserID: user, BlueprintID: id, Type: quiz.TypeScenario, Category: "insight",
			Difficulty: 2, Prompt: "What changed?", Position: 1,
			Rubric: []string{"names a trigger"},
		},
	}
	return bp, qs
}

func TestCreateProfileFirstWriterWins(t *testing.T) {
	repo := openTestStore(t).QuizRepo()
	ctx := context.Background()

	first := testProfile("u1", "h1")
	got, created, err := repo.CreateProfile(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first, got)

	second := testProfile("u1", "h1")
	second.Facts.Summary = "different"
	got, created, err = repo.CreateProfile(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Drove with 1.4 promille.", got.Facts.Summary)
	assert.Equal(t, []string{quiz.FlagAlcohol}, got.RiskFlags)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	latest, err := repo.LatestProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "h1", latest.SourceHash)

	byHash, err := repo.Profile(ctx, "u1", "h1")
	require.NoError(t, err)
	assert.Equal(t, latest, byHash)
	_, err = repo.Profile(ctx, "u1", "h2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.LatestProfile(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBlueprintFirstWriterWins(t *testing.T) {
	repo := openTestStore(t).QuizRepo()
	ctx := context.Background()

	bp, qs := testBlueprint("bp-1", "u1", "h1")
	got, created, err := repo.CreateBlueprint(ctx, bp, qs)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "bp-1", got.ID)

	loser, loserQs := testBlueprint("bp-2", "u1", "h1")
	got, created, err = repo.CreateBlueprint(ctx, loser, loserQs)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "bp-1", got.ID)
	assert.Equal(t, bp.Categories, got.Categories)
	assert.Equal(t, bp.Metadata, got.Metadata)

	stored, err := repo.Questions(ctx, "bp-1")
	require.NoError(t, err)
	assert.Equal(t, qs, stored)

	orphans, err := repo.Questions(ctx, "bp-2")
	require.NoError(t, err)
	assert.Empty(t, orphans)

	bySource, err := repo.BlueprintBySource(ctx, "u1", "h1")
	require.NoError(t, err)
	assert.Equal(t, "bp-1", bySource.ID)

	byID, err := repo.Blueprint(ctx, "bp-1")
	require.NoError(t, err)
	assert.Equal(t, bySource, byID)

	_, err = repo.BlueprintBySource(ctx, "u1", "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBlueprintConcurrent(t *testing.T) {
	repo := openTestStore(t).QuizRepo()
	ctx := context.Background()

	const writers = 8
	ids := make([]string, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bp, qs := testBlueprint("bp-"+string(rune('a'+i)), "u1", "h1")
			got, _, err := repo.CreateBlueprint(ctx, bp, qs)
			if assert.NoError(t, err) {
				ids[i] = got.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestLatestBlueprint(t *testing.T) {
	repo := openTestStore(t).QuizRepo()
	ctx := context.Background()

	older, qs := testBlueprint("bp-old", "u1", "h1")
	_, _, err := repo.CreateBlueprint(ctx, older, qs)
	require.NoError(t, err)

	newer, qs := testBlueprint("bp-new", "u1", "h2")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	_, _, err = repo.CreateBlueprint(ctx, newer, qs)
	require.NoError(t, err)

	got, err := repo.LatestBlueprint(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "bp-new", got.ID)

	_, err = repo.LatestBlueprint(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	repo := openTestStore(t).QuizRepo()
	ctx := context.Background()

	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := &quiz.Session{ID: "s1", UserID: "u1", BlueprintID: "bp-1", QuestionIDs: []string{"q2", "q1"}, StartedAt: started}
	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"q2", "q1"}, got.QuestionIDs)
	assert.False(t, got.Closed())
	assert.Nil(t, got.Score)

	finished := started.Add(95 * time.Second)
	outcome := quiz.Outcome{SessionID: "s1", Score: 70, CompetencyScores: map[string]int{"knowledge": 50, "insight": 100}, DurationSec: 95, FinishedAt: finished}
	ok, err := repo.FinishSession(ctx, outcome)
	require.NoError(t, err)
	assert.True(t, ok)

	again := outcome
	again.Score = 10
	ok, err = repo.FinishSession(ctx, again)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = repo.Session(ctx, "s1")
	require.NoError(t, err)
	require.True(t, got.Closed())
	assert.True(t, finished.Equal(*got.FinishedAt))
	assert.Equal(t, 70, *got.Score)
	assert.Equal(t, map[string]int{"knowledge": 50, "insight": 100}, got.CompetencyScores)

	_, err = repo.Session(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertResultLastWriteWins(t *testing.T) {
	repo := openTestStore(t).QuizRepo()
	ctx := context.Background()

	wrong, half := false, 0.5
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertResult(ctx, &quiz.Result{
		SessionID: "s1", QuestionID: "q1", SubmittedAnswer: `["B"]`, IsCorrect: &wrong, Score: new(float64), TimeSpentSec: 4, UpdatedAt: base,
	}))
	require.NoError(t, repo.UpsertResult(ctx, &quiz.Result{
		SessionID: "s1", QuestionID: "q2", SubmittedAnswer: "some text", Score: &half, Feedback: "ok", TimeSpentSec: 30, UpdatedAt: base.Add(time.Second),
	}))

	right, one := true, 1.0
	require.NoError(t, repo.UpsertResult(ctx, &quiz.Result{
		SessionID: "s1", QuestionID: "q1", SubmittedAnswer: `["A"]`, IsCorrect: &right, Score: &one, TimeSpentSec: 6, UpdatedAt: base.Add(2 * time.Second),
	}))

	results, err := repo.Results(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "q2", results[0].QuestionID)
	assert.Nil(t, results[0].IsCorrect)
	assert.Equal(t, 0.5, *results[0].Score)

	assert.Equal(t, "q1", results[1].QuestionID)
	assert.Equal(t, `["A"]`, results[1].SubmittedAnswer)
	assert.True(t, *results[1].IsCorrect)
	assert.Equal(t, 1.0, *results[1].Score)
	assert.Equal(t, 6, results[1].TimeSpentSec)
}

func TestResetUser(t *testing.T) {
	repo := openTestStore(t).QuizRepo()
	ctx := context.Background()

	for _, user := range []string{"u1", "u2"} {
		_, _, err := repo.CreateProfile(ctx, testProfile(user, "h1"))
		require.NoError(t, err)
		bp, qs := testBlueprint("bp-"+user, user, "h1")
		_, _, err = repo.CreateBlueprint(ctx, bp, qs)
		require.NoError(t, err)
		require.NoError(t, repo.CreateSession(ctx, &quiz.Session{ID: "s-" + user, UserID: user, BlueprintID: bp.ID, QuestionIDs: []string{qs[0].ID}, StartedAt: time.Now()}))
		require.NoError(t, repo.UpsertResult(ctx, &quiz.Result{SessionID: "s-" + user, QuestionID: qs[0].ID, SubmittedAnswer: "A", UpdatedAt: time.Now()}))
	}

	counts, err := repo.ResetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ResetCounts{Profiles: 1, Blueprints: 1, Questions: 2, Sessions: 1, Results: 1}, counts)

	_, err = repo.LatestBlueprint(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Session(ctx, "s-u1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.LatestBlueprint(ctx, "u2")
	assert.NoError(t, err)
	results, err := repo.Results(ctx, "s-u2")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	counts, err = repo.ResetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, counts)
}

func TestLLMEvents(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "blueprint", InputTokens: 1000, OutputTokens: 3000, LatencyMs: 9000, Success: true, RequestBody: "{}", ResponseBody: `{"ok":true}`},
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "answer-judge", InputTokens: 300, OutputTokens: 50, LatencyMs: 800, Success: true},
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "answer-judge", InputTokens: 100, OutputTokens: 0, LatencyMs: 200, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "rate limited", all[0].ErrorMessage)
	assert.Greater(t, all[0].ID, all[1].ID)

	judged, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "answer-judge", Limit: 1})
	require.NoError(t, err)
	require.Len(t, judged, 1)
	assert.False(t, judged[0].Success)

	first := all[2]
	got, err := repo.GetLLMEvent(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"ok":true}`, got.ResponseBody)
	assert.True(t, got.Success)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PurposeUsage{
		{Purpose: "answer-judge", Calls: 2, InputTokens: 400, OutputTokens: 50, AvgLatencyMs: 500},
		{Purpose: "blueprint", Calls: 1, InputTokens: 1000, OutputTokens: 3000, AvgLatencyMs: 9000},
	}, byPurpose)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ModelUsage{{Model: "claude-sonnet-4-5", Calls: 3, InputTokens: 1400, OutputTokens: 3050}}, byModel)
}
