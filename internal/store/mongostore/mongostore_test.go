package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("CASEQUIZ_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CASEQUIZ_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("casequiz_test_%d", time.Now().UnixNano())
	s, err := Open(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.client.Database(dbName).Drop(ctx)
		s.Close(ctx)
	})
	return s
}

var created = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestProfileFirstWriterWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := &quiz.CaseProfile{UserID: "u1", SourceHash: "h1", Facts: quiz.Facts{Summary: "first"}, RiskFlags: []string{"alcohol"}, CreatedAt: created}
	_, ok, err := s.CreateProfile(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	dup := *p
	dup.Facts.Summary = "second"
	got, ok, err := s.CreateProfile(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "first", got.Facts.Summary)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestBlueprintAndSessionFlow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bp := &quiz.Blueprint{ID: "bp-1", UserID: "u1", SourceHash: "h1",
		Categories: []quiz.CategoryWeight{{Key: "knowledge", TargetCount: 1}},
		Metadata:   quiz.GenerationMetadata{Source: quiz.SourceFallback, Attempts: 0},
		CreatedAt:  created}
	qs := []quiz.Question{
		{ID: "q1", UserID: "u1", BlueprintID: "bp-1", Type: quiz.TypeMCQ, Category: "knowledge", Difficulty: 1, Prompt: "?",
			Choices: []quiz.Choice{{Key: "A", Text: "a"}, {Key: "B", Text: "b"}}, CorrectAnswer: []string{"A"}, Position: 0},
		{ID: "q2", UserID: "u1", BlueprintID: "bp-1", Type: quiz.TypeShort, Category: "knowledge", Difficulty: 2, Prompt: "Why?",
			Rubric: []string{"reason"}, Position: 1},
	}
	_, ok, err := s.CreateBlueprint(ctx, bp, qs)
	require.NoError(t, err)
	assert.True(t, ok)

	other := *bp
	other.ID = "bp-2"
	got, ok, err := s.CreateBlueprint(ctx, &other, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "bp-1", got.ID)

	bank, err := s.Questions(ctx, "bp-1")
	require.NoError(t, err)
	assert.Equal(t, qs, bank)

	require.NoError(t, s.CreateSession(ctx, &quiz.Session{ID: "s1", UserID: "u1", BlueprintID: "bp-1", QuestionIDs: []string{"q2", "q1"}, StartedAt: created}))

	one, half := 1.0, 0.5
	yes := true
	require.NoError(t, s.UpsertResult(ctx, &quiz.Result{SessionID: "s1", QuestionID: "q1", SubmittedAnswer: "A", IsCorrect: &yes, Score: &one, UpdatedAt: created}))
	require.NoError(t, s.UpsertResult(ctx, &quiz.Result{SessionID: "s1", QuestionID: "q2", SubmittedAnswer: "x", Score: new(float64), UpdatedAt: created.Add(time.Second)}))
	require.NoError(t, s.UpsertResult(ctx, &quiz.Result{SessionID: "s1", QuestionID: "q2", SubmittedAnswer: "longer", Score: &half, UpdatedAt: created.Add(2 * time.Second)}))

	results, err := s.Results(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0.5, *results[1].Score)

	outcome := quiz.Outcome{SessionID: "s1", Score: 75, CompetencyScores: map[string]int{"knowledge": 75}, FinishedAt: created.Add(time.Minute)}
	ok, err = s.FinishSession(ctx, outcome)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.FinishSession(ctx, outcome)
	require.NoError(t, err)
	assert.False(t, ok)

	sess, err := s.Session(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sess.Closed())
	assert.Equal(t, 75, *sess.Score)

	counts, err := s.ResetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.ResetCounts{Profiles: 0, Blueprints: 1, Questions: 2, Sessions: 1, Results: 2}, counts)

	_, err = s.LatestBlueprint(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBlueprintNotClaimedWhenQuestionsFail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bp := &quiz.Blueprint{ID: "bp-1", UserID: "u1", SourceHash: "h1", CreatedAt: created}
	q := quiz.Question{ID: "q1", UserID: "u1", BlueprintID: "bp-1", Type: quiz.TypeShort, Category: "knowledge",
		Difficulty: 1, Prompt: "Why?", Rubric: []string{"reason"}}

	// The second insert collides on _id after the first has landed.
	_, _, err := s.CreateBlueprint(ctx, bp, []quiz.Question{q, q})
	require.Error(t, err)

	_, err = s.BlueprintBySource(ctx, "u1", "h1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	bank, err := s.Questions(ctx, "bp-1")
	require.NoError(t, err)
	assert.Empty(t, bank)

	got, ok, err := s.CreateBlueprint(ctx, bp, []quiz.Question{q})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bp-1", got.ID)
	bank, err = s.Questions(ctx, "bp-1")
	require.NoError(t, err)
	assert.Len(t, bank, 1)
}

func TestLostBlueprintClaimRemovesQuestions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	winner := &quiz.Blueprint{ID: "bp-1", UserID: "u1", SourceHash: "h1", CreatedAt: created}
	_, ok, err := s.CreateBlueprint(ctx, winner, []quiz.Question{
		{ID: "q1", UserID: "u1", BlueprintID: "bp-1", Type: quiz.TypeShort, Category: "knowledge", Prompt: "Why?"},
	})
	require.NoError(t, err)
	require.True(t, ok)

	loser := &quiz.Blueprint{ID: "bp-2", UserID: "u1", SourceHash: "h1", CreatedAt: created}
	got, ok, err := s.CreateBlueprint(ctx, loser, []quiz.Question{
		{ID: "q2", UserID: "u1", BlueprintID: "bp-2", Type: quiz.TypeShort, Category: "knowledge", Prompt: "How?"},
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "bp-1", got.ID)

	orphans, err := s.Questions(ctx, "bp-2")
	require.NoError(t, err)
	assert.Empty(t, orphans)
	bank, err := s.Questions(ctx, "bp-1")
	require.NoError(t, err)
	assert.Len(t, bank, 1)
}
