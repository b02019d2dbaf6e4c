package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/casequiz/internal/quiz"
)

// quizRepo implements QuizRepo with queries built by the ent SQL builder.
type quizRepo struct {
	db *sql.DB
	sb *entsql.DialectBuilder
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	profileColumns   = []string{"user_id", "source_hash", "facts", "risk_flags", "created_at"}
	blueprintColumns = []string{"id", "user_id", "source_hash", "categories", "metadata", "created_at"}
	questionColumns  = []string{"id", "user_id", "blueprint_id", "type", "category", "difficulty", "prompt", "choices", "correct_answer", "rationales", "rubric", "position"}
	sessionColumns   = []string{"id", "user_id", "blueprint_id", "question_ids", "started_at", "finished_at", "score", "competency_scores"}
	resultColumns    = []string{"session_id", "question_id", "submitted_answer", "is_correct", "score", "feedback", "time_spent_sec", "updated_at"}
)

func (r *quizRepo) CreateProfile(ctx context.Context, p *quiz.CaseProfile) (*quiz.CaseProfile, bool, error) {
	cols, err := jsonColumns(p.Facts, p.RiskFlags)
	if err != nil {
		return nil, false, fmt.Errorf("encode profile: %w", err)
	}

	query, args := r.sb.Insert("case_profiles").
		Columns(profileColumns...).
		Values(p.UserID, p.SourceHash, cols[0], cols[1], toNanos(p.CreatedAt)).
		OnConflict(entsql.ConflictColumns("user_id", "source_hash"), entsql.DoNothing()).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("insert case profile: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, false, fmt.Errorf("insert case profile: %w", err)
	} else if n == 1 {
		return p, true, nil
	}

	stored, err := r.Profile(ctx, p.UserID, p.SourceHash)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *quizRepo) Profile(ctx context.Context, userID, sourceHash string) (*quiz.CaseProfile, error) {
	return r.profile(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("source_hash", sourceHash),
	))
}

func (r *quizRepo) LatestProfile(ctx context.Context, userID string) (*quiz.CaseProfile, error) {
	return r.profile(ctx, entsql.EQ("user_id", userID))
}

func (r *quizRepo) profile(ctx context.Context, where *entsql.Predicate) (*quiz.CaseProfile, error) {
	query, args := r.sb.Select(profileColumns...).
		From(r.sb.Table("case_profiles")).
		Where(where).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()

	var (
		p            quiz.CaseProfile
		facts, flags string
		created      int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.UserID, &p.SourceHash, &facts, &flags, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query case profile: %w", err)
	}
	if err := decodeJSON(facts, &p.Facts); err != nil {
		return nil, fmt.Errorf("decode profile facts: %w", err)
	}
	if err := decodeJSON(flags, &p.RiskFlags); err != nil {
		return nil, fmt.Errorf("decode profile flags: %w", err)
	}
	p.CreatedAt = fromNanos(created)
	return &p, nil
}

func (r *quizRepo) CreateBlueprint(ctx context.Context, bp *quiz.Blueprint, questions []quiz.Question) (_ *quiz.Blueprint, _ bool, err error) {
	cols, err := jsonColumns(bp.Categories, bp.Metadata)
	if err != nil {
		return nil, false, fmt.Errorf("encode blueprint: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query, args := r.sb.Insert("blueprints").
		Columns(blueprintColumns...).
		Values(bp.ID, bp.UserID, bp.SourceHash, cols[0], cols[1], toNanos(bp.CreatedAt)).
		OnConflict(entsql.ConflictColumns("user_id", "source_hash"), entsql.DoNothing()).
		Query()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("insert blueprint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert blueprint: %w", err)
	}

	if n == 0 {
		tx.Rollback()
		stored, err := r.blueprint(ctx, r.db, entsql.And(
			entsql.EQ("user_id", bp.UserID),
			entsql.EQ("source_hash", bp.SourceHash),
		))
		if err != nil {
			return nil, false, err
		}
		return stored, false, nil
	}

	if err = r.insertQuestions(ctx, tx, questions); err != nil {
		return nil, false, err
	}
	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit blueprint: %w", err)
	}
	return bp, true, nil
}

func (r *quizRepo) insertQuestions(ctx context.Context, q querier, questions []quiz.Question) error {
	if len(questions) == 0 {
		return nil
	}
	ins := r.sb.Insert("questions").Columns(questionColumns...)
	for i := range questions {
		qq := &questions[i]
		cols, err := jsonColumns(qq.Choices, qq.CorrectAnswer, qq.Rationales, qq.Rubric)
		if err != nil {
			return fmt.Errorf("encode question %s: %w", qq.ID, err)
		}
		ins.Values(qq.ID, qq.UserID, qq.BlueprintID, string(qq.Type), qq.Category, qq.Difficulty,
			qq.Prompt, cols[0], cols[1], cols[2], cols[3], qq.Position)
	}
	query, args := ins.Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

func (r *quizRepo) Blueprint(ctx context.Context, id string) (*quiz.Blueprint, error) {
	return r.blueprint(ctx, r.db, entsql.EQ("id", id))
}

func (r *quizRepo) BlueprintBySource(ctx context.Context, userID, sourceHash string) (*quiz.Blueprint, error) {
	return r.blueprint(ctx, r.db, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("source_hash", sourceHash),
	))
}

func (r *quizRepo) LatestBlueprint(ctx context.Context, userID string) (*quiz.Blueprint, error) {
	return r.blueprint(ctx, r.db, entsql.EQ("user_id", userID))
}

func (r *quizRepo) blueprint(ctx context.Context, q querier, where *entsql.Predicate) (*quiz.Blueprint, error) {
	query, args := r.sb.Select(blueprintColumns...).
		From(r.sb.Table("blueprints")).
		Where(where).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()

	var (
		bp             quiz.Blueprint
		cats, metadata string
		created        int64
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(&bp.ID, &bp.UserID, &bp.SourceHash, &cats, &metadata, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query blueprint: %w", err)
	}
	if err := decodeJSON(cats, &bp.Categories); err != nil {
		return nil, fmt.Errorf("decode blueprint categories: %w", err)
	}
	if err := decodeJSON(metadata, &bp.Metadata); err != nil {
		return nil, fmt.Errorf("decode blueprint metadata: %w", err)
	}
	bp.CreatedAt = fromNanos(created)
	return &bp, nil
}

func (r *quizRepo) Questions(ctx context.Context, blueprintID string) ([]quiz.Question, error) {
	query, args := r.sb.Select(questionColumns...).
		From(r.sb.Table("questions")).
		Where(entsql.EQ("blueprint_id", blueprintID)).
		OrderBy("position").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []quiz.Question
	for rows.Next() {
		var (
			q                                    quiz.Question
			typ                                  string
			choices, correct, rationales, rubric string
		)
		if err := rows.Scan(&q.ID, &q.UserID, &q.BlueprintID, &typ, &q.Category, &q.Difficulty,
			&q.Prompt, &choices, &correct, &rationales, &rubric, &q.Position); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = quiz.QuestionType(typ)
		for _, c := range []struct {
			raw string
			dst any
		}{{choices, &q.Choices}, {correct, &q.CorrectAnswer}, {rationales, &q.Rationales}, {rubric, &q.Rubric}} {
			if err := decodeJSON(c.raw, c.dst); err != nil {
				return nil, fmt.Errorf("decode question %s: %w", q.ID, err)
			}
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (r *quizRepo) CreateSession(ctx context.Context, s *quiz.Session) error {
	cols, err := jsonColumns(s.QuestionIDs)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	var competency sql.NullString
	if s.CompetencyScores != nil {
		enc, err := encodeJSON(s.CompetencyScores)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		competency = sql.NullString{String: enc, Valid: true}
	}
	var score sql.NullInt64
	if s.Score != nil {
		score = sql.NullInt64{Int64: int64(*s.Score), Valid: true}
	}

	query, args := r.sb.Insert("sessions").
		Columns(sessionColumns...).
		Values(s.ID, s.UserID, s.BlueprintID, cols[0], toNanos(s.StartedAt), nullNanos(s.FinishedAt), score, competency).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *quizRepo) Session(ctx context.Context, id string) (*quiz.Session, error) {
	query, args := r.sb.Select(sessionColumns...).
		From(r.sb.Table("sessions")).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		s          quiz.Session
		qids       string
		started    int64
		finished   sql.NullInt64
		score      sql.NullInt64
		competency sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.UserID, &s.BlueprintID, &qids,
		&started, &finished, &score, &competency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	if err := decodeJSON(qids, &s.QuestionIDs); err != nil {
		return nil, fmt.Errorf("decode session questions: %w", err)
	}
	s.StartedAt = fromNanos(started)
	if finished.Valid {
		t := fromNanos(finished.Int64)
		s.FinishedAt = &t
	}
	if score.Valid {
		v := int(score.Int64)
		s.Score = &v
	}
	if competency.Valid {
		s.CompetencyScores = map[string]int{}
		if err := decodeJSON(competency.String, &s.CompetencyScores); err != nil {
			return nil, fmt.Errorf("decode competency scores: %w", err)
		}
	}
	return &s, nil
}

func (r *quizRepo) FinishSession(ctx context.Context, o quiz.Outcome) (bool, error) {
	competency, err := encodeJSON(o.CompetencyScores)
	if err != nil {
		return false, fmt.Errorf("encode competency scores: %w", err)
	}

	query, args := r.sb.Update("sessions").
		Set("finished_at", toNanos(o.FinishedAt)).
		Set("score", o.Score).
		Set("competency_scores", competency).
		Where(entsql.And(entsql.EQ("id", o.SessionID), entsql.IsNull("finished_at"))).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("finish session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finish session: %w", err)
	}
	return n == 1, nil
}

func (r *quizRepo) UpsertResult(ctx context.Context, res *quiz.Result) error {
	query, args := r.sb.Insert("results").
		Columns(resultColumns...).
		Values(res.SessionID, res.QuestionID, res.SubmittedAnswer, nullBool(res.IsCorrect),
			nullFloat(res.Score), res.Feedback, res.TimeSpentSec, toNanos(res.UpdatedAt)).
		OnConflict(
			entsql.ConflictColumns("session_id", "question_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range resultColumns[2:] {
					u.SetExcluded(c)
				}
			}),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (r *quizRepo) Results(ctx context.Context, sessionID string) ([]quiz.Result, error) {
	query, args := r.sb.Select(resultColumns...).
		From(r.sb.Table("results")).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("updated_at").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []quiz.Result
	for rows.Next() {
		var (
			res       quiz.Result
			isCorrect sql.NullBool
			score     sql.NullFloat64
			updated   int64
		)
		if err := rows.Scan(&res.SessionID, &res.QuestionID, &res.SubmittedAnswer, &isCorrect,
			&score, &res.Feedback, &res.TimeSpentSec, &updated); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if isCorrect.Valid {
			res.IsCorrect = &isCorrect.Bool
		}
		if score.Valid {
			res.Score = &score.Float64
		}
		res.UpdatedAt = fromNanos(updated)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

func (r *quizRepo) ResetUser(ctx context.Context, userID string) (_ ResetCounts, err error) {
	var counts ResetCounts

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	sessionIDs, err := r.sessionIDs(ctx, tx, userID)
	if err != nil {
		return counts, err
	}
	if len(sessionIDs) > 0 {
		ids := make([]any, len(sessionIDs))
		for i, id := range sessionIDs {
			ids[i] = id
		}
		if counts.Results, err = r.deleteWhere(ctx, tx, "results", entsql.In("session_id", ids...)); err != nil {
			return counts, err
		}
	}

	for _, step := range []struct {
		table string
		n     *int64
	}{
		{"sessions", &counts.Sessions},
		{"questions", &counts.Questions},
		{"blueprints", &counts.Blueprints},
		{"case_profiles", &counts.Profiles},
	} {
		if *step.n, err = r.deleteWhere(ctx, tx, step.table, entsql.EQ("user_id", userID)); err != nil {
			return counts, err
		}
	}

	if err = tx.Commit(); err != nil {
		return counts, fmt.Errorf("commit reset: %w", err)
	}
	return counts, nil
}

func (r *quizRepo) sessionIDs(ctx context.Context, q querier, userID string) ([]string, error) {
	query, args := r.sb.Select("id").
		From(r.sb.Table("sessions")).
		Where(entsql.EQ("user_id", userID)).
		Query()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *quizRepo) deleteWhere(ctx context.Context, q querier, table string, where *entsql.Predicate) (int64, error) {
	query, args := r.sb.Delete(table).Where(where).Query()
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return n, nil
}
