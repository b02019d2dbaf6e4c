// Package mongostore implements store.QuizRepo on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/store"
)

// Store is a QuizRepo over one Mongo database.
type Store struct {
	client     *mongo.Client
	profiles   *mongo.Collection
	blueprints *mongo.Collection
	questions  *mongo.Collection
	sessions   *mongo.Collection
	results    *mongo.Collection
}

var _ store.QuizRepo = (*Store)(nil)

// Open connects to uri, selects database and ensures the indexes that
// enforce one profile and one blueprint per (user_id, source_hash).
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:     client,
		profiles:   db.Collection("case_profiles"),
		blueprints: db.Collection("blueprints"),
		questions:  db.Collection("questions"),
		sessions:   db.Collection("sessions"),
		results:    db.Collection("results"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		col   *mongo.Collection
		model mongo.IndexModel
	}{
		{s.profiles, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "source_hash", Value: 1}}, Options: unique}},
		{s.blueprints, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "source_hash", Value: 1}}, Options: unique}},
		{s.questions, mongo.IndexModel{Keys: bson.D{{Key: "blueprint_id", Value: 1}, {Key: "position", Value: 1}}}},
		{s.sessions, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}},
		{s.results, mongo.IndexModel{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "question_id", Value: 1}}, Options: unique}},
	}
	for _, ix := range indexes {
		if _, err := ix.col.Indexes().CreateOne(ctx, ix.model); err != nil {
			return fmt.Errorf("create index on %s: %w", ix.col.Name(), err)
		}
	}
	return nil
}

// insertIfAbsent upserts doc with $setOnInsert and reports whether this
// call created it. A duplicate key error from a racing upsert counts as
// not created.
func insertIfAbsent(ctx context.Context, col *mongo.Collection, filter bson.M, doc any) (bool, error) {
	res, err := col.UpdateOne(ctx, filter, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

func latest() *options.FindOneOptions {
	return options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) CreateProfile(ctx context.Context, p *quiz.CaseProfile) (*quiz.CaseProfile, bool, error) {
	filter := bson.M{"user_id": p.UserID, "source_hash": p.SourceHash}
	created, err := insertIfAbsent(ctx, s.profiles, filter, toProfileDoc(p))
	if err != nil {
		return nil, false, fmt.Errorf("insert case profile: %w", err)
	}
	if created {
		return p, true, nil
	}
	stored, err := s.findProfile(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (s *Store) Profile(ctx context.Context, userID, sourceHash string) (*quiz.CaseProfile, error) {
	return s.findProfile(ctx, bson.M{"user_id": userID, "source_hash": sourceHash})
}

func (s *Store) LatestProfile(ctx context.Context, userID string) (*quiz.CaseProfile, error) {
	return s.findProfile(ctx, bson.M{"user_id": userID})
}

func (s *Store) findProfile(ctx context.Context, filter bson.M) (*quiz.CaseProfile, error) {
	var doc profileDoc
	if err := s.profiles.FindOne(ctx, filter, latest()).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find case profile: %w", notFound(err))
	}
	return doc.model(), nil
}

// CreateBlueprint claims the (user, source) key first and writes the bank
// only when the claim succeeded.
// CreateBlueprint writes the question bank before claiming the blueprint,
// so a claimed blueprint always has its questions. Questions left by a
// failed or lost claim are removed again.
func (s *Store) CreateBlueprint(ctx context.Context, bp *quiz.Blueprint, questions []quiz.Question) (*quiz.Blueprint, bool, error) {
	if len(questions) > 0 {
		docs := make([]any, len(questions))
		for i := range questions {
			docs[i] = toQuestionDoc(&questions[i])
		}
		if _, err := s.questions.InsertMany(ctx, docs); err != nil {
			return nil, false, errors.Join(fmt.Errorf("insert questions: %w", err), s.dropQuestions(ctx, bp.ID))
		}
	}

	filter := bson.M{"user_id": bp.UserID, "source_hash": bp.SourceHash}
	created, err := insertIfAbsent(ctx, s.blueprints, filter, toBlueprintDoc(bp))
	if err != nil {
		return nil, false, errors.Join(fmt.Errorf("insert blueprint: %w", err), s.dropQuestions(ctx, bp.ID))
	}
	if created {
		return bp, true, nil
	}

	if err := s.dropQuestions(ctx, bp.ID); err != nil {
		return nil, false, err
	}
	stored, err := s.findBlueprint(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

// dropQuestions removes the bank of a blueprint that was never claimed.
// A claimed blueprint with the same ID keeps its bank. It runs even when
// ctx is cancelled.
func (s *Store) dropQuestions(ctx context.Context, blueprintID string) error {
	ctx = context.WithoutCancel(ctx)
	n, err := s.blueprints.CountDocuments(ctx, bson.M{"_id": blueprintID})
	if err != nil {
		return fmt.Errorf("check blueprint claim: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.questions.DeleteMany(ctx, bson.M{"blueprint_id": blueprintID}); err != nil {
		return fmt.Errorf("remove unclaimed questions: %w", err)
	}
	return nil
}

func (s *Store) Blueprint(ctx context.Context, id string) (*quiz.Blueprint, error) {
	return s.findBlueprint(ctx, bson.M{"_id": id})
}

func (s *Store) BlueprintBySource(ctx context.Context, userID, sourceHash string) (*quiz.Blueprint, error) {
	return s.findBlueprint(ctx, bson.M{"user_id": userID, "source_hash": sourceHash})
}

func (s *Store) LatestBlueprint(ctx context.Context, userID string) (*quiz.Blueprint, error) {
	return s.findBlueprint(ctx, bson.M{"user_id": userID})
}

func (s *Store) findBlueprint(ctx context.Context, filter bson.M) (*quiz.Blueprint, error) {
	var doc blueprintDoc
	if err := s.blueprints.FindOne(ctx, filter, latest()).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find blueprint: %w", notFound(err))
	}
	return doc.model(), nil
}

func (s *Store) Questions(ctx context.Context, blueprintID string) ([]quiz.Question, error) {
	cur, err := s.questions.Find(ctx, bson.M{"blueprint_id": blueprintID},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	defer cur.Close(ctx)

	var out []quiz.Question
	for cur.Next(ctx) {
		var doc questionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		out = append(out, doc.model())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *quiz.Session) error {
	if _, err := s.sessions.InsertOne(ctx, toSessionDoc(sess)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) Session(ctx context.Context, id string) (*quiz.Session, error) {
	var doc sessionDoc
	if err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find session: %w", notFound(err))
	}
	return doc.model(), nil
}

func (s *Store) FinishSession(ctx context.Context, o quiz.Outcome) (bool, error) {
	res, err := s.sessions.UpdateOne(ctx,
		bson.M{"_id": o.SessionID, "finished_at": nil},
		bson.M{"$set": bson.M{
			"finished_at":       o.FinishedAt.UTC(),
			"score":             o.Score,
			"competency_scores": o.CompetencyScores,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("finish session: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) UpsertResult(ctx context.Context, r *quiz.Result) error {
	_, err := s.results.ReplaceOne(ctx,
		bson.M{"session_id": r.SessionID, "question_id": r.QuestionID},
		toResultDoc(r),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (s *Store) Results(ctx context.Context, sessionID string) ([]quiz.Result, error) {
	cur, err := s.results.Find(ctx, bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find results: %w", err)
	}
	defer cur.Close(ctx)

	var out []quiz.Result
	for cur.Next(ctx) {
		var doc resultDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		out = append(out, doc.model())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

func (s *Store) ResetUser(ctx context.Context, userID string) (store.ResetCounts, error) {
	var counts store.ResetCounts

	ids, err := s.sessions.Distinct(ctx, "_id", bson.M{"user_id": userID})
	if err != nil {
		return counts, fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) > 0 {
		res, err := s.results.DeleteMany(ctx, bson.M{"session_id": bson.M{"$in": ids}})
		if err != nil {
			return counts, fmt.Errorf("delete results: %w", err)
		}
		counts.Results = res.DeletedCount
	}

	byUser := bson.M{"user_id": userID}
	for _, step := range []struct {
		col *mongo.Collection
		n   *int64
	}{
		{s.sessions, &counts.Sessions},
		{s.questions, &counts.Questions},
		{s.blueprints, &counts.Blueprints},
		{s.profiles, &counts.Profiles},
	} {
		res, err := step.col.DeleteMany(ctx, byUser)
		if err != nil {
			return counts, fmt.Errorf("delete %s: %w", step.col.Name(), err)
		}
		*step.n = res.DeletedCount
	}
	return counts, nil
}

// utc normalizes decoded BSON datetimes, which carry millisecond
// precision and the local zone.
func utc(t time.Time) time.Time {
	return t.UTC()
}
