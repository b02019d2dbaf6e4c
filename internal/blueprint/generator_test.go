package blueprint

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/casequiz/internal/llm"
	"github.com/abhisek/casequiz/internal/quiz"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return fixedNow }
	return cfg
}

func testFacts() quiz.Facts {
	return quiz.Facts{
		Summary: "Drove with 1.4 promille in 2024, licence revoked.",
		Hints:   []string{"Alcohol history: expect questions on drinking patterns."},
	}
}

const validBlueprintJSON = `{
  "categories": [
    {"key": "Insight", "targetCount": 2},
    {"key": "planning", "targetCount": 1}
  ],
  "questions": [
    {
      "type": "mcq", "category": "insight", "difficulty": 1,
      "prompt": "Which statement shows insight?",
      "choices": [{"key": "a", "text": "Bad luck"}, {"key": "b", "text": "My habit was risky"}],
      "correctAnswer": ["b"],
      "rationales": [{"key": "a", "text": "Deflects"}, {"key": "b", "text": "Owns it"}],
      "rubric": []
    },
    {
      "type": "short", "category": "insight", "difficulty": 2,
      "prompt": "Why did you drive that night?",
      "choices": [], "correctAnswer": [], "rationales": [],
      "rubric": ["Names a motive", "Takes responsibility"]
    },
    {
      "type": "scenario", "category": "planning", "difficulty": 3,
      "prompt": "Your team celebrates after work. Walk me through the evening.",
      "choices": [], "correctAnswer": [], "rationales": [],
      "rubric": ["Plans the way home"]
    }
  ]
}`

func TestGenerate_LLMSuccess(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(validBlueprintJSON)})
	g := New(mock, testConfig())

	res := g.Generate(context.Background(), testFacts(), []string{quiz.FlagAlcohol})

	if res.Degraded || res.Err != nil {
		t.Fatalf("unexpected degradation: %v", res.Err)
	}
	if res.Metadata.Source != quiz.SourceLLM || res.Metadata.Attempts != 1 || res.Metadata.Model != "mock" {
		t.Fatalf("unexpected metadata: %+v", res.Metadata)
	}
	if res.Metadata.PromptVersion != PromptVersion || !res.Metadata.GeneratedAt.Equal(fixedNow) {
		t.Fatalf("unexpected metadata: %+v", res.Metadata)
	}
	if len(res.Categories) != 2 || res.Categories[0].Key != "insight" {
		t.Fatalf("categories not normalized: %+v", res.Categories)
	}
	if len(res.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(res.Questions))
	}

	mcq := res.Questions[0]
	if mcq.CorrectAnswer[0] != "B" || mcq.Choices[0].Key != "A" || mcq.Rationales["B"] != "Owns it" {
		t.Fatalf("mcq keys not normalized: %+v", mcq)
	}
	if mcq.Rubric != nil {
		t.Fatalf("mcq should carry no rubric: %+v", mcq.Rubric)
	}
	if res.Questions[1].Choices != nil || len(res.Questions[1].Rubric) != 2 {
		t.Fatalf("short question shape wrong: %+v", res.Questions[1])
	}
	if res.Questions[2].Position != 2 {
		t.Fatalf("position = %d, want 2", res.Questions[2].Position)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 LLM call, got %d", mock.CallCount())
	}
	call := mock.Calls[0]
	if call.Schema != BlueprintSchema {
		t.Fatal("request did not carry the blueprint schema")
	}
	if !strings.Contains(call.Messages[0].Content, "Risk flags: alcohol") {
		t.Fatalf("user message missing flags:\n%s", call.Messages[0].Content)
	}
}

func TestGenerate_RetriesOnceWithStricterPrompt(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`Sorry, I can only help with driving questions.`)},
		llm.MockResponse{Content: json.RawMessage(validBlueprintJSON)},
	)
	res := New(mock, testConfig()).Generate(context.Background(), testFacts(), nil)

	if res.Degraded {
		t.Fatalf("expected recovery on second attempt: %v", res.Err)
	}
	if res.Metadata.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", res.Metadata.Attempts)
	}
	if strings.Contains(mock.Calls[0].System, "previous reply") {
		t.Fatal("first attempt should use the normal prompt")
	}
	if !strings.Contains(mock.Calls[1].System, "previous reply could not be used") {
		t.Fatal("second attempt should use the stricter prompt")
	}
}

func TestGenerate_StructurallyInvalidTwiceFallsBack(t *testing.T) {
	undeclared := strings.Replace(validBlueprintJSON, `"category": "planning"`, `"category": "hobbies"`, 1)
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(undeclared)},
		llm.MockResponse{Content: json.RawMessage(undeclared)},
		llm.MockResponse{Content: json.RawMessage(validBlueprintJSON)},
	)
	res := New(mock, testConfig()).Generate(context.Background(), testFacts(), nil)

	if !res.Degraded || !errors.Is(res.Err, ErrGenerationDegraded) {
		t.Fatalf("expected degraded result, got %+v", res.Err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", mock.CallCount())
	}
	if res.Metadata.Attempts != 2 || !strings.Contains(res.Metadata.DegradedReason, "hobbies") {
		t.Fatalf("unexpected metadata: %+v", res.Metadata)
	}
}

func TestNew_DefaultsValidatorChain(t *testing.T) {
	undeclared := strings.Replace(validBlueprintJSON, `"category": "planning"`, `"category": "hobbies"`, 1)
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(undeclared)},
		llm.MockResponse{Content: json.RawMessage(undeclared)},
	)
	cfg := Config{MaxTokens: 2048, Now: func() time.Time { return fixedNow }}
	res := New(mock, cfg).Generate(context.Background(), testFacts(), nil)

	if !res.Degraded || res.Metadata.Source != quiz.SourceFallback {
		t.Fatalf("expected the reference check to reject the reply, got %+v", res.Metadata)
	}

	g := New(nil, Config{MaxTokens: 2048})
	if len(g.config.Validators) != len(DefaultConfig().Validators) {
		t.Fatalf("validators = %d, want the default chain", len(g.config.Validators))
	}
	if g.config.QuestionsPerCategory != DefaultConfig().QuestionsPerCategory {
		t.Fatalf("questions per category = %d", g.config.QuestionsPerCategory)
	}
	if n := len(New(nil, Config{Validators: []Validator{}}).config.Validators); n != 0 {
		t.Fatalf("an empty chain should stay empty, got %d", n)
	}
}

func TestGenerate_TransportFailureSkipsRetry(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("connection refused")}},
		llm.MockResponse{Content: json.RawMessage(validBlueprintJSON)},
	)
	res := New(mock, testConfig()).Generate(context.Background(), testFacts(), nil)

	if !res.Degraded {
		t.Fatal("expected fallback")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("transport failure should not be re-prompted, got %d calls", mock.CallCount())
	}
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(res.Err, &unavail) {
		t.Fatalf("cause not preserved: %v", res.Err)
	}
}

func TestGenerate_TimeoutFallsBack(t *testing.T) {
	slow := llm.WithTimeout(blockingProvider{}, 10*time.Millisecond)
	res := New(slow, testConfig()).Generate(context.Background(), testFacts(), nil)

	if !res.Degraded || !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout fallback, got %v", res.Err)
	}
	if res.Metadata.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", res.Metadata.Attempts)
	}
}

func TestGenerate_NilProvider(t *testing.T) {
	res := New(nil, testConfig()).Generate(context.Background(), testFacts(), nil)
	if !res.Degraded || res.Metadata.Attempts != 0 || res.Metadata.Source != quiz.SourceFallback {
		t.Fatalf("unexpected result: %+v", res.Metadata)
	}
	if len(res.Questions) == 0 {
		t.Fatal("fallback bank is empty")
	}
}

func TestGenerate_AlwaysFailingProviderNeverFails(t *testing.T) {
	for i := 0; i < 3; i++ {
		res := New(llm.NewMockProvider(), testConfig()).Generate(context.Background(), quiz.Facts{}, nil)
		if !res.Degraded || len(res.Categories) == 0 || len(res.Questions) == 0 {
			t.Fatalf("run %d: fallback incomplete", i)
		}
	}
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }
