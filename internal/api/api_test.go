package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/store"
)

const caseText = "I was stopped after a party with 1.1 promille. I had planned to walk home."

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	eng := engine.New(s.QuizRepo(), nil, engine.Options{SessionSize: 4})
	return NewRouter(RouterConfig{Engine: eng})
}

func do(t *testing.T, r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequiresUserHeader(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/v1/blueprint", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode[ErrorEnvelope](t, w)
	assert.Equal(t, "unauthorized", env.Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/v2/nothing", "u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[ErrorEnvelope](t, w).Error.Code)
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"empty case text", http.MethodPost, "/v1/cases", gin.H{"text": "   "}, http.StatusUnprocessableEntity, "no_case_data"},
		{"malformed body", http.MethodPost, "/v1/cases", "not an object", http.StatusBadRequest, "invalid_request"},
		{"no blueprint yet", http.MethodGet, "/v1/blueprint", nil, http.StatusNotFound, "no_blueprint_found"},
		{"start without blueprint", http.MethodPost, "/v1/sessions", nil, http.StatusNotFound, "no_blueprint_found"},
		{"unknown session", http.MethodGet, "/v1/sessions/missing", nil, http.StatusNotFound, "session_not_found"},
		{"finish unknown session", http.MethodPost, "/v1/sessions/missing/finish", nil, http.StatusNotFound, "session_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, "u1", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[ErrorEnvelope](t, w).Error.Code)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/v1/cases", "u1", gin.H{"text": caseText})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ingest := decode[engine.IngestResult](t, w)
	assert.True(t, ingest.Created)
	assert.True(t, ingest.Blueprint.Degraded)
	assert.Positive(t, ingest.Blueprint.QuestionCount)

	w = do(t, r, http.MethodPost, "/v1/cases", "u1", gin.H{"text": caseText})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[engine.IngestResult](t, w).Created)

	w = do(t, r, http.MethodGet, "/v1/blueprint", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ingest.Blueprint.Blueprint.ID, decode[engine.BlueprintSummary](t, w).Blueprint.ID)

	// An empty body selects the default size.
	w = do(t, r, http.MethodPost, "/v1/sessions", "u1", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	started := decode[engine.StartedSession](t, w)
	assert.Len(t, started.Questions, 4)
	assert.NotContains(t, w.Body.String(), "correctAnswer")
	assert.NotContains(t, w.Body.String(), "rubric")

	w = do(t, r, http.MethodPost, "/v1/sessions", "u1", gin.H{"count": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decode[engine.StartedSession](t, w).Questions, 2)

	sid := started.Session.ID
	q := started.Questions[0]

	w = do(t, r, http.MethodGet, "/v1/sessions/"+sid, "u2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "sessions are private to their owner")

	w = do(t, r, http.MethodPost, "/v1/sessions/"+sid+"/answers", "u1",
		gin.H{"questionId": "nope", "answer": "a"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "question_not_in_session", decode[ErrorEnvelope](t, w).Error.Code)

	w = do(t, r, http.MethodPost, "/v1/sessions/"+sid+"/answers", "u1",
		gin.H{"questionId": q.ID, "answer": []string{"a"}, "timeSpentSec": -1})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/v1/sessions/"+sid+"/answers", "u1",
		gin.H{"questionId": q.ID, "answer": []string{"a"}, "timeSpentSec": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var fb struct {
		QuestionID string  `json:"questionId"`
		Score      float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fb))
	assert.Equal(t, q.ID, fb.QuestionID)
	assert.GreaterOrEqual(t, fb.Score, 0.0)
	assert.LessOrEqual(t, fb.Score, 1.0)

	w = do(t, r, http.MethodGet, "/v1/sessions/"+sid, "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[engine.SessionState](t, w)
	assert.Equal(t, []string{q.ID}, state.Answered)
	assert.Nil(t, state.Outcome)

	w = do(t, r, http.MethodPost, "/v1/sessions/"+sid+"/finish", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := w.Body.String()

	w = do(t, r, http.MethodPost, "/v1/sessions/"+sid+"/finish", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, first, w.Body.String())

	w = do(t, r, http.MethodPost, "/v1/sessions/"+sid+"/answers", "u1",
		gin.H{"questionId": q.ID, "answer": "b"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "session_closed", decode[ErrorEnvelope](t, w).Error.Code)
}

func TestOversizedBodiesRejected(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/v1/cases", "u1", gin.H{"text": caseText})
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(t, r, http.MethodPost, "/v1/sessions", "u1", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	started := decode[engine.StartedSession](t, w)
	answers := "/v1/sessions/" + started.Session.ID + "/answers"
	huge := strings.Repeat("a", 3<<20)

	w = do(t, r, http.MethodPost, answers, "u1", gin.H{"questionId": started.Questions[0].ID, "answer": huge})
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, "invalid_request", decode[ErrorEnvelope](t, w).Error.Code)

	// Without a declared length the limit trips while the body is decoded.
	body, err := json.Marshal(gin.H{"questionId": started.Questions[0].ID, "answer": huge})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, answers, bytes.NewReader(body))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderUserID, "u1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/v1/sessions/"+started.Session.ID, "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[engine.SessionState](t, w).Answered)

	w = do(t, r, http.MethodPost, "/v1/sessions", "u1", gin.H{"count": 2, "pad": huge})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAdminReset(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/v1/cases", "u1", gin.H{"text": caseText})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodDelete, "/v1/admin/users/u1", "ops", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode[ErrorEnvelope](t, w).Error.Code)

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/users/u1", nil)
	req.Header.Set(HeaderUserID, "ops")
	req.Header.Set(HeaderUserRole, "admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		UserID  string            `json:"userId"`
		Deleted store.ResetCounts `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "u1", res.UserID)
	assert.EqualValues(t, 1, res.Deleted.Profiles)
	assert.EqualValues(t, 1, res.Deleted.Blueprints)
	assert.Positive(t, res.Deleted.Questions)

	w = do(t, r, http.MethodGet, "/v1/blueprint", "u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
