package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/logger"
	"github.com/abhisek/casequiz/internal/quiz"
)

// maxBodyBytes bounds every /v1 request body.
const maxBodyBytes = 1 << 20

type handlers struct {
	engine *engine.Engine
	log    *logger.Logger
}

type ingestRequest struct {
	Text string `json:"text"`
}

type startSessionRequest struct {
	Count int `json:"count"`
}

type answerRequest struct {
	QuestionID   string      `json:"questionId"`
	Answer       quiz.Answer `json:"answer"`
	TimeSpentSec int         `json:"timeSpentSec"`
}

type resetResponse struct {
	UserID  string `json:"userId"`
	Deleted any    `json:"deleted"`
}

func (h *handlers) health(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *handlers) ingest(c *gin.Context) {
	var req ingestRequest
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.engine.Ingest(c.Request.Context(), currentUser(c), req.Text)
	if err != nil {
		respondEngineError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h *handlers) blueprint(c *gin.Context) {
	res, err := h.engine.Blueprint(c.Request.Context(), currentUser(c))
	if err != nil {
		respondEngineError(c, h.log, err)
		return
	}
	RespondOK(c, res)
}

func (h *handlers) startSession(c *gin.Context) {
	var req startSessionRequest
	if !bindJSON(c, &req, true) {
		return
	}
	res, err := h.engine.StartSession(c.Request.Context(), currentUser(c), req.Count)
	if err != nil {
		respondEngineError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handlers) session(c *gin.Context) {
	res, err := h.engine.Session(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondEngineError(c, h.log, err)
		return
	}
	RespondOK(c, res)
}

func (h *handlers) submit(c *gin.Context) {
	var req answerRequest
	if !bindJSON(c, &req, false) {
		return
	}
	fb, err := h.engine.Submit(c.Request.Context(), currentUser(c), c.Param("id"), engine.Submission{
		QuestionID:   req.QuestionID,
		Answer:       req.Answer,
		TimeSpentSec: req.TimeSpentSec,
	})
	if err != nil {
		respondEngineError(c, h.log, err)
		return
	}
	RespondOK(c, fb)
}

func (h *handlers) finish(c *gin.Context) {
	out, err := h.engine.Finish(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondEngineError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *handlers) resetUser(c *gin.Context) {
	userID := c.Param("userID")
	counts, err := h.engine.ResetUser(c.Request.Context(), userID)
	if err != nil {
		respondEngineError(c, h.log, err)
		return
	}
	h.log.Info("user reset", "user", userID, "by_user", currentUser(c))
	RespondOK(c, resetResponse{UserID: userID, Deleted: counts})
}

// bindJSON decodes the request body into dst. An empty body is accepted
// only when optional is set. It reports whether the handler may go on.
func bindJSON(c *gin.Context, dst any, optional bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(c, http.StatusRequestEntityTooLarge, codeInvalidRequest, "request body too large")
		return false
	}
	RespondError(c, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body: "+err.Error())
	return false
}
