package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Codes used by the HTTP layer itself.
const (
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeInternal     = "internal"

	codeInvalidRequest = string(engine.CodeInvalidRequest)
)

func RespondError(c *gin.Context, status int, code string, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

var statusByCode = map[engine.Code]int{
	engine.CodeInvalidRequest:       http.StatusBadRequest,
	engine.CodeNoCaseData:           http.StatusUnprocessableEntity,
	engine.CodeNoBlueprintFound:     http.StatusNotFound,
	engine.CodeNoQuestionsAvailable: http.StatusConflict,
	engine.CodeSessionNotFound:      http.StatusNotFound,
	engine.CodeSessionClosed:        http.StatusConflict,
	engine.CodeQuestionNotInSession: http.StatusUnprocessableEntity,
}

// respondEngineError maps coded engine errors to their status. Anything
// else is an infrastructure failure: it is logged and hidden.
func respondEngineError(c *gin.Context, log *logger.Logger, err error) {
	if code, ok := engine.CodeOf(err); ok {
		status, known := statusByCode[code]
		if !known {
			status = http.StatusBadRequest
		}
		var e *engine.Error
		errors.As(err, &e)
		RespondError(c, status, string(code), e.Message)
		return
	}
	log.Error("request failed", "path", c.FullPath(), "error", err)
	RespondError(c, http.StatusInternalServerError, codeInternal, "internal error")
}
