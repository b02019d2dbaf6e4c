package engine

import (
	"errors"
	"fmt"
)

// Code identifies a caller-visible failure.
type Code string

const (
	CodeNoCaseData           Code = "no_case_data"
	CodeNoBlueprintFound     Code = "no_blueprint_found"
	CodeNoQuestionsAvailable Code = "no_questions_available"
	CodeSessionNotFound      Code = "session_not_found"
	CodeSessionClosed        Code = "session_closed"
	CodeQuestionNotInSession Code = "question_not_in_session"
	CodeInvalidRequest       Code = "invalid_request"
)

// Error is a failure the caller can act on. Two errors match with
// errors.Is when their codes are equal.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrNoCaseData           = &Error{Code: CodeNoCaseData, Message: "case text is empty"}
	ErrNoBlueprintFound     = &Error{Code: CodeNoBlueprintFound, Message: "no blueprint for this user; submit case data first"}
	ErrNoQuestionsAvailable = &Error{Code: CodeNoQuestionsAvailable, Message: "the blueprint has no questions"}
	ErrSessionNotFound      = &Error{Code: CodeSessionNotFound, Message: "session not found"}
	ErrSessionClosed        = &Error{Code: CodeSessionClosed, Message: "session is already finished"}
	ErrQuestionNotInSession = &Error{Code: CodeQuestionNotInSession, Message: "question is not part of this session"}
)

func invalidRequest(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
