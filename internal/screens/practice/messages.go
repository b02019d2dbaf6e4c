package practice

import (
	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/quiz"
)

// sessionStartedMsg is sent when the engine has sampled a session.
type sessionStartedMsg struct {
	Started *engine.StartedSession
	Err     error
}

// answerScoredMsg is sent when a submitted answer has been evaluated.
type answerScoredMsg struct {
	Feedback *quiz.Feedback
	Err      error
}

// sessionFinishedMsg is sent when the session has been closed.
type sessionFinishedMsg struct {
	Outcome *quiz.Outcome
	Err     error
}
