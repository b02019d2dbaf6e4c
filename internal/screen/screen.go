package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/quiz"
	"github.com/abhisek/casequiz/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Resumer is implemented by screens that refresh when they become active
// again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// EscapeCapturer is implemented by screens that handle Esc themselves
// instead of letting the app pop them.
type EscapeCapturer interface {
	CapturesEscape() bool
}

// Backend is the part of the assessment engine the screens drive.
type Backend interface {
	Ingest(ctx context.Context, userID, text string) (*engine.IngestResult, error)
	Blueprint(ctx context.Context, userID string) (*engine.BlueprintSummary, error)
	StartSession(ctx context.Context, userID string, count int) (*engine.StartedSession, error)
	Submit(ctx context.Context, userID, sessionID string, sub engine.Submission) (*quiz.Feedback, error)
	Finish(ctx context.Context, userID, sessionID string) (*quiz.Outcome, error)
}

// Deps carries what every screen needs to talk to the engine.
type Deps struct {
	Backend Backend
	UserID  string

	// Count is the requested session size; 0 selects the default.
	Count int
}
