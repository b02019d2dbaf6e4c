package blueprint

import (
	"time"

	"github.com/abhisek/casequiz/internal/logger"
)

// PromptVersion identifies the prompt and schema revision recorded on
// every generated blueprint.
const PromptVersion = "blueprint-v1"

// Config controls the behavior of the Generator.
type Config struct {
	// Validators run in order on every parsed LLM blueprint; the first
	// failure rejects it.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response. A full bank is
	// large, so this is well above the judge's budget.
	MaxTokens int

	Temperature float64

	// QuestionsPerCategory is the bank depth requested from the model.
	QuestionsPerCategory int

	Logger *logger.Logger

	// Now is the clock used for GeneratedAt. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&ReferenceValidator{},
		},
		MaxTokens:            8192,
		Temperature:          0.4,
		QuestionsPerCategory: 6,
	}
}
