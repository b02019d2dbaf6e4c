package blueprint

import "github.com/abhisek/casequiz/internal/llm"

// keyText is the shape shared by choices and rationales. Lists of pairs
// instead of maps keep the schema usable in strict structured-output modes.
var keyText = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"key":  map[string]any{"type": "string"},
		"text": map[string]any{"type": "string"},
	},
	"required":             []any{"key", "text"},
	"additionalProperties": false,
}

// BlueprintSchema defines the JSON the model must return.
var BlueprintSchema = &llm.Schema{
	Name:        "quiz-blueprint",
	Description: "Competency categories with session weights and a bank of interview practice questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"categories": map[string]any{
				"type":        "array",
				"description": "Competency areas with the number of questions a 12-question session should draw from each",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"key":         map[string]any{"type": "string", "description": "Short lower-case identifier, e.g. insight"},
						"targetCount": map[string]any{"type": "integer", "minimum": 1, "maximum": 20},
					},
					"required":             []any{"key", "targetCount"},
					"additionalProperties": false,
				},
			},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []any{"mcq", "short", "scenario"},
						},
						"category":   map[string]any{"type": "string", "description": "One of the category keys"},
						"difficulty": map[string]any{"type": "integer", "minimum": 1, "maximum": 3},
						"prompt":     map[string]any{"type": "string"},
						"choices": map[string]any{
							"type":        "array",
							"description": "Answer options for mcq. Empty for short and scenario.",
							"items":       keyText,
						},
						"correctAnswer": map[string]any{
							"type":        "array",
							"description": "Keys of all correct choices for mcq. Empty otherwise.",
							"items":       map[string]any{"type": "string"},
						},
						"rationales": map[string]any{
							"type":        "array",
							"description": "Why each choice is right or wrong, keyed by choice key. Empty otherwise.",
							"items":       keyText,
						},
						"rubric": map[string]any{
							"type":        "array",
							"description": "Points a strong answer covers, for short and scenario. Empty for mcq.",
							"items":       map[string]any{"type": "string"},
						},
					},
					"required":             []any{"type", "category", "difficulty", "prompt", "choices", "correctAnswer", "rationales", "rubric"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"categories", "questions"},
		"additionalProperties": false,
	},
}
