package blueprint

import (
	"fmt"
	"strings"

	"github.com/abhisek/casequiz/internal/quiz"
)

const systemPrompt = `You are an examiner preparing a candidate for a medical-psychological driving-fitness assessment (MPU).

Rules:
- Build a question bank tailored to the candidate's case. Questions probe what a real assessor asks: knowledge of the offence and its risks, insight into causes, behaviour change, consistency of the account, and concrete plans for the future.
- Return competency categories with a target count each. Target counts describe a 12-question session and must be between 1 and 20.
- Every question belongs to exactly one of the returned categories.
- Use "mcq" for factual checks. Give 3 to 5 choices with single-letter keys (A, B, C...), list every correct key in correctAnswer, and give a rationale for each choice.
- Use "short" for questions answerable in two or three sentences and "scenario" for situations the candidate must talk through. Both need a rubric of 2 to 5 concrete points a strong answer covers.
- Difficulty is 1 (warm-up), 2 (standard) or 3 (probing).
- Write prompts addressed to the candidate. Never reveal answers or rubrics inside a prompt.
- Do not invent facts that contradict the case summary.`

// strictSuffix is appended on the re-prompt after unusable output.
const strictSuffix = `

Your previous reply could not be used. Respond with a single JSON object that matches the schema exactly. No prose, no markdown, no code fences.`

// buildUserMessage serializes the case facts for the model.
func buildUserMessage(facts quiz.Facts, flags []string, cfg Config) string {
	var b strings.Builder

	b.WriteString("Case summary:\n")
	if facts.Summary == "" {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(facts.Summary)
		b.WriteString("\n")
	}
	if facts.Truncated {
		fmt.Fprintf(&b, "(summary shortened from %d characters)\n", facts.SourceChars)
	}

	b.WriteString("\nRisk flags: ")
	if len(flags) == 0 {
		b.WriteString("none detected")
	} else {
		b.WriteString(strings.Join(flags, ", "))
	}
	b.WriteString("\n")

	if len(facts.Hints) > 0 {
		b.WriteString("\nInterview focus:\n")
		for _, h := range facts.Hints {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}

	fmt.Fprintf(&b, "\nWrite about %d questions per category, mixing all three question types.\n", cfg.QuestionsPerCategory)
	return b.String()
}
