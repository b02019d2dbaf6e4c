package blueprint

import "github.com/abhisek/casequiz/internal/quiz"

// Fallback category keys in session order.
const (
	CategoryKnowledge   = "knowledge"
	CategoryInsight     = "insight"
	CategoryBehavior    = "behavior"
	CategoryConsistency = "consistency"
	CategoryPlanning    = "planning"
)

var fallbackCategories = []quiz.CategoryWeight{
	{Key: CategoryKnowledge, TargetCount: 3},
	{Key: CategoryInsight, TargetCount: 3},
	{Key: CategoryBehavior, TargetCount: 2},
	{Key: CategoryConsistency, TargetCount: 2},
	{Key: CategoryPlanning, TargetCount: 2},
}

// FallbackBank returns the fixed blueprint used whenever generation is
// unavailable. Every call returns fresh copies.
func FallbackBank() ([]quiz.CategoryWeight, []quiz.Question) {
	categories := make([]quiz.CategoryWeight, len(fallbackCategories))
	copy(categories, fallbackCategories)

	questions := make([]quiz.Question, len(fallbackQuestions))
	for i, q := range fallbackQuestions {
		q.Choices = append([]quiz.Choice(nil), q.Choices...)
		q.CorrectAnswer = append([]string(nil), q.CorrectAnswer...)
		q.Rubric = append([]string(nil), q.Rubric...)
		if q.Rationales != nil {
			r := make(map[string]string, len(q.Rationales))
			for k, v := range q.Rationales {
				r[k] = v
			}
			q.Rationales = r
		}
		q.Position = i
		questions[i] = q
	}
	return categories, questions
}

var fallbackQuestions = []quiz.Question{
	// knowledge
	{
		Type: quiz.TypeMCQ, Category: CategoryKnowledge, Difficulty: 1,
		Prompt: "What is the main purpose of the driving-fitness assessment?",
		Choices: []quiz.Choice{
			{Key: "A", Text: "To punish the offence a second time"},
			{Key: "B", Text: "To judge whether future safe driving can be expected"},
			{Key: "C", Text: "To test knowledge of traffic signs"},
		},
		CorrectAnswer: []string{"B"},
		Rationales: map[string]string{
			"A": "The assessment is not a penalty; the sentence has already been served.",
			"B": "Assessors give a prognosis about future behaviour behind the wheel.",
			"C": "Sign knowledge is covered by the licence test, not this assessment.",
		},
	},
	{
		Type: quiz.TypeMCQ, Category: CategoryKnowledge, Difficulty: 2,
		Prompt: "Which statements about impairment are correct? Select all that apply.",
		Choices: []quiz.Choice{
			{Key: "A", Text: "Reaction time gets worse before you feel impaired"},
			{Key: "B", Text: "Coffee or fresh air speeds up sobering"},
			{Key: "C", Text: "Risk-taking increases while self-assessment gets worse"},
			{Key: "D", Text: "Experienced drivers compensate fully for impairment"},
		},
		CorrectAnswer: []string{"A", "C"},
		Rationales: map[string]string{
			"A": "Performance drops measurably before subjective effects are noticed.",
			"B": "Only time lowers the level; coffee and air change nothing.",
			"C": "Impairment raises risk appetite and distorts self-judgement.",
			"D": "Experience does not offset impaired perception or reaction.",
		},
	},
	{
		Type: quiz.TypeShort, Category: CategoryKnowledge, Difficulty: 2,
		Prompt: "Explain in your own words why your offence increased the risk for other road users.",
		Rubric: []string{
			"Names the concrete impairment or rule breach",
			"Links it to slower reactions or misjudged situations",
			"Mentions consequences for third parties, not only for self",
		},
	},
	{
		Type: quiz.TypeScenario, Category: CategoryKnowledge, Difficulty: 1,
		Prompt: "A friend says he feels fine after a few drinks and offers to drive you home. What do you tell him?",
		Rubric: []string{
			"Explains that feeling fine says nothing about actual impairment",
			"Refuses the ride and offers an alternative",
			"Refers to own experience without lecturing",
		},
	},
	// insight
	{
		Type: quiz.TypeShort, Category: CategoryInsight, Difficulty: 2,
		Prompt: "What were the personal reasons that led to your behaviour at the time?",
		Rubric: []string{
			"Identifies underlying motives such as stress, peer pressure or habit",
			"Takes personal responsibility instead of blaming circumstances",
			"Shows the reasons were understood, not just listed",
		},
	},
	{
		Type: quiz.TypeMCQ, Category: CategoryInsight, Difficulty: 2,
		Prompt: "Which answer shows genuine insight to an assessor?",
		Choices: []quiz.Choice{
			{Key: "A", Text: "I was just unlucky to be stopped that night"},
			{Key: "B", Text: "Everyone I knew did the same thing"},
			{Key: "C", Text: "I had built a habit that I no longer noticed as risky"},
		},
		CorrectAnswer: []string{"C"},
		Rationales: map[string]string{
			"A": "Attributing the offence to bad luck signals missing insight.",
			"B": "Pointing to others deflects responsibility.",
			"C": "Recognising an unnoticed habit shows self-reflection.",
		},
	},
	{
		Type: quiz.TypeScenario, Category: CategoryInsight, Difficulty: 3,
		Prompt: "The assessor says: \"Many people in your situation just had bad luck.\" How do you respond?",
		Rubric: []string{
			"Rejects the bad-luck framing politely",
			"Explains the offence as a result of own decisions",
			"Refers to what was learned since",
		},
	},
	// behavior
	{
		Type: quiz.TypeShort, Category: CategoryBehavior, Difficulty: 2,
		Prompt: "What have you concretely changed in your daily life since the offence?",
		Rubric: []string{
			"Names specific, verifiable changes",
			"Explains how each change reduces the risk",
			"States how long the change has been in place",
		},
	},
	{
		Type: quiz.TypeScenario, Category: CategoryBehavior, Difficulty: 2,
		Prompt: "You are at a friend's birthday party and you came by car. Describe how the evening goes.",
		Rubric: []string{
			"Plans the trip home before arriving",
			"Describes how to handle offers or pressure from others",
			"Keeps driving and consumption strictly separated",
		},
	},
	{
		Type: quiz.TypeMCQ, Category: CategoryBehavior, Difficulty: 1,
		Prompt: "Which of these is the most reliable way to keep a behaviour change?",
		Choices: []quiz.Choice{
			{Key: "A", Text: "Relying on willpower in the moment"},
			{Key: "B", Text: "Fixed routines and support that make the old behaviour unnecessary"},
			{Key: "C", Text: "Avoiding the topic altogether"},
		},
		CorrectAnswer: []string{"B"},
		Rationales: map[string]string{
			"A": "Willpower alone fails under stress or social pressure.",
			"B": "Stable routines and support carry the change when motivation dips.",
			"C": "Avoidance leaves the underlying pattern untouched.",
		},
	},
	// consistency
	{
		Type: quiz.TypeScenario, Category: CategoryConsistency, Difficulty: 3,
		Prompt: "The assessor points out that your file shows a different timeline than the one you just described. How do you handle this?",
		Rubric: []string{
			"Stays calm and does not argue defensively",
			"Clarifies or corrects the account honestly",
			"Keeps the corrected account consistent with the file",
		},
	},
	{
		Type: quiz.TypeMCQ, Category: CategoryConsistency, Difficulty: 2,
		Prompt: "What matters most when you describe your past behaviour in the interview?",
		Choices: []quiz.Choice{
			{Key: "A", Text: "Making it sound as harmless as possible"},
			{Key: "B", Text: "Matching the documented facts and staying consistent"},
			{Key: "C", Text: "Repeating memorised answers word for word"},
		},
		CorrectAnswer: []string{"B"},
		Rationales: map[string]string{
			"A": "Playing things down contradicts the file and costs credibility.",
			"B": "Assessors compare the account with the file; consistency builds trust.",
			"C": "Memorised phrases sound rehearsed and invite probing.",
		},
	},
	{
		Type: quiz.TypeShort, Category: CategoryConsistency, Difficulty: 1,
		Prompt: "Summarise the events that led to the loss of your licence in three or four sentences.",
		Rubric: []string{
			"Gives date, situation and offence",
			"Stays factual without minimising",
			"Matches the facts of the case",
		},
	},
	// planning
	{
		Type: quiz.TypeScenario, Category: CategoryPlanning, Difficulty: 2,
		Prompt: "Six months after getting your licence back, work becomes very stressful. What do you do to avoid slipping into old patterns?",
		Rubric: []string{
			"Recognises stress as a known risk trigger",
			"Names concrete coping strategies",
			"Mentions where to get support early",
		},
	},
	{
		Type: quiz.TypeShort, Category: CategoryPlanning, Difficulty: 2,
		Prompt: "How will you make sure the changes you made last over the coming years?",
		Rubric: []string{
			"Describes ongoing routines or checks",
			"Names people or services that help",
			"Shows a realistic, long-term view",
		},
	},
	{
		Type: quiz.TypeMCQ, Category: CategoryPlanning, Difficulty: 1,
		Prompt: "Which plan for the future convinces an assessor most?",
		Choices: []quiz.Choice{
			{Key: "A", Text: "I will try to be more careful"},
			{Key: "B", Text: "A concrete plan with warning signs, alternatives and support"},
			{Key: "C", Text: "I will only drive when necessary"},
		},
		CorrectAnswer: []string{"B"},
		Rationales: map[string]string{
			"A": "Vague intentions give no basis for a positive prognosis.",
			"B": "Specific strategies show the change is planned, not hoped for.",
			"C": "Driving less does not address the cause of the offence.",
		},
	},
}
