package quiz

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is a submitted answer: free text for short and scenario
// questions, choice keys for multiple choice. Either form is accepted for
// either type; multiple choice parses keys out of text when needed.
type Answer struct {
	Text string
	Keys []string
}

// TextAnswer wraps a free-text answer.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// ChoiceAnswer wraps a list of choice keys.
func ChoiceAnswer(keys ...string) Answer { return Answer{Keys: keys} }

// UnmarshalJSON accepts a JSON string or an array of strings.
func (a *Answer) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Answer{Text: s}
		return nil
	}
	var keys []string
	if err := json.Unmarshal(b, &keys); err == nil {
		*a = Answer{Keys: keys}
		return nil
	}
	return fmt.Errorf("answer must be a string or an array of strings")
}

// MarshalJSON writes keys as an array and text as a string.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Keys != nil {
		return json.Marshal(a.Keys)
	}
	return json.Marshal(a.Text)
}

// String is the stored form of the answer.
func (a Answer) String() string {
	if a.Keys != nil {
		b, _ := json.Marshal(a.Keys)
		return string(b)
	}
	return a.Text
}

// Blank reports whether nothing was submitted.
func (a Answer) Blank() bool {
	if len(a.Keys) > 0 {
		for _, k := range a.Keys {
			if strings.TrimSpace(k) != "" {
				return false
			}
		}
	}
	return strings.TrimSpace(a.Text) == ""
}
