package assistant

import "github.com/KaramelBytes/datalicious/internal/prompt"

// Turn is one answered question.
type Turn struct {
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Provenance Provenance        `json:"provenance"`
	Mode       prompt.AnswerMode `json:"mode,omitempty"`
}

// History is an append-only list of turns owned by the caller.
type History []Turn

// Append returns a new history with t at the end. The receiver's backing
// array is never shared with the result.
func (h History) Append(t Turn) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, t)
}

// Last returns the most recent turn.
func (h History) Last() (Turn, bool) {
	if len(h) == 0 {
		return Turn{}, false
	}
	return h[len(h)-1], true
}
