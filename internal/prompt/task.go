package prompt

import (
	"fmt"
	"strings"
)

// Kind distinguishes what an envelope asks the model to produce.
type Kind string

const (
	KindSummary  Kind = "summary"
	KindQuestion Kind = "question"
)

// Style selects the register of a dataset summary.
type Style string

const (
	StyleExecutive Style = "executive"
	StyleTechnical Style = "technical"
	StyleBusiness  Style = "business"
)

// AnswerMode selects how a question is answered.
type AnswerMode string

const (
	ModeNormal     AnswerMode = "normal"
	ModeSimplified AnswerMode = "simplified"
	ModeDetailed   AnswerMode = "detailed"
)

func (s Style) Valid() bool {
	switch s {
	case StyleExecutive, StyleTechnical, StyleBusiness:
		return true
	}
	return false
}

func (m AnswerMode) Valid() bool {
	switch m {
	case ModeNormal, ModeSimplified, ModeDetailed:
		return true
	}
	return false
}

// ParseStyle accepts style names case-insensitively. Empty selects executive.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "executive", "exec":
		return StyleExecutive, nil
	case "technical", "tech":
		return StyleTechnical, nil
	case "business", "biz":
		return StyleBusiness, nil
	default:
		return "", fmt.Errorf("unknown summary style: %s (use executive|technical|business)", s)
	}
}

// ParseAnswerMode accepts mode names and the labels shown in the web UI,
// such as "Explain like I'm 5". Empty selects normal.
func ParseAnswerMode(s string) (AnswerMode, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("’", "'", "`", "'").Replace(v)
	switch v {
	case "", "normal", "default":
		return ModeNormal, nil
	case "simplified", "simple", "eli5", "explain like i'm 5", "explain like im 5", "explain like i am 5":
		return ModeSimplified, nil
	case "detailed", "detail", "in-depth":
		return ModeDetailed, nil
	default:
		return "", fmt.Errorf("unknown answer mode: %s (use normal|simplified|detailed)", s)
	}
}

// Task is either a SummaryTask or a QuestionTask.
type Task interface {
	Kind() Kind
}

type SummaryTask struct {
	Style Style
}

func (SummaryTask) Kind() Kind { return KindSummary }

type QuestionTask struct {
	Question string
	Mode     AnswerMode
}

func (QuestionTask) Kind() Kind { return KindQuestion }
