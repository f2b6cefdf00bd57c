package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/datalicious/internal/analysis"
)

// SystemRole is sent as the system message for every envelope.
const SystemRole = "You are a smart and friendly data analyst assistant. " +
	"You answer questions about the user's dataset using only the data provided to you."

// GroundingConstraint is always the final block of the user message.
const GroundingConstraint = "Answer only using the dataset shown above. " +
	"If the answer is not present in the dataset, reply that it was not found in the dataset."

var (
	ErrNoDigest      = errors.New("prompt: digest is required")
	ErrEmptyQuestion = errors.New("prompt: question cannot be empty")
)

// Params are the generation parameters attached to an envelope.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Lower temperature pairs with a larger output budget across both tables.
var summaryParams = map[Style]Params{
	StyleTechnical: {Temperature: 0.2, MaxTokens: 700},
	StyleBusiness:  {Temperature: 0.4, MaxTokens: 550},
	StyleExecutive: {Temperature: 0.6, MaxTokens: 400},
}

var questionParams = map[AnswerMode]Params{
	ModeDetailed:   {Temperature: 0.2, MaxTokens: 800},
	ModeNormal:     {Temperature: 0.5, MaxTokens: 500},
	ModeSimplified: {Temperature: 0.8, MaxTokens: 300},
}

var summaryInstructions = map[Style]string{
	StyleExecutive: "Give a short plain-English executive summary of this dataset: what it describes, " +
		"its size, and the two or three things a decision maker should notice.",
	StyleTechnical: "Give a technical summary of this dataset. Describe the schema and data types, " +
		"data quality issues such as missing values, notable distributions, and suitable next analysis steps.",
	StyleBusiness: "Give a business-oriented summary of this dataset. Explain what it could be used for, " +
		"which columns look most valuable, and any risks in relying on it.",
}

var modeInstructions = map[AnswerMode]string{
	ModeNormal:     "Give a clear, accurate, and helpful answer based only on the provided dataset.",
	ModeSimplified: "Explain the answer as if to a five year old: short sentences, everyday words, no jargon.",
	ModeDetailed: "Give a detailed answer. Show the values you relied on, explain your reasoning step by step, " +
		"and mention any caveats such as missing values or a limited sample.",
}

// SummaryParams returns the generation parameters for a summary style.
func SummaryParams(s Style) (Params, bool) {
	p, ok := summaryParams[s]
	return p, ok
}

// QuestionParams returns the generation parameters for an answer mode.
func QuestionParams(m AnswerMode) (Params, bool) {
	p, ok := questionParams[m]
	return p, ok
}

// Envelope is a fully rendered request for the gateway.
type Envelope struct {
	Kind        Kind
	Style       Style
	Mode        AnswerMode
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	Digest      *analysis.Digest
}

// Compose renders the digest and task into an envelope. It is pure.
func Compose(d *analysis.Digest, task Task) (*Envelope, error) {
	if d == nil {
		return nil, ErrNoDigest
	}
	switch t := task.(type) {
	case *SummaryTask:
		if t != nil {
			return Compose(d, *t)
		}
	case *QuestionTask:
		if t != nil {
			return Compose(d, *t)
		}
	}
	ctx := d.Text()
	var b strings.Builder
	env := &Envelope{System: SystemRole, Digest: d}

	switch t := task.(type) {
	case SummaryTask:
		if !t.Style.Valid() {
			return nil, fmt.Errorf("prompt: invalid style %q", t.Style)
		}
		p := summaryParams[t.Style]
		env.Kind, env.Style = KindSummary, t.Style
		env.Temperature, env.MaxTokens = p.Temperature, p.MaxTokens
		b.WriteString(summaryInstructions[t.Style])
		b.WriteString("\n\n")
		b.WriteString(ctx)
	case QuestionTask:
		q := strings.TrimSpace(t.Question)
		if q == "" {
			return nil, ErrEmptyQuestion
		}
		if !t.Mode.Valid() {
			return nil, fmt.Errorf("prompt: invalid answer mode %q", t.Mode)
		}
		p := questionParams[t.Mode]
		env.Kind, env.Mode = KindQuestion, t.Mode
		env.Temperature, env.MaxTokens = p.Temperature, p.MaxTokens
		b.WriteString("Here is a description of the user's dataset:\n\n")
		b.WriteString(ctx)
		b.WriteString("\n\nThe user asked: \"")
		b.WriteString(t.Question)
		b.WriteString("\"\n\n")
		b.WriteString(modeInstructions[t.Mode])
	default:
		return nil, fmt.Errorf("prompt: unsupported task %T", task)
	}
	b.WriteString("\n\n")
	b.WriteString(GroundingConstraint)
	env.User = b.String()
	return env, nil
}
