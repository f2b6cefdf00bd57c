package dataset

import "fmt"

// ParseError indicates the input could not be read as tabular data.
// It is the only loader error surfaced to users; it is never retried.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse error"
	}
	if e.Line > 0 {
		return fmt.Sprintf("could not read %s (line %d): %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("could not read %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
