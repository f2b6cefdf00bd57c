// Package fallback answers from dataset structure alone when no model is
// reachable. Every function here is pure and never fails.
package fallback

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/datalicious/internal/dataset"
	"github.com/KaramelBytes/datalicious/internal/prompt"
)

// Intent is the kind of question the rule table recognised.
type Intent string

const (
	IntentRowCount   Intent = "row_count"
	IntentColumnList Intent = "column_list"
	IntentMissing    Intent = "missing_values"
	IntentAverage    Intent = "average"
	IntentGeneric    Intent = "generic"
)

const listLimit = 5

// rules are checked in order and the first match wins, so
// "how many rows have missing values" is a row-count question. Keywords match
// whole words only: "finance" is not "nan" and "meaning" is not "mean".
var rules = []struct {
	intent  Intent
	pattern *regexp.Regexp
}{
	{IntentRowCount, keywordPattern("how many rows", "row count", "number of rows", "how many records")},
	{IntentColumnList, keywordPattern("columns?", "fields?", "features?")},
	{IntentMissing, keywordPattern("missing", "nulls?", "nans?", "empty")},
	{IntentAverage, keywordPattern("averages?", "means?", "avg")},
}

// keywordPattern joins alternatives into one case-insensitive, word-bounded
// expression. Spaces in a phrase match any run of whitespace.
func keywordPattern(alts ...string) *regexp.Regexp {
	for i, a := range alts {
		alts[i] = strings.ReplaceAll(a, " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// Classify maps a question to its intent.
func Classify(question string) Intent {
	for _, r := range rules {
		if r.pattern.MatchString(question) {
			return r.intent
		}
	}
	return IntentGeneric
}

// Respond dispatches on the task kind.
func Respond(ds *dataset.Dataset, task prompt.Task) string {
	switch t := task.(type) {
	case prompt.QuestionTask:
		return Answer(ds, t.Question)
	case *prompt.QuestionTask:
		if t != nil {
			return Answer(ds, t.Question)
		}
	}
	return Summary(ds)
}

// Summary describes the dataset's shape and column kinds.
func Summary(ds *dataset.Dataset) string {
	if ds == nil {
		return "No dataset is loaded. This is a structural (non-AI) summary."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "This dataset has %s and %s.", plural(ds.Rows(), "row"), plural(ds.Width(), "column"))
	if nums := ds.NumericColumns(); len(nums) > 0 {
		fmt.Fprintf(&b, " Numeric columns: %s.", listNames(nums))
	} else {
		b.WriteString(" There are no numeric columns.")
	}
	if cats := ds.CategoricalColumns(); len(cats) > 0 {
		fmt.Fprintf(&b, " Categorical columns: %s.", listNames(cats))
	} else {
		b.WriteString(" There are no categorical columns.")
	}
	b.WriteString(" This is a structural (non-AI) summary generated without a language model.")
	return b.String()
}

// Answer applies the rule table to question.
func Answer(ds *dataset.Dataset, question string) string {
	if ds == nil {
		return "No dataset is loaded, so I cannot answer that."
	}
	switch Classify(question) {
	case IntentRowCount:
		return fmt.Sprintf("The dataset has %s.", plural(ds.Rows(), "row"))
	case IntentColumnList:
		if ds.Width() == 0 {
			return "The dataset has no columns."
		}
		return fmt.Sprintf("The dataset has %s: %s.", plural(ds.Width(), "column"), strings.Join(ds.ColumnNames(), ", "))
	case IntentMissing:
		return missingAnswer(ds)
	case IntentAverage:
		return averageAnswer(ds, question)
	}
	return fmt.Sprintf("I can't answer that without a language model. The dataset has %s and %s. "+
		"Without a model I can report the row count, the column names, missing values, and column averages.",
		plural(ds.Rows(), "row"), plural(ds.Width(), "column"))
}

func missingAnswer(ds *dataset.Dataset) string {
	var parts []string
	total := 0
	for _, c := range ds.Columns {
		if n := c.Missing(); n > 0 {
			total += n
			parts = append(parts, fmt.Sprintf("%s (%d)", c.Name, n))
		}
	}
	if total == 0 {
		return "There are no missing values in the dataset."
	}
	return fmt.Sprintf("There are %s in total. Columns with missing values: %s.",
		plural(total, "missing value"), strings.Join(parts, ", "))
}

func averageAnswer(ds *dataset.Dataset, question string) string {
	nums := ds.NumericColumns()
	if len(nums) == 0 {
		return "There are no numeric columns to average."
	}
	col := pickColumn(nums, question)
	c, _ := ds.Column(col)
	vals := c.Values()
	if len(vals) == 0 {
		return fmt.Sprintf("The column %s has no values to average.", col)
	}
	m, err := stats.Mean(vals)
	if err != nil {
		return fmt.Sprintf("The column %s has no values to average.", col)
	}
	return fmt.Sprintf("The average of %s is %.2f.", col, m)
}

// pickColumn returns the longest numeric column name mentioned in the
// question, or the first numeric column.
func pickColumn(nums []string, question string) string {
	q := strings.ToLower(question)
	best := ""
	for _, n := range nums {
		if strings.Contains(q, strings.ToLower(n)) && len(n) > len(best) {
			best = n
		}
	}
	if best == "" {
		return nums[0]
	}
	return best
}

func listNames(names []string) string {
	if len(names) <= listLimit {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(names[:listLimit], ", "), len(names)-listLimit)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
