package fallback

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/datalicious/internal/dataset"
	"github.com/KaramelBytes/datalicious/internal/prompt"
)

func scores() *dataset.Dataset {
	return dataset.Clean(&dataset.RawTable{
		Name:    "scores.csv",
		Header:  []string{"Name", "Score"},
		Records: [][]string{{"A", "10"}, {"B", "30"}, {"C", "20"}},
	})
}

func TestAnswerRowCount(t *testing.T) {
	got := Answer(scores(), "How many rows are there?")
	assert.Contains(t, got, "3")
}

func TestAnswerColumns(t *testing.T) {
	got := Answer(scores(), "What columns exist?")
	assert.Contains(t, got, "Name")
	assert.Contains(t, got, "Score")
}

func TestAnswerAverage(t *testing.T) {
	assert.Contains(t, Answer(scores(), "What is the average score?"), "20.00")
	assert.Contains(t, Answer(scores(), "mean please"), "20.00", "first numeric column is the default")
}

func TestAnswerAveragePrefersNamedColumn(t *testing.T) {
	ds := dataset.Clean(&dataset.RawTable{
		Header:  []string{"age", "height"},
		Records: [][]string{{"10", "100"}, {"20", "200"}},
	})
	assert.Contains(t, Answer(ds, "avg HEIGHT?"), "150.00")
	assert.Contains(t, Answer(ds, "avg?"), "15.00")
}

func TestAnswerMissing(t *testing.T) {
	ds := dataset.Clean(&dataset.RawTable{
		Header:  []string{"a", "b"},
		Records: [][]string{{"1", ""}, {"2", "x"}, {"", ""}},
	})
	got := Answer(ds, "any null values?")
	assert.Contains(t, got, "3 missing values")
	assert.Contains(t, got, "b (2)")
	assert.Contains(t, Answer(scores(), "anything missing?"), "no missing values")
}

func TestRowCountWinsTieBreak(t *testing.T) {
	assert.Equal(t, IntentRowCount, Classify("how many rows have missing values"))
	assert.Equal(t, "The dataset has 3 rows.", Answer(scores(), "how many rows have missing values"))
}

func TestClassifyOrder(t *testing.T) {
	cases := map[string]Intent{
		"Number of rows?":             IntentRowCount,
		"list the fields":             IntentColumnList,
		"which column has nan values": IntentColumnList,
		"any empty cells":             IntentMissing,
		"avg":                         IntentAverage,
		"who won":                     IntentGeneric,
	}
	for q, want := range cases {
		assert.Equal(t, want, Classify(q), q)
	}
}

func TestClassifyMatchesWholeWords(t *testing.T) {
	cases := map[string]Intent{
		"what is the average finance score?": IntentAverage,
		"average maintenance cost":           IntentAverage,
		"what is the meaning of this data?":  IntentGeneric,
		"how many\trows are there":           IntentRowCount,
		"Any NaNs here?":                     IntentMissing,
		"what are the means":                 IntentAverage,
	}
	for q, want := range cases {
		assert.Equal(t, want, Classify(q), q)
	}

	ds := dataset.Clean(&dataset.RawTable{
		Name:    "budget.csv",
		Header:  []string{"finance score", "maintenance cost"},
		Records: [][]string{{"10", "1"}, {"20", "3"}},
	})
	assert.Equal(t, "The average of finance score is 15.00.", Answer(ds, "what is the average finance score?"))
	assert.Equal(t, "The average of maintenance cost is 2.00.", Answer(ds, "average maintenance cost"))
}

func TestGenericAnswerMentionsShape(t *testing.T) {
	got := Answer(scores(), "Who has the best vibe?")
	assert.Contains(t, got, "3 rows")
	assert.Contains(t, got, "2 columns")
}

func TestSummaryListsKindsAndTruncates(t *testing.T) {
	header := make([]string, 8)
	rec := make([]string, 8)
	for i := range header {
		header[i] = fmt.Sprintf("n%d", i)
		rec[i] = "1"
	}
	header = append(header, "label")
	rec = append(rec, "x")
	ds := dataset.Clean(&dataset.RawTable{Header: header, Records: [][]string{rec}})

	got := Summary(ds)
	assert.Contains(t, got, "1 row and 9 columns")
	assert.Contains(t, got, "n0, n1, n2, n3, n4 (+3 more)")
	assert.Contains(t, got, "Categorical columns: label.")
	assert.True(t, strings.HasSuffix(got, "generated without a language model."))
	assert.Contains(t, got, "non-AI")
}

func TestDeterministicAndTotal(t *testing.T) {
	ds := scores()
	for _, q := range []string{"", "how many rows", "?!", "average"} {
		assert.Equal(t, Answer(ds, q), Answer(ds, q))
		assert.NotEmpty(t, Answer(ds, q))
	}
	assert.NotEmpty(t, Summary(nil))
	assert.NotEmpty(t, Answer(nil, "rows"))
	empty := dataset.Clean(&dataset.RawTable{})
	assert.NotEmpty(t, Answer(empty, "average"))
	assert.NotEmpty(t, Summary(empty))
}

func TestRespondDispatches(t *testing.T) {
	ds := scores()
	assert.Equal(t, Summary(ds), Respond(ds, prompt.SummaryTask{Style: prompt.StyleExecutive}))
	assert.Equal(t, Answer(ds, "row count"), Respond(ds, prompt.QuestionTask{Question: "row count"}))
}
