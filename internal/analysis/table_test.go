package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/datalicious/internal/dataset"
)

func scoresDataset() *dataset.Dataset {
	return dataset.Clean(&dataset.RawTable{
		Name:    "scores.csv",
		Header:  []string{"Name", "Score", "Team"},
		Records: [][]string{{"A", "10", "red"}, {"B", "30", ""}, {"C", "20", "red"}},
	})
}

func syntheticDataset(rows, cols int) *dataset.Dataset {
	header := make([]string, cols)
	for j := range header {
		header[j] = fmt.Sprintf("metric_%02d", j)
	}
	header[0] = "label"
	recs := make([][]string, rows)
	for i := range recs {
		rec := make([]string, cols)
		rec[0] = fmt.Sprintf("row-%d", i)
		for j := 1; j < cols; j++ {
			if (i+j)%17 == 0 {
				continue // sprinkle missing values
			}
			rec[j] = strconv.Itoa((i * j) % 1000)
		}
		recs[i] = rec
	}
	return dataset.Clean(&dataset.RawTable{Name: "synthetic.csv", Header: header, Records: recs})
}

func TestBuildContextLevels(t *testing.T) {
	ds := scoresDataset()
	opt := DefaultOptions()

	quick := BuildContext(ds, Quick, opt).Text()
	for _, want := range []string{"[DATASET SUMMARY]", "File: scores.csv", "Rows: 3", "Columns: 3", "Column names: Name, Score, Team", "- Score: int64"} {
		if !strings.Contains(quick, want) {
			t.Fatalf("quick digest missing %q:\n%s", want, quick)
		}
	}
	if strings.Contains(quick, "[MISSING VALUES]") || strings.Contains(quick, "[STATISTICS]") {
		t.Fatalf("quick digest should only carry dtypes:\n%s", quick)
	}
	if !strings.Contains(quick, "(first 2)") {
		t.Fatalf("quick digest should sample 2 rows:\n%s", quick)
	}

	normal := BuildContext(ds, Normal, opt).Text()
	if !strings.Contains(normal, "[MISSING VALUES]\n- Team: 1") {
		t.Fatalf("normal digest missing missing-value counts:\n%s", normal)
	}
	if strings.Contains(normal, "[STATISTICS]") {
		t.Fatalf("normal digest should not carry statistics:\n%s", normal)
	}

	deep := BuildContext(ds, Deep, opt)
	text := deep.Text()
	if !strings.Contains(text, "- Score: count 3, mean 20, std 10, min 10, 25% 15, 50% 20, 75% 25, max 30") {
		t.Fatalf("deep digest missing describe row:\n%s", text)
	}
	if !strings.Contains(text, "- Team: red(2)") {
		t.Fatalf("deep digest missing top values:\n%s", text)
	}
	if !strings.Contains(text, "- Score: int64, numeric, non-null 3, missing 0, unique 3") {
		t.Fatalf("deep digest missing full dtype table:\n%s", text)
	}
	if len(deep.Samples) != 3 || deep.SampleRandom {
		t.Fatalf("deep samples = %d random=%v, want head of 3", len(deep.Samples), deep.SampleRandom)
	}
}

func TestDigestLengthMonotonic(t *testing.T) {
	cases := []struct {
		name string
		ds   *dataset.Dataset
	}{
		{"small", scoresDataset()},
		{"empty", dataset.Clean(&dataset.RawTable{Name: "e.csv", Header: []string{"a"}})},
		{"wide", syntheticDataset(40, 120)},
		{"tall", syntheticDataset(6000, 6)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := BuildContext(c.ds, Quick, DefaultOptions()).Len()
			n := BuildContext(c.ds, Normal, DefaultOptions()).Len()
			d := BuildContext(c.ds, Deep, DefaultOptions()).Len()
			if !(d >= n && n >= q) {
				t.Fatalf("lengths not monotonic: quick=%d normal=%d deep=%d", q, n, d)
			}
			if q > Quick.Budget() || n > Normal.Budget() || d > Deep.Budget() {
				t.Fatalf("budget exceeded: quick=%d normal=%d deep=%d", q, n, d)
			}
		})
	}
}

func TestWideDatasetIsTruncatedToBudget(t *testing.T) {
	text := BuildContext(syntheticDataset(40, 300), Quick, DefaultOptions()).Text()
	if got := utf8.RuneCountInString(text); got != Quick.Budget() {
		t.Fatalf("truncated length = %d, want %d", got, Quick.Budget())
	}
	if !strings.HasSuffix(text, truncMarker) {
		t.Fatalf("expected truncation marker at end")
	}
}

func TestRandomSampleIsSeededAndNested(t *testing.T) {
	ds := syntheticDataset(6000, 3)
	opt := DefaultOptions()
	quick := BuildContext(ds, Quick, opt)
	deep := BuildContext(ds, Deep, opt)
	again := BuildContext(ds, Deep, opt)

	if !quick.SampleRandom || !deep.SampleRandom {
		t.Fatalf("expected random sampling above threshold")
	}
	if deep.Text() != again.Text() {
		t.Fatalf("seeded sample should be reproducible")
	}
	labels := map[string]bool{}
	for _, row := range deep.Samples {
		labels[row[0]] = true
	}
	for _, row := range quick.Samples {
		if !labels[row[0]] {
			t.Fatalf("quick sample row %q not in deep sample", row[0])
		}
	}
	if !strings.Contains(deep.Text(), "(random 10 of 6000)") {
		t.Fatalf("deep digest should label the random sample")
	}

	other := BuildContext(ds, Deep, Options{SampleSeed: 7})
	if other.Text() == deep.Text() {
		t.Fatalf("different seeds should produce different samples")
	}
}

func TestSmallThresholdSwitchesToRandom(t *testing.T) {
	d := BuildContext(scoresDataset(), Normal, Options{RandomThreshold: 2, SampleSeed: 1})
	if !d.SampleRandom || len(d.Samples) != 3 {
		t.Fatalf("random=%v samples=%d", d.SampleRandom, len(d.Samples))
	}
}

func TestDescribeMatchesReference(t *testing.T) {
	vals := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	s := describe(vals)
	if s.Count != len(vals) {
		t.Fatalf("count = %d", s.Count)
	}
	if !almostEqual(s.Mean, mean(vals), 1e-9) {
		t.Fatalf("mean = %v, want %v", s.Mean, mean(vals))
	}
	if !almostEqual(s.Std, sampleStd(vals), 1e-9) {
		t.Fatalf("std = %v, want %v", s.Std, sampleStd(vals))
	}
	if s.Min != 1 || s.Max != 9 {
		t.Fatalf("min/max = %v/%v", s.Min, s.Max)
	}
	// linear interpolation: pos = 0.25*7 = 1.75 -> 1 + 0.75*(2-1)
	if !almostEqual(s.Q1, 1.75, 1e-9) || !almostEqual(s.Median, 3.5, 1e-9) || !almostEqual(s.Q3, 5.25, 1e-9) {
		t.Fatalf("quartiles = %v %v %v", s.Q1, s.Median, s.Q3)
	}
}

func TestParseDetailLevel(t *testing.T) {
	cases := map[string]DetailLevel{"quick": Quick, "Brief": Quick, "": Normal, "standard": Normal, "DEEP": Deep, "full": Deep}
	for in, want := range cases {
		got, err := ParseDetailLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseDetailLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDetailLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if Deep.String() != "deep" || Quick.SampleSize() >= Deep.SampleSize() {
		t.Fatalf("unexpected level metadata")
	}
}

func mean(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func almostEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }
