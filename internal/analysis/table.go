package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/datalicious/internal/dataset"
)

// Options controls sampling for the digest.
type Options struct {
	// RandomThreshold is the row count above which samples are drawn at random
	// instead of from the head. 0 means DefaultRandomThreshold.
	RandomThreshold int
	// SampleSeed seeds the random sample so digests are reproducible.
	SampleSeed int64
}

const (
	DefaultRandomThreshold = 5000
	DefaultSampleSeed      = 42
)

// DefaultOptions returns reasonable defaults for digest construction.
func DefaultOptions() Options {
	return Options{RandomThreshold: DefaultRandomThreshold, SampleSeed: DefaultSampleSeed}
}

const truncMarker = "\n[TRUNCATED]\n"

// Digest is a read-only, bounded snapshot of a Dataset used to ground prompts.
type Digest struct {
	Name               string
	Level              DetailLevel
	Rows               int
	ColumnNames        []string
	Cols               []ColumnSummary
	NumericColumns     []string
	CategoricalColumns []string
	Samples            [][]string
	SampleRandom       bool
}

// ColumnSummary captures dtype and, depending on level, missingness and statistics.
type ColumnSummary struct {
	Name    string       `json:"name"`
	DType   string       `json:"dtype"`
	Kind    dataset.Kind `json:"kind"`
	NonNull int          `json:"non_null"`
	Missing int          `json:"missing"`
	Unique  int          `json:"unique"`
	Stats   *ColumnStats `json:"stats,omitempty"`
	// Categorical top values (deep only)
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

// ColumnStats mirrors a describe() row for numeric columns.
type ColumnStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// BuildContext derives a digest of ds sized for level. It performs no I/O.
func BuildContext(ds *dataset.Dataset, level DetailLevel, opt Options) *Digest {
	if !level.Valid() {
		level = Normal
	}
	d := &Digest{
		Name:               ds.Name,
		Level:              level,
		Rows:               ds.Rows(),
		ColumnNames:        ds.ColumnNames(),
		NumericColumns:     ds.NumericColumns(),
		CategoricalColumns: ds.CategoricalColumns(),
	}
	for _, c := range ds.Columns {
		s := ColumnSummary{Name: c.Name, DType: c.DType, Kind: c.Kind}
		if level >= Normal {
			s.Missing = c.Missing()
			s.NonNull = ds.Rows() - s.Missing
		}
		if level >= Deep {
			s.Unique = countUnique(c)
			if c.Kind == dataset.KindNumeric {
				s.Stats = describe(c.Values())
			} else {
				s.TopValues = topValues(c, 5)
			}
		}
		d.Cols = append(d.Cols, s)
	}
	idx, random := sampleIndices(ds.Rows(), level.SampleSize(), opt)
	d.SampleRandom = random
	for _, i := range idx {
		d.Samples = append(d.Samples, ds.Row(i))
	}
	return d
}

// sampleIndices draws from one seeded permutation so that the sample for a
// lower level is always a subset of the sample for a higher level.
func sampleIndices(rows, k int, opt Options) ([]int, bool) {
	if k > rows {
		k = rows
	}
	if k <= 0 {
		return nil, false
	}
	threshold := opt.RandomThreshold
	if threshold <= 0 {
		threshold = DefaultRandomThreshold
	}
	if rows <= threshold {
		out := make([]int, k)
		for i := range out {
			out[i] = i
		}
		return out, false
	}
	rng := rand.New(rand.NewSource(opt.SampleSeed))
	out := append([]int(nil), rng.Perm(rows)[:k]...)
	sort.Ints(out)
	return out, true
}

func countUnique(c *dataset.Column) int {
	seen := map[string]struct{}{}
	for i, v := range c.Raw {
		if c.IsMissing(i) {
			continue
		}
		seen[strings.TrimSpace(v)] = struct{}{}
	}
	return len(seen)
}

func topValues(c *dataset.Column, n int) []CategoryCount {
	cats := map[string]int{}
	for i, v := range c.Raw {
		if c.IsMissing(i) {
			continue
		}
		cats[strings.TrimSpace(v)]++
	}
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

func describe(vals []float64) *ColumnStats {
	if len(vals) == 0 {
		return &ColumnStats{}
	}
	s := &ColumnStats{Count: len(vals)}
	s.Mean, _ = stats.Mean(vals)
	s.Min, _ = stats.Min(vals)
	s.Max, _ = stats.Max(vals)
	if len(vals) > 1 {
		s.Std, _ = stats.StandardDeviationSample(vals)
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.Q1 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q3 = quantile(sorted, 0.75)
	return s
}

// Text renders the digest, truncated to the level's character budget.
func (d *Digest) Text() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if d.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", d.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", d.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(d.ColumnNames)))
	names := make([]string, len(d.ColumnNames))
	for i, n := range d.ColumnNames {
		names[i] = safeName(n)
	}
	b.WriteString(fmt.Sprintf("Column names: %s\n", strings.Join(names, ", ")))

	b.WriteString("\n[SCHEMA]\n")
	for _, c := range d.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s", safeName(c.Name), c.DType))
		switch {
		case d.Level >= Deep:
			b.WriteString(fmt.Sprintf(", %s, non-null %d, missing %d, unique %d", c.Kind, c.NonNull, c.Missing, c.Unique))
		case d.Level >= Normal:
			b.WriteString(fmt.Sprintf(" (missing %d)", c.Missing))
		}
		b.WriteString("\n")
	}

	if d.Level >= Normal {
		b.WriteString("\n[MISSING VALUES]\n")
		found := false
		for _, c := range d.Cols {
			if c.Missing > 0 {
				found = true
				b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(c.Name), c.Missing))
			}
		}
		if !found {
			b.WriteString("- none\n")
		}
	}

	if d.Level >= Deep {
		wroteStats := false
		for _, c := range d.Cols {
			if c.Stats == nil {
				continue
			}
			if !wroteStats {
				b.WriteString("\n[STATISTICS]\n")
				wroteStats = true
			}
			s := c.Stats
			b.WriteString(fmt.Sprintf("- %s: count %d, mean %.4g, std %.4g, min %.4g, 25%% %.4g, 50%% %.4g, 75%% %.4g, max %.4g\n",
				safeName(c.Name), s.Count, s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max))
		}
		wroteTop := false
		for _, c := range d.Cols {
			if len(c.TopValues) == 0 {
				continue
			}
			if !wroteTop {
				b.WriteString("\n[TOP VALUES]\n")
				wroteTop = true
			}
			b.WriteString(fmt.Sprintf("- %s: ", safeName(c.Name)))
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
			b.WriteString("\n")
		}
	}

	if len(d.Samples) > 0 {
		if d.SampleRandom {
			b.WriteString(fmt.Sprintf("\n[SAMPLE ROWS] (random %d of %d)\n", len(d.Samples), d.Rows))
		} else {
			b.WriteString(fmt.Sprintf("\n[SAMPLE ROWS] (first %d)\n", len(d.Samples)))
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(names, " | "))
		b.WriteString(" |\n|")
		b.WriteString(strings.Repeat(" --- |", len(names)))
		b.WriteString("\n")
		for _, row := range d.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if utf8.RuneCountInString(val) > 80 {
					val = string([]rune(val)[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return truncate(b.String(), d.Level.Budget())
}

// Len returns the rune length of Text.
func (d *Digest) Len() int { return utf8.RuneCountInString(d.Text()) }

// truncate cuts s to exactly budget runes, the last of which spell the marker.
func truncate(s string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s
	}
	keep := budget - utf8.RuneCountInString(truncMarker)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(s)[:keep]) + truncMarker
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// quantile uses linear interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
