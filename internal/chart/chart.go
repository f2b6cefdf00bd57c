// Package chart turns a dataset into Plotly-compatible figure specs.
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalicious/internal/dataset"
)

const (
	DefaultTopN = 10
	MaxTopN     = 50
	pieSlices   = 5
	barRowLimit = 15
)

var (
	ErrNoNumeric  = errors.New("no numeric data found to plot")
	ErrNotNumeric = errors.New("column is not numeric")
)

// UnknownColumnError names a column that is not in the dataset.
type UnknownColumnError struct{ Name string }

func (e *UnknownColumnError) Error() string { return fmt.Sprintf("unknown column: %s", e.Name) }

// Type is a chart kind.
type Type string

const (
	TypeBar     Type = "bar"
	TypeLine    Type = "line"
	TypeScatter Type = "scatter"
	TypePie     Type = "pie"
	TypeHeatmap Type = "heatmap"
)

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeBar, nil
	case TypeBar, TypeLine, TypeScatter, TypePie, TypeHeatmap:
		return t, nil
	}
	return "", fmt.Errorf("unknown chart type: %s (use bar|line|scatter|pie|heatmap)", s)
}

// Trace is one Plotly data series.
type Trace struct {
	Type   string      `json:"type"`
	Mode   string      `json:"mode,omitempty"`
	Name   string      `json:"name,omitempty"`
	X      any         `json:"x,omitempty"`
	Y      any         `json:"y,omitempty"`
	Z      [][]float64 `json:"z,omitempty"`
	Labels []string    `json:"labels,omitempty"`
	Values []float64   `json:"values,omitempty"`
}

type Axis struct {
	Title string `json:"title,omitempty"`
}

type Layout struct {
	Title string `json:"title"`
	XAxis *Axis  `json:"xaxis,omitempty"`
	YAxis *Axis  `json:"yaxis,omitempty"`
}

// Figure marshals to the {data, layout} shape Plotly accepts.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Note   string  `json:"-"`
}

// JSON returns the figure encoded for a Plotly client.
func (f *Figure) JSON() ([]byte, error) { return json.Marshal(f) }

// BarChart is a sorted label/value series.
type BarChart struct {
	Title       string
	LabelColumn string
	ValueColumn string
	Labels      []string
	Values      []float64
}

// Figure converts the bar chart to a Plotly figure.
func (b *BarChart) Figure() *Figure {
	return &Figure{
		Data: []Trace{{Type: "bar", X: b.Labels, Y: b.Values, Name: b.ValueColumn}},
		Layout: Layout{
			Title: b.Title,
			XAxis: &Axis{Title: b.LabelColumn},
			YAxis: &Axis{Title: b.ValueColumn},
		},
	}
}

// PlotlyJSON is shorthand for Figure().JSON().
func (b *BarChart) PlotlyJSON() ([]byte, error) { return b.Figure().JSON() }

// ClampTopN maps n into [1, MaxTopN]; n <= 0 selects DefaultTopN.
func ClampTopN(n int) int {
	switch {
	case n <= 0:
		return DefaultTopN
	case n > MaxTopN:
		return MaxTopN
	}
	return n
}

// TopN sorts rows by valueCol descending and keeps the first n. Rows missing
// the value are excluded. labelCol defaults to the first other column.
func TopN(ds *dataset.Dataset, valueCol, labelCol string, n int) (*BarChart, error) {
	vc, ok := ds.Column(valueCol)
	if !ok {
		return nil, &UnknownColumnError{Name: valueCol}
	}
	if vc.Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("%s: %w", valueCol, ErrNotNumeric)
	}
	if labelCol == "" {
		for _, name := range ds.ColumnNames() {
			if name != valueCol {
				labelCol = name
				break
			}
		}
		if labelCol == "" {
			labelCol = valueCol
		}
	}
	lc, ok := ds.Column(labelCol)
	if !ok {
		return nil, &UnknownColumnError{Name: labelCol}
	}
	n = ClampTopN(n)

	idx := make([]int, 0, ds.Rows())
	for i := 0; i < ds.Rows(); i++ {
		if !vc.IsMissing(i) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return vc.Numbers[idx[a]] > vc.Numbers[idx[b]] })
	if len(idx) > n {
		idx = idx[:n]
	}
	bc := &BarChart{
		Title:       fmt.Sprintf("Top %d %s by %s", n, labelCol, valueCol),
		LabelColumn: labelCol,
		ValueColumn: valueCol,
	}
	for _, i := range idx {
		bc.Labels = append(bc.Labels, lc.Raw[i])
		bc.Values = append(bc.Values, vc.Numbers[i])
	}
	return bc, nil
}

// ValueCounts counts the n most frequent values of a column.
func ValueCounts(ds *dataset.Dataset, col string, n int) (*BarChart, error) {
	c, ok := ds.Column(col)
	if !ok {
		return nil, &UnknownColumnError{Name: col}
	}
	n = ClampTopN(n)
	counts := map[string]int{}
	var order []string
	for i, v := range c.Raw {
		if c.IsMissing(i) {
			continue
		}
		v = strings.TrimSpace(v)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	if len(order) > n {
		order = order[:n]
	}
	bc := &BarChart{Title: fmt.Sprintf("Top %d values of %s", n, col), LabelColumn: col, ValueColumn: "count"}
	for _, v := range order {
		bc.Labels = append(bc.Labels, v)
		bc.Values = append(bc.Values, float64(counts[v]))
	}
	return bc, nil
}

// Suggestions proposes charts from the column kinds.
func Suggestions(ds *dataset.Dataset) []string {
	nums, cats := ds.NumericColumns(), ds.CategoricalColumns()
	out := []string{}
	if len(cats) > 0 && len(nums) > 0 {
		out = append(out, fmt.Sprintf("A Bar Chart comparing %s against %s.", cats[0], nums[0]))
	}
	if len(nums) >= 2 {
		out = append(out, fmt.Sprintf("A Scatter Plot showing the relationship between %s and %s.", nums[0], nums[1]))
	}
	return out
}

// Request describes a free-form chart. Empty axes are chosen automatically.
type Request struct {
	Type Type
	X    string
	Y    string
}

// Build renders a chart of the requested type. X defaults to the first
// categorical column (else the first column); Y to the first numeric column.
func Build(ds *dataset.Dataset, req Request) (*Figure, error) {
	nums := ds.NumericColumns()
	if len(nums) == 0 {
		return nil, ErrNoNumeric
	}
	if req.Type == "" {
		req.Type = TypeBar
	}
	x := req.X
	if _, ok := ds.Column(x); !ok {
		if cats := ds.CategoricalColumns(); len(cats) > 0 {
			x = cats[0]
		} else {
			x = ds.ColumnNames()[0]
		}
	}
	y := req.Y
	if c, ok := ds.Column(y); !ok || c.Kind != dataset.KindNumeric {
		y = nums[0]
	}
	xc, _ := ds.Column(x)
	yc, _ := ds.Column(y)

	title := fmt.Sprintf("%s Analysis: %s by %s", capitalize(string(req.Type)), y, x)
	fig := &Figure{
		Layout: Layout{Title: title, XAxis: &Axis{Title: x}, YAxis: &Axis{Title: y}},
		Note:   fmt.Sprintf("Visualizing %s trends across %s.", y, x),
	}
	switch req.Type {
	case TypeBar:
		rows := ds.Rows()
		if rows > barRowLimit {
			rows = barRowLimit
		}
		xs, ys := pairs(xc, yc, rows)
		fig.Data = []Trace{{Type: "bar", X: xs, Y: ys}}
	case TypeLine, TypeScatter:
		xs, ys := pairs(xc, yc, ds.Rows())
		mode := "lines+markers"
		if req.Type == TypeScatter {
			mode = "markers"
		}
		fig.Data = []Trace{{Type: "scatter", Mode: mode, X: xs, Y: ys}}
	case TypePie:
		labels, values := groupSum(xc, yc, pieSlices)
		fig.Data = []Trace{{Type: "pie", Labels: labels, Values: values}}
		fig.Layout.XAxis, fig.Layout.YAxis = nil, nil
	case TypeHeatmap:
		z := correlation(ds, nums)
		fig.Data = []Trace{{Type: "heatmap", X: nums, Y: nums, Z: z}}
		fig.Layout.Title = "Correlation heatmap"
	default:
		return nil, fmt.Errorf("unknown chart type: %s", req.Type)
	}
	return fig, nil
}

func pairs(xc, yc *dataset.Column, rows int) ([]string, []float64) {
	xs := make([]string, 0, rows)
	ys := make([]float64, 0, rows)
	for i := 0; i < rows; i++ {
		if yc.IsMissing(i) {
			continue
		}
		xs = append(xs, xc.Raw[i])
		ys = append(ys, yc.Numbers[i])
	}
	return xs, ys
}

// groupSum sums y per x value and keeps the first n groups in sorted key order.
func groupSum(xc, yc *dataset.Column, n int) ([]string, []float64) {
	sums := map[string]float64{}
	for i := range xc.Raw {
		if yc.IsMissing(i) || xc.IsMissing(i) {
			continue
		}
		sums[strings.TrimSpace(xc.Raw[i])] += yc.Numbers[i]
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	vals := make([]float64, len(keys))
	for i, k := range keys {
		vals[i] = sums[k]
	}
	return keys, vals
}

// correlation is the pairwise Pearson matrix over rows where both values exist.
func correlation(ds *dataset.Dataset, nums []string) [][]float64 {
	z := make([][]float64, len(nums))
	for i, a := range nums {
		z[i] = make([]float64, len(nums))
		ca, _ := ds.Column(a)
		for j, b := range nums {
			if i == j {
				z[i][j] = 1
				continue
			}
			cb, _ := ds.Column(b)
			var xs, ys []float64
			for r := 0; r < ds.Rows(); r++ {
				if ca.IsMissing(r) || cb.IsMissing(r) {
					continue
				}
				xs = append(xs, ca.Numbers[r])
				ys = append(ys, cb.Numbers[r])
			}
			v := 0.0
			if len(xs) >= 2 {
				v = stat.Correlation(xs, ys, nil)
			}
			if math.IsNaN(v) {
				v = 0
			}
			z[i][j] = math.Round(v*1000) / 1000
		}
	}
	return z
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
