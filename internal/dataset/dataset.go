package dataset

import (
	"math"
)

// Kind is the inferred storage class of a column after cleaning.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Column holds one cleaned column. Raw always carries the original cell text;
// Numbers is populated only for numeric columns and holds NaN for missing cells.
type Column struct {
	Name    string
	Kind    Kind
	DType   string // int64|float64|object
	Raw     []string
	Numbers []float64
}

// IsMissing reports whether the i-th cell is empty or an NA token.
func (c *Column) IsMissing(i int) bool {
	if i < 0 || i >= len(c.Raw) {
		return true
	}
	return isMissingToken(c.Raw[i])
}

// Missing returns the number of missing cells in the column.
func (c *Column) Missing() int {
	n := 0
	for i := range c.Raw {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Values returns the non-missing numeric values in row order.
// It returns nil for categorical columns.
func (c *Column) Values() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Numbers))
	for _, v := range c.Numbers {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an immutable, cleaned table. Column order follows the source file
// and every column has exactly Rows() cells.
type Dataset struct {
	Name    string
	Columns []*Column
	rows    int
}

// Rows returns the number of data rows (header excluded).
func (d *Dataset) Rows() int { return d.rows }

// Width returns the number of columns.
func (d *Dataset) Width() int { return len(d.Columns) }

// ColumnNames returns the cleaned column names in source order.
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by its exact cleaned name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns the names of numeric columns in source order.
func (d *Dataset) NumericColumns() []string { return d.namesOfKind(KindNumeric) }

// CategoricalColumns returns the names of text columns in source order.
func (d *Dataset) CategoricalColumns() []string { return d.namesOfKind(KindCategorical) }

func (d *Dataset) namesOfKind(k Kind) []string {
	var out []string
	for _, c := range d.Columns {
		if c.Kind == k {
			out = append(out, c.Name)
		}
	}
	return out
}

// Row returns a copy of the i-th row as raw cell text.
func (d *Dataset) Row(i int) []string {
	row := make([]string, len(d.Columns))
	if i < 0 || i >= d.rows {
		return row
	}
	for j, c := range d.Columns {
		row[j] = c.Raw[i]
	}
	return row
}
