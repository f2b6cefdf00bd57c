package dataset

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// unnamedPattern matches index artifacts such as "Unnamed: 0".
var unnamedPattern = regexp.MustCompile(`(?i)^unnamed`)

// naTokens are read as missing, mirroring common CSV tooling defaults.
var naTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "-nan": true, "null": true,
	"none": true, "#n/a": true, "<na>": true,
}

func isMissingToken(s string) bool {
	return naTokens[strings.ToLower(strings.TrimSpace(s))]
}

// Clean trims column names, drops unnamed index columns and coerces columns to
// numeric when every non-missing cell parses. The raw table is not modified.
func Clean(raw *RawTable) *Dataset {
	ds := &Dataset{Name: raw.Name, rows: len(raw.Records)}
	seen := map[string]int{}
	for j, h := range raw.Header {
		name := strings.TrimSpace(h)
		// Blank headers are what pandas would have named "Unnamed: N".
		if name == "" || unnamedPattern.MatchString(name) {
			continue
		}
		name = uniqueName(name, seen)
		cells := make([]string, len(raw.Records))
		for i, rec := range raw.Records {
			if j < len(rec) {
				cells[i] = rec[j]
			}
		}
		ds.Columns = append(ds.Columns, coerce(name, cells))
	}
	return ds
}

func uniqueName(name string, seen map[string]int) string {
	if _, dup := seen[name]; !dup {
		seen[name] = 0
		return name
	}
	for {
		seen[name]++
		cand := fmt.Sprintf("%s.%d", name, seen[name])
		if _, taken := seen[cand]; !taken {
			seen[cand] = 0
			return cand
		}
	}
}

// coerce is all-or-nothing: a single unparseable cell keeps the whole column
// textual. A column with no values at all stays textual too.
func coerce(name string, cells []string) *Column {
	col := &Column{Name: name, Kind: KindCategorical, DType: "object", Raw: cells}
	nums := make([]float64, len(cells))
	allInt, present, missing := true, 0, false
	for i, s := range cells {
		if isMissingToken(s) {
			nums[i] = math.NaN()
			missing = true
			continue
		}
		v, isInt, ok := parseNumber(s)
		if !ok {
			return col
		}
		nums[i] = v
		allInt = allInt && isInt
		present++
	}
	if present == 0 {
		return col
	}
	col.Kind = KindNumeric
	col.Numbers = nums
	col.DType = "float64"
	if allInt && !missing {
		col.DType = "int64"
	}
	return col
}

func parseNumber(s string) (v float64, isInt, ok bool) {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(strings.TrimLeft(t, "+-")), "0x") || strings.Contains(t, "_") {
		return 0, false, false
	}
	if _, err := strconv.ParseInt(t, 10, 64); err == nil {
		f, _ := strconv.ParseFloat(t, 64)
		return f, true, true
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false, false
	}
	return f, false, true
}
