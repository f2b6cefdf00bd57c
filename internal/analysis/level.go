package analysis

import (
	"fmt"
	"strings"
)

// DetailLevel controls how much of a dataset is embedded in a digest.
// Levels are ordered: Quick < Normal < Deep.
type DetailLevel int

const (
	Quick DetailLevel = iota
	Normal
	Deep
)

var levelNames = [...]string{"quick", "normal", "deep"}

// sample sizes and rune budgets per level; both grow with the level.
var (
	sampleSizes = [...]int{2, 5, 10}
	budgets     = [...]int{2000, 6000, 16000}
)

func (l DetailLevel) Valid() bool { return l >= Quick && l <= Deep }

func (l DetailLevel) String() string {
	if !l.Valid() {
		return fmt.Sprintf("DetailLevel(%d)", int(l))
	}
	return levelNames[l]
}

// SampleSize is the number of rows embedded at this level.
func (l DetailLevel) SampleSize() int {
	if !l.Valid() {
		return sampleSizes[Normal]
	}
	return sampleSizes[l]
}

// Budget is the maximum digest length in runes.
func (l DetailLevel) Budget() int {
	if !l.Valid() {
		return budgets[Normal]
	}
	return budgets[l]
}

// ParseDetailLevel accepts level names and a few common aliases.
// An empty string selects Normal.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quick", "brief", "short":
		return Quick, nil
	case "", "normal", "standard", "medium", "default":
		return Normal, nil
	case "deep", "full", "detailed":
		return Deep, nil
	default:
		return Normal, fmt.Errorf("unknown detail level: %s (use quick|normal|deep)", s)
	}
}
