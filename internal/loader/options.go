package loader

import (
	"fmt"
	"strings"
)

// LevelOrder selects how factor levels are ordered when they are inferred
// from the data.
type LevelOrder int

const (
	// LevelsSorted orders levels by label.
	LevelsSorted LevelOrder = iota
	// LevelsAppearance orders levels by first occurrence in the input.
	LevelsAppearance
)

// String returns the string representation of the level order
func (o LevelOrder) String() string {
	switch o {
	case LevelsSorted:
		return "sorted"
	case LevelsAppearance:
		return "appearance"
	default:
		return "unknown"
	}
}

// ParseLevelOrder converts "sorted" or "appearance" into a LevelOrder. The
// empty string selects LevelsSorted.
func ParseLevelOrder(s string) (LevelOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sorted":
		return LevelsSorted, nil
	case "appearance":
		return LevelsAppearance, nil
	default:
		return 0, fmt.Errorf("unknown level order %q", s)
	}
}

// Options controls how raw cells become a table.
type Options struct {
	// Delimiter separates fields in delimited text. Zero means ','.
	Delimiter rune
	// StringsAsFactors turns inferred text columns into factors.
	StringsAsFactors bool
	// LevelOrder orders inferred factor levels.
	LevelOrder LevelOrder
	// NAStrings lists cell contents read as missing. Nil means "" and "NA".
	NAStrings []string
}

// DefaultOptions returns comma-delimited input with text read as sorted
// factors.
func DefaultOptions() Options {
	return Options{
		Delimiter:        ',',
		StringsAsFactors: true,
		LevelOrder:       LevelsSorted,
	}
}

func (o Options) isNA(cell string) bool {
	if o.NAStrings == nil {
		return cell == "" || cell == "NA"
	}
	for _, na := range o.NAStrings {
		if cell == na {
			return true
		}
	}
	return false
}
