package table

import (
	"fmt"
	"sort"
)

// Levels is the immutable ordered label set of a factor column.
type Levels struct {
	labels []string
	index  map[string]int
}

// NewLevels creates a level set in the given order. Duplicate labels are rejected.
func NewLevels(labels ...string) (*Levels, error) {
	l := &Levels{
		labels: make([]string, 0, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for _, label := range labels {
		if _, dup := l.index[label]; dup {
			return nil, fmt.Errorf("duplicate factor level %q", label)
		}
		l.index[label] = len(l.labels)
		l.labels = append(l.labels, label)
	}
	return l, nil
}

// MustLevels is like NewLevels but panics on duplicates. Intended for literals.
func MustLevels(labels ...string) *Levels {
	l, err := NewLevels(labels...)
	if err != nil {
		panic(err)
	}
	return l
}

// LevelsInAppearanceOrder builds a level set from raw values, ordered by first occurrence.
func LevelsInAppearanceOrder(values []string) *Levels {
	l := &Levels{index: make(map[string]int)}
	for _, v := range values {
		if _, seen := l.index[v]; seen {
			continue
		}
		l.index[v] = len(l.labels)
		l.labels = append(l.labels, v)
	}
	return l
}

// LevelsSorted builds a level set from raw values, ordered lexically.
func LevelsSorted(values []string) *Levels {
	l := LevelsInAppearanceOrder(values)
	sort.Strings(l.labels)
	for i, label := range l.labels {
		l.index[label] = i
	}
	return l
}

// Len returns the number of levels.
func (l *Levels) Len() int { return len(l.labels) }

// Labels returns a copy of the labels in level order.
func (l *Levels) Labels() []string {
	out := make([]string, len(l.labels))
	copy(out, l.labels)
	return out
}

// Code returns the ordinal position of label.
func (l *Levels) Code(label string) (int, bool) {
	i, ok := l.index[label]
	return i, ok
}

// Has reports whether label is one of the levels.
func (l *Levels) Has(label string) bool {
	_, ok := l.index[label]
	return ok
}

// Value returns a factor value for label.
func (l *Levels) Value(label string) (Value, error) {
	if !l.Has(label) {
		return Value{}, fmt.Errorf("label %q is not a level of this factor", label)
	}
	return Value{kind: KindFactor, str: label, levels: l}, nil
}

// MustValue is like Value but panics when label is not a level.
func (l *Levels) MustValue(label string) Value {
	v, err := l.Value(label)
	if err != nil {
		panic(err)
	}
	return v
}
