package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"groupagg/internal/table"
)

// GroupKey identifies one partition: one value per grouping column.
type GroupKey struct {
	Columns []string
	Values  []table.Value
}

// Get returns the key's value for the named grouping column.
func (k GroupKey) Get(column string) (table.Value, bool) {
	for i, c := range k.Columns {
		if c == column {
			return k.Values[i], true
		}
	}
	return table.Value{}, false
}

// Equal reports whether two keys have equal values column by column.
func (k GroupKey) Equal(o GroupKey) bool {
	if len(k.Values) != len(o.Values) {
		return false
	}
	for i := range k.Values {
		if !k.Values[i].Equal(o.Values[i]) {
			return false
		}
	}
	return true
}

// String formats the key as "continent=Asia, country=Japan".
func (k GroupKey) String() string {
	parts := make([]string, len(k.Values))
	for i, v := range k.Values {
		parts[i] = k.Columns[i] + "=" + v.Label()
	}
	return strings.Join(parts, ", ")
}

// hash returns a collision-free composite of the value keys.
func (k GroupKey) hash() string {
	var sb strings.Builder
	for _, v := range k.Values {
		vk := v.Key()
		sb.WriteString(strconv.Itoa(len(vk)))
		sb.WriteByte(':')
		sb.WriteString(vk)
	}
	return sb.String()
}

// Ordering selects how the distinct values of each grouping column are ranked
// before keys are sorted lexicographically.
type Ordering int

const (
	// OrderAppearance ranks values by their first row of occurrence. Factor
	// columns are ranked the same way; their declared level order is ignored.
	// Callers must not expect this order to match across tables loaded from
	// differently ordered sources.
	OrderAppearance Ordering = iota
	// OrderSorted ranks numbers ascending (NaN last) and labels by byte order.
	OrderSorted
	// OrderLevels ranks factor columns by their declared level order and
	// falls back to appearance order for other columns.
	OrderLevels
)

// String returns the string representation of the ordering
func (o Ordering) String() string {
	switch o {
	case OrderAppearance:
		return "appearance"
	case OrderSorted:
		return "sorted"
	case OrderLevels:
		return "levels"
	default:
		return "unknown"
	}
}

// ParseOrdering converts "appearance", "sorted" or "levels" to an Ordering.
// The empty string selects OrderAppearance.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "appearance":
		return OrderAppearance, nil
	case "sorted":
		return OrderSorted, nil
	case "levels":
		return OrderLevels, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q", s)
	}
}

// group is one discovered partition during a pass.
type group struct {
	key   GroupKey
	index []int
}

// orderGroups sorts groups lexicographically by per-column ranks. groups must
// be in discovery order on entry, which matches first-row order.
func orderGroups(groups []*group, columns []table.Column, ordering Ordering) {
	if len(groups) < 2 {
		return
	}

	ranks := make([]map[string]int, len(columns))
	for j, col := range columns {
		switch {
		case ordering == OrderSorted:
			ranks[j] = sortedRanks(groups, j)
		case ordering == OrderLevels && col.Kind == table.KindFactor:
			ranks[j] = levelRanks(groups, j, col.Levels)
		default:
			ranks[j] = appearanceRanks(groups, j)
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		for j := range columns {
			ra := ranks[j][groups[a].key.Values[j].Key()]
			rb := ranks[j][groups[b].key.Values[j].Key()]
			if ra != rb {
				return ra < rb
			}
		}
		return false
	})
}

func appearanceRanks(groups []*group, j int) map[string]int {
	ranks := make(map[string]int)
	for _, g := range groups {
		k := g.key.Values[j].Key()
		if _, seen := ranks[k]; !seen {
			ranks[k] = len(ranks)
		}
	}
	return ranks
}

func sortedRanks(groups []*group, j int) map[string]int {
	seen := make(map[string]bool)
	var distinct []table.Value
	for _, g := range groups {
		v := g.key.Values[j]
		if !seen[v.Key()] {
			seen[v.Key()] = true
			distinct = append(distinct, v)
		}
	}
	sort.SliceStable(distinct, func(a, b int) bool {
		fa, aNum := distinct[a].Float()
		fb, bNum := distinct[b].Float()
		if aNum && bNum {
			if math.IsNaN(fa) {
				return false
			}
			if math.IsNaN(fb) {
				return true
			}
			return fa < fb
		}
		return distinct[a].Label() < distinct[b].Label()
	})
	ranks := make(map[string]int, len(distinct))
	for i, v := range distinct {
		ranks[v.Key()] = i
	}
	return ranks
}

func levelRanks(groups []*group, j int, levels *table.Levels) map[string]int {
	ranks := make(map[string]int)
	for _, g := range groups {
		v := g.key.Values[j]
		code, ok := levels.Code(v.Label())
		if !ok {
			code = levels.Len()
		}
		ranks[v.Key()] = code
	}
	return ranks
}
