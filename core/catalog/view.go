package catalog

import (
	"sort"
	"strings"

	"github.com/TamimulAhsan/sentineliam/core/policy"
)

// Filter is the display-layer filter criteria. All fields are ANDed.
type Filter struct {
	// Search matches case-insensitively against name or entity name.
	// Empty matches everything.
	Search string
	// Platforms restricts to the given set. An empty set means no
	// restriction, not "match none".
	Platforms []policy.Platform
	// MinRisk and MaxRisk bound the risk score inclusively.
	MinRisk int
	MaxRisk int
}

// DefaultFilter matches every record. Use it rather than a zero Filter,
// whose risk range [0,0] would keep only zero-risk records.
func DefaultFilter() Filter {
	return Filter{MinRisk: 0, MaxRisk: 100}
}

// Matches reports whether one record passes the filter.
func (f Filter) Matches(r policy.Record) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		name := strings.ToLower(r.Name)
		entity := strings.ToLower(r.EntityName)
		if !strings.Contains(name, q) && !strings.Contains(entity, q) {
			return false
		}
	}
	if len(f.Platforms) > 0 {
		found := false
		for _, p := range f.Platforms {
			if p == r.Platform {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return r.RiskScore >= f.MinRisk && r.RiskScore <= f.MaxRisk
}

// SortOrder is the tri-state risk score sort directive.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortDescending
	SortAscending
)

// Toggle advances the directive the way the console header does:
// descending, then ascending, then descending again. Unsorted is only the
// initial state and is never re-entered by toggling.
func (s SortOrder) Toggle() SortOrder {
	if s == SortDescending {
		return SortAscending
	}
	return SortDescending
}

func (s SortOrder) String() string {
	switch s {
	case SortDescending:
		return "desc"
	case SortAscending:
		return "asc"
	default:
		return "none"
	}
}

// View projects a catalog snapshot into the ordered subset to display.
// It is pure: filters apply before sort, filtering never reorders, sorting
// never removes, and the input is left untouched. The sort is stable, so
// equal risk scores keep their catalog order.
func View(records []policy.Record, f Filter, order SortOrder) []policy.Record {
	out := make([]policy.Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	switch order {
	case SortDescending:
		sort.SliceStable(out, func(i, j int) bool { return out[i].RiskScore > out[j].RiskScore })
	case SortAscending:
		sort.SliceStable(out, func(i, j int) bool { return out[i].RiskScore < out[j].RiskScore })
	}
	return out
}
