package reaction

import (
	"sort"
	"strings"
)

// UnknownUser labels ids with no display name.
const UnknownUser = "Unknown"

// Group is one line of the report.
type Group struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Affiliation returns the first token contained in displayName, in token
// order, or displayName itself when none match.
func Affiliation(displayName string, tokens []string) string {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(displayName, tok) {
			return tok
		}
	}
	return displayName
}

// GroupTally sums the tally by affiliation. Groups appear in the order their
// first member appears in the tally.
func GroupTally(tally *Tally, targets *TargetUsers, tokens []string) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, id := range tally.order {
		name, ok := targets.DisplayName(id)
		if !ok {
			name = UnknownUser
		}
		key := Affiliation(name, tokens)
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Name: key})
		}
		groups[i].Count += tally.counts[id]
	}
	return groups
}

// SortGroups returns groups ordered by count descending. Equal counts keep
// their relative order.
func SortGroups(groups []Group) []Group {
	sorted := append([]Group(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	return sorted
}
