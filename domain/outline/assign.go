package outline

import (
	"sort"

	lo "github.com/samber/lo"
)

// RowRef pairs a created sheet row id with the outline kind of the row that was
// submitted at the same position. Build it by zipping Flatten output with the
// ids returned from row creation, which the store guarantees to be in
// submission order.
type RowRef struct {
	ID   int64
	Kind Kind
}

// ParentAssignment is the parent link computed for one sheet row. ParentID is
// zero for top-level (country) rows.
type ParentAssignment struct {
	ID       int64
	ParentID int64
}

// AssignParents computes the parent link for every row. refs must be in the
// same depth-first order as produced by Flatten: the rolling current-country
// and current-state ids depend on it. Kind comes from the ref itself, not from
// name lookup, so identical names across levels cannot mis-parent a row.
func AssignParents(refs []RowRef) []ParentAssignment {
	out := make([]ParentAssignment, 0, len(refs))
	var countryID, stateID int64
	for _, r := range refs {
		a := ParentAssignment{ID: r.ID}
		switch r.Kind {
		case KindCountry:
			countryID = r.ID
		case KindState:
			stateID = r.ID
			a.ParentID = countryID
		default:
			a.ParentID = stateID
		}
		out = append(out, a)
	}
	return out
}

// CrossLevelCollisions returns the names that appear at more than one level of
// the tree, sorted. Such names cannot be classified unambiguously from a bare
// string; callers relying on Membership.Classify should surface them.
func (t *Tree) CrossLevelCollisions() []string {
	m := t.Membership()
	seen := map[string]struct{}{}
	for name := range m.Countries {
		if _, ok := m.States[name]; ok {
			seen[name] = struct{}{}
		}
		if _, ok := m.Cities[name]; ok {
			seen[name] = struct{}{}
		}
	}
	for name := range m.States {
		if _, ok := m.Cities[name]; ok {
			seen[name] = struct{}{}
		}
	}
	names := lo.Keys(seen)
	sort.Strings(names)
	return names
}
