package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSumsRepeatedTriples(t *testing.T) {
	records := []Record{
		{Country: "US", State: "CA", City: "LA", ARR: 100},
		{Country: "US", State: "CA", City: "LA", ARR: 50},
		{Country: "US", State: "NY", City: "NYC", ARR: 30},
	}
	tree, err := Aggregate(records)
	require.NoError(t, err)

	rows := tree.Flatten()
	require.Len(t, rows, 5)
	assert.Equal(t, Row{Item: "US", Kind: KindCountry}, rows[0])
	assert.Equal(t, Row{Item: "CA", Kind: KindState}, rows[1])
	assert.Equal(t, Row{Item: "LA", Kind: KindCity, ARR: 150, HasARR: true}, rows[2])
	assert.Equal(t, Row{Item: "NY", Kind: KindState}, rows[3])
	assert.Equal(t, Row{Item: "NYC", Kind: KindCity, ARR: 30, HasARR: true}, rows[4])
}

func TestAggregatePreservesFirstSeenOrder(t *testing.T) {
	records := []Record{
		{Country: "FR", State: "IDF", City: "Paris", ARR: 10},
		{Country: "US", State: "CA", City: "LA", ARR: 20},
		{Country: "FR", State: "PACA", City: "Nice", ARR: 5},
		{Country: "FR", State: "IDF", City: "Versailles", ARR: 1},
	}
	tree, err := Aggregate(records)
	require.NoError(t, err)

	var items []string
	for _, r := range tree.Flatten() {
		items = append(items, r.Item)
	}
	assert.Equal(t, []string{"FR", "IDF", "Paris", "Versailles", "PACA", "Nice", "US", "CA", "LA"}, items)
}

func TestAggregateRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		record Record
		field  string
	}{
		{"country", Record{State: "CA", City: "LA", ARR: 1}, "country"},
		{"state", Record{Country: "US", City: "LA", ARR: 1}, "state"},
		{"city", Record{Country: "US", State: "CA", ARR: 1}, "city"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Aggregate([]Record{{Country: "US", State: "CA", City: "LA", ARR: 1}, tc.record})
			require.Error(t, err)
			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, 1, ie.Index)
			assert.Equal(t, tc.field, ie.Field)
		})
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	tree, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, tree.Flatten())
	nc, ns, ncity := tree.Len()
	assert.Zero(t, nc+ns+ncity)
}

func TestFlattenLengthMatchesLevelCounts(t *testing.T) {
	records := []Record{
		{Country: "US", State: "CA", City: "LA", ARR: 1},
		{Country: "US", State: "CA", City: "SF", ARR: 2},
		{Country: "US", State: "NY", City: "NYC", ARR: 3},
		{Country: "DE", State: "BY", City: "Munich", ARR: 4},
	}
	tree, err := Aggregate(records)
	require.NoError(t, err)
	nc, ns, ncity := tree.Len()
	assert.Equal(t, 2, nc)
	assert.Equal(t, 3, ns)
	assert.Equal(t, 4, ncity)
	assert.Len(t, tree.Flatten(), nc+ns+ncity)
}

// Revenue is conserved per (country, state) no matter how the input is ordered.
func TestFlattenConservesRevenuePerState(t *testing.T) {
	records := []Record{
		{Country: "US", State: "CA", City: "LA", ARR: 100},
		{Country: "US", State: "NY", City: "NYC", ARR: 30},
		{Country: "US", State: "CA", City: "SF", ARR: 70},
		{Country: "US", State: "CA", City: "LA", ARR: 25},
	}
	orderings := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}}
	for _, ord := range orderings {
		permuted := make([]Record, len(records))
		for i, j := range ord {
			permuted[i] = records[j]
		}
		tree, err := Aggregate(permuted)
		require.NoError(t, err)

		totals := map[string]float64{}
		var state string
		for _, row := range tree.Flatten() {
			switch row.Kind {
			case KindState:
				state = row.Item
			case KindCity:
				totals[state] += row.ARR
			}
		}
		assert.Equal(t, float64(195), totals["CA"])
		assert.Equal(t, float64(30), totals["NY"])
	}
}

func TestAssignParents(t *testing.T) {
	// A, S1, C1, C2, S2, C3 with ids 10..60
	refs := []RowRef{
		{ID: 10, Kind: KindCountry},
		{ID: 20, Kind: KindState},
		{ID: 30, Kind: KindCity},
		{ID: 40, Kind: KindCity},
		{ID: 50, Kind: KindState},
		{ID: 60, Kind: KindCity},
	}
	got := AssignParents(refs)
	want := []ParentAssignment{
		{ID: 10, ParentID: 0},
		{ID: 20, ParentID: 10},
		{ID: 30, ParentID: 20},
		{ID: 40, ParentID: 20},
		{ID: 50, ParentID: 10},
		{ID: 60, ParentID: 50},
	}
	assert.Equal(t, want, got)
}

func TestAssignParentsSecondCountryResetsScope(t *testing.T) {
	refs := []RowRef{
		{ID: 1, Kind: KindCountry},
		{ID: 2, Kind: KindState},
		{ID: 3, Kind: KindCity},
		{ID: 4, Kind: KindCountry},
		{ID: 5, Kind: KindState},
		{ID: 6, Kind: KindCity},
	}
	got := AssignParents(refs)
	assert.Equal(t, int64(0), got[3].ParentID)
	assert.Equal(t, int64(4), got[4].ParentID)
	assert.Equal(t, int64(5), got[5].ParentID)
}

func TestMembershipClassify(t *testing.T) {
	tree, err := Aggregate([]Record{{Country: "US", State: "CA", City: "LA", ARR: 1}})
	require.NoError(t, err)
	m := tree.Membership()

	kind, ok := m.Classify("US")
	require.True(t, ok)
	assert.Equal(t, KindCountry, kind)
	kind, ok = m.Classify("CA")
	require.True(t, ok)
	assert.Equal(t, KindState, kind)
	kind, ok = m.Classify("LA")
	require.True(t, ok)
	assert.Equal(t, KindCity, kind)
	_, ok = m.Classify("unknown")
	assert.False(t, ok)
}

func TestCrossLevelCollisions(t *testing.T) {
	tree, err := Aggregate([]Record{
		{Country: "US", State: "NY", City: "NY", ARR: 1},
		{Country: "US", State: "CA", City: "LA", ARR: 1},
		{Country: "Mexico", State: "MX", City: "Mexico", ARR: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mexico", "NY"}, tree.CrossLevelCollisions())

	clean, err := Aggregate([]Record{{Country: "US", State: "CA", City: "LA", ARR: 1}})
	require.NoError(t, err)
	assert.Empty(t, clean.CrossLevelCollisions())
}
