package outline

import "fmt"

// Kind identifies the hierarchy level of an outline row
type Kind string

const (
	KindCountry Kind = "country"
	KindState   Kind = "state"
	KindCity    Kind = "city"
)

// Record is one raw revenue row as read from the input CSV
type Record struct {
	Country string
	State   string
	City    string
	ARR     float64 // annual recurring revenue
}

// Row is one entry of the flattened outline, in the order it is pushed to the sheet.
// ARR is only meaningful for city rows; HasARR distinguishes 0 from blank.
type Row struct {
	Item   string  `json:"item"`
	Kind   Kind    `json:"kind"`
	ARR    float64 `json:"arr,omitempty"`
	HasARR bool    `json:"-"`
}

// CityRevenue is a leaf of the tree: a city with its summed revenue
type CityRevenue struct {
	City string
	ARR  float64
}

type stateNode struct {
	name   string
	cities []CityRevenue
	index  map[string]int // city name -> index into cities
}

type countryNode struct {
	name   string
	states []*stateNode
	index  map[string]int // state name -> index into states
}

// Tree is the aggregated country -> state -> cities hierarchy.
// Countries and states keep the order in which they were first seen so the
// flattened output is stable for a given input ordering.
type Tree struct {
	countries []*countryNode
	index     map[string]int // country name -> index into countries
}

// InputError reports a malformed input record. Any such error aborts the whole
// job; there is no partial ingestion.
type InputError struct {
	Index int    // zero-based record index (excluding the header)
	Field string // offending column
	Msg   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input record %d: field %q: %s", e.Index, e.Field, e.Msg)
}

// Aggregate groups records by (country, state, city), summing ARR per triple,
// and builds the location tree. Grouping is stable: repeated triples fold into
// one entry at the position of their first appearance.
func Aggregate(records []Record) (*Tree, error) {
	t := &Tree{index: map[string]int{}}
	for i, r := range records {
		if err := validate(i, r); err != nil {
			return nil, err
		}
		ci, ok := t.index[r.Country]
		if !ok {
			ci = len(t.countries)
			t.countries = append(t.countries, &countryNode{name: r.Country, index: map[string]int{}})
			t.index[r.Country] = ci
		}
		country := t.countries[ci]

		si, ok := country.index[r.State]
		if !ok {
			si = len(country.states)
			country.states = append(country.states, &stateNode{name: r.State, index: map[string]int{}})
			country.index[r.State] = si
		}
		state := country.states[si]

		if j, ok := state.index[r.City]; ok {
			state.cities[j].ARR += r.ARR
		} else {
			state.index[r.City] = len(state.cities)
			state.cities = append(state.cities, CityRevenue{City: r.City, ARR: r.ARR})
		}
	}
	return t, nil
}

func validate(i int, r Record) error {
	switch {
	case r.Country == "":
		return &InputError{Index: i, Field: "country", Msg: "missing value"}
	case r.State == "":
		return &InputError{Index: i, Field: "state", Msg: "missing value"}
	case r.City == "":
		return &InputError{Index: i, Field: "city", Msg: "missing value"}
	}
	return nil
}

// Len returns (countries, states, cities) counts.
func (t *Tree) Len() (countries, states, cities int) {
	countries = len(t.countries)
	for _, c := range t.countries {
		states += len(c.states)
		for _, s := range c.states {
			cities += len(s.cities)
		}
	}
	return
}

// Flatten walks the tree depth-first and returns the outline rows: each country
// immediately followed by its states, each state by its cities. The result has
// exactly countries+states+cities entries and its order is the order rows are
// later created in the sheet.
func (t *Tree) Flatten() []Row {
	nc, ns, ncity := t.Len()
	rows := make([]Row, 0, nc+ns+ncity)
	for _, country := range t.countries {
		rows = append(rows, Row{Item: country.name, Kind: KindCountry})
		for _, state := range country.states {
			rows = append(rows, Row{Item: state.name, Kind: KindState})
			for _, city := range state.cities {
				rows = append(rows, Row{Item: city.City, Kind: KindCity, ARR: city.ARR, HasARR: true})
			}
		}
	}
	return rows
}

// Membership holds the name sets per hierarchy level.
type Membership struct {
	Countries map[string]struct{}
	States    map[string]struct{}
	Cities    map[string]struct{}
}

// Membership collects the distinct names at each level of the tree.
func (t *Tree) Membership() Membership {
	m := Membership{
		Countries: map[string]struct{}{},
		States:    map[string]struct{}{},
		Cities:    map[string]struct{}{},
	}
	for _, country := range t.countries {
		m.Countries[country.name] = struct{}{}
		for _, state := range country.states {
			m.States[state.name] = struct{}{}
			for _, city := range state.cities {
				m.Cities[city.City] = struct{}{}
			}
		}
	}
	return m
}

// Classify maps a bare name back to its level, checking countries first, then
// states, then cities. Names reused across levels resolve to the highest level;
// see CrossLevelCollisions for detecting that ambiguity.
func (m Membership) Classify(name string) (Kind, bool) {
	if _, ok := m.Countries[name]; ok {
		return KindCountry, true
	}
	if _, ok := m.States[name]; ok {
		return KindState, true
	}
	if _, ok := m.Cities[name]; ok {
		return KindCity, true
	}
	return "", false
}
