package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"arr-rollup/domain/outline"
)

// Required input columns. Header matching is case-insensitive and order-free.
const (
	colCountry = "country"
	colState   = "state"
	colCity    = "city"
	colARR     = "arr"
)

// ReadRecords reads the revenue CSV at path. The file must have a header row
// with columns country, state, city, arr. The first malformed row aborts the
// read; there is no partial result.
func ReadRecords(path string) ([]outline.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{colCountry, colState, colCity, colARR} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, col)
		}
	}

	var records []outline.Record
	for i := 0; ; i++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		rec := outline.Record{
			Country: strings.TrimSpace(row[idx[colCountry]]),
			State:   strings.TrimSpace(row[idx[colState]]),
			City:    strings.TrimSpace(row[idx[colCity]]),
		}
		raw := strings.TrimSpace(row[idx[colARR]])
		if raw == "" {
			return nil, &outline.InputError{Index: i, Field: colARR, Msg: "missing value"}
		}
		arr, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &outline.InputError{Index: i, Field: colARR, Msg: fmt.Sprintf("not numeric: %q", raw)}
		}
		rec.ARR = arr
		records = append(records, rec)
	}
	return records, nil
}
