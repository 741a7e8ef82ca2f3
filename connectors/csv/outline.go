package csv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"arr-rollup/domain/outline"
)

// WriteOutline writes the flattened outline to a CSV with headers
// location, kind, arr. The arr cell is blank for country and state rows,
// matching what gets pushed to the sheet.
func WriteOutline(path string, rows []outline.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"location", "kind", "arr"}); err != nil {
		return err
	}
	for _, row := range rows {
		arr := ""
		if row.HasARR {
			arr = strconv.FormatFloat(row.ARR, 'f', -1, 64)
		}
		if err := w.Write([]string{row.Item, string(row.Kind), arr}); err != nil {
			return err
		}
	}
	return w.Error()
}
