// Package table provides load/save and column operations for the
// semicolon-delimited tables used by Gymrun and Strong exports.
package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Row is a single record keyed by column name.
type Row map[string]string

// Table is an in-memory delimited table with a stable column order.
type Table struct {
	Columns []string
	Rows    []Row
}

// Load reads a semicolon-delimited file with a header row.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: no header row", path)
	}

	t := &Table{Columns: records[0]}
	for _, rec := range records[1:] {
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// LoadHeader reads only the header row of a semicolon-delimited file.
// Used for the target-schema reference file, whose data rows are irrelevant.
func LoadHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	return header, nil
}

// Save writes the table as semicolon-delimited text with every field quoted.
// Quoting all fields keeps the output byte-deterministic regardless of content.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeRecord(w, t.Columns, func(col string) string { return col }); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, row := range t.Rows {
		if err := writeRecord(w, t.Columns, func(col string) string { return row[col] }); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeRecord(w *bufio.Writer, cols []string, value func(string) string) error {
	for i, col := range cols {
		if i > 0 {
			if err := w.WriteByte(';'); err != nil {
				return err
			}
		}
		v := strings.ReplaceAll(value(col), `"`, `""`)
		if _, err := w.WriteString(`"` + v + `"`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Ensure registers a column at the end of the column order if absent.
// Row values for the column are left to the caller.
func (t *Table) Ensure(name string) {
	if !t.Has(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Add registers a column and sets the same value on every row.
func (t *Table) Add(name, fill string) {
	t.Ensure(name)
	for _, row := range t.Rows {
		row[name] = fill
	}
}

// Rename changes a column's name in place, preserving its position.
// Renaming a column that does not exist is a no-op.
func (t *Table) Rename(from, to string) {
	for i, col := range t.Columns {
		if col == from {
			t.Columns[i] = to
			break
		}
	}
	for _, row := range t.Rows {
		if v, ok := row[from]; ok {
			row[to] = v
			delete(row, from)
		}
	}
}

// Select reorders the table to exactly the given columns. Every requested
// column must exist; the error lists all missing columns at once.
func (t *Table) Select(cols []string) error {
	var missing []string
	for _, col := range cols {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	t.Columns = append([]string(nil), cols...)
	return nil
}
