// Package unmapped extracts the rows of a Gymrun export whose exercise names
// have no entry in the mapping table, so the table can be extended before a
// real conversion run.
package unmapped

import (
	"fmt"
	"sort"

	"github.com/claude/strongbridge/internal/mapping"
	"github.com/claude/strongbridge/internal/table"
)

// ExerciseColumn is the Gymrun column holding exercise names.
const ExerciseColumn = "Exercise"

// Extract returns a table holding only the rows whose exercise name is not a
// key of the mapping, plus the distinct unmapped names in sorted order.
// Kept rows are not modified.
func Extract(src *table.Table, m mapping.Table) (*table.Table, []string, error) {
	if !src.Has(ExerciseColumn) {
		return nil, nil, fmt.Errorf("input has no %q column", ExerciseColumn)
	}

	out := &table.Table{Columns: append([]string(nil), src.Columns...)}
	seen := map[string]bool{}
	for _, row := range src.Rows {
		name := row[ExerciseColumn]
		if m.Has(name) {
			continue
		}
		out.Rows = append(out.Rows, row)
		seen[name] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return out, names, nil
}
