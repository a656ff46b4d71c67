package unmapped

import (
	"testing"

	"github.com/claude/strongbridge/internal/mapping"
	"github.com/claude/strongbridge/internal/table"
)

func sampleTable() *table.Table {
	return &table.Table{
		Columns: []string{"Date", "Exercise", "Set"},
		Rows: []table.Row{
			{"Date": "15.01.2023", "Exercise": "Barbell Bench", "Set": "1"},
			{"Date": "15.01.2023", "Exercise": "Squat", "Set": "1"},
			{"Date": "15.01.2023", "Exercise": "Squat", "Set": "2"},
		},
	}
}

// TestExtract verifies only rows with unmapped exercise names are kept and
// distinct names are counted once.
func TestExtract(t *testing.T) {
	m := mapping.Table{"Barbell Bench": "Bench Press (Barbell)"}
	out, names, err := Extract(sampleTable(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(out.Rows))
	}
	for i, row := range out.Rows {
		if row["Exercise"] != "Squat" {
			t.Errorf("row %d Exercise = %q, want Squat", i, row["Exercise"])
		}
	}
	if len(names) != 1 || names[0] != "Squat" {
		t.Errorf("names = %v, want [Squat]", names)
	}
}

// TestExtractEmptyMapping verifies that with no mappings every row is
// reported as unmapped.
func TestExtractEmptyMapping(t *testing.T) {
	out, names, err := Extract(sampleTable(), mapping.Empty())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Rows) != 3 {
		t.Errorf("rows = %d, want 3", len(out.Rows))
	}
	if len(names) != 2 {
		t.Errorf("distinct names = %d, want 2", len(names))
	}
	// Sorted for stable reporting.
	if names[0] != "Barbell Bench" || names[1] != "Squat" {
		t.Errorf("names = %v, want [Barbell Bench Squat]", names)
	}
}

// TestExtractAllMapped verifies a fully covered export yields no rows.
func TestExtractAllMapped(t *testing.T) {
	m := mapping.Table{
		"Barbell Bench": "Bench Press (Barbell)",
		"Squat":         "Squat (Barbell)",
	}
	out, names, err := Extract(sampleTable(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Rows) != 0 || len(names) != 0 {
		t.Errorf("rows = %d, names = %v, want none", len(out.Rows), names)
	}
}

// TestExtractMissingExerciseColumn verifies the extractor aborts when the
// input has no Exercise column.
func TestExtractMissingExerciseColumn(t *testing.T) {
	src := &table.Table{Columns: []string{"Date", "Set"}}
	_, _, err := Extract(src, mapping.Empty())
	if err == nil {
		t.Fatal("expected error")
	}
}

// TestExtractKeepsRowsIntact verifies kept rows are not mutated.
func TestExtractKeepsRowsIntact(t *testing.T) {
	src := sampleTable()
	out, _, err := Extract(src, mapping.Table{"Barbell Bench": "Bench Press (Barbell)"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Rows[0]["Set"] != "1" || out.Rows[1]["Set"] != "2" {
		t.Errorf("kept rows changed: %v", out.Rows)
	}
	if out.Rows[0]["Exercise"] != "Squat" {
		t.Errorf("Exercise = %q, must not be remapped", out.Rows[0]["Exercise"])
	}
}
