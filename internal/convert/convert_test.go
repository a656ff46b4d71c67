package convert

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/claude/strongbridge/internal/mapping"
	"github.com/claude/strongbridge/internal/table"
)

const sampleGymrun = `Date;Time;Routine;Exercise;Set;Weight;Reps;Type;Duration;Distance;Note
15.01.2023;10:00:00;Push Day;Barbell Bench;1;100;5;;;;felt strong
15.01.2023;10:05:00;Push Day;Barbell Bench;2;100;5;;;;
15.01.2023;10:30:00;Push Day;Treadmill;1;0;0;Cardio;5;2.5;
16.07.2023;18:00:00;Pull Day;Deadlift;1;140;3;;;;
`

const strongHeader = `Date;Workout Name;Duration (sec);Exercise Name;Set Order;Weight (kg);Reps;Seconds;Distance (meters);RPE;Notes;Workout Notes;Workout #
`

func newConverter(t *testing.T, gymrunCSV string, m mapping.Table) *Converter {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "gymrun.csv")
	schema := filepath.Join(dir, "strong.csv")
	if err := os.WriteFile(input, []byte(gymrunCSV), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(schema, []byte(strongHeader), 0644); err != nil {
		t.Fatal(err)
	}
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Fatal(err)
	}
	return &Converter{
		InputPath:  input,
		SchemaPath: schema,
		OutputPath: filepath.Join(dir, "converted.csv"),
		Mapping:    m,
		Location:   loc,
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// TestRunConvertsSampleExport is the primary end-to-end test: timestamps to
// UTC, session grouping, unit conversion, renames, mapping, and defaulting.
func TestRunConvertsSampleExport(t *testing.T) {
	conv := newConverter(t, sampleGymrun, mapping.Table{"Barbell Bench": "Bench Press (Barbell)"})
	res, err := conv.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RowsLoaded != 4 || res.RowsConverted != 4 || res.RowsDropped != 0 {
		t.Errorf("rows loaded/converted/dropped = %d/%d/%d, want 4/4/0",
			res.RowsLoaded, res.RowsConverted, res.RowsDropped)
	}
	if res.Sessions != 2 {
		t.Errorf("sessions = %d, want 2", res.Sessions)
	}
	if res.MappingsApplied != 2 {
		t.Errorf("mappings applied = %d, want 2", res.MappingsApplied)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}

	out, err := table.Load(conv.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Rows) != 4 {
		t.Fatalf("output rows = %d, want 4", len(out.Rows))
	}

	// January session: 10:00 CET is 09:00 UTC; 30 minutes from first to last set.
	first := out.Rows[0]
	if first["Date"] != "2023-01-15 09:00:00" {
		t.Errorf("Date = %q, want 2023-01-15 09:00:00", first["Date"])
	}
	if first["Workout Name"] != "Push Day" {
		t.Errorf("Workout Name = %q", first["Workout Name"])
	}
	if first["Exercise Name"] != "Bench Press (Barbell)" {
		t.Errorf("Exercise Name = %q, want mapped name", first["Exercise Name"])
	}
	if first["Duration (sec)"] != "1800" {
		t.Errorf("Duration (sec) = %q, want 1800", first["Duration (sec)"])
	}
	if first["Workout #"] != "1" {
		t.Errorf("Workout # = %q, want 1", first["Workout #"])
	}
	if first["Weight (kg)"] != "100.0" {
		t.Errorf("Weight (kg) = %q, want 100.0", first["Weight (kg)"])
	}
	if first["Notes"] != "felt strong" {
		t.Errorf("Notes = %q", first["Notes"])
	}
	if first["RPE"] != "" || first["Workout Notes"] != "" {
		t.Errorf("RPE = %q, Workout Notes = %q, want empty", first["RPE"], first["Workout Notes"])
	}

	// Cardio row: 5 minutes -> 300 seconds, 2.5 km -> 2500.0 meters.
	cardio := out.Rows[2]
	if cardio["Seconds"] != "300" {
		t.Errorf("Seconds = %q, want 300", cardio["Seconds"])
	}
	if cardio["Distance (meters)"] != "2500.0" {
		t.Errorf("Distance (meters) = %q, want 2500.0", cardio["Distance (meters)"])
	}

	// July session: 18:00 CEST is 16:00 UTC; single row, duration 0.
	last := out.Rows[3]
	if last["Date"] != "2023-07-16 16:00:00" {
		t.Errorf("Date = %q, want 2023-07-16 16:00:00", last["Date"])
	}
	if last["Workout #"] != "2" {
		t.Errorf("Workout # = %q, want 2", last["Workout #"])
	}
	if last["Duration (sec)"] != "0" {
		t.Errorf("Duration (sec) = %q, want 0", last["Duration (sec)"])
	}
	if last["Exercise Name"] != "Deadlift" {
		t.Errorf("Exercise Name = %q, want pass-through Deadlift", last["Exercise Name"])
	}
}

// TestRunIsDeterministic verifies running the same conversion twice yields
// byte-identical output.
func TestRunIsDeterministic(t *testing.T) {
	m := mapping.Table{"Barbell Bench": "Bench Press (Barbell)"}

	conv1 := newConverter(t, sampleGymrun, m)
	if _, err := conv1.Run(); err != nil {
		t.Fatal(err)
	}
	conv2 := newConverter(t, sampleGymrun, m)
	if _, err := conv2.Run(); err != nil {
		t.Fatal(err)
	}

	out1, err := os.ReadFile(conv1.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := os.ReadFile(conv2.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != string(out2) {
		t.Error("outputs differ between identical runs")
	}
}

// TestRunMissingEssentialColumn verifies the run aborts before processing
// when a required input column is absent.
func TestRunMissingEssentialColumn(t *testing.T) {
	noReps := `Date;Time;Exercise;Set;Weight
15.01.2023;10:00:00;Squat;1;120
`
	conv := newConverter(t, noReps, mapping.Empty())
	_, err := conv.Run()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "essential") || !strings.Contains(err.Error(), "Reps") {
		t.Errorf("error = %v, want mention of essential column Reps", err)
	}
}

// TestRunMissingOptionalColumns verifies degraded output with warnings when
// all optional columns are absent.
func TestRunMissingOptionalColumns(t *testing.T) {
	minimal := `Date;Time;Exercise;Set;Weight;Reps
15.01.2023;10:00:00;Squat;1;120;5
`
	conv := newConverter(t, minimal, mapping.Empty())
	res, err := conv.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 5 {
		t.Errorf("warnings = %d, want 5 (Type, Duration, Distance, Routine, Note)", len(res.Warnings))
	}

	out, err := table.Load(conv.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	row := out.Rows[0]
	if row["Workout Name"] != "Workout" {
		t.Errorf("Workout Name = %q, want default Workout", row["Workout Name"])
	}
	if row["Seconds"] != "0" {
		t.Errorf("Seconds = %q, want 0", row["Seconds"])
	}
	if row["Distance (meters)"] != "0.0" {
		t.Errorf("Distance (meters) = %q, want 0.0", row["Distance (meters)"])
	}
	if row["Notes"] != "" {
		t.Errorf("Notes = %q, want empty", row["Notes"])
	}
}

// TestRunDropsUnparseableTimestamps verifies malformed rows are discarded
// while the rest convert.
func TestRunDropsUnparseableTimestamps(t *testing.T) {
	mixed := `Date;Time;Exercise;Set;Weight;Reps
15.01.2023;10:00:00;Squat;1;120;5
garbage;also garbage;Squat;2;120;5
15.01.2023;10:10:00;Squat;3;120;5
`
	conv := newConverter(t, mixed, mapping.Empty())
	res, err := conv.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RowsDropped != 1 {
		t.Errorf("dropped = %d, want 1", res.RowsDropped)
	}
	if res.RowsConverted != 2 {
		t.Errorf("converted = %d, want 2", res.RowsConverted)
	}
}

// TestRunAbortsOnAmbiguousTime verifies a row in the repeated fall-back hour
// aborts the whole batch and leaves no output file.
func TestRunAbortsOnAmbiguousTime(t *testing.T) {
	dst := `Date;Time;Exercise;Set;Weight;Reps
29.10.2023;01:30:00;Squat;1;120;5
29.10.2023;02:30:00;Squat;2;120;5
`
	conv := newConverter(t, dst, mapping.Empty())
	_, err := conv.Run()
	var ambiguous *AmbiguousTimeError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("error = %v, want AmbiguousTimeError", err)
	}
	if _, statErr := os.Stat(conv.OutputPath); !os.IsNotExist(statErr) {
		t.Error("output file should not exist after an aborted run")
	}
}

// TestRunAcrossFallBackOutsideRepeatedHour verifies that the transition date
// itself converts cleanly when no row falls inside the repeated hour, and
// that both rows land in the same UTC-date session.
func TestRunAcrossFallBackOutsideRepeatedHour(t *testing.T) {
	dst := `Date;Time;Exercise;Set;Weight;Reps
29.10.2023;01:30:00;Squat;1;120;5
29.10.2023;03:30:00;Squat;2;120;5
`
	conv := newConverter(t, dst, mapping.Empty())
	res, err := conv.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 01:30 CEST is 23:30 UTC on the 28th; 03:30 CET is 02:30 UTC on the 29th,
	// so UTC-date grouping yields two sessions.
	if res.Sessions != 2 {
		t.Errorf("sessions = %d, want 2", res.Sessions)
	}
}
