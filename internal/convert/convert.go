// Package convert turns a Gymrun CSV export into the Strong app's import
// format: timestamps are normalized to UTC, rows are regrouped into workout
// sessions by UTC calendar date, and columns are renamed, unit-converted, and
// defaulted to match the target schema.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/claude/strongbridge/internal/mapping"
	"github.com/claude/strongbridge/internal/table"
)

// outputLayout is the Strong workout date-time format (session start, UTC).
const outputLayout = "2006-01-02 15:04:05"

// essentialColumns must be present in the input or the run aborts.
var essentialColumns = []string{"Date", "Time", "Exercise", "Set", "Weight", "Reps"}

// optionalColumns degrade gracefully when absent: the dependent output
// columns fall back to their defaults and a warning is emitted.
var optionalColumns = []string{"Type", "Duration", "Distance", "Routine", "Note"}

// fillColumns is the fixed set run through the defaulting pass after all
// renames and unit conversions.
var fillColumns = []string{
	"Workout Name", "Notes", "Workout Notes", "RPE",
	"Weight (kg)", "Reps", "Set Order", "Seconds", "Distance (meters)",
}

// Result tracks the outcome of a conversion run.
type Result struct {
	RowsLoaded      int
	RowsDropped     int
	RowsConverted   int
	Sessions        int
	MappingsApplied int
	Warnings        []string
}

// Converter runs one Gymrun-to-Strong conversion. All inputs are explicit;
// an empty mapping must be passed as mapping.Empty(), not implied.
type Converter struct {
	InputPath  string
	SchemaPath string
	OutputPath string
	Mapping    mapping.Table
	Location   *time.Location
	Log        *slog.Logger
}

// Run executes the conversion pipeline end to end. On error no output file
// is guaranteed to exist; the returned Result reflects progress up to the
// failure.
func (c *Converter) Run() (*Result, error) {
	res := &Result{}

	src, err := table.Load(c.InputPath)
	if err != nil {
		return res, err
	}
	res.RowsLoaded = len(src.Rows)

	schemaHeaders, err := table.LoadHeader(c.SchemaPath)
	if err != nil {
		return res, err
	}
	c.Log.Info("loaded input and target schema",
		"rows", len(src.Rows), "input_columns", len(src.Columns), "target_columns", len(schemaHeaders))

	if err := c.checkColumns(src, res); err != nil {
		return res, err
	}

	rows, err := c.normalizeRows(src, res)
	if err != nil {
		return res, err
	}
	if res.RowsDropped > 0 {
		c.Log.Warn("dropped rows with unparseable timestamps", "count", res.RowsDropped)
	}

	sortByTimestamp(rows)
	byDay, sessions := groupSessions(rows)
	res.Sessions = len(sessions)
	c.Log.Info("grouped rows into workout sessions", "rows", len(rows), "sessions", len(sessions))

	out := c.reshape(src, rows, byDay, res)

	c.completeSchema(out, schemaHeaders)
	if err := out.Select(schemaHeaders); err != nil {
		return res, fmt.Errorf("output does not satisfy target schema: %w", err)
	}

	if err := out.Save(c.OutputPath); err != nil {
		return res, err
	}
	res.RowsConverted = len(out.Rows)
	c.Log.Info("conversion complete", "rows", res.RowsConverted, "output", c.OutputPath)
	return res, nil
}

// checkColumns aborts on missing essential columns and records warnings for
// missing optional ones.
func (c *Converter) checkColumns(src *table.Table, res *Result) error {
	var missing []string
	for _, col := range essentialColumns {
		if !src.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("input %s is missing essential columns: %v", c.InputPath, missing)
	}
	for _, col := range optionalColumns {
		if !src.Has(col) {
			w := fmt.Sprintf("optional column %q missing: dependent output falls back to defaults", col)
			res.Warnings = append(res.Warnings, w)
			c.Log.Warn("optional column missing", "column", col)
		}
	}
	return nil
}

// normalizeRows attaches a canonical UTC timestamp to every parseable row.
// Unparseable timestamps drop the row; DST-ambiguous or non-existent wall
// times abort the whole run, since a guessed offset would silently corrupt
// every session boundary derived from it.
func (c *Converter) normalizeRows(src *table.Table, res *Result) ([]timedRow, error) {
	rows := make([]timedRow, 0, len(src.Rows))
	for _, row := range src.Rows {
		ts, err := NormalizeTimestamp(row["Date"], row["Time"], c.Location)
		if err != nil {
			if errors.Is(err, ErrUnparseableTimestamp) {
				res.RowsDropped++
				continue
			}
			return nil, err
		}
		rows = append(rows, timedRow{row: row, ts: ts})
	}
	return rows, nil
}

// reshape annotates rows with session fields, converts cardio units, renames
// columns, and applies the exercise-name mapping. Returns a new table holding
// only the kept rows, in timestamp order.
func (c *Converter) reshape(src *table.Table, rows []timedRow, byDay map[string]*Session, res *Result) *table.Table {
	hasDuration := src.Has("Duration")
	hasDistance := src.Has("Distance")

	out := &table.Table{Columns: append([]string(nil), src.Columns...)}
	out.Ensure("Workout #")
	out.Ensure("Duration (sec)")
	out.Ensure("Seconds")
	out.Ensure("Distance (meters)")

	for _, r := range rows {
		s := byDay[r.ts.Format("2006-01-02")]
		r.row["Date"] = s.Start.Format(outputLayout)
		r.row["Workout #"] = strconv.Itoa(s.Number)
		r.row["Duration (sec)"] = strconv.Itoa(s.Duration)

		seconds := 0
		if hasDuration {
			seconds = minutesToSeconds(r.row["Duration"])
		}
		r.row["Seconds"] = strconv.Itoa(seconds)

		meters := 0.0
		if hasDistance {
			meters = kmToMeters(r.row["Distance"])
		}
		r.row["Distance (meters)"] = formatFloat(meters)

		out.Rows = append(out.Rows, r.row)
	}

	for from, to := range columnRenames {
		out.Rename(from, to)
	}

	for _, row := range out.Rows {
		mapped := c.Mapping.Apply(row["Exercise Name"])
		if mapped != row["Exercise Name"] {
			res.MappingsApplied++
			row["Exercise Name"] = mapped
		}
	}
	if res.MappingsApplied > 0 {
		c.Log.Info("applied exercise name mappings", "rows", res.MappingsApplied)
	}
	return out
}

// completeSchema inserts defaults for target columns the input never had and
// runs the defaulting pass over the fixed fill set.
func (c *Converter) completeSchema(out *table.Table, schemaHeaders []string) {
	for _, name := range schemaHeaders {
		if out.Has(name) {
			continue
		}
		if col, ok := schemaColumn(name); ok {
			out.Add(name, col.Default)
		} else {
			out.Add(name, "")
		}
	}

	for _, name := range fillColumns {
		col, ok := schemaColumn(name)
		if !ok || !out.Has(name) {
			continue
		}
		for _, row := range out.Rows {
			row[name] = coerce(col, row[name])
		}
	}
}
