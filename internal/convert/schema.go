package convert

import (
	"strconv"
	"strings"
)

// Kind classifies a target column for defaulting and coercion.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

// Column describes one target-schema column: its name, value kind, and the
// default written when a value is missing or unparseable. The whole target
// schema is data, so "needs column" and "needs default" checks derive from
// this table instead of per-column conditionals.
type Column struct {
	Name    string
	Kind    Kind
	Default string
}

// targetSchema is the Strong import schema. Column order in the output comes
// from the schema reference file, not from this list.
var targetSchema = []Column{
	{Name: "Date", Kind: KindText, Default: ""},
	{Name: "Workout Name", Kind: KindText, Default: "Workout"},
	{Name: "Exercise Name", Kind: KindText, Default: ""},
	{Name: "Set Order", Kind: KindInt, Default: "1"},
	{Name: "Weight (kg)", Kind: KindFloat, Default: "0.0"},
	{Name: "Reps", Kind: KindInt, Default: "0"},
	{Name: "Seconds", Kind: KindInt, Default: "0"},
	{Name: "Distance (meters)", Kind: KindFloat, Default: "0.0"},
	{Name: "RPE", Kind: KindText, Default: ""},
	{Name: "Notes", Kind: KindText, Default: ""},
	{Name: "Workout Notes", Kind: KindText, Default: ""},
	{Name: "Workout #", Kind: KindInt, Default: "0"},
	{Name: "Duration (sec)", Kind: KindInt, Default: "0"},
}

// columnRenames maps Gymrun column names onto their Strong equivalents.
// Reps and Date keep their names (Date is overwritten with the session start).
var columnRenames = map[string]string{
	"Routine":  "Workout Name",
	"Exercise": "Exercise Name",
	"Set":      "Set Order",
	"Weight":   "Weight (kg)",
	"Note":     "Notes",
}

// schemaColumn looks up a column definition by name.
func schemaColumn(name string) (Column, bool) {
	for _, c := range targetSchema {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// minutesToSeconds converts a Gymrun duration (minutes) to whole seconds.
// Non-numeric, missing, and non-positive values all become 0.
func minutesToSeconds(raw string) int {
	m, ok := parseDecimal(raw)
	if !ok || m <= 0 {
		return 0
	}
	return int(m * 60)
}

// kmToMeters converts a Gymrun distance (kilometers) to meters.
// Non-numeric, missing, and non-positive values all become 0.0.
func kmToMeters(raw string) float64 {
	km, ok := parseDecimal(raw)
	if !ok || km <= 0 {
		return 0
	}
	return km * 1000
}

// coerce normalizes a raw cell to the column's kind, substituting the
// column's default for missing or unparseable values.
func coerce(c Column, raw string) string {
	switch c.Kind {
	case KindInt:
		v, ok := parseDecimal(raw)
		if !ok {
			return c.Default
		}
		return strconv.Itoa(int(v))
	case KindFloat:
		v, ok := parseDecimal(raw)
		if !ok {
			return c.Default
		}
		return formatFloat(v)
	default:
		if strings.TrimSpace(raw) == "" {
			return c.Default
		}
		return raw
	}
}

// parseDecimal parses a decimal string, accepting both "102.5" and the
// European "102,5" form that Norwegian exports sometimes use.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// formatFloat renders a float with an explicit decimal point, so whole
// values come out as "2500.0" rather than "2500".
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
