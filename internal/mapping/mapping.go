// Package mapping loads the exercise-name mapping table: Gymrun exercise
// names keyed to the Strong names they should be imported as.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table maps a source exercise name to its target name.
type Table map[string]string

// Empty returns a mapping with no entries. Callers that tolerate a missing
// mapping file fall back to this explicitly rather than getting it implied.
func Empty() Table {
	return Table{}
}

// Load reads a YAML mapping file (flat "source name: target name" map).
// A missing file is returned as-is so callers can branch on
// errors.Is(err, fs.ErrNotExist) and decide whether to continue without one.
// Entries with blank keys or values are dropped.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file %s: %w", path, err)
	}

	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing mapping file %s: %w", path, err)
	}

	t := make(Table, len(raw))
	for k, v := range raw {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		t[k] = v
	}
	return t, nil
}

// Has reports whether the source name has a mapping entry.
func (t Table) Has(name string) bool {
	_, ok := t[name]
	return ok
}

// Apply returns the mapped name, or the input unchanged if unmapped.
func (t Table) Apply(name string) string {
	if mapped, ok := t[name]; ok {
		return mapped
	}
	return name
}
