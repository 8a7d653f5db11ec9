package domain

import (
	"fmt"
	"strings"
)

// LookupEntry maps a stored code to the label a human reads.
type LookupEntry struct {
	Code  string `yaml:"code" json:"code"`
	Label string `yaml:"label" json:"label"`
}

// LookupTable is an ordered code->label table (budget range, timeline, ...).
type LookupTable []LookupEntry

// Label returns the human-readable label of code.
func (t LookupTable) Label(code string) (string, bool) {
	for _, e := range t {
		if e.Code == code {
			return e.Label, true
		}
	}
	return "", false
}

// Field values are trimmed before they are matched, so a code must be
// non-empty and carry no surrounding whitespace.
func (t LookupTable) check() error {
	seen := make(map[string]bool, len(t))
	for _, e := range t {
		if e.Code == "" || e.Code != strings.TrimSpace(e.Code) {
			return fmt.Errorf("code %q is empty or padded with whitespace", e.Code)
		}
		if e.Label == "" {
			return fmt.Errorf("code %q has no label", e.Code)
		}
		if seen[e.Code] {
			return fmt.Errorf("duplicate code %q", e.Code)
		}
		seen[e.Code] = true
	}
	return nil
}

// LookupTables holds every table by name.
type LookupTables map[string]LookupTable
