package reference

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
)

// Entry is one row of the demographic reference table. Bounds are inclusive.
// A bound is NaN when its cell was blank or not a number; the row still
// resolves and results graded against it are Normal.
type Entry struct {
	TestName string     `json:"test_name"`
	FromAge  int        `json:"from_age"`
	ToAge    int        `json:"to_age"`
	Sex      domain.Sex `json:"sex_type"`
	Low      float64    `json:"low_value"`
	High     float64    `json:"high_value"`
}

// HasRange reports whether both bounds are known.
func (e Entry) HasRange() bool {
	return !math.IsNaN(e.Low) && !math.IsNaN(e.High)
}

// MarshalJSON writes unknown bounds as null.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		Low  *float64 `json:"low_value"`
		High *float64 `json:"high_value"`
	}{plain(e), boundPtr(e.Low), boundPtr(e.High)})
}

func boundPtr(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func boundValue(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Applies reports whether the row covers the given patient.
func (e Entry) Applies(age int, sex domain.Sex) bool {
	if age < e.FromAge || age > e.ToAge {
		return false
	}
	return e.Sex == domain.SexBoth || e.Sex == sex
}

func (e Entry) validate() error {
	if strings.TrimSpace(e.TestName) == "" {
		return ErrEmptyTestName
	}
	if !e.Sex.IsValid() {
		return fmt.Errorf("%w: got %q", ErrInvalidSex, e.Sex)
	}
	if e.FromAge > e.ToAge {
		return fmt.Errorf("%w: %d > %d", ErrInvalidAgeBounds, e.FromAge, e.ToAge)
	}
	return nil
}

// Table groups reference rows by test name. Both the order of distinct names
// and the order of rows within a name follow the source, and resolution
// depends on that order. A Table is read-only once built.
type Table struct {
	names []string
	rows  map[string][]Entry
	size  int
}

// NewTable validates entries and groups them by test name.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, ErrNoRows
	}

	t := &Table{rows: make(map[string][]Entry)}
	for i, e := range entries {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i+1, e.TestName, err)
		}
		if _, seen := t.rows[e.TestName]; !seen {
			t.names = append(t.names, e.TestName)
		}
		t.rows[e.TestName] = append(t.rows[e.TestName], e)
	}
	t.size = len(entries)

	return t, nil
}

// Names returns the distinct test names in first-appearance order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Rows returns the rows for testName in table order.
func (t *Table) Rows(testName string) []Entry {
	rows := t.rows[testName]
	out := make([]Entry, len(rows))
	copy(out, rows)
	return out
}

// Entries returns every row, grouped by name in first-appearance order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.size)
	for _, name := range t.names {
		out = append(out, t.rows[name]...)
	}
	return out
}

func (t *Table) Len() int {
	return t.size
}

// Resolve picks the reference row for testName. The first row, in table
// order, whose age bounds contain age and whose sex is Both or equal to sex
// wins and the scan stops there; it is not a best-match search. When no row
// qualifies, the first row for the test is used. ok is false only when the
// table has no rows for testName.
func (t *Table) Resolve(testName string, age int, sex domain.Sex) (Entry, bool) {
	rows := t.rows[testName]
	if len(rows) == 0 {
		return Entry{}, false
	}

	for _, row := range rows {
		if row.Applies(age, sex) {
			return row, true
		}
	}
	return rows[0], true
}
