package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
)

const (
	colTestName   = "testname"
	colFromAge    = "fromage"
	colToAge      = "toage"
	colSexType    = "sextype"
	colLowValue   = "lowvalue"
	colUpperValue = "uppervalue"
)

var requiredColumns = []string{colTestName, colFromAge, colToAge, colSexType, colLowValue, colUpperValue}

// LoadCSV reads a reference table with a header row. Header names are matched
// after lowercasing and trimming; extra columns are ignored. Any malformed
// record fails the whole load with a *DataLoadError.
func LoadCSV(source string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataLoadError{Source: source, Err: ErrNoRows}
		}
		return nil, &DataLoadError{Source: source, Line: 1, Err: err}
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, &DataLoadError{Source: source, Line: 1, Err: err}
	}

	var entries []Entry
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &DataLoadError{Source: source, Line: pe.Line, Err: pe.Err}
			}
			return nil, &DataLoadError{Source: source, Err: err}
		}
		line, _ := cr.FieldPos(0)

		if isBlank(record) {
			continue
		}

		entry, err := parseRecord(record, index)
		if err != nil {
			return nil, &DataLoadError{Source: source, Line: line, Err: err}
		}
		if err := entry.validate(); err != nil {
			return nil, &DataLoadError{Source: source, Line: line, Err: err}
		}
		entries = append(entries, entry)
	}

	table, err := NewTable(entries)
	if err != nil {
		return nil, &DataLoadError{Source: source, Err: err}
	}
	return table, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func parseRecord(record []string, index map[string]int) (Entry, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	fromAge, err := parseAge(field(colFromAge))
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", colFromAge, err)
	}
	toAge, err := parseAge(field(colToAge))
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", colToAge, err)
	}
	low := parseBound(field(colLowValue))
	high := parseBound(field(colUpperValue))

	sexRaw := field(colSexType)
	sex, ok := domain.ParseSex(sexRaw)
	if !ok {
		return Entry{}, fmt.Errorf("%w: got %q", ErrInvalidSex, sexRaw)
	}

	return Entry{
		TestName: field(colTestName),
		FromAge:  fromAge,
		ToAge:    toAge,
		Sex:      sex,
		Low:      low,
		High:     high,
	}, nil
}

// parseAge accepts integers and integral floats such as "18.0".
func parseAge(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a whole number of years", ErrInvalidNumber, s)
	}
	return int(f), nil
}

// parseBound reads a range bound. Blank cells and text such as "<5" give an
// unknown bound (NaN) rather than failing the load.
func parseBound(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
