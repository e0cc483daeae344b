package labresult

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/reference"
	"golang.org/x/sync/errgroup"
)

// minHemoglobin is the lowest haemoglobin reading treated as real; anything
// below is a stray number picked up next to the test name.
const minHemoglobin = 3.0

// SkipFunc observes a test that produced no result. It may be called from
// several goroutines when the extractor runs with more than one worker.
type SkipFunc func(testName string, err error)

type Extractor struct {
	workers int
	onSkip  SkipFunc
}

type Option func(*Extractor)

// WithWorkers bounds the number of tests searched concurrently. Values below
// 2 keep extraction sequential.
func WithWorkers(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.workers = n
		}
	}
}

func WithSkipHook(fn SkipFunc) Option {
	return func(x *Extractor) {
		x.onSkip = fn
	}
}

func NewExtractor(opts ...Option) *Extractor {
	x := &Extractor{workers: 1}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ExtractAll looks for every distinct test of the table in raw and returns
// the classified results in table order. Tests without a usable value are
// left out; they never stop the remaining tests.
func (x *Extractor) ExtractAll(raw string, table *reference.Table, d patient.Demographics) []TestResult {
	names := table.Names()

	if x.workers < 2 || len(names) < 2 {
		results := make([]TestResult, 0, len(names))
		for _, name := range names {
			r, err := extractOne(raw, name, table, d)
			if err != nil {
				x.skip(name, err)
				continue
			}
			results = append(results, r)
		}
		return results
	}

	// Slots are indexed by table position so the output order matches the
	// sequential path.
	slots := make([]TestResult, len(names))
	found := make([]bool, len(names))

	var g errgroup.Group
	g.SetLimit(x.workers)
	for i, name := range names {
		g.Go(func() error {
			r, err := extractOne(raw, name, table, d)
			if err != nil {
				x.skip(name, err)
				return nil
			}
			slots[i] = r
			found[i] = true
			return nil
		})
	}
	_ = g.Wait()

	results := make([]TestResult, 0, len(names))
	for i, ok := range found {
		if ok {
			results = append(results, slots[i])
		}
	}
	return results
}

func (x *Extractor) skip(name string, err error) {
	if x.onSkip != nil {
		x.onSkip(name, err)
	}
}

func extractOne(raw, name string, table *reference.Table, d patient.Demographics) (TestResult, error) {
	value, err := FindValue(raw, name)
	if err != nil {
		return TestResult{}, err
	}

	if isHemoglobin(name) && value < minHemoglobin {
		return TestResult{}, fmt.Errorf("%w: %s %v below %v", ErrImplausibleValue, name, value, minHemoglobin)
	}

	entry, ok := table.Resolve(name, d.Age, d.Sex)
	if !ok {
		return TestResult{}, fmt.Errorf("%w: %s", ErrNoReferenceRow, name)
	}

	return newResult(name, value, entry.Low, entry.High), nil
}

// FindValue returns the first number that follows testName on the same line.
// The name is matched literally and case-insensitively; the earliest
// occurrence of the name that has a number after it on its line wins.
func FindValue(raw, testName string) (float64, error) {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(testName) + `[^0-9\n]*?(\d+\.?\d*)`)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoValue, err)
	}

	m := re.FindStringSubmatch(raw)
	if m == nil {
		return 0, ErrNoValue
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnparsableValue, m[1], err)
	}
	return value, nil
}

func isHemoglobin(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "haemoglobin") || strings.Contains(lower, "hemoglobin")
}
