package labresult

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Status is the severity of a value against its reference range.
type Status string

const (
	StatusNormal   Status = "Normal"
	StatusLow      Status = "Low"
	StatusHigh     Status = "High"
	StatusCritLow  Status = "Crit Low"
	StatusCritHigh Status = "Crit High"
)

func (s Status) IsCritical() bool {
	return strings.HasPrefix(string(s), "Crit")
}

func (s Status) IsAbnormal() bool {
	return s != StatusNormal
}

// Tier returns the display bucket for the status.
func (s Status) Tier() Tier {
	switch {
	case s.IsCritical():
		return TierCritical
	case s.IsAbnormal():
		return TierWarning
	}
	return TierNormal
}

type Tier string

const (
	TierNormal   Tier = "normal"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

// CSSClass is the short class name renderers use for a tier.
func (t Tier) CSSClass() string {
	switch t {
	case TierCritical:
		return "crit"
	case TierWarning:
		return "warn"
	}
	return "norm"
}

// TestResult is one extracted and classified biomarker value. It is created
// once during extraction and not modified afterwards.
type TestResult struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	RangeLow  float64 `json:"range_low"`
	RangeHigh float64 `json:"range_high"`
	Status    Status  `json:"status"`
	Tier      Tier    `json:"severity_tier"`
}

func newResult(name string, value, low, high float64) TestResult {
	status := Classify(value, low, high)
	return TestResult{
		Name:      name,
		Value:     value,
		RangeLow:  low,
		RangeHigh: high,
		Status:    status,
		Tier:      status.Tier(),
	}
}

// HasRange reports whether both reference bounds were known. Results
// without a range are always Normal.
func (r TestResult) HasRange() bool {
	return !math.IsNaN(r.RangeLow) && !math.IsNaN(r.RangeHigh)
}

// Range renders the reference interval as "low - high". An unknown bound is
// shown as "N/A".
func (r TestResult) Range() string {
	return formatNumber(r.RangeLow) + " - " + formatNumber(r.RangeHigh)
}

// MarshalJSON writes unknown bounds as null.
func (r TestResult) MarshalJSON() ([]byte, error) {
	type plain TestResult
	return json.Marshal(struct {
		plain
		RangeLow  *float64 `json:"range_low"`
		RangeHigh *float64 `json:"range_high"`
	}{plain(r), bound(r.RangeLow), bound(r.RangeHigh)})
}

func bound(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "N/A"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Abnormal filters results to those outside their range, keeping order.
func Abnormal(results []TestResult) []TestResult {
	out := make([]TestResult, 0, len(results))
	for _, r := range results {
		if r.Status.IsAbnormal() {
			out = append(out, r)
		}
	}
	return out
}
