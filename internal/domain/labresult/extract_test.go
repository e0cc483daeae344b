package labresult

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/reference"
)

func mustTable(t *testing.T, entries ...reference.Entry) *reference.Table {
	t.Helper()
	table, err := reference.NewTable(entries)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func both(name string, low, high float64) reference.Entry {
	return reference.Entry{TestName: name, FromAge: 0, ToAge: 120, Sex: domain.SexBoth, Low: low, High: high}
}

var adultFemale = patient.Demographics{Age: 30, Sex: domain.SexFemale}

func TestExtractAll_GlucoseBoundaryIsHigh(t *testing.T) {
	table := mustTable(t,
		reference.Entry{TestName: "Glucose", FromAge: 18, ToAge: 60, Sex: domain.SexFemale, Low: 65, High: 100},
		both("Glucose", 70, 110),
	)

	results := NewExtractor().ExtractAll("Glucose 130 mg/dl", table, adultFemale)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Value != 130 || r.RangeLow != 65 || r.RangeHigh != 100 {
		t.Errorf("unexpected result %+v", r)
	}
	if r.Status != StatusHigh {
		t.Errorf("Status = %s, want High", r.Status)
	}
	if r.Tier != TierWarning {
		t.Errorf("Tier = %s, want warning", r.Tier)
	}
}

func TestExtractAll_HemoglobinSanityCheck(t *testing.T) {
	tests := []struct {
		name     string
		testName string
		text     string
		wantKept bool
	}{
		{"british spelling below floor", "Haemoglobin", "Haemoglobin 2.5 g/dl", false},
		{"american spelling below floor", "Hemoglobin (Hb)", "Hemoglobin (Hb) 2.5", false},
		{"just above floor", "Haemoglobin", "Haemoglobin 3.1 g/dl", true},
		{"typical value", "Haemoglobin", "Haemoglobin : 11.2", true},
		{"other tests may be low", "Creatinine", "Creatinine 0.4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var skipped error
			x := NewExtractor(WithSkipHook(func(_ string, err error) { skipped = err }))

			results := x.ExtractAll(tt.text, mustTable(t, both(tt.testName, 12, 15.5)), adultFemale)
			if got := len(results) == 1; got != tt.wantKept {
				t.Fatalf("kept = %v, want %v (results %+v)", got, tt.wantKept, results)
			}
			if !tt.wantKept && !errors.Is(skipped, ErrImplausibleValue) {
				t.Errorf("skip reason = %v, want ErrImplausibleValue", skipped)
			}
		})
	}
}

func TestFindValue(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		testName string
		want     float64
		wantErr  error
	}{
		{"same line", "Glucose 130 mg/dl", "Glucose", 130, nil},
		{"case insensitive", "GLUCOSE, FASTING : 98.5", "glucose", 98.5, nil},
		{"nearest number wins", "Creatinine (serum) 1.1   0.6 - 1.2", "Creatinine", 1.1, nil},
		{"special characters literal", "Vitamin D (25-OH) 32.5 ng/ml", "Vitamin D (25-OH)", 32.5, nil},
		{"regex metacharacters literal", "Vitamin D (25-OH) 32.5", "Vitamin D .25-OH.", 0, ErrNoValue},
		{"skips occurrence without number", "Glucose (method)\nGlucose 95", "Glucose", 95, nil},
		{"does not cross newline", "Glucose\n130", "Glucose", 0, ErrNoValue},
		{"missing test", "SGPT 40", "Glucose", 0, ErrNoValue},
		{"trailing dot", "TSH 4. uIU/ml", "TSH", 4, nil},
		{"overflowing digits", "TSH 1" + strings.Repeat("0", 400), "TSH", 0, ErrUnparsableValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindValue(tt.text, tt.testName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FindValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

const panelText = `Haemoglobin 13.1 g/dl
Total Cholesterol 240 mg/dl
Creatinine 2.4 mg/dl
SGPT 44 U/L
TSH not reported
Vitamin B12 120 pg/ml
Glucose 70 mg/dl
`

func panelTable(t *testing.T) *reference.Table {
	return mustTable(t,
		both("Haemoglobin", 12, 15.5),
		both("Total Cholesterol", 0, 200),
		both("Creatinine", 0.6, 1.2),
		both("SGPT", 7, 56),
		both("TSH", 0.4, 4.0),
		both("Vitamin B12", 200, 900),
		both("Glucose", 70, 110),
		both("Bilirubin", 0.2, 1.2),
	)
}

func TestExtractAll_SkipsMissingAndKeepsTableOrder(t *testing.T) {
	var (
		mu      sync.Mutex
		skipped []string
	)
	x := NewExtractor(WithSkipHook(func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if !errors.Is(err, ErrNoValue) {
			t.Errorf("%s skipped with %v, want ErrNoValue", name, err)
		}
		skipped = append(skipped, name)
	}))

	results := x.ExtractAll(panelText, panelTable(t), adultFemale)

	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := []string{"Haemoglobin", "Total Cholesterol", "Creatinine", "SGPT", "Vitamin B12", "Glucose"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("result names = %v, want %v", names, want)
	}
	if !reflect.DeepEqual(skipped, []string{"TSH", "Bilirubin"}) {
		t.Errorf("skipped = %v, want [TSH Bilirubin]", skipped)
	}

	statuses := map[string]Status{}
	for _, r := range results {
		statuses[r.Name] = r.Status
	}
	if statuses["Total Cholesterol"] != StatusHigh {
		t.Errorf("Total Cholesterol = %s, want High", statuses["Total Cholesterol"])
	}
	if statuses["Creatinine"] != StatusCritHigh {
		t.Errorf("Creatinine = %s, want Crit High", statuses["Creatinine"])
	}
	if statuses["Vitamin B12"] != StatusCritLow {
		t.Errorf("Vitamin B12 = %s, want Crit Low", statuses["Vitamin B12"])
	}
	if statuses["Glucose"] != StatusNormal {
		t.Errorf("Glucose = %s, want Normal", statuses["Glucose"])
	}
}

func TestExtractAll_ParallelMatchesSequential(t *testing.T) {
	table := panelTable(t)

	sequential := NewExtractor().ExtractAll(panelText, table, adultFemale)
	for _, workers := range []int{2, 3, 8, 32} {
		parallel := NewExtractor(WithWorkers(workers)).ExtractAll(panelText, table, adultFemale)
		if !reflect.DeepEqual(parallel, sequential) {
			t.Errorf("workers=%d: got %+v, want %+v", workers, parallel, sequential)
		}
	}
}

func TestExtractAll_UnknownBoundsGradeNormal(t *testing.T) {
	csv := "testname,fromage,toage,sextype,lowvalue,uppervalue\n" +
		"TSH,0,120,Both,,4.0\n" +
		"CRP,0,120,Both,<5,10\n" +
		"Creatinine,0,120,Both,0.6,1.2\n"
	table, err := reference.LoadCSV("inline", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	text := "TSH 40.0 uIU/ml\nCRP 95 mg/l\nCreatinine 2.4 mg/dl\n"
	results := NewExtractor().ExtractAll(text, table, adultFemale)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}

	tests := []struct {
		name      string
		status    Status
		hasRange  bool
		rangeText string
	}{
		{"TSH", StatusNormal, false, "N/A - 4"},
		{"CRP", StatusNormal, false, "N/A - 10"},
		{"Creatinine", StatusCritHigh, true, "0.6 - 1.2"},
	}
	for i, tt := range tests {
		r := results[i]
		if r.Name != tt.name {
			t.Fatalf("results[%d] = %s, want %s", i, r.Name, tt.name)
		}
		if r.Status != tt.status || r.Tier != tt.status.Tier() {
			t.Errorf("%s: status = %s/%s, want %s", tt.name, r.Status, r.Tier, tt.status)
		}
		if r.HasRange() != tt.hasRange {
			t.Errorf("%s: HasRange() = %v, want %v", tt.name, r.HasRange(), tt.hasRange)
		}
		if r.Range() != tt.rangeText {
			t.Errorf("%s: Range() = %q, want %q", tt.name, r.Range(), tt.rangeText)
		}
	}

	data, err := json.Marshal(results)
	if err != nil {
		t.Fatalf("marshal results: %v", err)
	}
	var encoded []map[string]any
	if err := json.Unmarshal(data, &encoded); err != nil {
		t.Fatalf("unmarshal results: %v", err)
	}
	if v, ok := encoded[0]["range_low"]; !ok || v != nil {
		t.Errorf("TSH range_low = %v, want null", v)
	}
	if v := encoded[0]["range_high"]; v != 4.0 {
		t.Errorf("TSH range_high = %v, want 4", v)
	}
	if v := encoded[2]["range_low"]; v != 0.6 {
		t.Errorf("Creatinine range_low = %v, want 0.6", v)
	}
}

func TestExtractAll_EmptyText(t *testing.T) {
	results := NewExtractor(WithWorkers(4)).ExtractAll("", panelTable(t), adultFemale)
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

func TestAbnormal(t *testing.T) {
	results := []TestResult{
		{Name: "A", Status: StatusNormal},
		{Name: "B", Status: StatusLow},
		{Name: "C", Status: StatusCritHigh},
	}

	got := Abnormal(results)
	if len(got) != 2 || got[0].Name != "B" || got[1].Name != "C" {
		t.Errorf("Abnormal() = %+v", got)
	}
}
