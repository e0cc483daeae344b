package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/config"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/analysis"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/reference"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/service"
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAnalyzer struct {
	last *analysis.AnalyzeCommand
	err  error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, cmd *analysis.AnalyzeCommand) (*analysis.Analysis, error) {
	f.last = cmd
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Analysis{
		ID:      uuid.New(),
		Patient: patient.Metadata{Name: "Jane Roe", ID: patient.Unknown},
	}, nil
}

type fakeLister struct {
	tests []service.TestSummary
	err   error
}

func (f *fakeLister) Tests(context.Context) ([]service.TestSummary, error) {
	return f.tests, f.err
}

type fakeTokens struct{}

func (fakeTokens) ValidateAccessToken(token string) (*domain.Claims, error) {
	if token != "good-token" {
		return nil, errors.New("token is invalid")
	}
	return &domain.Claims{Subject: "clinician-7", Role: domain.RoleClinician}, nil
}

type routerOpts struct {
	analyzer  Analyzer
	lister    ReferenceLister
	tokens    TokenValidator
	maxUpload int64
}

func newTestRouter(o routerOpts) (*gin.Engine, *metrics.Collector) {
	if o.analyzer == nil {
		o.analyzer = &fakeAnalyzer{}
	}
	if o.lister == nil {
		o.lister = &fakeLister{}
	}
	if o.maxUpload == 0 {
		o.maxUpload = 1 << 20
	}
	m := metrics.NewCollector("labinsight", prometheus.NewRegistry())
	log := zap.NewNop()

	return NewRouter(RouterDeps{
		Analyses:       NewAnalysisHandler(o.analyzer, log),
		Reference:      NewReferenceHandler(o.lister),
		Metrics:        m,
		Log:            log,
		Tokens:         o.tokens,
		MaxUploadBytes: o.maxUpload,
	}), m
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(routerOpts{})
	rec := do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("request id header missing")
	}
}

func TestAnalyzeText_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		maxUpload  int64
		wantStatus int
		wantCode   string
	}{
		{"ok", `{"text":"Glucose 90"}`, nil, 0, http.StatusOK, ""},
		{"empty text is fine", `{"text":""}`, nil, 0, http.StatusOK, ""},
		{"malformed json", `{"text":`, nil, 0, http.StatusBadRequest, "BAD_REQUEST"},
		{"validation", `{"text":"x"}`, &service.ValidationError{Fields: []string{"text exceeds 1 bytes"}}, 0, http.StatusBadRequest, ""},
		{"reference unavailable", `{"text":"x"}`, service.ErrReferenceUnavailable, 0, http.StatusServiceUnavailable, "REFERENCE_UNAVAILABLE"},
		{"unexpected", `{"text":"x"}`, errors.New("boom"), 0, http.StatusInternalServerError, "INTERNAL"},
		{"too large", `{"text":"` + strings.Repeat("a", 200) + `"}`, nil, 64, http.StatusRequestEntityTooLarge, "TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(routerOpts{analyzer: &fakeAnalyzer{err: tt.svcErr}, maxUpload: tt.maxUpload})
			rec := do(r, jsonRequest(tt.body))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantCode != "" {
				var resp ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatal(err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestAnalyzeText_PassesCaller(t *testing.T) {
	fa := &fakeAnalyzer{}
	r, _ := newTestRouter(routerOpts{analyzer: fa})

	req := jsonRequest(`{"text":"Glucose 90"}`)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := do(r, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if fa.last.Text != "Glucose 90" || fa.last.Format != analysis.InputText {
		t.Errorf("command = %+v", fa.last)
	}
	if fa.last.RequestID != "req-42" || fa.last.Subject != "anonymous" {
		t.Errorf("caller = %+v", fa.last)
	}

	var resp struct {
		Data struct {
			FileLabel string `json:"file_label"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.FileLabel != "Labinsight_Analysis_Jane_Roe.pdf" {
		t.Errorf("file_label = %q", resp.Data.FileLabel)
	}
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAnalyzer{}
			r, _ := newTestRouter(routerOpts{analyzer: fa, tokens: fakeTokens{}})

			req := jsonRequest(`{"text":"x"}`)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := do(r, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && (fa.last.Subject != "clinician-7" || fa.last.Role != string(domain.RoleClinician)) {
				t.Errorf("caller = %+v", fa.last)
			}
		})
	}

	// Health and metrics stay public.
	r, _ := newTestRouter(routerOpts{tokens: fakeTokens{}})
	if rec := do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz behind auth: %d", rec.Code)
	}
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/pdf", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAnalyzePDF(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		content    []byte
		wantStatus int
		wantCode   string
	}{
		{"missing file", "", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"not a pdf", "file", []byte("Glucose 90 mg/dl"), http.StatusBadRequest, "NOT_PDF"},
		// Passes the type check but has no readable pages: analysed as empty text.
		{"unreadable pdf", "file", []byte("%PDF-1.4\n%%EOF\n"), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAnalyzer{}
			r, _ := newTestRouter(routerOpts{analyzer: fa})

			rec := do(r, multipartRequest(t, tt.field, "report.pdf", tt.content))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantCode != "" && !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body %s missing code %s", rec.Body, tt.wantCode)
			}
			if tt.wantStatus == http.StatusOK && (fa.last.Format != analysis.InputPDF || fa.last.Text != "") {
				t.Errorf("command = %+v", fa.last)
			}
		})
	}
}

func TestListReferenceTests(t *testing.T) {
	r, _ := newTestRouter(routerOpts{lister: &fakeLister{tests: []service.TestSummary{{Name: "Glucose", Rows: 2}}}})
	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/reference/tests", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `{"name":"Glucose","rows":2}`) {
		t.Errorf("body = %s", rec.Body)
	}

	r, _ = newTestRouter(routerOpts{lister: &fakeLister{err: service.ErrReferenceUnavailable}})
	if rec := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/reference/tests", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(routerOpts{})
	do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := do(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `labinsight_http_requests_total{method="GET",path="/healthz",status="200"} 1`) {
		t.Errorf("metrics missing healthz request:\n%s", rec.Body)
	}
}

type tableSource struct{ table *reference.Table }

func (s tableSource) Name() string                                   { return "memory" }
func (s tableSource) Load(context.Context) (*reference.Table, error) { return s.table, nil }

func TestAnalyzeText_EndToEnd(t *testing.T) {
	table, err := reference.NewTable([]reference.Entry{
		{TestName: "Glucose", FromAge: 0, ToAge: 120, Sex: domain.SexBoth, Low: 70, High: 110},
		{TestName: "SGPT", FromAge: 0, ToAge: 120, Sex: domain.SexBoth, Low: 7, High: 56},
	})
	if err != nil {
		t.Fatal(err)
	}
	svc := service.NewAnalysisService(tableSource{table}, config.ExtractionConfig{Workers: 1, MaxTextBytes: 1 << 16}, nil, nil, nil, zap.NewNop())
	r, _ := newTestRouter(routerOpts{analyzer: svc})

	rec := do(r, jsonRequest(`{"text":"Patient Name: John Doe\nGlucose 95 mg/dl\nSGPT 140 U/L"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		Data struct {
			Patient  patient.Metadata `json:"patient"`
			Results  []map[string]any `json:"results"`
			Critical []map[string]any `json:"critical"`
			Zones    []string         `json:"zones"`
			ZoneGrid map[string]bool  `json:"zone_grid"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Patient.Name != "John Doe" {
		t.Errorf("patient name = %q", resp.Data.Patient.Name)
	}
	if len(resp.Data.Results) != 2 || len(resp.Data.Critical) != 1 {
		t.Errorf("results = %v, critical = %v", resp.Data.Results, resp.Data.Critical)
	}
	if len(resp.Data.Zones) != 1 || resp.Data.Zones[0] != "liver" {
		t.Errorf("zones = %v", resp.Data.Zones)
	}
	wantGrid := map[string]bool{
		"heart": false, "liver": true, "kidney": false,
		"blood": false, "bone": false, "neuro": false,
	}
	if !reflect.DeepEqual(resp.Data.ZoneGrid, wantGrid) {
		t.Errorf("zone_grid = %v, want %v", resp.Data.ZoneGrid, wantGrid)
	}
}
