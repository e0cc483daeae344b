package analysis

import (
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/insight"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/labresult"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/patient"
	"github.com/google/uuid"
)

// ReportDateLayout is dd-mm-yyyy, used when the report prints no date.
const ReportDateLayout = "02-01-2006"

// Analysis is everything a renderer needs for one lab report. It is built
// once per document and not persisted.
type Analysis struct {
	ID              uuid.UUID              `json:"id"`
	Patient         patient.Metadata       `json:"patient"`
	Demographics    patient.Demographics   `json:"demographics"`
	ReportDate      string                 `json:"report_date"`
	Results         []labresult.TestResult `json:"results"`
	Abnormal        []labresult.TestResult `json:"abnormal"`
	Zones           []insight.BodyZone     `json:"zones"`
	Narrative       string                 `json:"narrative"`
	ReferenceSource string                 `json:"reference_source"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// Critical returns the results in a critical band, in table order.
func (a *Analysis) Critical() []labresult.TestResult {
	var out []labresult.TestResult
	for _, r := range a.Abnormal {
		if r.Status.IsCritical() {
			out = append(out, r)
		}
	}
	return out
}

// FileLabel is the download name for the rendered report.
func (a *Analysis) FileLabel() string {
	return "Labinsight_Analysis_" + strings.ReplaceAll(a.Patient.Name, " ", "_") + ".pdf"
}

// ReportDate is the printed date, or generatedAt as dd-mm-yyyy when the
// report has none.
func ReportDate(m patient.Metadata, generatedAt time.Time) string {
	if m.Date == "" || m.Date == patient.Unknown {
		return generatedAt.Format(ReportDateLayout)
	}
	return m.Date
}

// Input formats the service accepts.
const (
	InputText = "text"
	InputPDF  = "pdf"
)

// AnalyzeCommand is one document submitted for analysis together with the
// caller details recorded in the audit trail.
type AnalyzeCommand struct {
	Text      string
	Format    string
	Subject   string
	Role      string
	IPAddress string
	RequestID string
}
