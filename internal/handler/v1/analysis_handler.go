package v1

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/analysis"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/insight"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/labresult"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/textsource"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pdfMIME = "application/pdf"

// Analyzer runs one document through the pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, cmd *analysis.AnalyzeCommand) (*analysis.Analysis, error)
}

type AnalysisHandler struct {
	svc Analyzer
	log *zap.Logger
}

func NewAnalysisHandler(svc Analyzer, log *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, log: log}
}

type analyzeTextRequest struct {
	Text string `json:"text"`
}

type analysisResponse struct {
	*analysis.Analysis
	Critical  []labresult.TestResult    `json:"critical"`
	ZoneGrid  map[insight.BodyZone]bool `json:"zone_grid"`
	FileLabel string                    `json:"file_label"`
}

func newAnalysisResponse(a *analysis.Analysis) analysisResponse {
	critical := a.Critical()
	if critical == nil {
		critical = []labresult.TestResult{}
	}
	return analysisResponse{
		Analysis:  a,
		Critical:  critical,
		ZoneGrid:  insight.Activated(a.Zones),
		FileLabel: a.FileLabel(),
	}
}

// AnalyzeText handles POST /api/v1/analyses.
func (h *AnalysisHandler) AnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if !bindJSON(c, &req) {
		return
	}

	h.analyze(c, req.Text, analysis.InputText)
}

// AnalyzePDF handles POST /api/v1/analyses/pdf with the document in the
// multipart field "file".
func (h *AnalysisHandler) AnalyzePDF(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			respondError(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", "upload too large")
			return
		}
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "multipart field \"file\" is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "cannot read upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "cannot read upload")
		return
	}

	if !mimetype.Detect(data).Is(pdfMIME) {
		respondError(c, http.StatusBadRequest, "NOT_PDF", "upload is not a PDF document")
		return
	}

	// An unreadable PDF yields empty text and an analysis with no results.
	text := textsource.PDF(bytes.NewReader(data), int64(len(data)), h.log)

	h.analyze(c, text, analysis.InputPDF)
}

func (h *AnalysisHandler) analyze(c *gin.Context, text, format string) {
	caller := callerFrom(c)

	a, err := h.svc.Analyze(c.Request.Context(), &analysis.AnalyzeCommand{
		Text:      text,
		Format:    format,
		Subject:   caller.Subject,
		Role:      string(caller.Role),
		IPAddress: c.ClientIP(),
		RequestID: requestIDFrom(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, newAnalysisResponse(a))
}
