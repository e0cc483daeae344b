package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/config"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/analysis"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/insight"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/labresult"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/reference"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/textsource"
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	outcomeOK                   = "ok"
	outcomeEmpty                = "empty"
	outcomeInvalid              = "invalid"
	outcomeReferenceUnavailable = "reference_unavailable"

	resourceLabReport = "lab_report"
)

type AnalysisService struct {
	source    reference.Source
	extractor *labresult.Extractor
	maxText   int

	auditSvc *AuditService
	pseudo   *Pseudonymizer

	metrics *metrics.Collector
	tracer  trace.Tracer
	log     *zap.Logger
	now     func() time.Time
}

// NewAnalysisService wires the pipeline. auditSvc and pseudo may be nil when
// auditing is disabled.
func NewAnalysisService(
	source reference.Source,
	cfg config.ExtractionConfig,
	auditSvc *AuditService,
	pseudo *Pseudonymizer,
	m *metrics.Collector,
	log *zap.Logger,
) *AnalysisService {
	s := &AnalysisService{
		source:   source,
		maxText:  cfg.MaxTextBytes,
		auditSvc: auditSvc,
		pseudo:   pseudo,
		metrics:  m,
		tracer:   otel.Tracer("labinsight/service/analysis"),
		log:      log,
		now:      time.Now,
	}
	s.extractor = labresult.NewExtractor(
		labresult.WithWorkers(cfg.Workers),
		labresult.WithSkipHook(s.onSkip),
	)
	return s
}

// Analyze runs the whole pipeline over one document. An empty or
// unrecognisable document is not an error: it yields default metadata and no
// results. The only failure besides bad input is an unavailable reference
// table, reported as ErrReferenceUnavailable.
func (s *AnalysisService) Analyze(ctx context.Context, cmd *analysis.AnalyzeCommand) (*analysis.Analysis, error) {
	start := s.now()

	ctx, span := s.tracer.Start(ctx, "analysis.analyze")
	defer span.End()

	if err := s.validate(cmd); err != nil {
		s.countOutcome(outcomeInvalid)
		span.SetStatus(codes.Error, "invalid command")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("analysis.format", cmd.Format),
		attribute.Int("analysis.text_bytes", len(cmd.Text)),
	)

	table, err := s.loadReference(ctx)
	if err != nil {
		s.countOutcome(outcomeReferenceUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reference unavailable")
		return nil, err
	}

	text := textsource.Normalize(cmd.Text)
	meta := patient.ExtractMetadata(text)
	demo := patient.ResolveDemographics(meta.AgeGenderRaw)

	_, extractSpan := s.tracer.Start(ctx, "analysis.extract_values",
		trace.WithAttributes(attribute.Int("reference.tests", len(table.Names()))),
	)
	results := s.extractor.ExtractAll(text, table, demo)
	extractSpan.SetAttributes(attribute.Int("analysis.tests_found", len(results)))
	extractSpan.End()

	abnormal := labresult.Abnormal(results)
	generatedAt := s.now().UTC()

	a := &analysis.Analysis{
		ID:              uuid.New(),
		Patient:         meta,
		Demographics:    demo,
		ReportDate:      analysis.ReportDate(meta, generatedAt),
		Results:         results,
		Abnormal:        abnormal,
		Zones:           insight.MapZones(abnormal),
		Narrative:       insight.Synthesize(results),
		ReferenceSource: s.source.Name(),
		GeneratedAt:     generatedAt,
	}

	span.SetAttributes(
		attribute.String("analysis.id", a.ID.String()),
		attribute.Int("analysis.tests_found", len(results)),
		attribute.Int("analysis.abnormal", len(abnormal)),
	)

	s.record(a, s.now().Sub(start))
	s.audit(ctx, cmd, a)

	return a, nil
}

func (s *AnalysisService) validate(cmd *analysis.AnalyzeCommand) error {
	if cmd == nil {
		return &ValidationError{Fields: []string{"command is required"}}
	}

	var errs []string
	if s.maxText > 0 && len(cmd.Text) > s.maxText {
		errs = append(errs, fmt.Sprintf("text exceeds %d bytes", s.maxText))
	}
	switch cmd.Format {
	case "", analysis.InputText, analysis.InputPDF:
	default:
		errs = append(errs, fmt.Sprintf("format %q is not one of text, pdf", cmd.Format))
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// loadReference builds a fresh table for this document.
func (s *AnalysisService) loadReference(ctx context.Context) (*reference.Table, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.load_reference",
		trace.WithAttributes(attribute.String("reference.source", s.source.Name())),
	)
	defer span.End()

	table, err := s.source.Load(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReferenceLoadFailures.Inc()
		}
		var dle *reference.DataLoadError
		if errors.As(err, &dle) {
			s.log.Error("reference table failed to load",
				zap.String("source", dle.Source),
				zap.Int("line", dle.Line),
				zap.Error(dle.Err),
			)
		} else {
			s.log.Error("reference table failed to load", zap.String("source", s.source.Name()), zap.Error(err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnavailable, err)
	}

	span.SetAttributes(attribute.Int("reference.rows", table.Len()))
	return table, nil
}

func (s *AnalysisService) onSkip(testName string, err error) {
	reason := skipReason(err)
	if s.metrics != nil {
		s.metrics.ExtractionSkipsTotal.WithLabelValues(reason).Inc()
	}
	s.log.Debug("test skipped",
		zap.String("test", testName),
		zap.String("reason", reason),
	)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, labresult.ErrNoValue):
		return "no_value"
	case errors.Is(err, labresult.ErrUnparsableValue):
		return "unparsable"
	case errors.Is(err, labresult.ErrImplausibleValue):
		return "implausible"
	case errors.Is(err, labresult.ErrNoReferenceRow):
		return "no_reference"
	}
	return "other"
}

func (s *AnalysisService) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *AnalysisService) record(a *analysis.Analysis, elapsed time.Duration) {
	outcome := outcomeOK
	if len(a.Results) == 0 {
		outcome = outcomeEmpty
	}
	s.countOutcome(outcome)

	if s.metrics != nil {
		s.metrics.AnalysisDuration.Observe(elapsed.Seconds())
		s.metrics.TestsExtracted.Observe(float64(len(a.Results)))
		for _, r := range a.Results {
			s.metrics.ResultsTotal.WithLabelValues(string(r.Status)).Inc()
		}
		for _, z := range a.Zones {
			s.metrics.ZoneActivationsTotal.WithLabelValues(string(z)).Inc()
		}
	}

	s.log.Info("analysis completed",
		zap.String("analysis_id", a.ID.String()),
		zap.String("outcome", outcome),
		zap.Int("tests_found", len(a.Results)),
		zap.Int("abnormal", len(a.Abnormal)),
		zap.Int("critical", len(a.Critical())),
		zap.Strings("zones", zoneNames(a.Zones)),
		zap.Duration("elapsed", elapsed),
	)
}

type analysisChanges struct {
	Tests    int      `json:"tests"`
	Abnormal int      `json:"abnormal"`
	Critical int      `json:"critical"`
	Zones    []string `json:"zones"`
	Patient  string   `json:"patient,omitempty"`
	Format   string   `json:"format,omitempty"`
}

func (s *AnalysisService) audit(ctx context.Context, cmd *analysis.AnalyzeCommand, a *analysis.Analysis) {
	if s.auditSvc == nil {
		return
	}

	changes := analysisChanges{
		Tests:    len(a.Results),
		Abnormal: len(a.Abnormal),
		Critical: len(a.Critical()),
		Zones:    zoneNames(a.Zones),
		Format:   cmd.Format,
	}
	if s.pseudo != nil && a.Patient.ID != patient.Unknown {
		changes.Patient = s.pseudo.Pseudonym(a.Patient.ID)
	}

	raw, err := json.Marshal(changes)
	if err != nil {
		s.log.Error("failed to encode audit changes", zap.Error(err))
		return
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Subject:      cmd.Subject,
		UserRole:     cmd.Role,
		Action:       string(domain.ActionAnalyze),
		ResourceType: resourceLabReport,
		ResourceID:   a.ID.String(),
		IPAddress:    cmd.IPAddress,
		RequestID:    cmd.RequestID,
		Changes:      string(raw),
	})
}

func zoneNames(zones []insight.BodyZone) []string {
	out := make([]string, len(zones))
	for i, z := range zones {
		out[i] = string(z)
	}
	return out
}
