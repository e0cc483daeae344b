package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/reference"
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/metrics"
	"go.uber.org/zap"
)

const resourceReferenceTable = "reference_table"

// TestSummary describes one test of the active reference table.
type TestSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

type ImportReferenceCommand struct {
	SourceName string
	Data       io.Reader
	Subject    string
	Role       string
}

type ReferenceService struct {
	source   reference.Source
	repo     reference.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

// NewReferenceService serves the active table from source. repo is only
// needed for imports and may be nil otherwise.
func NewReferenceService(source reference.Source, repo reference.Repository, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *ReferenceService {
	return &ReferenceService{
		source:   source,
		repo:     repo,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
	}
}

// Tests lists the distinct tests of the active table in table order.
func (s *ReferenceService) Tests(ctx context.Context) ([]TestSummary, error) {
	table, err := s.source.Load(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReferenceLoadFailures.Inc()
		}
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnavailable, err)
	}

	names := table.Names()
	out := make([]TestSummary, len(names))
	for i, name := range names {
		out[i] = TestSummary{Name: name, Rows: len(table.Rows(name))}
	}
	return out, nil
}

// Import validates a CSV table and replaces the stored one. Only admins may
// import, and a malformed file leaves the stored table untouched.
func (s *ReferenceService) Import(ctx context.Context, cmd *ImportReferenceCommand) (int, error) {
	if s.repo == nil {
		return 0, errors.New("reference import requires a database repository")
	}
	if cmd == nil || cmd.Data == nil {
		return 0, &ValidationError{Fields: []string{"data is required"}}
	}
	if domain.Role(cmd.Role) != domain.RoleAdmin {
		return 0, ErrForbidden
	}

	table, err := reference.LoadCSV(cmd.SourceName, cmd.Data)
	if err != nil {
		return 0, err
	}

	entries := table.Entries()
	if err := s.repo.ReplaceAll(ctx, entries); err != nil {
		s.log.Error("failed to store reference table", zap.Error(err))
		return 0, fmt.Errorf("storing reference table: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ReferenceImportedTotal.Add(float64(len(entries)))
	}
	s.log.Info("reference table imported",
		zap.String("source", cmd.SourceName),
		zap.Int("rows", len(entries)),
		zap.Int("tests", len(table.Names())),
	)

	if s.auditSvc != nil {
		changes, _ := json.Marshal(map[string]int{"rows": len(entries), "tests": len(table.Names())})
		s.auditSvc.LogAsync(ctx, AuditEntry{
			Subject:      cmd.Subject,
			UserRole:     cmd.Role,
			Action:       string(domain.ActionReferenceImport),
			ResourceType: resourceReferenceTable,
			ResourceID:   truncate(cmd.SourceName, 50),
			Changes:      string(changes),
		})
	}

	return len(entries), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
