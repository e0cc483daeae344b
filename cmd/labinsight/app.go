package main

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/config"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/reference"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what every command needs. db is nil unless a command asked for
// it or the configuration requires it.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
	db      *gorm.DB
}

type bootOpts struct {
	requireDB bool
	// dbIfConfigured connects only when the reference source or the audit
	// trail lives in postgres.
	dbIfConfigured bool
	// logToStderr keeps stdout clean for commands that print results.
	logToStderr bool
	// exposeMetrics registers on the default registry served at /metrics.
	// Other commands get a private registry that dies with the process.
	exposeMetrics bool
}

func bootstrap(opts bootOpts) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.logToStderr {
		cfg.Log.OutputPath = "stderr"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	var reg prometheus.Registerer = prometheus.NewRegistry()
	if opts.exposeMetrics {
		reg = nil
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.NewCollector(cfg.App.Name, reg)}

	if opts.requireDB || (opts.dbIfConfigured && a.usesDB()) {
		db, err := database.Connect(cfg.Database, log, a.metrics)
		if err != nil {
			_ = log.Sync()
			return nil, err
		}
		a.db = db
	}

	return a, nil
}

func (a *app) usesDB() bool {
	return a.cfg.Reference.Source == config.ReferenceSourcePostgres || a.cfg.Audit.Enabled
}

// referenceSource picks the table source. A non-empty override path always
// wins over the configured source.
func (a *app) referenceSource(override string) (reference.Source, error) {
	if override != "" {
		return reference.NewFileSource(override), nil
	}

	switch a.cfg.Reference.Source {
	case config.ReferenceSourceCSV:
		return reference.NewFileSource(a.cfg.Reference.CSVPath), nil
	case config.ReferenceSourcePostgres:
		if a.db == nil {
			return nil, fmt.Errorf("reference source %q needs a database connection", a.cfg.Reference.Source)
		}
		return reference.NewRepositorySource(postgres.NewReferenceRepository(a.db)), nil
	}
	return nil, fmt.Errorf("unknown reference source %q", a.cfg.Reference.Source)
}

func (a *app) close() {
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.log.Warn("closing database", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
