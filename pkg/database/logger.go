package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogger routes gorm's query log into zap and, when queries is set,
// records every statement's latency by operation and table. SQL text is
// logged only for slow queries and errors, never with bound values.
type gormLogger struct {
	log           *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	queries       *prometheus.HistogramVec
}

func newGormLogger(log *zap.Logger, slow time.Duration, queries *prometheus.HistogramVec) gormlogger.Interface {
	if log == nil {
		log = zap.NewNop()
	}
	return &gormLogger{log: log.Named("gorm"), level: gormlogger.Warn, slowThreshold: slow, queries: queries}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(_ context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Info {
		l.log.Info(msg)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(msg)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Error {
		l.log.Error(msg)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if l.queries != nil {
		sql, _ := fc()
		op, table := statementLabels(sql)
		l.queries.WithLabelValues(op, table).Observe(elapsed.Seconds())
	}

	if l.level <= gormlogger.Silent {
		return
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.log.Error("query failed",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.Warn("slow query",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// ParamsFilter drops bound values before gorm renders the SQL for Trace.
func (l *gormLogger) ParamsFilter(_ context.Context, sql string, _ ...any) (string, []any) {
	return sql, nil
}

var (
	sqlVerb  = regexp.MustCompile(`^\s*([A-Za-z]+)`)
	sqlTable = regexp.MustCompile(`(?i)\b(?:FROM|INTO|UPDATE|TABLE)\s+((?:"?\w+"?\.)?"?\w+"?)`)
)

// statementLabels reduces a statement to its verb and first table so the
// histogram stays low-cardinality.
func statementLabels(sql string) (op, table string) {
	op, table = "other", "unknown"
	if m := sqlVerb.FindStringSubmatch(sql); m != nil {
		op = strings.ToLower(m[1])
	}
	if m := sqlTable.FindStringSubmatch(sql); m != nil {
		table = strings.ReplaceAll(m[1], `"`, "")
	}
	return op, table
}
