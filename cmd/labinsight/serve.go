package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	handlerv1 "github.com/dmehra2102/prod-golang-projects/labinsight/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/service"
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(bootOpts{dbIfConfigured: true, exposeMetrics: true})
	if err != nil {
		return err
	}
	defer a.close()

	cfg, log := a.cfg, a.log

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	m := a.metrics

	source, err := a.referenceSource("")
	if err != nil {
		return err
	}

	var (
		auditSvc *service.AuditService
		pseudo   *service.Pseudonymizer
	)
	if cfg.Audit.Enabled {
		pseudo, err = service.NewPseudonymizer(cfg.Audit.PseudonymKey)
		if err != nil {
			return err
		}
		auditSvc = service.NewAuditService(postgres.NewAuditRepository(a.db), m, log)
		defer auditSvc.Shutdown()
	}

	analysisSvc := service.NewAnalysisService(source, cfg.Extraction, auditSvc, pseudo, m, log)
	referenceSvc := service.NewReferenceService(source, nil, auditSvc, m, log)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := handlerv1.RouterDeps{
		Analyses:       handlerv1.NewAnalysisHandler(analysisSvc, log),
		Reference:      handlerv1.NewReferenceHandler(referenceSvc),
		Metrics:        m,
		Log:            log,
		MaxUploadBytes: cfg.Extraction.MaxUploadBytes,
	}
	if cfg.JWT.Enabled {
		deps.Tokens = auth.NewJWTManager(cfg.JWT)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handlerv1.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("reference_source", source.Name()),
			zap.Bool("auth", cfg.JWT.Enabled),
			zap.Bool("audit", cfg.Audit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
