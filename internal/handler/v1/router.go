package v1

import (
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Analyses  *AnalysisHandler
	Reference *ReferenceHandler
	Metrics   *metrics.Collector
	Log       *zap.Logger

	// Tokens guards /api/v1 when set.
	Tokens TokenValidator

	MaxUploadBytes int64
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(d.Log), Logger(d.Log), tracing())
	if d.Metrics != nil {
		r.Use(Metrics(d.Metrics))
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	if d.Tokens != nil {
		api.Use(Auth(d.Tokens))
	}

	uploads := api.Group("", BodyLimit(d.MaxUploadBytes))
	uploads.POST("/analyses", d.Analyses.AnalyzeText)
	uploads.POST("/analyses/pdf", d.Analyses.AnalyzePDF)

	api.GET("/reference/tests", d.Reference.ListTests)

	return r
}

// tracing opens a server span per request so service spans nest under it.
func tracing() gin.HandlerFunc {
	tracer := otel.Tracer("labinsight/http")
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+routeOf(c), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.request_id", requestIDFrom(c)),
			attribute.Int("http.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
