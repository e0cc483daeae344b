package v1

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/service"
	"github.com/gin-gonic/gin"
)

type ReferenceLister interface {
	Tests(ctx context.Context) ([]service.TestSummary, error)
}

type ReferenceHandler struct {
	svc ReferenceLister
}

func NewReferenceHandler(svc ReferenceLister) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

// ListTests handles GET /api/v1/reference/tests.
func (h *ReferenceHandler) ListTests(c *gin.Context) {
	tests, err := h.svc.Tests(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, tests)
}
