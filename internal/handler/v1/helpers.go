package v1

import (
	"errors"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/service"
	"github.com/gin-gonic/gin"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFrom(c),
	})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrReferenceUnavailable):
		// Distinct from an analysis that found nothing, which is a 200.
		respondError(c, http.StatusServiceUnavailable, "REFERENCE_UNAVAILABLE", "reference table unavailable")

	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "FORBIDDEN", "access denied")

	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if isTooLarge(err) {
			respondError(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", "request body too large")
			return false
		}
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request: "+err.Error())
		return false
	}

	return true
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
