package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/services"
	"github.com/sjperalta/ordino-api/pkg/logger"
)

// errorResponse maps a service error to its status code and JSON body
func errorResponse(err error) (int, gin.H) {
	var (
		partial    *services.PartialFailureError
		over       *reconciliation.OverpaymentError
		incomplete *reconciliation.IncompleteCheckError
		validation *reconciliation.ValidationError
		missing    *reconciliation.NotFoundError
	)

	switch {
	case errors.As(err, &partial):
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrStaleManifest) {
			status = http.StatusConflict
		}
		body := gin.H{"error": err.Error(), "intent_id": partial.IntentID, "failed_step": partial.Step}
		if errors.As(err, &over) {
			body["attempted"] = over.Attempted
			body["remaining"] = over.Remaining
		}
		return status, body
	case errors.As(err, &over):
		return http.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"attempted": over.Attempted,
			"remaining": over.Remaining,
			"currency":  over.Currency,
		}
	case errors.As(err, &incomplete):
		return http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "check_index": incomplete.Index, "field": incomplete.Field}
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, gin.H{"error": err.Error()}
	case errors.As(err, &missing):
		return http.StatusNotFound, gin.H{"error": err.Error(), "payment_id": missing.PaymentID}
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrLineNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error()}
	case errors.Is(err, services.ErrStaleManifest), errors.Is(err, services.ErrDuplicate):
		return http.StatusConflict, gin.H{"error": err.Error()}
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusUnprocessableEntity, gin.H{"error": err.Error()}
	}
	return http.StatusInternalServerError, gin.H{"error": "internal server error"}
}

func respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
	}
	if id, ok := body["intent_id"].(string); ok {
		c.Set("intentID", id)
	}
	c.JSON(status, body)
}
