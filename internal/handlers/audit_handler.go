package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// Index lists audit logs. Filters: entity, entity_id, action, user_id.
func (h *AuditHandler) Index(c *gin.Context) {
	query := listQueryFrom(c, "entity", "entity_id", "action", "user_id")
	if c.Query("per_page") == "" {
		query.PerPage = 50
	}

	logs, total, err := h.auditService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audits": logs, "pagination": pagination(query, total)})
}
