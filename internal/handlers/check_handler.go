package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/services"
)

type CheckHandler struct {
	checkService *services.CheckService
}

func NewCheckHandler(checkService *services.CheckService) *CheckHandler {
	return &CheckHandler{checkService: checkService}
}

// Index lists the check registry. Filters: status, direction, shipment_id, due_before.
func (h *CheckHandler) Index(c *gin.Context) {
	query := listQueryFrom(c, "status", "direction", "shipment_id", "due_before")

	checks, total, err := h.checkService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checks":     checks,
		"pagination": pagination(query, total),
	})
}

// Due lists pending checks falling due within ?days= (default 7), overdue included
func (h *CheckHandler) Due(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative number"})
		return
	}

	checks, err := h.checkService.DueWithin(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}

	overdue := 0
	for i := range checks {
		if checks[i].IsOverdue() {
			overdue++
		}
	}
	c.JSON(http.StatusOK, gin.H{"checks": checks, "overdue": overdue})
}

func (h *CheckHandler) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "check_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid check ID"})
		return
	}

	check, err := h.checkService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check": check})
}

func (h *CheckHandler) Clear(c *gin.Context) {
	h.transition(c, h.checkService.Clear)
}

// Bounce marks a check as returned unpaid. The payment stays on the manifest
// line until an operator reverses it.
func (h *CheckHandler) Bounce(c *gin.Context) {
	h.transition(c, h.checkService.Bounce)
}

type checkTransition func(ctx context.Context, id uint, actorID uint, ip, userAgent string) (*models.CheckInstrument, error)

func (h *CheckHandler) transition(c *gin.Context, fn checkTransition) {
	id, ok := parseIDParam(c, "check_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid check ID"})
		return
	}

	a := actorFrom(c)
	check, err := fn(c.Request.Context(), id, a.UserID, a.IP, a.UserAgent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check": check})
}
