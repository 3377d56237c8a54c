package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/services"
)

type FinanceHandler struct {
	financeService *services.FinanceService
}

func NewFinanceHandler(financeService *services.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService}
}

// Index lists ledger entries. Filters: type, currency, source, shipment_id, ref_no.
func (h *FinanceHandler) Index(c *gin.Context) {
	query := listQueryFrom(c, "type", "currency", "source", "shipment_id", "ref_no")

	entries, total, err := h.financeService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":    entries,
		"pagination": pagination(query, total),
	})
}

func (h *FinanceHandler) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "entry_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	entry, err := h.financeService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// Totals sums income and expense per currency, optionally for one shipment
func (h *FinanceHandler) Totals(c *gin.Context) {
	var shipmentID *uint
	if raw := c.Query("shipment_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
			return
		}
		v := uint(id)
		shipmentID = &v
	}

	totals, err := h.financeService.Totals(c.Request.Context(), shipmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals})
}
