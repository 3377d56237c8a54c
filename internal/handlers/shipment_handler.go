package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/services"
)

type ShipmentHandler struct {
	ordinoService *services.OrdinoService
	exportService *services.ExportService
}

func NewShipmentHandler(ordinoService *services.OrdinoService, exportService *services.ExportService) *ShipmentHandler {
	return &ShipmentHandler{ordinoService: ordinoService, exportService: exportService}
}

// Index lists shipments. Filters: search (reference or vessel), customs_office.
func (h *ShipmentHandler) Index(c *gin.Context) {
	query := listQueryFrom(c, "customs_office")

	shipments, total, err := h.ordinoService.ListShipments(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shipments":  shipments,
		"pagination": pagination(query, total),
	})
}

func (h *ShipmentHandler) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "shipment_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
		return
	}

	shipment, err := h.ordinoService.GetShipment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	settings := h.ordinoService.Settings()
	balances := make(map[string]interface{}, len(shipment.Manifest))
	for i := range shipment.Manifest {
		line := &shipment.Manifest[i]
		balances[line.ID] = settings.Balance(line)
	}

	c.JSON(http.StatusOK, gin.H{"shipment": shipment, "balances": balances})
}

func (h *ShipmentHandler) Create(c *gin.Context) {
	var input services.CreateShipmentInput
	if err := BindNestedOrFlat(c, "shipment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	a := actorFrom(c)
	shipment, err := h.ordinoService.CreateShipment(c.Request.Context(), input, a.UserID, a.IP, a.UserAgent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"shipment": shipment})
}

// LineBalance returns total debt, paid, remaining and status of one manifest line
func (h *ShipmentHandler) LineBalance(c *gin.Context) {
	id, ok := parseIDParam(c, "shipment_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
		return
	}

	balance, err := h.ordinoService.LineBalance(c.Request.Context(), id, c.Param("line_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *ShipmentHandler) UpdateSavedFees(c *gin.Context) {
	h.updateFees(c, h.ordinoService.UpdateSavedFees)
}

func (h *ShipmentHandler) UpdateOfficialFees(c *gin.Context) {
	h.updateFees(c, h.ordinoService.UpdateOfficialFees)
}

type feeUpdater func(ctx context.Context, shipmentID uint, lineID string, fees models.Fees, actorID uint, ip, userAgent string) (*services.LineBalance, error)

func (h *ShipmentHandler) updateFees(c *gin.Context, update feeUpdater) {
	id, ok := parseIDParam(c, "shipment_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
		return
	}

	var fees models.Fees
	if err := BindNestedOrFlat(c, "fees", &fees); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	a := actorFrom(c)
	balance, err := update(c.Request.Context(), id, c.Param("line_id"), fees, a.UserID, a.IP, a.UserAgent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// Export downloads the shipment statement as csv (default) or xlsx
func (h *ShipmentHandler) Export(c *gin.Context) {
	id, ok := parseIDParam(c, "shipment_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
		return
	}

	shipment, err := h.ordinoService.GetShipment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var (
		data        []byte
		filename    string
		contentType string
	)
	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "csv":
		data, filename, err = h.exportService.ExportCSV(shipment)
		contentType = "text/csv"
	case "xlsx":
		data, filename, err = h.exportService.ExportXLSX(shipment)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}
