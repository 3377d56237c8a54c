package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/services"
)

type ImportHandler struct {
	ordinoService *services.OrdinoService
	importService *services.ImportService
}

func NewImportHandler(ordinoService *services.OrdinoService, importService *services.ImportService) *ImportHandler {
	return &ImportHandler{ordinoService: ordinoService, importService: importService}
}

type ImportRowsRequest struct {
	Rows []reconciliation.ImportRow `json:"rows"`
}

// Rows merges already extracted rows into the shipment manifest
func (h *ImportHandler) Rows(c *gin.Context) {
	shipmentID, ok := parseIDParam(c, "shipment_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
		return
	}

	var req ImportRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	a := actorFrom(c)
	lines, err := h.ordinoService.ImportManifest(c.Request.Context(), shipmentID, req.Rows, a.UserID, a.IP, a.UserAgent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"row_count": len(req.Rows), "lines": lines})
}

// Upload imports the first sheet of an XLSX workbook sent as the "file" form field
func (h *ImportHandler) Upload(c *gin.Context) {
	shipmentID, ok := parseIDParam(c, "shipment_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	if header.Size > services.MaxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .xlsx files are accepted"})
		return
	}

	a := actorFrom(c)
	result, err := h.importService.ImportXLSX(c.Request.Context(), shipmentID, header.Filename, file, a.UserID, a.IP, a.UserAgent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
