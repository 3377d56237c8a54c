package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/services"
)

type CustomerHandler struct {
	ordinoService *services.OrdinoService
}

func NewCustomerHandler(ordinoService *services.OrdinoService) *CustomerHandler {
	return &CustomerHandler{ordinoService: ordinoService}
}

func (h *CustomerHandler) Index(c *gin.Context) {
	query := listQueryFrom(c)

	customers, total, err := h.ordinoService.ListCustomers(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers":  customers,
		"pagination": pagination(query, total),
	})
}
