package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/services"
)

// IntentHandler exposes payment intents so operators can retry or abandon
// transactions that failed halfway.
type IntentHandler struct {
	ordinoService *services.OrdinoService
}

func NewIntentHandler(ordinoService *services.OrdinoService) *IntentHandler {
	return &IntentHandler{ordinoService: ordinoService}
}

// Index lists intents. Filters: status, shipment_id, operation.
func (h *IntentHandler) Index(c *gin.Context) {
	query := listQueryFrom(c, "status", "shipment_id", "operation")

	intents, total, err := h.ordinoService.ListIntents(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"intents":    intents,
		"pagination": pagination(query, total),
	})
}

func (h *IntentHandler) Show(c *gin.Context) {
	intent, err := h.ordinoService.GetIntent(c.Request.Context(), c.Param("intent_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intent": intent})
}

func (h *IntentHandler) Retry(c *gin.Context) {
	a := actorFrom(c)
	c.Set("intentID", c.Param("intent_id"))

	outcome, err := h.ordinoService.RetryIntent(c.Request.Context(), c.Param("intent_id"), a.UserID, a.IP, a.UserAgent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type AbandonIntentRequest struct {
	Reason string `json:"reason"`
}

func (h *IntentHandler) Abandon(c *gin.Context) {
	var req AbandonIntentRequest
	if err := BindNestedOrFlat(c, "intent", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	a := actorFrom(c)
	intent, err := h.ordinoService.AbandonIntent(c.Request.Context(), c.Param("intent_id"), req.Reason, a.UserID, a.IP, a.UserAgent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intent": intent})
}
