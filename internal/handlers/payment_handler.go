package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/cache"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/services"
	"github.com/sjperalta/ordino-api/pkg/logger"
)

// IdempotencyHeader lets clients resend a payment safely
const IdempotencyHeader = "Idempotency-Key"

type PaymentHandler struct {
	ordinoService *services.OrdinoService
	idem          cache.IdempotencyStore
	idemTTL       time.Duration
}

func NewPaymentHandler(ordinoService *services.OrdinoService, idem cache.IdempotencyStore, idemTTL time.Duration) *PaymentHandler {
	return &PaymentHandler{ordinoService: ordinoService, idem: idem, idemTTL: idemTTL}
}

type CheckItemRequest struct {
	CheckNo  string  `json:"check_no"`
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	BankName string  `json:"bank_name"`
}

// RecordPaymentRequest accepts dates as YYYY-MM-DD or RFC3339
type RecordPaymentRequest struct {
	Method    string             `json:"method"`
	Amount    float64            `json:"amount"`
	Date      string             `json:"date"`
	Reference string             `json:"reference"`
	Checks    []CheckItemRequest `json:"checks"`
}

func (r *RecordPaymentRequest) toPaymentRequest() (reconciliation.PaymentRequest, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return reconciliation.PaymentRequest{}, fmt.Errorf("invalid date %q", r.Date)
	}

	req := reconciliation.PaymentRequest{
		Method:    strings.TrimSpace(r.Method),
		Amount:    r.Amount,
		Date:      date,
		Reference: r.Reference,
	}
	for i, item := range r.Checks {
		due, err := parseDate(item.Date)
		if err != nil {
			return reconciliation.PaymentRequest{}, fmt.Errorf("invalid date %q on check #%d", item.Date, i+1)
		}
		req.Checks = append(req.Checks, reconciliation.CheckItem{
			CheckNo:  item.CheckNo,
			Date:     due,
			Amount:   item.Amount,
			BankName: item.BankName,
		})
	}
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Record adds a payment to a manifest line. Accepts {"payment": {...}} or a flat body.
func (h *PaymentHandler) Record(c *gin.Context) {
	shipmentID, ok := parseIDParam(c, "shipment_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
		return
	}

	var body RecordPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req, err := body.toPaymentRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a := actorFrom(c)
	h.idempotent(c, func(ctx context.Context) (int, interface{}, error) {
		outcome, err := h.ordinoService.RecordPayment(ctx, shipmentID, c.Param("line_id"), req, a.UserID, a.IP, a.UserAgent)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, outcome, nil
	})
}

// Reverse removes one payment event from a line
func (h *PaymentHandler) Reverse(c *gin.Context) {
	shipmentID, ok := parseIDParam(c, "shipment_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipment ID"})
		return
	}

	a := actorFrom(c)
	h.idempotent(c, func(ctx context.Context) (int, interface{}, error) {
		outcome, err := h.ordinoService.ReversePayment(ctx, shipmentID, c.Param("line_id"), c.Param("payment_id"), a.UserID, a.IP, a.UserAgent)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, outcome, nil
	})
}

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// idempotent runs fn at most once per Idempotency-Key. Successful and
// partially failed responses are stored and replayed; any other failure
// releases the key so the client can correct the request and resend it.
func (h *PaymentHandler) idempotent(c *gin.Context, fn func(ctx context.Context) (int, interface{}, error)) {
	ctx := c.Request.Context()
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if key == "" || h.idem == nil {
		status, body := runHandler(ctx, fn)
		h.write(c, status, body)
		return
	}

	scoped := fmt.Sprintf("%d:%s:%s", actorFrom(c).UserID, c.Request.URL.Path, key)
	reserved, err := h.idem.Reserve(ctx, scoped, h.idemTTL)
	if err != nil {
		logger.Error("Idempotency store unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "idempotency store unavailable, retry later"})
		return
	}

	if !reserved {
		raw, done, err := h.idem.Lookup(ctx, scoped)
		switch {
		case err != nil:
			logger.Error("Idempotency lookup failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "idempotency store unavailable, retry later"})
		case !done:
			c.JSON(http.StatusConflict, gin.H{"error": "a request with this Idempotency-Key is still being processed"})
		default:
			var stored storedResponse
			if err := json.Unmarshal(raw, &stored); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
		}
		return
	}

	status, body := runHandler(ctx, fn)

	// The key store must settle even if the client went away.
	storeCtx := context.WithoutCancel(ctx)
	if status < 300 || isPartialFailure(body) {
		encoded, err := json.Marshal(body)
		if err == nil {
			encoded, err = json.Marshal(storedResponse{Status: status, Body: encoded})
		}
		if err == nil {
			err = h.idem.Complete(storeCtx, scoped, encoded, h.idemTTL)
		}
		if err != nil {
			logger.Warn("Failed to store idempotent response", "key", key, "error", err)
		}
	} else if err := h.idem.Release(storeCtx, scoped); err != nil {
		logger.Warn("Failed to release idempotency key", "key", key, "error", err)
	}

	h.write(c, status, body)
}

func (h *PaymentHandler) write(c *gin.Context, status int, body interface{}) {
	if m, ok := body.(gin.H); ok {
		if id, ok := m["intent_id"].(string); ok {
			c.Set("intentID", id)
		}
	}
	c.JSON(status, body)
}

func runHandler(ctx context.Context, fn func(ctx context.Context) (int, interface{}, error)) (int, interface{}) {
	status, body, err := fn(ctx)
	if err == nil {
		return status, body
	}
	status, h := errorResponse(err)
	if status == http.StatusInternalServerError {
		logger.Error("Payment request failed", "error", err)
	}
	var partial *services.PartialFailureError
	if errors.As(err, &partial) {
		h["partial_failure"] = true
	}
	return status, h
}

func isPartialFailure(body interface{}) bool {
	m, ok := body.(gin.H)
	if !ok {
		return false
	}
	partial, _ := m["partial_failure"].(bool)
	return partial
}
