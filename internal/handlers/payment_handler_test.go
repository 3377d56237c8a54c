package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paymentsPath = "/shipments/1/lines/line-1/payments"

func (ts *testServer) do(method, path, body, idemKey string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if idemKey != "" {
		req.Header.Set(IdempotencyHeader, idemKey)
	}
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPaymentHandler_Record(t *testing.T) {
	ts := newTestServer()

	w := ts.do("POST", paymentsPath, `{"payment": {"method": "Cash", "amount": 200, "date": "2024-03-14"}}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.NotEmpty(t, body["intent_id"])
	balance := body["balance"].(map[string]interface{})
	assert.Equal(t, 1000.0, balance["remaining"])
	assert.Equal(t, models.PaymentStatusPartial, balance["status"])
	assert.Len(t, ts.finance.entries, 1)
}

func TestPaymentHandler_RecordErrors(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
	}{
		{"Overpayment", paymentsPath, `{"method": "Cash", "amount": 1300}`, http.StatusUnprocessableEntity},
		{"Unknown method", paymentsPath, `{"method": "Barter", "amount": 10}`, http.StatusUnprocessableEntity},
		{"Incomplete check", paymentsPath, `{"method": "Check", "checks": [{"check_no": "C-1", "amount": 10, "bank_name": "B"}]}`, http.StatusUnprocessableEntity},
		{"Bad date", paymentsPath, `{"method": "Cash", "amount": 10, "date": "yesterday"}`, http.StatusBadRequest},
		{"Bad shipment id", "/shipments/abc/lines/line-1/payments", `{"method": "Cash", "amount": 10}`, http.StatusBadRequest},
		{"Unknown shipment", "/shipments/9/lines/line-1/payments", `{"method": "Cash", "amount": 10}`, http.StatusNotFound},
		{"Unknown line", "/shipments/1/lines/line-9/payments", `{"method": "Cash", "amount": 10}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			w := ts.do("POST", tt.path, tt.body, "")
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Empty(t, ts.finance.entries)
			assert.Empty(t, ts.intents.intents)
		})
	}
}

func TestPaymentHandler_OverpaymentBody(t *testing.T) {
	ts := newTestServer()

	w := ts.do("POST", paymentsPath, `{"method": "Cash", "amount": 1300}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode(t, w)
	assert.Equal(t, 1300.0, body["attempted"])
	assert.Equal(t, 1200.0, body["remaining"])
}

func TestPaymentHandler_IdempotentReplay(t *testing.T) {
	ts := newTestServer()
	payload := `{"method": "Cash", "amount": 300}`

	first := ts.do("POST", paymentsPath, payload, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := ts.do("POST", paymentsPath, payload, "key-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode(t, first)["intent_id"], decode(t, second)["intent_id"])

	assert.Len(t, ts.finance.entries, 1)
	line, _ := ts.shipments.shipment.Line("line-1")
	assert.Len(t, line.Payments, 1)
}

func TestPaymentHandler_KeyInFlight(t *testing.T) {
	ts := newTestServer()
	reserved, err := ts.idem.Reserve(context.Background(), "5:"+paymentsPath+":key-2", time.Hour)
	require.NoError(t, err)
	require.True(t, reserved)

	w := ts.do("POST", paymentsPath, `{"method": "Cash", "amount": 300}`, "key-2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, ts.finance.entries)
}

func TestPaymentHandler_ValidationReleasesKey(t *testing.T) {
	ts := newTestServer()

	w := ts.do("POST", paymentsPath, `{"method": "Cash", "amount": 5000}`, "key-3")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = ts.do("POST", paymentsPath, `{"method": "Cash", "amount": 500}`, "key-3")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPaymentHandler_PartialFailureThenRetry(t *testing.T) {
	ts := newTestServer()
	ts.finance.mockCreate = func(ctx context.Context, entry *models.FinanceEntry) error {
		return errors.New("ledger unavailable")
	}

	w := ts.do("POST", paymentsPath, `{"method": "Cash", "amount": 400}`, "key-4")
	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	intentID, _ := body["intent_id"].(string)
	require.NotEmpty(t, intentID)
	assert.Equal(t, models.IntentStepLedger, body["failed_step"])

	// same key replays the failure instead of creating a second intent
	again := ts.do("POST", paymentsPath, `{"method": "Cash", "amount": 400}`, "key-4")
	assert.Equal(t, http.StatusBadGateway, again.Code)
	assert.Len(t, ts.intents.intents, 1)

	ts.finance.mockCreate = nil
	w = ts.do("POST", "/intents/"+intentID+"/retry", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.IntentStatusCompleted, ts.intents.intents[intentID].Status)

	w = ts.do("POST", "/intents/"+intentID+"/abandon", `{"reason": "late"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPaymentHandler_Reverse(t *testing.T) {
	ts := newTestServer()

	w := ts.do("POST", paymentsPath, `{"method": "BankTransfer", "amount": 1200, "reference": "EFT-9"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	line, _ := ts.shipments.shipment.Line("line-1")
	require.Len(t, line.Payments, 1)

	w = ts.do("POST", paymentsPath+"/"+line.Payments[0].ID+"/reverse", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, ts.finance.entries, 2)
	assert.Equal(t, models.FinanceTypeExpense, ts.finance.entries[1].Type)

	w = ts.do("POST", paymentsPath+"/missing/reverse", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &reconciliation.ValidationError{Err: reconciliation.ErrInvalidAmount}, http.StatusUnprocessableEntity},
		{"overpayment", &reconciliation.OverpaymentError{Attempted: 2, Remaining: 1}, http.StatusUnprocessableEntity},
		{"incomplete check", &reconciliation.IncompleteCheckError{Index: 0, Field: "date"}, http.StatusUnprocessableEntity},
		{"payment not found", &reconciliation.NotFoundError{PaymentID: "p"}, http.StatusNotFound},
		{"record not found", services.ErrNotFound, http.StatusNotFound},
		{"line not found", services.ErrLineNotFound, http.StatusNotFound},
		{"stale", services.ErrStaleManifest, http.StatusConflict},
		{"duplicate", services.ErrDuplicate, http.StatusConflict},
		{"partial", &services.PartialFailureError{IntentID: "i", Step: "ledger", Err: errors.New("x")}, http.StatusBadGateway},
		{"partial stale", &services.PartialFailureError{IntentID: "i", Step: "manifest", Err: services.ErrStaleManifest}, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := errorResponse(tt.err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestShipmentHandler_BalanceAndExport(t *testing.T) {
	ts := newTestServer()

	w := ts.do("GET", "/shipments/1/lines/line-1/balance", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	balance := decode(t, w)["balance"].(map[string]interface{})
	assert.Equal(t, 1200.0, balance["total_debt"])

	w = ts.do("GET", "/shipments/1/export?format=csv", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "ORD-2024-001")

	w = ts.do("GET", "/shipments/1/export?format=pdf", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("GET", "/shipments/2", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
