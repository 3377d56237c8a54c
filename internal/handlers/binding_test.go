package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		body        string
		expected    RecordPaymentRequest
		expectError bool
	}{
		{
			name:     "Nested payment",
			body:     `{"payment": {"method": "Cash", "amount": 250.5, "reference": "R-1"}}`,
			expected: RecordPaymentRequest{Method: "Cash", Amount: 250.5, Reference: "R-1"},
		},
		{
			name:     "Flat payment",
			body:     `{"method": "BankTransfer", "amount": 100}`,
			expected: RecordPaymentRequest{Method: "BankTransfer", Amount: 100},
		},
		{
			name: "Flat payment with checks",
			body: `{"method": "Check", "checks": [{"check_no": "C-1", "date": "2024-05-01", "amount": 700, "bank_name": "Ziraat"}]}`,
			expected: RecordPaymentRequest{Method: "Check", Checks: []CheckItemRequest{
				{CheckNo: "C-1", Date: "2024-05-01", Amount: 700, BankName: "Ziraat"},
			}},
		},
		{
			name:     "Empty body",
			body:     ``,
			expected: RecordPaymentRequest{},
		},
		{
			name:        "Wrong type",
			body:        `{"method": "Cash", "amount": "a lot"}`,
			expectError: true,
		},
		{
			name:        "Nested wrong type",
			body:        `{"payment": {"amount": "a lot"}}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))

			var req RecordPaymentRequest
			err := BindNestedOrFlat(c, "payment", &req)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req)
		})
	}
}

func TestRecordPaymentRequest_Dates(t *testing.T) {
	body := RecordPaymentRequest{
		Method: "Check",
		Date:   "2024-03-14",
		Checks: []CheckItemRequest{{CheckNo: "C-1", Date: "2024-05-01T00:00:00Z", Amount: 10, BankName: "B"}},
	}
	req, err := body.toPaymentRequest()
	require.NoError(t, err)
	assert.Equal(t, 14, req.Date.Day())
	assert.Equal(t, 5, int(req.Checks[0].Date.Month()))

	body.Checks[0].Date = "01/05/2024"
	_, err = body.toPaymentRequest()
	assert.Error(t, err)
}
