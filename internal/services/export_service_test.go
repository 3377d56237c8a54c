package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func statementShipment() *models.Shipment {
	line := usdLine()
	line.Payments = []models.PaymentEvent{{ID: "p1", Amount: 200, Currency: "USD", Method: models.PaymentMethodCash}}
	line.PaidAmount = 200
	line.PaymentStatus = models.PaymentStatusPartial
	return &models.Shipment{ID: 1, ReferenceNo: "MRN-1", VesselName: "MSC Ayla", Manifest: models.Manifest{line}}
}

func TestExportCSV(t *testing.T) {
	svc := NewExportService(reconciliation.DefaultSettings())

	data, filename, err := svc.ExportCSV(statementShipment())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "shipment_MRN-1_"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, statementHeader, records[1])

	row := records[2]
	assert.Equal(t, "ORD-2024-001", row[0])
	assert.Equal(t, "1200.00", row[7])
	assert.Equal(t, "200.00", row[8])
	assert.Equal(t, "1000.00", row[9])
	assert.Equal(t, models.PaymentStatusPartial, row[11])
}

func TestExportXLSX(t *testing.T) {
	svc := NewExportService(reconciliation.DefaultSettings())

	data, filename, err := svc.ExportXLSX(statementShipment())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Statement", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Akdeniz Lojistik", v)

	remaining, err := f.GetCellValue("Statement", "J4")
	require.NoError(t, err)
	assert.Equal(t, "1000", remaining)
}
