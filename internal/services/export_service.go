package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/xuri/excelize/v2"
)

var statementHeader = []string{
	"Ordino No", "Customer", "Transport Doc", "Container",
	"Navlun", "Tahliye", "Exworks", "Total Debt", "Paid", "Remaining", "Currency", "Status",
}

// ExportService renders shipment statements: one row per manifest line with its balance
type ExportService struct {
	settings reconciliation.Settings
}

func NewExportService(settings reconciliation.Settings) *ExportService {
	return &ExportService{settings: settings}
}

func (s *ExportService) ExportCSV(shipment *models.Shipment) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Shipment", shipment.ReferenceNo, shipment.VesselName, time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write(statementHeader)

	for i := range shipment.Manifest {
		line := &shipment.Manifest[i]
		b := s.settings.Balance(line)
		_ = writer.Write([]string{
			line.OrdinoNo,
			line.CustomerName,
			line.TransportDocNo,
			line.ContainerNo,
			fmt.Sprintf("%.2f", line.SavedFees.Navlun),
			fmt.Sprintf("%.2f", line.SavedFees.Tahliye),
			fmt.Sprintf("%.2f", line.SavedFees.Exworks),
			fmt.Sprintf("%.2f", b.TotalDebt),
			fmt.Sprintf("%.2f", b.PaidAmount),
			fmt.Sprintf("%.2f", b.Remaining),
			b.Currency,
			b.Status,
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), statementFilename(shipment, "csv"), nil
}

func (s *ExportService) ExportXLSX(shipment *models.Shipment) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Statement"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Shipment %s - %s", shipment.ReferenceNo, shipment.VesselName))
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	for col, title := range statementHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 3)
		_ = f.SetCellValue(sheet, cell, title)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(statementHeader), 3)
	_ = f.SetCellStyle(sheet, "A3", lastCol, headerStyle)

	for i := range shipment.Manifest {
		line := &shipment.Manifest[i]
		b := s.settings.Balance(line)
		values := []interface{}{
			line.OrdinoNo, line.CustomerName, line.TransportDocNo, line.ContainerNo,
			line.SavedFees.Navlun, line.SavedFees.Tahliye, line.SavedFees.Exworks,
			b.TotalDebt, b.PaidAmount, b.Remaining, b.Currency, b.Status,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	return buf.Bytes(), statementFilename(shipment, "xlsx"), nil
}

func statementFilename(shipment *models.Shipment, ext string) string {
	return fmt.Sprintf("shipment_%s_%s.%s", shipment.ReferenceNo, time.Now().Format("2006-01-02"), ext)
}
