package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// MaxImportSize bounds uploaded manifest spreadsheets (5 MB)
const MaxImportSize = 5 * 1024 * 1024

var (
	ErrImportTooLarge   = errors.New("manifest file is too large")
	ErrMissingColumns   = errors.New("manifest sheet is missing required columns")
	ErrInvalidCellValue = errors.New("manifest sheet has an invalid number")
)

// FileArchive keeps a copy of uploaded files
type FileArchive interface {
	UploadFromBytes(data []byte, filename string, subDir string) (string, error)
}

// ImportResult describes a finished spreadsheet import
type ImportResult struct {
	RowCount    int                   `json:"row_count"`
	Lines       []models.ManifestLine `json:"lines"`
	ArchivePath string                `json:"archive_path,omitempty"`
}

type ImportService struct {
	ordino  *OrdinoService
	archive FileArchive
}

func NewImportService(ordino *OrdinoService, archive FileArchive) *ImportService {
	return &ImportService{ordino: ordino, archive: archive}
}

// ImportXLSX parses the first sheet of an uploaded workbook, merges it into the
// shipment manifest and archives the original file.
func (s *ImportService) ImportXLSX(ctx context.Context, shipmentID uint, filename string, r io.Reader, actorID uint, ip, userAgent string) (*ImportResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, &reconciliation.ValidationError{Err: ErrImportTooLarge}
	}

	rows, err := ParseManifestSheet(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	lines, err := s.ordino.ImportManifest(ctx, shipmentID, rows, actorID, ip, userAgent)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{RowCount: len(rows), Lines: lines}
	if s.archive != nil {
		path, err := s.archive.UploadFromBytes(data, filename, "imports")
		if err != nil {
			logger.Warn("Failed to archive manifest upload", "shipment_id", shipmentID, "file", filename, "error", err)
		} else {
			result.ArchivePath = path
		}
	}
	return result, nil
}

// column aliases, keyed by normalized header text
var importColumns = map[string]string{
	"transport_doc_no": "transport_doc_no",
	"transport_doc":    "transport_doc_no",
	"bl":               "transport_doc_no",
	"bl_no":            "transport_doc_no",
	"b_l_no":           "transport_doc_no",
	"konsimento":       "transport_doc_no",
	"container_no":     "container_no",
	"container":        "container_no",
	"konteyner":        "container_no",
	"customer_name":    "customer_name",
	"customer":         "customer_name",
	"alici":            "customer_name",
	"ordino_no":        "ordino_no",
	"ordino":           "ordino_no",
	"description":      "description",
	"goods":            "description",
	"esya":             "description",
	"packages":         "packages",
	"kap":              "packages",
	"kap_adedi":        "packages",
	"weight_kg":        "weight_kg",
	"weight":           "weight_kg",
	"brut_kg":          "weight_kg",
	"navlun":           "navlun",
	"tahliye":          "tahliye",
	"exworks":          "exworks",
	"currency":         "currency",
	"doviz":            "currency",
}

// ParseManifestSheet reads import rows from the first sheet of a workbook. The
// first non-empty row is the header; blank rows are skipped.
func ParseManifestSheet(r io.Reader) ([]reconciliation.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &reconciliation.ValidationError{Err: ErrMissingColumns, Details: "file is not a readable XLSX workbook"}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &reconciliation.ValidationError{Err: ErrEmptyImport}
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	var header map[string]int
	var rows []reconciliation.ImportRow
	for i, cells := range grid {
		if isBlankRow(cells) {
			continue
		}
		if header == nil {
			header = mapHeader(cells)
			if _, ok := header["customer_name"]; !ok {
				return nil, &reconciliation.ValidationError{Err: ErrMissingColumns, Details: "customer"}
			}
			_, hasDoc := header["transport_doc_no"]
			_, hasContainer := header["container_no"]
			if !hasDoc && !hasContainer {
				return nil, &reconciliation.ValidationError{Err: ErrMissingColumns, Details: "transport document or container"}
			}
			continue
		}

		row, err := parseImportRow(header, cells, i+1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, &reconciliation.ValidationError{Err: ErrEmptyImport}
	}
	return rows, nil
}

func mapHeader(cells []string) map[string]int {
	header := make(map[string]int)
	for i, cell := range cells {
		if field, ok := importColumns[normalizeHeader(cell)]; ok {
			if _, seen := header[field]; !seen {
				header[field] = i
			}
		}
	}
	return header
}

func parseImportRow(header map[string]int, cells []string, rowNo int) (reconciliation.ImportRow, error) {
	cell := func(field string) string {
		idx, ok := header[field]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	var parseErr error
	number := func(field string) float64 {
		raw := cell(field)
		if raw == "" || parseErr != nil {
			return 0
		}
		v, err := parseAmount(raw)
		if err != nil {
			parseErr = &reconciliation.ValidationError{
				Err:     ErrInvalidCellValue,
				Details: fmt.Sprintf("row %d, %s: %q", rowNo, field, raw),
			}
		}
		return v
	}

	row := reconciliation.ImportRow{
		TransportDocNo: cell("transport_doc_no"),
		ContainerNo:    cell("container_no"),
		CustomerName:   cell("customer_name"),
		OrdinoNo:       cell("ordino_no"),
		Description:    cell("description"),
		Packages:       int(number("packages")),
		WeightKg:       number("weight_kg"),
		Navlun:         number("navlun"),
		Tahliye:        number("tahliye"),
		Exworks:        number("exworks"),
		Currency:       cell("currency"),
	}
	return row, parseErr
}

// parseAmount accepts both 1234.56 and the Turkish 1.234,56
func parseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return strconv.ParseFloat(s, 64)
}

var headerReplacer = strings.NewReplacer(
	" ", "_", "/", "_", "-", "_", ".", "",
	"ş", "s", "Ş", "s", "ı", "i", "İ", "i", "ç", "c", "Ç", "c",
	"ö", "o", "Ö", "o", "ü", "u", "Ü", "u", "ğ", "g", "Ğ", "g",
)

func normalizeHeader(s string) string {
	return strings.Trim(headerReplacer.Replace(strings.ToLower(strings.TrimSpace(s))), "_")
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
