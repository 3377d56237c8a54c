package reconciliation

import (
	"fmt"
	"strings"

	"github.com/sjperalta/ordino-api/internal/models"
)

// ImportRow is one extracted manifest row from a spreadsheet or an upstream extractor
type ImportRow struct {
	TransportDocNo string  `json:"transport_doc_no"`
	ContainerNo    string  `json:"container_no"`
	CustomerName   string  `json:"customer_name"`
	OrdinoNo       string  `json:"ordino_no"`
	Description    string  `json:"description"`
	Packages       int     `json:"packages"`
	WeightKg       float64 `json:"weight_kg"`
	Navlun         float64 `json:"navlun"`
	Tahliye        float64 `json:"tahliye"`
	Exworks        float64 `json:"exworks"`
	Currency       string  `json:"currency"`
}

// LineKey is the grouping key of a manifest line: transport document and
// container number, trimmed and case-insensitive.
func LineKey(transportDocNo, containerNo string) string {
	return strings.ToUpper(strings.TrimSpace(transportDocNo)) + "\x00" + strings.ToUpper(strings.TrimSpace(containerNo))
}

// CustomerResolver finds or creates the customer for a name
type CustomerResolver func(name string) (*models.Customer, error)

// MergeManifestRows groups rows by (transport document, container) and builds
// one manifest line per group, in first-seen order. Fee components of a group
// are summed and the group's customer comes from its first row. Rows of one
// group must share a currency; rows without one inherit it.
func (l *Ledger) MergeManifestRows(rows []ImportRow, resolve CustomerResolver) ([]models.ManifestLine, error) {
	var order []string
	groups := make(map[string]*models.ManifestLine)

	for i, row := range rows {
		docNo := strings.TrimSpace(row.TransportDocNo)
		containerNo := strings.TrimSpace(row.ContainerNo)
		if docNo == "" && containerNo == "" {
			return nil, &ValidationError{Err: ErrMissingImportKey, Details: fmt.Sprintf("row %d", i+1)}
		}
		customerName := strings.Join(strings.Fields(row.CustomerName), " ")
		if customerName == "" {
			return nil, &ValidationError{Err: ErrMissingCustomer, Details: fmt.Sprintf("row %d", i+1)}
		}

		key := LineKey(docNo, containerNo)
		g, ok := groups[key]
		if !ok {
			g = &models.ManifestLine{
				ID:             l.newID(),
				CustomerName:   customerName,
				OrdinoNo:       strings.TrimSpace(row.OrdinoNo),
				TransportDocNo: docNo,
				ContainerNo:    containerNo,
				PaymentStatus:  models.PaymentStatusUnpaid,
				Payments:       []models.PaymentEvent{},
			}
			groups[key] = g
			order = append(order, key)
		}

		if row.Description != "" || row.Packages != 0 || row.WeightKg != 0 {
			g.Goods = append(g.Goods, models.GoodsItem{
				Description: strings.TrimSpace(row.Description),
				Packages:    row.Packages,
				WeightKg:    row.WeightKg,
			})
		}
		currency := strings.ToUpper(strings.TrimSpace(row.Currency))
		if currency != "" && g.SavedFees.Currency != "" && currency != g.SavedFees.Currency {
			return nil, &ValidationError{
				Err:     ErrMixedCurrency,
				Details: fmt.Sprintf("row %d: %s on a %s line", i+1, currency, g.SavedFees.Currency),
			}
		}
		if g.SavedFees.Currency == "" {
			g.SavedFees.Currency = currency
		}
		g.SavedFees.Navlun = roundCents(g.SavedFees.Navlun + nonNegative(row.Navlun))
		g.SavedFees.Tahliye = roundCents(g.SavedFees.Tahliye + nonNegative(row.Tahliye))
		g.SavedFees.Exworks = roundCents(g.SavedFees.Exworks + nonNegative(row.Exworks))
		if g.OrdinoNo == "" {
			g.OrdinoNo = strings.TrimSpace(row.OrdinoNo)
		}
	}

	lines := make([]models.ManifestLine, 0, len(order))
	for _, key := range order {
		line := *groups[key]
		if resolve != nil {
			customer, err := resolve(line.CustomerName)
			if err != nil {
				return nil, fmt.Errorf("resolve customer %q: %w", line.CustomerName, err)
			}
			line.CustomerID = customer.ID
			line.CustomerName = customer.Name
		}
		line.OfficialFees.Currency = line.SavedFees.Currency
		l.settings.recompute(&line)
		lines = append(lines, line)
	}
	return lines, nil
}
