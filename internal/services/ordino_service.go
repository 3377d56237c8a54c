package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/repository"
	"gorm.io/gorm"
)

// CreateShipmentInput holds the header fields of a new shipment
type CreateShipmentInput struct {
	ReferenceNo   string     `json:"reference_no"`
	VesselName    string     `json:"vessel_name"`
	CustomsOffice string     `json:"customs_office"`
	ArrivalDate   *time.Time `json:"arrival_date"`
}

// LineBalance is a manifest line together with its derived balance
type LineBalance struct {
	ShipmentID uint                   `json:"shipment_id"`
	Version    int64                  `json:"version"`
	Line       models.ManifestLine    `json:"line"`
	Balance    reconciliation.Balance `json:"balance"`
}

// OrdinoService owns shipments and their manifest lines. Every write goes
// through the reconciliation ledger and lands with an optimistic version check.
type OrdinoService struct {
	shipments  repository.ShipmentRepository
	checks     repository.CheckRepository
	finance    repository.FinanceRepository
	intents    repository.IntentRepository
	customers  repository.CustomerRepository
	ledger     *reconciliation.Ledger
	auditSvc   *AuditService
	staleAfter time.Duration
}

func NewOrdinoService(
	shipments repository.ShipmentRepository,
	checks repository.CheckRepository,
	finance repository.FinanceRepository,
	intents repository.IntentRepository,
	customers repository.CustomerRepository,
	ledger *reconciliation.Ledger,
	auditSvc *AuditService,
	staleAfter time.Duration,
) *OrdinoService {
	return &OrdinoService{
		shipments:  shipments,
		checks:     checks,
		finance:    finance,
		intents:    intents,
		customers:  customers,
		ledger:     ledger,
		auditSvc:   auditSvc,
		staleAfter: staleAfter,
	}
}

// Settings returns the reconciliation settings in effect
func (s *OrdinoService) Settings() reconciliation.Settings {
	return s.ledger.Settings()
}

func (s *OrdinoService) GetShipment(ctx context.Context, id uint) (*models.Shipment, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return shipment, nil
}

func (s *OrdinoService) ListShipments(ctx context.Context, query *repository.ListQuery) ([]models.ShipmentSummary, int64, error) {
	shipments, total, err := s.shipments.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]models.ShipmentSummary, 0, len(shipments))
	for i := range shipments {
		summaries = append(summaries, shipments[i].ToSummary())
	}
	return summaries, total, nil
}

func (s *OrdinoService) CreateShipment(ctx context.Context, input CreateShipmentInput, actorID uint, ip, userAgent string) (*models.Shipment, error) {
	ref := strings.TrimSpace(input.ReferenceNo)
	if ref == "" {
		return nil, &reconciliation.ValidationError{Err: ErrReferenceRequired}
	}
	if input.CustomsOffice != "" && !s.ledger.Settings().AllowsCustomsOffice(input.CustomsOffice) {
		return nil, &reconciliation.ValidationError{Err: ErrCustomsOffice, Details: input.CustomsOffice}
	}

	if _, err := s.shipments.FindByReference(ctx, ref); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	shipment := &models.Shipment{
		ReferenceNo:   ref,
		VesselName:    strings.TrimSpace(input.VesselName),
		CustomsOffice: strings.TrimSpace(input.CustomsOffice),
		ArrivalDate:   input.ArrivalDate,
		Manifest:      models.Manifest{},
		Version:       1,
	}
	if err := s.shipments.Create(ctx, shipment); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "Shipment", idString(shipment.ID),
		fmt.Sprintf("Created shipment %s", shipment.ReferenceNo), ip, userAgent)
	return shipment, nil
}

// LineBalance reads the freshest shipment and derives the line's balance
func (s *OrdinoService) LineBalance(ctx context.Context, shipmentID uint, lineID string) (*LineBalance, error) {
	shipment, line, err := s.loadLine(ctx, shipmentID, lineID)
	if err != nil {
		return nil, err
	}
	return &LineBalance{
		ShipmentID: shipment.ID,
		Version:    shipment.Version,
		Line:       line,
		Balance:    s.ledger.Settings().Balance(&line),
	}, nil
}

// UpdateSavedFees replaces the fees payments are reconciled against
func (s *OrdinoService) UpdateSavedFees(ctx context.Context, shipmentID uint, lineID string, fees models.Fees, actorID uint, ip, userAgent string) (*LineBalance, error) {
	return s.updateLine(ctx, shipmentID, lineID, actorID, ip, userAgent, "saved", func(line models.ManifestLine) (models.ManifestLine, error) {
		return s.ledger.UpdateSavedFees(line, normalizeFees(fees))
	})
}

// UpdateOfficialFees replaces the fees declared to customs
func (s *OrdinoService) UpdateOfficialFees(ctx context.Context, shipmentID uint, lineID string, fees models.Fees, actorID uint, ip, userAgent string) (*LineBalance, error) {
	return s.updateLine(ctx, shipmentID, lineID, actorID, ip, userAgent, "official", func(line models.ManifestLine) (models.ManifestLine, error) {
		return s.ledger.UpdateOfficialFees(line, normalizeFees(fees))
	})
}

func (s *OrdinoService) updateLine(ctx context.Context, shipmentID uint, lineID string, actorID uint, ip, userAgent, kind string,
	apply func(models.ManifestLine) (models.ManifestLine, error)) (*LineBalance, error) {
	shipment, line, err := s.loadLine(ctx, shipmentID, lineID)
	if err != nil {
		return nil, err
	}

	updated, err := apply(line)
	if err != nil {
		return nil, err
	}

	manifest, _ := shipment.Manifest.Replace(updated)
	version, err := s.writeManifestVersion(ctx, shipment, manifest)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionUpdateFees, "Shipment", idString(shipment.ID),
		fmt.Sprintf("Updated %s fees of line %s (%s)", kind, line.ID, line.OrdinoNo), ip, userAgent)

	return &LineBalance{
		ShipmentID: shipment.ID,
		Version:    version,
		Line:       updated,
		Balance:    s.ledger.Settings().Balance(&updated),
	}, nil
}

// ImportManifest merges extracted rows into manifest lines and appends them to
// the shipment. Customers are resolved by name and created when unknown.
func (s *OrdinoService) ImportManifest(ctx context.Context, shipmentID uint, rows []reconciliation.ImportRow, actorID uint, ip, userAgent string) ([]models.ManifestLine, error) {
	if len(rows) == 0 {
		return nil, &reconciliation.ValidationError{Err: ErrEmptyImport}
	}

	shipment, err := s.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(shipment.Manifest))
	for _, line := range shipment.Manifest {
		existing[reconciliation.LineKey(line.TransportDocNo, line.ContainerNo)] = true
	}
	for i, row := range rows {
		if existing[reconciliation.LineKey(row.TransportDocNo, row.ContainerNo)] {
			return nil, &reconciliation.ValidationError{
				Err:     ErrDuplicateLine,
				Details: fmt.Sprintf("row %d (%s / %s)", i+1, row.TransportDocNo, row.ContainerNo),
			}
		}
	}

	lines, err := s.ledger.MergeManifestRows(rows, func(name string) (*models.Customer, error) {
		return s.customers.FindOrCreateByName(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	manifest := make(models.Manifest, 0, len(shipment.Manifest)+len(lines))
	manifest = append(manifest, shipment.Manifest...)
	manifest = append(manifest, lines...)

	if _, err := s.writeManifestVersion(ctx, shipment, manifest); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionImport, "Shipment", idString(shipment.ID),
		fmt.Sprintf("Imported %d rows into %d manifest lines", len(rows), len(lines)), ip, userAgent)
	return lines, nil
}

// ListCustomers lists the customer directory built by imports
func (s *OrdinoService) ListCustomers(ctx context.Context, query *repository.ListQuery) ([]models.Customer, int64, error) {
	return s.customers.List(ctx, query)
}

// loadLine always reads the shipment from the store; callers never pass a cached copy
func (s *OrdinoService) loadLine(ctx context.Context, shipmentID uint, lineID string) (*models.Shipment, models.ManifestLine, error) {
	shipment, err := s.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, models.ManifestLine{}, err
	}
	line, ok := shipment.Line(lineID)
	if !ok {
		return nil, models.ManifestLine{}, ErrLineNotFound
	}
	return shipment, line, nil
}

func (s *OrdinoService) writeManifestVersion(ctx context.Context, shipment *models.Shipment, manifest models.Manifest) (int64, error) {
	version, err := s.shipments.UpdateManifest(ctx, shipment.ID, shipment.Version, manifest)
	if errors.Is(err, repository.ErrStaleVersion) {
		return 0, ErrStaleManifest
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write manifest: %w", err)
	}
	return version, nil
}

func normalizeFees(fees models.Fees) models.Fees {
	fees.Currency = strings.ToUpper(strings.TrimSpace(fees.Currency))
	return fees
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
