package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/repository"
	"gorm.io/gorm"
)

type mockShipmentRepo struct {
	repository.ShipmentRepository
	mu        sync.Mutex
	shipments map[uint]*models.Shipment
	writes    int

	mockUpdateManifest func(ctx context.Context, id uint, expectedVersion int64, manifest models.Manifest) (int64, error)
}

func (m *mockShipmentRepo) FindByID(ctx context.Context, id uint) (*models.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Manifest = append(models.Manifest(nil), s.Manifest...)
	return &cp, nil
}

func (m *mockShipmentRepo) FindByReference(ctx context.Context, referenceNo string) (*models.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shipments {
		if s.ReferenceNo == referenceNo {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShipmentRepo) Create(ctx context.Context, shipment *models.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	shipment.ID = uint(len(m.shipments) + 1)
	m.shipments[shipment.ID] = shipment
	return nil
}

func (m *mockShipmentRepo) UpdateManifest(ctx context.Context, id uint, expectedVersion int64, manifest models.Manifest) (int64, error) {
	if m.mockUpdateManifest != nil {
		return m.mockUpdateManifest(ctx, id, expectedVersion, manifest)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok || s.Version != expectedVersion {
		return 0, repository.ErrStaleVersion
	}
	s.Manifest = manifest
	s.Version++
	m.writes++
	return s.Version, nil
}

// bump simulates a concurrent writer
func (m *mockShipmentRepo) bump(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shipments[id].Version++
}

func (m *mockShipmentRepo) line(id uint, lineID string) models.ManifestLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, _ := m.shipments[id].Line(lineID)
	return l
}

type mockCheckRepo struct {
	repository.CheckRepository
	checks  []*models.CheckInstrument
	creates int

	mockCreate func(ctx context.Context, check *models.CheckInstrument) error
}

func (m *mockCheckRepo) Create(ctx context.Context, check *models.CheckInstrument) error {
	if m.mockCreate != nil {
		if err := m.mockCreate(ctx, check); err != nil {
			return err
		}
	}
	check.ID = uint(len(m.checks) + 1)
	if check.Status == "" {
		check.Status = models.CheckStatusPending
	}
	cp := *check
	m.checks = append(m.checks, &cp)
	m.creates++
	return nil
}

func (m *mockCheckRepo) FindByID(ctx context.Context, id uint) (*models.CheckInstrument, error) {
	for _, c := range m.checks {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckRepo) FindByPaymentEventID(ctx context.Context, paymentEventID string) (*models.CheckInstrument, error) {
	for _, c := range m.checks {
		if c.PaymentEventID == paymentEventID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckRepo) Update(ctx context.Context, check *models.CheckInstrument) error {
	for i, c := range m.checks {
		if c.ID == check.ID {
			cp := *check
			m.checks[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type mockFinanceRepo struct {
	repository.FinanceRepository
	entries []models.FinanceEntry

	mockCreate func(ctx context.Context, entry *models.FinanceEntry) error
	mockTotals func(ctx context.Context, shipmentID *uint) ([]repository.CurrencyTotals, error)
}

func (m *mockFinanceRepo) FindByID(ctx context.Context, id uint) (*models.FinanceEntry, error) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFinanceRepo) Totals(ctx context.Context, shipmentID *uint) ([]repository.CurrencyTotals, error) {
	if m.mockTotals != nil {
		return m.mockTotals(ctx, shipmentID)
	}
	return nil, nil
}

func (m *mockFinanceRepo) Create(ctx context.Context, entry *models.FinanceEntry) error {
	if m.mockCreate != nil {
		if err := m.mockCreate(ctx, entry); err != nil {
			return err
		}
	}
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockFinanceRepo) FindByIntent(ctx context.Context, intentID, source string) (*models.FinanceEntry, error) {
	for i := range m.entries {
		if m.entries[i].IntentID == intentID && m.entries[i].Source == source {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type mockIntentRepo struct {
	repository.IntentRepository
	intents map[string]models.PaymentIntent
	stale   []models.PaymentIntent
}

func (m *mockIntentRepo) Create(ctx context.Context, intent *models.PaymentIntent) error {
	intent.CreatedAt = time.Now()
	m.intents[intent.ID] = *intent
	return nil
}

func (m *mockIntentRepo) FindByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	intent, ok := m.intents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &intent, nil
}

func (m *mockIntentRepo) Update(ctx context.Context, intent *models.PaymentIntent) error {
	m.intents[intent.ID] = *intent
	return nil
}

func (m *mockIntentRepo) FindStalePending(ctx context.Context, before time.Time) ([]models.PaymentIntent, error) {
	return m.stale, nil
}

type mockCustomerRepo struct {
	repository.CustomerRepository
	byKey map[string]*models.Customer
}

func (m *mockCustomerRepo) FindOrCreateByName(ctx context.Context, name string) (*models.Customer, error) {
	key := models.CustomerNameKey(name)
	if c, ok := m.byKey[key]; ok {
		return c, nil
	}
	c := &models.Customer{ID: uint(len(m.byKey) + 1), Name: name, NameKey: key}
	m.byKey[key] = c
	return c, nil
}

type mockAuditRepo struct {
	repository.AuditRepository
	entries []models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

type testEnv struct {
	svc       *OrdinoService
	shipments *mockShipmentRepo
	checks    *mockCheckRepo
	finance   *mockFinanceRepo
	intents   *mockIntentRepo
	customers *mockCustomerRepo
	audit     *mockAuditRepo
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newTestEnv wires an OrdinoService over in-memory repositories holding one
// shipment with a single 1200 USD line.
func newTestEnv() *testEnv {
	env := &testEnv{
		shipments: &mockShipmentRepo{shipments: map[uint]*models.Shipment{
			1: {
				ID:          1,
				ReferenceNo: "MRN-24-0001",
				VesselName:  "MSC Ayla",
				Manifest:    models.Manifest{usdLine()},
				Version:     3,
			},
		}},
		checks:    &mockCheckRepo{},
		finance:   &mockFinanceRepo{},
		intents:   &mockIntentRepo{intents: map[string]models.PaymentIntent{}},
		customers: &mockCustomerRepo{byKey: map[string]*models.Customer{}},
		audit:     &mockAuditRepo{},
	}

	ledger := reconciliation.NewLedger(reconciliation.DefaultSettings(), reconciliation.WithIDGenerator(sequentialIDs()))
	env.svc = NewOrdinoService(env.shipments, env.checks, env.finance, env.intents, env.customers,
		ledger, NewAuditService(env.audit, nil), 15*time.Minute)
	return env
}

func usdLine() models.ManifestLine {
	return models.ManifestLine{
		ID:             "line-1",
		CustomerID:     7,
		CustomerName:   "Akdeniz Lojistik",
		OrdinoNo:       "ORD-2024-001",
		TransportDocNo: "MSCU1234",
		ContainerNo:    "MSKU7654321",
		SavedFees:      models.Fees{Navlun: 1000, Tahliye: 200, Currency: "USD"},
		OfficialFees:   models.Fees{Navlun: 600, Tahliye: 100, Currency: "USD"},
		PaymentStatus:  models.PaymentStatusUnpaid,
	}
}

func cashRequest(amount float64) reconciliation.PaymentRequest {
	return reconciliation.PaymentRequest{
		Method:    models.PaymentMethodCash,
		Amount:    amount,
		Date:      time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		Reference: "RCPT-1",
	}
}
