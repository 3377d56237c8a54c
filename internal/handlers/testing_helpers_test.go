package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/cache"
	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/sjperalta/ordino-api/internal/services"
	"gorm.io/gorm"
)

type mockShipmentRepo struct {
	repository.ShipmentRepository
	shipment *models.Shipment
}

func (m *mockShipmentRepo) FindByID(ctx context.Context, id uint) (*models.Shipment, error) {
	if m.shipment == nil || m.shipment.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.shipment
	cp.Manifest = append(models.Manifest(nil), m.shipment.Manifest...)
	return &cp, nil
}

func (m *mockShipmentRepo) UpdateManifest(ctx context.Context, id uint, expectedVersion int64, manifest models.Manifest) (int64, error) {
	if m.shipment.Version != expectedVersion {
		return 0, repository.ErrStaleVersion
	}
	m.shipment.Manifest = manifest
	m.shipment.Version++
	return m.shipment.Version, nil
}

type mockCheckRepo struct {
	repository.CheckRepository
	checks []models.CheckInstrument
}

func (m *mockCheckRepo) Create(ctx context.Context, check *models.CheckInstrument) error {
	check.ID = uint(len(m.checks) + 1)
	m.checks = append(m.checks, *check)
	return nil
}

func (m *mockCheckRepo) FindByPaymentEventID(ctx context.Context, paymentEventID string) (*models.CheckInstrument, error) {
	for i := range m.checks {
		if m.checks[i].PaymentEventID == paymentEventID {
			c := m.checks[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type mockFinanceRepo struct {
	repository.FinanceRepository
	entries    []models.FinanceEntry
	mockCreate func(ctx context.Context, entry *models.FinanceEntry) error
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
}

func (m *mockIntentRepo) Create(ctx context.Context, intent *models.PaymentIntent) error {
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

type testServer struct {
	router    *gin.Engine
	shipments *mockShipmentRepo
	finance   *mockFinanceRepo
	intents   *mockIntentRepo
	idem      *cache.MemoryStore
}

// newTestServer routes the payment and intent endpoints over in-memory
// repositories holding shipment 1 with a 1200 USD line.
func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		shipments: &mockShipmentRepo{shipment: &models.Shipment{
			ID:          1,
			ReferenceNo: "MRN-24-0001",
			Version:     1,
			Manifest: models.Manifest{{
				ID:            "line-1",
				CustomerName:  "Akdeniz Lojistik",
				OrdinoNo:      "ORD-2024-001",
				SavedFees:     models.Fees{Navlun: 1000, Tahliye: 200, Currency: "USD"},
				PaymentStatus: models.PaymentStatusUnpaid,
			}},
		}},
		finance: &mockFinanceRepo{},
		intents: &mockIntentRepo{intents: map[string]models.PaymentIntent{}},
		idem:    cache.NewMemoryStore(),
	}

	ordino := services.NewOrdinoService(ts.shipments, &mockCheckRepo{}, ts.finance, ts.intents, nil,
		reconciliation.NewLedger(reconciliation.DefaultSettings()), nil, 15*time.Minute)
	payments := NewPaymentHandler(ordino, ts.idem, time.Hour)
	intents := NewIntentHandler(ordino)
	shipments := NewShipmentHandler(ordino, services.NewExportService(reconciliation.DefaultSettings()))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", uint(5))
		c.Set("userRole", "operator")
		c.Next()
	})
	r.GET("/shipments/:shipment_id", shipments.Show)
	r.GET("/shipments/:shipment_id/export", shipments.Export)
	r.GET("/shipments/:shipment_id/lines/:line_id/balance", shipments.LineBalance)
	r.POST("/shipments/:shipment_id/lines/:line_id/payments", payments.Record)
	r.POST("/shipments/:shipment_id/lines/:line_id/payments/:payment_id/reverse", payments.Reverse)
	r.POST("/intents/:intent_id/retry", intents.Retry)
	r.POST("/intents/:intent_id/abandon", intents.Abandon)
	ts.router = r
	return ts
}
