package services

import (
	"time"

	"github.com/sjperalta/ordino-api/internal/config"
	"github.com/sjperalta/ordino-api/internal/jobs"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Ordino  *OrdinoService
	Check   *CheckService
	Finance *FinanceService
	Import  *ImportService
	Export  *ExportService
	Audit   *AuditService
	Job     *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, archive FileArchive, cfg *config.Config) *Services {
	settings := cfg.Settings()
	ledger := reconciliation.NewLedger(settings)
	auditSvc := NewAuditService(repos.Audit, worker)

	ordinoSvc := NewOrdinoService(
		repos.Shipment,
		repos.Check,
		repos.Finance,
		repos.Intent,
		repos.Customer,
		ledger,
		auditSvc,
		time.Duration(cfg.IntentStaleAfterMinutes)*time.Minute,
	)

	return &Services{
		Ordino:  ordinoSvc,
		Check:   NewCheckService(repos.Check, auditSvc),
		Finance: NewFinanceService(repos.Finance),
		Import:  NewImportService(ordinoSvc, archive),
		Export:  NewExportService(settings),
		Audit:   auditSvc,
		Job:     NewJobService(worker),
	}
}
