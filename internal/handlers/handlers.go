package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/cache"
	"github.com/sjperalta/ordino-api/internal/middleware"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/sjperalta/ordino-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health   *HealthHandler
	Shipment *ShipmentHandler
	Payment  *PaymentHandler
	Intent   *IntentHandler
	Check    *CheckHandler
	Finance  *FinanceHandler
	Import   *ImportHandler
	Customer *CustomerHandler
	Audit    *AuditHandler
	Job      *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, idem cache.IdempotencyStore, idemTTL time.Duration) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(),
		Shipment: NewShipmentHandler(svcs.Ordino, svcs.Export),
		Payment:  NewPaymentHandler(svcs.Ordino, idem, idemTTL),
		Intent:   NewIntentHandler(svcs.Ordino),
		Check:    NewCheckHandler(svcs.Check),
		Finance:  NewFinanceHandler(svcs.Finance),
		Import:   NewImportHandler(svcs.Ordino, svcs.Import),
		Customer: NewCustomerHandler(svcs.Ordino),
		Audit:    NewAuditHandler(svcs.Audit),
		Job:      NewJobHandler(svcs.Job),
	}
}

// actor identifies who performed a request for the audit log
type actor struct {
	UserID    uint
	IP        string
	UserAgent string
}

func actorFrom(c *gin.Context) actor {
	return actor{
		UserID:    middleware.GetUserID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// listQueryFrom reads page, per_page, search and sort (format: field-direction)
func listQueryFrom(c *gin.Context, filters ...string) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = strings.TrimSpace(c.Query("search"))

	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	for _, f := range filters {
		if v := strings.TrimSpace(c.Query(f)); v != "" {
			query.Filters[f] = v
		}
	}
	return query
}

func pagination(query *repository.ListQuery, total int64) gin.H {
	perPage := query.PerPage
	if perPage < 1 {
		perPage = 20
	}
	return gin.H{
		"page":        query.Page,
		"per_page":    perPage,
		"total":       total,
		"total_pages": (total + int64(perPage) - 1) / int64(perPage),
	}
}
