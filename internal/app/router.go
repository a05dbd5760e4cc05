package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forge-erp/forge-erp/internal/costing"
	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
	"github.com/forge-erp/forge-erp/internal/ledger/budgets"
	"github.com/forge-erp/forge-erp/internal/ledger/journals"
	"github.com/forge-erp/forge-erp/internal/ledger/periods"
	"github.com/forge-erp/forge-erp/internal/ledger/reports"
	"github.com/forge-erp/forge-erp/internal/observability"
	"github.com/forge-erp/forge-erp/jobs"
)

// RouterParams collects the handlers mounted on the API router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Metrics  *observability.Metrics
	Accounts *accounts.Handler
	Journals *journals.Handler
	Periods  *periods.Handler
	Budgets  *budgets.Handler
	Reports  *reports.Handler
	Costing  *costing.Handler
	Jobs     *jobs.Handler
}

// NewRouter assembles the HTTP surface.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config}) {
		r.Use(mw)
	}
	if p.Metrics != nil {
		r.Use(p.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if p.Accounts != nil {
			r.Route("/accounts", p.Accounts.MountRoutes)
		}
		if p.Journals != nil {
			r.Route("/journals", p.Journals.MountRoutes)
		}
		if p.Periods != nil {
			r.Route("/periods", p.Periods.MountRoutes)
		}
		if p.Budgets != nil {
			r.Route("/budgets", p.Budgets.MountRoutes)
		}
		if p.Reports != nil {
			r.Route("/reports", p.Reports.MountRoutes)
		}
		if p.Costing != nil {
			r.Route("/inventory", p.Costing.MountRoutes)
		}
		if p.Jobs != nil {
			r.Route("/jobs", p.Jobs.MountRoutes)
		}
	})

	return r
}
