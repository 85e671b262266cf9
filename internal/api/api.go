package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbweber/homelab/samba/internal/repository"
)

// API wires the NoCloud datasource and the plan journal into one router
type API struct {
	meta   *MetaData
	plans  *Plans
	logger *slog.Logger
}

// NewAPI creates a new API. plans may be nil, in which case the journal
// endpoints are not registered.
func NewAPI(instances InstanceStore, plans repository.PlanReader, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	a := &API{
		meta:   NewMetaData(instances, logger),
		logger: logger,
	}
	if plans != nil {
		a.plans = NewPlans(plans, logger)
	}
	return a
}

// RegisterRoutes registers all API endpoints to the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/", a.healthHandler)

	// NoCloud datasource
	r.Get("/meta-data", a.meta.NoCloudMetaDataHandler)
	r.Get("/meta-data/", a.meta.MetaDataDirectoryHandler)
	r.Get("/meta-data/{key}", a.meta.MetaDataKeyHandler)
	r.Get("/user-data", a.meta.UserDataHandler)
	r.Get("/vendor-data", a.meta.VendorDataHandler)
	r.Get("/network-config", a.meta.NetworkConfigHandler)

	if a.plans == nil {
		return
	}
	r.Route("/api/v0/plans", func(r chi.Router) {
		r.Get("/", a.plans.ListPlansHandler)
		r.Get("/{id}", a.plans.GetPlanHandler)
		r.Get("/vm/{name}", a.plans.GetLatestPlanHandler)
	})
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := fmt.Fprintln(w, "samba datasource is running"); err != nil {
		a.logger.Error("failed to write response", "error", err)
	}
}
