package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jbweber/homelab/samba/internal/domain"
	"github.com/jbweber/homelab/samba/internal/repository"
)

// PlanSummary is a journal entry without its document
type PlanSummary struct {
	ID          int64  `json:"id"`
	Environment string `json:"environment"`
	VMName      string `json:"vm_name"`
	VMID        int    `json:"vm_id"`
	FQDN        string `json:"fqdn,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// PlanResponse is a journal entry with its redacted plan document
type PlanResponse struct {
	PlanSummary
	Plan json.RawMessage `json:"plan"`
}

func summarize(p domain.PlanRecord) PlanSummary {
	return PlanSummary{
		ID:          p.ID,
		Environment: p.Environment,
		VMName:      p.VMName,
		VMID:        p.VMID,
		FQDN:        p.FQDN,
		CreatedAt:   p.CreatedAt,
	}
}

// Plans holds the handlers for the read-only plan journal API
type Plans struct {
	repo   repository.PlanReader
	logger *slog.Logger
}

// NewPlans creates the plan journal handlers
func NewPlans(repo repository.PlanReader, logger *slog.Logger) *Plans {
	if logger == nil {
		logger = slog.Default()
	}
	return &Plans{repo: repo, logger: logger}
}

// ListPlansHandler handles GET /api/v0/plans
func (p *Plans) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := p.repo.FindAll(r.Context())
	if err != nil {
		p.logger.Error("failed to list plans", "error", err)
		writeError(w, p.logger, http.StatusInternalServerError, "Failed to list plans")
		return
	}

	out := make([]PlanSummary, 0, len(plans))
	for _, plan := range plans {
		out = append(out, summarize(plan))
	}
	writeJSON(w, p.logger, http.StatusOK, out)
}

// GetPlanHandler handles GET /api/v0/plans/{id}
func (p *Plans) GetPlanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, p.logger, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	plan, err := p.repo.FindByID(r.Context(), id)
	p.writePlan(w, plan, err)
}

// GetLatestPlanHandler handles GET /api/v0/plans/vm/{name}
func (p *Plans) GetLatestPlanHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, p.logger, http.StatusBadRequest, "VM name is required")
		return
	}

	plan, err := p.repo.FindLatestByVM(r.Context(), name)
	p.writePlan(w, plan, err)
}

func (p *Plans) writePlan(w http.ResponseWriter, plan domain.PlanRecord, err error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, p.logger, http.StatusNotFound, "Plan not found")
			return
		}
		p.logger.Error("failed to get plan", "error", err)
		writeError(w, p.logger, http.StatusInternalServerError, "Failed to get plan")
		return
	}

	if !json.Valid([]byte(plan.Document)) {
		p.logger.Error("stored plan document is not JSON", "id", plan.ID)
		writeError(w, p.logger, http.StatusInternalServerError, "Stored plan is corrupt")
		return
	}
	writeJSON(w, p.logger, http.StatusOK, PlanResponse{
		PlanSummary: summarize(plan),
		Plan:        json.RawMessage(plan.Document),
	})
}
