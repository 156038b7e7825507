package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"ecom-dashboard/internal/errors"
	"ecom-dashboard/internal/services"
)

const version = "1.0.0"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// snapshot parses the request filter and runs one pass. On failure the error
// response has already been written.
func (h *APIHandlers) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return nil, false
	}

	snap, err := h.analytics.Compute(r.Context(), f)
	if err != nil {
		errors.WriteError(w, r, h.logger, serviceError(err))
		return nil, false
	}
	return snap, true
}

func serviceError(err error) error {
	if stderrors.Is(err, services.ErrNotLoaded) {
		return errors.ServiceUnavailableWrap(err, "dataset is not loaded")
	}
	return err
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.analytics.KPIs()
	if err != nil {
		errors.WriteError(w, r, h.logger, serviceError(err))
		return
	}

	headers := map[string]string{
		"Cache-Control": "public, max-age=300",
	}

	errors.WriteSuccessWithHeaders(w, r, kpis, headers)
}

func (h *APIHandlers) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.analytics.FilterOptions()
	if err != nil {
		errors.WriteError(w, r, h.logger, serviceError(err))
		return
	}

	headers := map[string]string{
		"Cache-Control": "public, max-age=300",
	}

	errors.WriteSuccessWithHeaders(w, r, opts, headers)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		errors.WriteSuccess(w, r, snap)
	}
}

func (h *APIHandlers) HandleByCountry(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		errors.WriteSuccess(w, r, snap.ByCountry)
	}
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		errors.WriteSuccess(w, r, snap.TopProducts)
	}
}

func (h *APIHandlers) HandleDaily(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		errors.WriteSuccess(w, r, snap.Daily)
	}
}

func (h *APIHandlers) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		errors.WriteSuccess(w, r, snap.Correlation)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if _, err := h.analytics.Dataset(); err != nil {
		status = "loading"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	}

	errors.WriteSuccess(w, r, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.analytics.Stats())
}
