package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"ecom-dashboard/internal/engine"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard renders the full page with every country and the whole date
// range selected.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	data, err := h.pageData(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "dashboard unavailable", "error", err)
		http.Error(w, "dataset is not loaded", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := templates.Dashboard(data).Render(ctx, &buf); err != nil {
		h.logger.ErrorContext(ctx, "render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

func (h *PageHandlers) pageData(ctx context.Context) (templates.PageData, error) {
	ds, err := h.analytics.Dataset()
	if err != nil {
		return templates.PageData{}, err
	}
	kpis, err := h.analytics.KPIs()
	if err != nil {
		return templates.PageData{}, err
	}
	opts, err := h.analytics.FilterOptions()
	if err != nil {
		return templates.PageData{}, err
	}
	snap, err := h.analytics.Compute(ctx, engine.DefaultFilter(ds))
	if err != nil {
		return templates.PageData{}, err
	}
	return templates.PageData{KPIs: kpis, Options: opts, Snapshot: snap}, nil
}
