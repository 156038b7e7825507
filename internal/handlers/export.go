package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"ecom-dashboard/internal/errors"
	"ecom-dashboard/internal/export"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/services"
)

type ExportHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func NewExportHandlers(analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics) *ExportHandlers {
	return &ExportHandlers{
		analytics: analytics,
		logger:    logger,
		metrics:   metrics,
	}
}

// HandleDownload serves the filtered view as an attachment in format f.
func (h *ExportHandlers) HandleDownload(f export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := ParseFilter(r.URL.Query())
		if err != nil {
			errors.WriteError(w, r, h.logger, err)
			return
		}

		snap, err := h.analytics.Compute(r.Context(), filter)
		if err != nil {
			errors.WriteError(w, r, h.logger, serviceError(err))
			return
		}

		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename()))
		w.Header().Set("Cache-Control", "no-store")

		// Headers are gone once the body starts, so failures are only logged.
		if err := export.Write(w, snap.View, f); err != nil {
			h.logger.ErrorContext(r.Context(), "export failed", "format", f, "rows", snap.Rows, "error", err)
			return
		}

		h.metrics.ObserveExport(string(f))
		h.logger.InfoContext(r.Context(), "export served", "format", f, "rows", snap.Rows)
	}
}
