package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"ecom-dashboard/internal/errors"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard recomputes the dashboard for the filter carried in the request
// signals and patches every dependent element. Invalid filters patch the error
// banner and leave the rest of the page alone.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var signals templates.Signals
	readErr := datastar.ReadSignals(r, &signals)

	sse := datastar.NewSSE(w, r)

	if readErr != nil {
		h.logger.WarnContext(r.Context(), "read signals", "error", readErr)
		h.patchError(sse, r, "Could not read the filter selection.")
		return
	}

	f, err := filterInput{
		Countries: signals.Countries,
		Start:     strings.TrimSpace(signals.Start),
		End:       strings.TrimSpace(signals.End),
	}.filter()
	if err != nil {
		h.patchError(sse, r, message(err))
		return
	}

	snap, err := h.analytics.Compute(r.Context(), f)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "compute dashboard", "error", err)
		h.patchError(sse, r, message(serviceError(err)))
		return
	}

	for _, c := range templates.Fragments(snap) {
		html, err := renderString(r, c)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "render fragment", "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.DebugContext(r.Context(), "patch elements", "error", err)
			return
		}
	}

	rows, err := json.Marshal(map[string]any{"rows": snap.Rows})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "marshal rows signal", "error", err)
		return
	}
	if err := sse.PatchSignals(rows); err != nil {
		h.logger.DebugContext(r.Context(), "patch signals", "error", err)
	}
}

func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, r *http.Request, msg string) {
	html, err := renderString(r, templates.ErrorBanner(msg))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render error banner", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.DebugContext(r.Context(), "patch error banner", "error", err)
	}
}

func renderString(r *http.Request, c templ.Component) (string, error) {
	var buf strings.Builder
	if err := c.Render(r.Context(), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// message is the user-facing text of an error.
func message(err error) string {
	appErr := errors.As(err)
	if appErr.Details != "" {
		return appErr.Message + ": " + appErr.Details
	}
	return appErr.Message
}
