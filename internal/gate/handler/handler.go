package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"consentgate/internal/gate"
	dErrors "consentgate/pkg/domain-errors"
	"consentgate/pkg/platform/httputil"
	"consentgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/gate_mocks.go -package=mocks Service

// Service defines the gate operations the handler exposes.
type Service interface {
	Evaluate(ctx context.Context, req gate.EvaluateRequest) *gate.AggregateDecision
	DashboardSummary(ctx context.Context, windowDays int) (*gate.DashboardSummary, error)
}

// Handler wires consent gate endpoints to the gate service.
type Handler struct {
	service           Service
	logger            *slog.Logger
	defaultWindowDays int
}

// New constructs a gate handler with its dependencies.
func New(service Service, logger *slog.Logger, defaultWindowDays int) *Handler {
	return &Handler{
		service:           service,
		logger:            logger,
		defaultWindowDays: defaultWindowDays,
	}
}

// Register mounts gate endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/gate/evaluate", h.HandleEvaluate)
	r.Get("/gate/dashboard", h.HandleDashboard)
}

// HandleEvaluate handles POST /gate/evaluate requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision := h.service.Evaluate(ctx, req.ToDomain(requestcontext.Actor(ctx)))

	h.logger.InfoContext(ctx, "gate evaluation served",
		"request_id", requestID,
		"media_type", req.MediaType,
		"allowed", decision.Allowed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromDecision(decision))
}

// HandleDashboard handles GET /gate/dashboard requests.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	windowDays := h.defaultWindowDays
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		parsed, err := parseWindowDays(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		windowDays = parsed
	}

	summary, err := h.service.DashboardSummary(ctx, windowDays)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard summary failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "dashboard summary failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}
