// Package handler exposes the subscription workflow over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bulletin/internal/platform/metrics"
	"bulletin/internal/platform/middleware"
	"bulletin/internal/subscription/models"
	"bulletin/internal/transport/http/shared"
	dErrors "bulletin/pkg/domain-errors"
)

// Service defines the interface for subscription operations.
type Service interface {
	Subscribe(ctx context.Context, email, name string) error
	Confirm(ctx context.Context, confirmationToken string) error
	List(ctx context.Context) ([]*models.Subscriber, error)
}

// Handler handles subscription endpoints.
type Handler struct {
	logger       *slog.Logger
	subscription Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new subscription Handler.
func New(
	subscription Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		subscription: subscription,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the subscription routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.Latency(h.metrics))

	router.Post("/subscribe", h.handleSubscribe)
	router.Post("/confirm", h.handleConfirm)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		admin.Get("/subscriptions", h.handleListSubscriptions)
	})

	r.Mount("/", router)
}

// subscribeRequest uses pointers so a missing field is distinguishable from
// an empty one. Missing fields are a malformed request; empty ones fail
// validation downstream.
type subscribeRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

// handleSubscribe registers a pending subscriber. The body may be JSON or an
// HTML form, matching what a browser-submitted signup form sends.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, err := decodeSubscribeRequest(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid subscribe request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	if err := h.subscription.Subscribe(ctx, *req.Email, *req.Name); err != nil {
		if dErrors.Is(err, dErrors.CodeInvalidInput) {
			h.logger.WarnContext(ctx, "subscribe input rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to subscribe",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleConfirm redeems a confirmation token passed as a query parameter.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if !r.URL.Query().Has("token") {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token query parameter is required"))
		return
	}
	confirmationToken := r.URL.Query().Get("token")

	if err := h.subscription.Confirm(ctx, confirmationToken); err != nil {
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			h.logger.WarnContext(ctx, "confirmation token rejected",
				"request_id", requestID,
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to confirm subscription",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleListSubscriptions returns all subscribers for the authenticated admin.
func (h *Handler) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subs, err := h.subscription.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list subscriptions",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if subs == nil {
		subs = []*models.Subscriber{}
	}
	shared.WriteJSON(w, http.StatusOK, subs)
}

func decodeSubscribeRequest(r *http.Request) (*subscribeRequest, error) {
	var req subscribeRequest

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
		}
		if r.PostForm.Has("email") {
			email := r.PostForm.Get("email")
			req.Email = &email
		}
		if r.PostForm.Has("name") {
			name := r.PostForm.Get("name")
			req.Name = &name
		}
	}

	if req.Email == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if req.Name == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	return &req, nil
}
