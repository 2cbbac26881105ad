package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/domain/errors"
	compliancesvc "github.com/solapay/compliance-engine/internal/service/compliance"
	"github.com/solapay/compliance-engine/internal/service/screening"
)

// newRouter exposes the internal check API alongside the operational
// endpoints. This surface is for platform services inside the network
// boundary; the public API gateway owns the external schema.
func newRouter(
	service *compliancesvc.Service,
	reviews *compliancesvc.ReviewService,
	screener *screening.Screener,
	pool *pgxpool.Pool,
	logger *zap.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"reason": "database unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":            "ok",
			"dataset_loaded_at": screener.DatasetLoadedAt(),
		})
	})

	mux.HandleFunc("POST /internal/v1/checks", func(w http.ResponseWriter, r *http.Request) {
		var req compliancesvc.CheckTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.NewValidationError("INVALID_JSON", err.Error()))
			return
		}

		check, err := service.CheckTransaction(r.Context(), req)
		if err != nil {
			var appErr *errors.AppError
			if check != nil && stderrors.As(err, &appErr) {
				// A blocked decision is a recorded outcome, not a failure:
				// serve the typed error together with the check.
				writeJSON(w, appErr.StatusCode, map[string]interface{}{
					"error": appErr,
					"check": check,
				})
				return
			}
			logger.Error("check transaction failed", zap.Error(err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, check)
	})

	mux.HandleFunc("GET /internal/v1/reviews", func(w http.ResponseWriter, r *http.Request) {
		orgID := r.URL.Query().Get("organization_id")
		pending, err := reviews.PendingReviews(r.Context(), orgID, 0)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	})

	mux.HandleFunc("POST /internal/v1/reviews/{id}/approve", reviewHandler(
		func(ctx context.Context, id uuid.UUID, body reviewRequest) (interface{}, error) {
			return reviews.Approve(ctx, id, body.ReviewerID, body.Notes)
		}))

	mux.HandleFunc("POST /internal/v1/reviews/{id}/reject", reviewHandler(
		func(ctx context.Context, id uuid.UUID, body reviewRequest) (interface{}, error) {
			return reviews.Reject(ctx, id, body.ReviewerID, body.Reason)
		}))

	return mux
}

type reviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Notes      string `json:"notes,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func reviewHandler(resolve func(context.Context, uuid.UUID, reviewRequest) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, errors.NewValidationError("INVALID_CHECK_ID", "check id must be a uuid"))
			return
		}

		var body reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, errors.NewValidationError("INVALID_JSON", err.Error()))
			return
		}

		resolved, err := resolve(r.Context(), id, body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resolved)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError(err.Error())
	}
	writeJSON(w, appErr.StatusCode, map[string]interface{}{
		"error": appErr,
	})
}
