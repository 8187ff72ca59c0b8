// Package handler exposes batch submission and processing over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"artshow/internal/batch"
	"artshow/internal/platform/middleware"
	"artshow/internal/transport/http/shared"
	dErrors "artshow/pkg/domain-errors"
)

// Service defines the interface for batch operations.
type Service interface {
	Submit(ctx context.Context, batchType batch.BatchType, data string) (*batch.BatchScan, error)
	Get(ctx context.Context, id uuid.UUID) (*batch.BatchScan, error)
	List(ctx context.Context) ([]*batch.BatchScan, error)
	Process(ctx context.Context, id uuid.UUID) (*batch.BatchScan, error)
}

// Handler handles the batch endpoints.
type Handler struct {
	logger       *slog.Logger
	batches      Service
	jwtValidator middleware.JWTValidator
}

// New creates a new batch Handler. A nil jwtValidator leaves the routes
// open, for dev mode and tests.
func New(batches Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		batches:      batches,
		jwtValidator: jwtValidator,
	}
}

// Register registers the batch routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	batchRouter := chi.NewRouter()
	batchRouter.Use(middleware.Recovery(h.logger))
	batchRouter.Use(middleware.RequestID)
	batchRouter.Use(middleware.Logger(h.logger))
	batchRouter.Use(middleware.Timeout(30 * time.Second))
	batchRouter.Use(middleware.ContentTypeJSON)
	if h.jwtValidator != nil {
		batchRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	}
	batchRouter.Post("/batches", h.handleSubmit)
	batchRouter.Get("/batches", h.handleList)
	batchRouter.Get("/batches/{batchID}", h.handleGet)
	batchRouter.Post("/batches/{batchID}/process", h.handleProcess)

	r.Mount("/", batchRouter)
}

// SubmitBatchRequest is the POST /batches payload.
type SubmitBatchRequest struct {
	BatchType string `json:"batchtype"`
	Data      string `json:"data"`
}

// BatchResponse renders one batch.
type BatchResponse struct {
	ID            string    `json:"id"`
	BatchType     string    `json:"batchtype"`
	Processed     bool      `json:"processed"`
	ProcessingLog string    `json:"processing_log,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toBatchResponse(scan *batch.BatchScan) BatchResponse {
	return BatchResponse{
		ID:            scan.ID.String(),
		BatchType:     string(scan.BatchType),
		Processed:     scan.Processed,
		ProcessingLog: scan.ProcessingLog,
		CreatedAt:     scan.CreatedAt,
		UpdatedAt:     scan.UpdatedAt,
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submit batch request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	scanBatch, err := h.batches.Submit(ctx, batch.BatchType(req.BatchType), req.Data)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toBatchResponse(scanBatch))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batches.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]BatchResponse, 0, len(batches))
	for _, scanBatch := range batches {
		out = append(out, toBatchResponse(scanBatch))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"batches": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	scanBatch, err := h.batches.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toBatchResponse(scanBatch))
}

// handleProcess dispatches the batch. A scan that collected diagnostics is
// still a 200: the outcome lives in the processing log, and the client
// corrects and resubmits the batch data rather than retrying the request.
func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	scanBatch, err := h.batches.Process(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch processing failed",
			"request_id", middleware.GetRequestID(ctx),
			"batch_id", id,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toBatchResponse(scanBatch))
}

func (h *Handler) batchID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid batch id"))
		return uuid.Nil, false
	}
	return id, true
}
