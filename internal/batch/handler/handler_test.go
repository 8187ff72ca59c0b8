package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"artshow/internal/batch"
	"artshow/internal/batch/handler/mocks"
	"artshow/internal/platform/token"
	dErrors "artshow/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type BatchHandlerSuite struct {
	suite.Suite
}

func TestBatchHandlerSuite(t *testing.T) {
	suite.Run(t, new(BatchHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger, nil).Register(r)
	return r, mockService
}

func sampleBatch(processed bool) *batch.BatchScan {
	now := time.Date(2026, time.August, 28, 14, 30, 0, 0, time.UTC)
	return &batch.BatchScan{
		ID:            uuid.New(),
		BatchType:     batch.TypeLocation,
		Data:          "PA1\nA1P1\nPEND",
		Processed:     processed,
		ProcessingLog: "",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *BatchHandlerSuite) TestSubmit() {
	s.Run("created", func() {
		router, mockService := newTestRouter(s.T())
		stored := sampleBatch(false)
		mockService.EXPECT().
			Submit(gomock.Any(), batch.TypeLocation, "PA1\nA1P1\nPEND").
			Return(stored, nil)

		body, err := json.Marshal(SubmitBatchRequest{BatchType: "location", Data: "PA1\nA1P1\nPEND"})
		require.NoError(s.T(), err)
		req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusCreated, w.Code)
		var resp BatchResponse
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), stored.ID.String(), resp.ID)
		assert.Equal(s.T(), "location", resp.BatchType)
		assert.False(s.T(), resp.Processed)
	})

	s.Run("malformed body", func() {
		router, _ := newTestRouter(s.T())
		req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	})

	s.Run("service rejection maps to 400", func() {
		router, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			Submit(gomock.Any(), batch.BatchType("typo"), "x").
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "unknown batch type typo"))

		body, err := json.Marshal(SubmitBatchRequest{BatchType: "typo", Data: "x"})
		require.NoError(s.T(), err)
		req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	})
}

func (s *BatchHandlerSuite) TestGet() {
	s.Run("found", func() {
		router, mockService := newTestRouter(s.T())
		stored := sampleBatch(true)
		mockService.EXPECT().Get(gomock.Any(), stored.ID).Return(stored, nil)

		req := httptest.NewRequest(http.MethodGet, "/batches/"+stored.ID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusOK, w.Code)
		var resp BatchResponse
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(s.T(), resp.Processed)
	})

	s.Run("not found", func() {
		router, mockService := newTestRouter(s.T())
		id := uuid.New()
		mockService.EXPECT().Get(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "batch not found"))

		req := httptest.NewRequest(http.MethodGet, "/batches/"+id.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusNotFound, w.Code)
	})

	s.Run("invalid id", func() {
		router, _ := newTestRouter(s.T())
		req := httptest.NewRequest(http.MethodGet, "/batches/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	})
}

func (s *BatchHandlerSuite) TestList() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().List(gomock.Any()).
		Return([]*batch.BatchScan{sampleBatch(false), sampleBatch(true)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/batches", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp struct {
		Batches []BatchResponse `json:"batches"`
	}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(s.T(), resp.Batches, 2)
}

func (s *BatchHandlerSuite) TestProcess() {
	s.Run("diagnosed batch is still a 200", func() {
		router, mockService := newTestRouter(s.T())
		stored := sampleBatch(false)
		stored.ProcessingLog = "2026-08-28 14:30:00\nfound errors in processing: 1 errors listed\nline 2: piece A9P9 does not exist"
		mockService.EXPECT().Process(gomock.Any(), stored.ID).Return(stored, nil)

		req := httptest.NewRequest(http.MethodPost, "/batches/"+stored.ID.String()+"/process", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusOK, w.Code)
		var resp BatchResponse
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(s.T(), resp.Processed)
		assert.Contains(s.T(), resp.ProcessingLog, "found errors in processing")
	})

	s.Run("infrastructure failure is a 500", func() {
		router, mockService := newTestRouter(s.T())
		id := uuid.New()
		mockService.EXPECT().Process(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeInternal, "batch processing aborted"))

		req := httptest.NewRequest(http.MethodPost, "/batches/"+id.String()+"/process", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusInternalServerError, w.Code)
	})
}

func (s *BatchHandlerSuite) TestAuth() {
	newAuthRouter := func(t *testing.T) (chi.Router, *mocks.MockService, *token.Service) {
		t.Helper()
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		mockService := mocks.NewMockService(ctrl)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		tokens := token.NewService("test-signing-key", "artshow")

		r := chi.NewRouter()
		New(mockService, logger, tokens).Register(r)
		return r, mockService, tokens
	}

	s.Run("missing token", func() {
		router, _, _ := newAuthRouter(s.T())
		req := httptest.NewRequest(http.MethodGet, "/batches", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	})

	s.Run("valid token", func() {
		router, mockService, tokens := newAuthRouter(s.T())
		mockService.EXPECT().List(gomock.Any()).Return(nil, nil)

		signed, err := tokens.GenerateToken("operator-1", time.Minute)
		require.NoError(s.T(), err)
		req := httptest.NewRequest(http.MethodGet, "/batches", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusOK, w.Code)
	})
}
