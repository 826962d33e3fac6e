package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/middleware"
	"github.com/atelier-labs/commission-api/internal/models"
	"github.com/atelier-labs/commission-api/internal/repository"
	"github.com/atelier-labs/commission-api/internal/service"
)

type stubCommissionStore struct {
	commissions map[string]*models.Commission
}

func newStubCommissionStore() *stubCommissionStore {
	return &stubCommissionStore{commissions: make(map[string]*models.Commission)}
}

func (s *stubCommissionStore) Create(ctx context.Context, commission *models.Commission) error {
	if commission.ID == "" {
		commission.ID = "c1"
	}
	commission.ReferenceNumber = "COM-2026-001"
	commission.CreatedAt = time.Now().UTC()
	commission.UpdatedAt = commission.CreatedAt
	clone := *commission
	s.commissions[commission.ID] = &clone
	return nil
}

func (s *stubCommissionStore) GetByID(ctx context.Context, id string) (*models.Commission, error) {
	c, ok := s.commissions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (s *stubCommissionStore) List(ctx context.Context, filter models.CommissionFilter) ([]models.Commission, int, error) {
	var out []models.Commission
	for _, c := range s.commissions {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (s *stubCommissionStore) UpdateFields(ctx context.Context, id string, update repository.CommissionFieldUpdate, updatedAt time.Time) error {
	if _, ok := s.commissions[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (s *stubCommissionStore) UpdateStatus(ctx context.Context, id string, status models.CommissionStatus, updatedAt time.Time) error {
	c, ok := s.commissions[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Status = status
	return nil
}

func (s *stubCommissionStore) UpdateStatusWithReason(ctx context.Context, id string, status models.CommissionStatus, reason string, updatedAt time.Time) error {
	c, ok := s.commissions[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Status = status
	c.RejectionReason = &reason
	return nil
}

func (s *stubCommissionStore) Resubmit(ctx context.Context, id string, update repository.CommissionFieldUpdate, updatedAt time.Time) error {
	c, ok := s.commissions[id]
	if !ok || c.Status != models.StatusRejected {
		return sql.ErrNoRows
	}
	c.Status = models.StatusSubmitted
	c.RejectionReason = nil
	return nil
}

func (s *stubCommissionStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.commissions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.commissions, id)
	return nil
}

func (s *stubCommissionStore) CountByStatus(ctx context.Context) (map[models.CommissionStatus]int, error) {
	counts := make(map[models.CommissionStatus]int)
	for _, c := range s.commissions {
		counts[c.Status]++
	}
	return counts, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func userContext(c *gin.Context, userID string, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
}

func TestCommissionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubCommissionStore()
	handler := NewCommissionHandler(service.NewCommissionService(store, nil, nil, nil))

	payload, _ := json.Marshal(dto.CreateCommissionRequest{
		TaskComplexity: models.ComplexityMedium,
		Subject:        "Combat system",
		Description:    "A combat system with abilities",
		ProposedAmount: 500,
	})
	c, w := newGinContext(http.MethodPost, "/commissions", payload)
	userContext(c, "u1", models.RoleUser)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.Commission `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusSubmitted, envelope.Data.Status)
	assert.Equal(t, "COM-2026-001", envelope.Data.ReferenceNumber)
}

func TestCommissionHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCommissionHandler(service.NewCommissionService(newStubCommissionStore(), nil, nil, nil))

	c, w := newGinContext(http.MethodPost, "/commissions", []byte(`{"subject": 42}`))
	userContext(c, "u1", models.RoleUser)

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommissionHandlerCreateUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCommissionHandler(service.NewCommissionService(newStubCommissionStore(), nil, nil, nil))

	c, w := newGinContext(http.MethodPost, "/commissions", []byte(`{}`))
	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommissionHandlerGetForbiddenForStranger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubCommissionStore()
	store.commissions["c1"] = &models.Commission{ID: "c1", UserID: "u1", Status: models.StatusSubmitted}
	handler := NewCommissionHandler(service.NewCommissionService(store, nil, nil, nil))

	c, w := newGinContext(http.MethodGet, "/commissions/c1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	userContext(c, "stranger", models.RoleUser)

	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCommissionHandlerArchiveConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubCommissionStore()
	store.commissions["c1"] = &models.Commission{ID: "c1", UserID: "u1", Status: models.StatusArchived}
	handler := NewCommissionHandler(service.NewCommissionService(store, nil, nil, nil))

	c, w := newGinContext(http.MethodPost, "/commissions/c1/archive", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	userContext(c, "u1", models.RoleUser)

	handler.Archive(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCommissionHandlerResubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubCommissionStore()
	reason := "too vague"
	store.commissions["c1"] = &models.Commission{ID: "c1", UserID: "u1", Status: models.StatusRejected, RejectionReason: &reason}
	handler := NewCommissionHandler(service.NewCommissionService(store, nil, nil, nil))

	c, w := newGinContext(http.MethodPost, "/commissions/c1/resubmit", nil)
	c.Request.ContentLength = 0
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	userContext(c, "u1", models.RoleUser)

	handler.Resubmit(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.Commission `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusSubmitted, envelope.Data.Status)
	assert.Nil(t, envelope.Data.RejectionReason)
}

func TestCommissionHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubCommissionStore()
	store.commissions["c1"] = &models.Commission{ID: "c1", UserID: "u1", Status: models.StatusSubmitted}
	handler := NewCommissionHandler(service.NewCommissionService(store, nil, nil, nil))

	// Routed through the engine so the bare 204 status is actually flushed
	// to the recorder.
	r := gin.New()
	r.DELETE("/commissions/:id", func(c *gin.Context) {
		userContext(c, "u1", models.RoleUser)
	}, handler.Delete)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/commissions/c1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.commissions)
}
