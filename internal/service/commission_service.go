package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/models"
	"github.com/atelier-labs/commission-api/internal/repository"
	appErrors "github.com/atelier-labs/commission-api/pkg/errors"
)

type commissionStore interface {
	Create(ctx context.Context, commission *models.Commission) error
	GetByID(ctx context.Context, id string) (*models.Commission, error)
	List(ctx context.Context, filter models.CommissionFilter) ([]models.Commission, int, error)
	UpdateFields(ctx context.Context, id string, update repository.CommissionFieldUpdate, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.CommissionStatus, updatedAt time.Time) error
	UpdateStatusWithReason(ctx context.Context, id string, status models.CommissionStatus, reason string, updatedAt time.Time) error
	Resubmit(ctx context.Context, id string, update repository.CommissionFieldUpdate, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[models.CommissionStatus]int, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const statsCacheKey = "commissions:stats"

// reviewTracker remembers, per record, the status observed when the
// open-for-triage transition last fired. The transition re-fires only once
// the record has drifted to a different status since.
type reviewTracker struct {
	mu   sync.Mutex
	seen map[string]models.CommissionStatus
}

func newReviewTracker() *reviewTracker {
	return &reviewTracker{seen: make(map[string]models.CommissionStatus)}
}

func (t *reviewTracker) shouldTrigger(id string, current models.CommissionStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.seen[id]
	return !ok || last != current
}

func (t *reviewTracker) markTriggered(id string, status models.CommissionStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[id] = status
}

func (t *reviewTracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, id)
}

// CommissionService orchestrates the commission store and its lifecycle.
type CommissionService struct {
	repo      commissionStore
	audit     auditLogger
	cache     cacheStore
	statsTTL  time.Duration
	tracker   *reviewTracker
	validator *validator.Validate
	logger    *zap.Logger
}

// CommissionServiceOption configures the service.
type CommissionServiceOption func(*CommissionService)

// WithStatsCache enables cache-aside storage for admin stats.
func WithStatsCache(cache cacheStore, ttl time.Duration) CommissionServiceOption {
	return func(s *CommissionService) {
		s.cache = cache
		s.statsTTL = ttl
	}
}

// NewCommissionService constructs a CommissionService instance.
func NewCommissionService(repo commissionStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...CommissionServiceOption) *CommissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &CommissionService{
		repo:      repo,
		audit:     audit,
		tracker:   newReviewTracker(),
		validator: validate,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create validates the new-commission form and stores the record. The stored
// record starts in the submitted state with its assigned reference number.
func (s *CommissionService) Create(ctx context.Context, req dto.CreateCommissionRequest, actor *models.JWTClaims) (*models.Commission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commission payload")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "description is required")
	}
	if math.IsNaN(req.ProposedAmount) || math.IsInf(req.ProposedAmount, 0) || req.ProposedAmount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposed amount must be a positive number")
	}

	commission := &models.Commission{
		UserID:         actor.UserID,
		TaskComplexity: req.TaskComplexity,
		Subject:        strings.TrimSpace(req.Subject),
		Description:    req.Description,
		ProposedAmount: req.ProposedAmount,
		Status:         models.StatusSubmitted,
		Tags:           pq.StringArray(normalizeTags(req.Tags)),
	}
	if err := s.repo.Create(ctx, commission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create commission")
	}

	s.emitAudit(ctx, actor, models.AuditActionCommissionCreate, commission.ID, nil, commission)
	s.invalidateStats(ctx)
	return commission, nil
}

// Get returns a commission enforcing ownership; admins may read any record.
func (s *CommissionService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Commission, error) {
	commission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(commission, actor); err != nil {
		return nil, err
	}
	return commission, nil
}

// List returns the actor's commissions matching the filter. Admin listings
// pass an empty owner through ListAll instead.
func (s *CommissionService) List(ctx context.Context, query dto.CommissionQuery, actor *models.JWTClaims) ([]models.Commission, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	return s.list(ctx, query, actor.UserID)
}

// ListAll returns every commission matching the filter, for the admin panel.
func (s *CommissionService) ListAll(ctx context.Context, query dto.CommissionQuery) ([]models.Commission, *models.Pagination, error) {
	return s.list(ctx, query, "")
}

func (s *CommissionService) list(ctx context.Context, query dto.CommissionQuery, ownerID string) ([]models.Commission, *models.Pagination, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.CommissionFilter{
		UserID:          ownerID,
		Status:          query.Status,
		Search:          strings.TrimSpace(query.Search),
		Tags:            normalizeTags(query.Tags),
		IncludeArchived: query.IncludeArchived,
		Page:            page,
		PageSize:        pageSize,
	}
	commissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commissions")
	}

	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return commissions, pagination, nil
}

// Update applies an owner patch to a commission.
func (s *CommissionService) Update(ctx context.Context, id string, patch dto.CommissionPatch, actor *models.JWTClaims) (*models.Commission, error) {
	commission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(commission, actor); err != nil {
		return nil, err
	}
	update, err := s.validatePatch(patch)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return commission, nil
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateFields(ctx, id, update, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update commission")
	}

	before := *commission
	applyFieldUpdate(commission, update, now)
	s.emitAudit(ctx, actor, models.AuditActionCommissionUpdate, id, &before, commission)
	return commission, nil
}

// Delete removes an owned commission outright. This is the plain owner-delete
// path; the admin flow archives instead.
func (s *CommissionService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	commission, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(commission, actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete commission")
	}
	s.tracker.forget(id)
	s.emitAudit(ctx, actor, models.AuditActionCommissionDelete, id, commission, nil)
	s.invalidateStats(ctx)
	return nil
}

// Archive soft-removes an owned commission from default listings.
func (s *CommissionService) Archive(ctx context.Context, id string, actor *models.JWTClaims) (*models.Commission, error) {
	commission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(commission, actor); err != nil {
		return nil, err
	}
	if !models.CanArchive(commission.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "commission cannot be archived in its current status")
	}
	return s.setStatus(ctx, commission, models.StatusArchived, actor)
}

// Resubmit revises a rejected commission and returns it to submitted,
// clearing the rejection reason only when the whole operation succeeds.
func (s *CommissionService) Resubmit(ctx context.Context, id string, req dto.ResubmitCommissionRequest, actor *models.JWTClaims) (*models.Commission, error) {
	commission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(commission, actor); err != nil {
		return nil, err
	}
	if !models.CanResubmit(commission.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only rejected commissions can be resubmitted")
	}
	update, err := s.validatePatch(req.CommissionPatch)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.Resubmit(ctx, id, update, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "commission is no longer rejected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resubmit commission")
	}

	before := *commission
	applyFieldUpdate(commission, update, now)
	commission.Status = models.StatusSubmitted
	commission.RejectionReason = nil
	s.emitAudit(ctx, actor, models.AuditActionStatusChange, id, &before, commission)
	s.invalidateStats(ctx)
	return commission, nil
}

// MarkInReview is invoked by the admin detail view on open: a record not
// already in review moves there. The tracker keeps the transition from
// re-firing until the record drifts to another status.
func (s *CommissionService) MarkInReview(ctx context.Context, id string, actor *models.JWTClaims) (*models.Commission, error) {
	commission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanMarkInReview(commission.Status) {
		return commission, nil
	}
	if !s.tracker.shouldTrigger(id, commission.Status) {
		return commission, nil
	}

	updated, err := s.setStatus(ctx, commission, models.StatusInReview, actor)
	if err != nil {
		return nil, err
	}
	s.tracker.markTriggered(id, models.StatusInReview)
	return updated, nil
}

// Accept moves a commission from in_review to accepted.
func (s *CommissionService) Accept(ctx context.Context, id string, actor *models.JWTClaims) (*models.Commission, error) {
	commission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(commission.Status, models.StatusAccepted) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only commissions in review can be accepted")
	}
	return s.setStatus(ctx, commission, models.StatusAccepted, actor)
}

// Reject moves a commission from in_review to rejected, persisting the
// mandatory reason.
func (s *CommissionService) Reject(ctx context.Context, id string, req dto.RejectCommissionRequest, actor *models.JWTClaims) (*models.Commission, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.ErrReasonRequired
	}
	commission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(commission.Status, models.StatusRejected) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only commissions in review can be rejected")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatusWithReason(ctx, id, models.StatusRejected, reason, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject commission")
	}

	before := *commission
	commission.Status = models.StatusRejected
	commission.RejectionReason = &reason
	commission.UpdatedAt = now
	s.emitAudit(ctx, actor, models.AuditActionStatusChange, id, &before, commission)
	s.invalidateStats(ctx)
	return commission, nil
}

// OverrideStatus force-sets any enumerated status through the admin selector.
// It deliberately bypasses the guarded transition table and leaves any stored
// rejection reason untouched.
func (s *CommissionService) OverrideStatus(ctx context.Context, id string, req dto.OverrideStatusRequest, actor *models.JWTClaims) (*models.Commission, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown commission status")
	}
	commission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if commission.Status == req.Status {
		return commission, nil
	}
	return s.setStatus(ctx, commission, req.Status, actor)
}

// Stats aggregates record counts per status for the admin panel, cache-aside
// when a cache is configured. The boolean reports a cache hit for response
// meta and the cache counters.
func (s *CommissionService) Stats(ctx context.Context) (*models.CommissionStats, bool, error) {
	if s.cache != nil {
		var cached models.CommissionStats
		if err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil {
			return &cached, true, nil
		}
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate commission stats")
	}
	stats := &models.CommissionStats{
		ByStatus:    counts,
		GeneratedAt: time.Now().UTC(),
	}
	for _, count := range counts {
		stats.Total += count
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.statsTTL); err != nil {
			s.logger.Warn("failed to cache commission stats", zap.Error(err))
		}
	}
	return stats, false, nil
}

func (s *CommissionService) load(ctx context.Context, id string) (*models.Commission, error) {
	commission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commission")
	}
	return commission, nil
}

func (s *CommissionService) setStatus(ctx context.Context, commission *models.Commission, status models.CommissionStatus, actor *models.JWTClaims) (*models.Commission, error) {
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, commission.ID, status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update commission status")
	}

	before := *commission
	commission.Status = status
	commission.UpdatedAt = now
	switch status {
	case models.StatusArchived, models.StatusCompleted:
		// Nothing re-fires review on a closed record, so drop its entry.
		s.tracker.forget(commission.ID)
	}
	s.emitAudit(ctx, actor, models.AuditActionStatusChange, commission.ID, &before, commission)
	s.invalidateStats(ctx)
	return commission, nil
}

func (s *CommissionService) validatePatch(patch dto.CommissionPatch) (repository.CommissionFieldUpdate, error) {
	if err := s.validator.Struct(patch); err != nil {
		return repository.CommissionFieldUpdate{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commission patch")
	}
	if patch.Subject != nil && strings.TrimSpace(*patch.Subject) == "" {
		return repository.CommissionFieldUpdate{}, appErrors.Clone(appErrors.ErrValidation, "subject cannot be empty")
	}
	if patch.ProposedAmount != nil {
		amount := *patch.ProposedAmount
		if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
			return repository.CommissionFieldUpdate{}, appErrors.Clone(appErrors.ErrValidation, "proposed amount must be a positive number")
		}
	}

	update := repository.CommissionFieldUpdate{
		TaskComplexity: patch.TaskComplexity,
		Subject:        patch.Subject,
		Description:    patch.Description,
		ProposedAmount: patch.ProposedAmount,
	}
	if patch.Tags != nil {
		tags := normalizeTags(*patch.Tags)
		update.Tags = &tags
	}
	return update, nil
}

func (s *CommissionService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, commissionID string, before, after *models.Commission) {
	if s.audit == nil || actor == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "commission",
		ResourceID: &commissionID,
	}
	if before != nil {
		log.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		log.NewValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *CommissionService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

func applyFieldUpdate(commission *models.Commission, update repository.CommissionFieldUpdate, updatedAt time.Time) {
	if update.TaskComplexity != nil {
		commission.TaskComplexity = *update.TaskComplexity
	}
	if update.Subject != nil {
		commission.Subject = strings.TrimSpace(*update.Subject)
	}
	if update.Description != nil {
		commission.Description = *update.Description
	}
	if update.ProposedAmount != nil {
		commission.ProposedAmount = *update.ProposedAmount
	}
	if update.Tags != nil {
		commission.Tags = pq.StringArray(*update.Tags)
	}
	commission.UpdatedAt = updatedAt
}

func requireOwner(commission *models.Commission, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if commission.UserID != actor.UserID {
		return appErrors.ErrForbidden
	}
	return nil
}

func requireOwnerOrAdmin(commission *models.Commission, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if commission.UserID != actor.UserID {
		return appErrors.ErrForbidden
	}
	return nil
}

// normalizeTags trims whitespace and drops empties and duplicates while
// preserving first-seen order for display.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
