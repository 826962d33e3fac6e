package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/models"
	appErrors "github.com/atelier-labs/commission-api/pkg/errors"
)

type portfolioStore interface {
	List(ctx context.Context, category string, featured *bool) ([]models.Project, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

// PortfolioService serves the public, read-only portfolio surface with a
// cache-aside listing.
type PortfolioService struct {
	repo     portfolioStore
	cache    cacheStore
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPortfolioService constructs a PortfolioService; cache may be nil.
func NewPortfolioService(repo portfolioStore, cache cacheStore, cacheTTL time.Duration, logger *zap.Logger) *PortfolioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Categories returns the fixed service-area catalogue.
func (s *PortfolioService) Categories() []models.PortfolioCategory {
	return models.PortfolioCategories
}

// ListProjects returns portfolio entries matching the query. The boolean
// reports whether the listing was served from cache so the handler can
// surface it in response meta and the cache counters.
func (s *PortfolioService) ListProjects(ctx context.Context, query dto.ProjectQuery) ([]models.Project, bool, error) {
	category := strings.ToLower(strings.TrimSpace(query.Category))
	if category != "" && !models.PortfolioCategoryID(category).Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown portfolio category")
	}

	cacheKey := projectsCacheKey(category, query.Featured)
	if s.cache != nil {
		var cached []models.Project
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, true, nil
		}
	}

	projects, err := s.repo.List(ctx, category, query.Featured)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, projects, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache project listing", zap.Error(err))
		}
	}
	return projects, false, nil
}

// GetProject returns one portfolio entry.
func (s *PortfolioService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

func projectsCacheKey(category string, featured *bool) string {
	key := "portfolio:projects"
	if category != "" {
		key += ":" + category
	}
	if featured != nil {
		key += fmt.Sprintf(":featured=%t", *featured)
	}
	return key
}
