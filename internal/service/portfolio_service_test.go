package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/models"
	appErrors "github.com/atelier-labs/commission-api/pkg/errors"
)

type mockPortfolioStore struct {
	projects  []models.Project
	listCalls int
	category  string
	featured  *bool
}

func (m *mockPortfolioStore) List(ctx context.Context, category string, featured *bool) ([]models.Project, error) {
	m.listCalls++
	m.category = category
	m.featured = featured
	return m.projects, nil
}

func (m *mockPortfolioStore) GetByID(ctx context.Context, id string) (*models.Project, error) {
	for i := range m.projects {
		if m.projects[i].ID == id {
			return &m.projects[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockProjectCache struct {
	entries map[string][]models.Project
}

func (m *mockProjectCache) Get(ctx context.Context, key string, dest interface{}) error {
	cached, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*[]models.Project) = cached
	return nil
}

func (m *mockProjectCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]models.Project)
	}
	if projects, ok := value.([]models.Project); ok {
		m.entries[key] = projects
	}
	return nil
}

func (m *mockProjectCache) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}

func TestPortfolioCategoriesFixedCatalogue(t *testing.T) {
	svc := NewPortfolioService(&mockPortfolioStore{}, nil, 0, zap.NewNop())
	categories := svc.Categories()
	require.Len(t, categories, 4)
	assert.Equal(t, models.CategoryScripting, categories[0].ID)
}

func TestPortfolioListValidatesCategory(t *testing.T) {
	svc := NewPortfolioService(&mockPortfolioStore{}, nil, 0, zap.NewNop())

	_, _, err := svc.ListProjects(context.Background(), dto.ProjectQuery{Category: "pottery"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPortfolioListCachesResult(t *testing.T) {
	store := &mockPortfolioStore{projects: []models.Project{{ID: "p1", Category: models.CategoryVFX, Title: "Storm shader"}}}
	cache := &mockProjectCache{}
	svc := NewPortfolioService(store, cache, time.Minute, zap.NewNop())

	projects, hit, err := svc.ListProjects(context.Background(), dto.ProjectQuery{Category: "VFX"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.False(t, hit)
	assert.Equal(t, "vfx", store.category)
	assert.Equal(t, 1, store.listCalls)

	// Second read is served from cache.
	projects, hit, err = svc.ListProjects(context.Background(), dto.ProjectQuery{Category: "vfx"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.True(t, hit)
	assert.Equal(t, 1, store.listCalls)
}

func TestPortfolioGetProject(t *testing.T) {
	store := &mockPortfolioStore{projects: []models.Project{{ID: "p1", Title: "Lobby build"}}}
	svc := NewPortfolioService(store, nil, 0, zap.NewNop())

	project, err := svc.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Lobby build", project.Title)

	_, err = svc.GetProject(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
