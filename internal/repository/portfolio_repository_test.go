package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "category", "title", "short_caption", "description", "thumbnail_url", "video_url", "images", "tags", "skills", "completion_date", "featured"})
}

func TestPortfolioRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newCommissionMock(t)
	defer cleanup()
	repo := NewPortfolioRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE 1=1 ORDER BY completion_date DESC")).
		WillReturnRows(projectRows().
			AddRow("p1", "vfx", "Spell trails", "Particle work", "Long description", "https://cdn/p1.png", nil, "{}", "{vfx}", "{shaders}", time.Now(), true))

	projects, err := repo.List(context.Background(), "", nil)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Spell trails", projects[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPortfolioRepositoryListCategoryAndFeatured(t *testing.T) {
	db, mock, cleanup := newCommissionMock(t)
	defer cleanup()
	repo := NewPortfolioRepository(db)

	featured := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE 1=1 AND category = $1 AND featured = $2 ORDER BY completion_date DESC")).
		WithArgs("scripting", true).
		WillReturnRows(projectRows())

	_, err := repo.List(context.Background(), "scripting", &featured)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPortfolioRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newCommissionMock(t)
	defer cleanup()
	repo := NewPortfolioRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
