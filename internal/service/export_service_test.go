package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/models"
	appErrors "github.com/atelier-labs/commission-api/pkg/errors"
)

func exportFixtures() []models.Commission {
	return []models.Commission{
		{
			ReferenceNumber: "COM-2026-001",
			Subject:         "Combat system",
			TaskComplexity:  models.ComplexityHard,
			ProposedAmount:  500,
			Status:          models.StatusSubmitted,
			Tags:            []string{"combat", "scripting"},
			CreatedAt:       time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ReferenceNumber: "COM-2026-002",
			Subject:         "Lobby lighting",
			TaskComplexity:  models.ComplexityEasy,
			ProposedAmount:  75.5,
			Status:          models.StatusAccepted,
			CreatedAt:       time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestExportCommissionsCSV(t *testing.T) {
	store := newMockCommissionStore()
	store.listResult = exportFixtures()
	svc := NewExportService(store, 100)

	result, err := svc.ExportCommissions(context.Background(), ExportFormatCSV, dto.CommissionQuery{Status: "all"})
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "commissions.csv", result.Filename)

	content := string(result.Content)
	assert.True(t, strings.HasPrefix(content, "Reference,Subject,Complexity,Amount,Status,Tags,Created"))
	assert.Contains(t, content, "COM-2026-001,Combat system,hard,500.00,submitted,\"combat, scripting\",2026-08-01")
	assert.Contains(t, content, "COM-2026-002,Lobby lighting,easy,75.50,accepted,,2026-08-02")

	assert.Equal(t, 100, store.listFilter.PageSize)
	assert.Equal(t, 1, store.listFilter.Page)
}

func TestExportCommissionsPDF(t *testing.T) {
	store := newMockCommissionStore()
	store.listResult = exportFixtures()
	svc := NewExportService(store, 100)

	result, err := svc.ExportCommissions(context.Background(), ExportFormatPDF, dto.CommissionQuery{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "commissions.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportCommissionsUnknownFormat(t *testing.T) {
	svc := NewExportService(newMockCommissionStore(), 100)

	_, err := svc.ExportCommissions(context.Background(), ExportFormat("xlsx"), dto.CommissionQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
