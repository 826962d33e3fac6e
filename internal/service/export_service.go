package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/models"
	appErrors "github.com/atelier-labs/commission-api/pkg/errors"
	"github.com/atelier-labs/commission-api/pkg/export"
)

// ExportFormat enumerates supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus response metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the admin commission table as CSV or PDF.
type ExportService struct {
	repo    commissionStore
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	maxRows int
}

// NewExportService constructs an ExportService.
func NewExportService(repo commissionStore, maxRows int) *ExportService {
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &ExportService{
		repo:    repo,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		maxRows: maxRows,
	}
}

var exportHeaders = []string{"Reference", "Subject", "Complexity", "Amount", "Status", "Tags", "Created"}

// ExportCommissions renders all commissions matching the filter.
func (s *ExportService) ExportCommissions(ctx context.Context, format ExportFormat, query dto.CommissionQuery) (*ExportResult, error) {
	filter := models.CommissionFilter{
		Status:          query.Status,
		Search:          query.Search,
		Tags:            query.Tags,
		IncludeArchived: query.IncludeArchived,
		Page:            1,
		PageSize:        s.maxRows,
	}
	commissions, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commissions for export")
	}

	dataset := export.Dataset{Headers: exportHeaders}
	for _, c := range commissions {
		dataset.Append(
			c.ReferenceNumber,
			c.Subject,
			string(c.TaskComplexity),
			fmt.Sprintf("%.2f", c.ProposedAmount),
			string(c.Status),
			strings.Join(c.Tags, ", "),
			c.CreatedAt.UTC().Format("2006-01-02"),
		)
	}

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "commissions.csv"}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, "Commission Requests")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "commissions.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
