package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/middleware"
	"github.com/atelier-labs/commission-api/internal/service"
	appErrors "github.com/atelier-labs/commission-api/pkg/errors"
	"github.com/atelier-labs/commission-api/pkg/response"
)

// AdminCommissionHandler exposes the review-desk endpoints.
type AdminCommissionHandler struct {
	commissions *service.CommissionService
	exporter    *service.ExportService
	metrics     *service.MetricsService
}

// NewAdminCommissionHandler constructs AdminCommissionHandler.
func NewAdminCommissionHandler(commissions *service.CommissionService, exporter *service.ExportService, metrics *service.MetricsService) *AdminCommissionHandler {
	return &AdminCommissionHandler{commissions: commissions, exporter: exporter, metrics: metrics}
}

// List godoc
// @Summary List all commissions
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter, or all"
// @Param search query string false "Search subject, description or reference"
// @Param tags query string false "Comma-separated tags"
// @Param include_archived query bool false "Include archived records"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/commissions [get]
func (h *AdminCommissionHandler) List(c *gin.Context) {
	commissions, pagination, err := h.commissions.ListAll(c.Request.Context(), parseCommissionQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commissions, pagination)
}

// MarkInReview godoc
// @Summary Mark a commission as in review
// @Tags Admin
// @Produce json
// @Param id path string true "Commission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/commissions/{id}/review [post]
func (h *AdminCommissionHandler) MarkInReview(c *gin.Context) {
	commission, err := h.commissions.MarkInReview(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordStatusChange(string(commission.Status))
	response.JSON(c, http.StatusOK, commission, nil)
}

// Accept godoc
// @Summary Accept a commission under review
// @Tags Admin
// @Produce json
// @Param id path string true "Commission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/commissions/{id}/accept [post]
func (h *AdminCommissionHandler) Accept(c *gin.Context) {
	commission, err := h.commissions.Accept(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordStatusChange(string(commission.Status))
	response.JSON(c, http.StatusOK, commission, nil)
}

// Reject godoc
// @Summary Reject a commission with a reason
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Commission ID"
// @Param payload body dto.RejectCommissionRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/commissions/{id}/reject [post]
func (h *AdminCommissionHandler) Reject(c *gin.Context) {
	var req dto.RejectCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrReasonRequired.Code, http.StatusBadRequest, "rejection reason required"))
		return
	}

	commission, err := h.commissions.Reject(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordStatusChange(string(commission.Status))
	response.JSON(c, http.StatusOK, commission, nil)
}

// OverrideStatus godoc
// @Summary Force-set a commission status
// @Description Moves a commission to any valid status, bypassing the guarded transitions
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Commission ID"
// @Param payload body dto.OverrideStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/commissions/{id}/status [put]
func (h *AdminCommissionHandler) OverrideStatus(c *gin.Context) {
	var req dto.OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	commission, err := h.commissions.OverrideStatus(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordStatusChange(string(commission.Status))
	response.JSON(c, http.StatusOK, commission, nil)
}

// Stats godoc
// @Summary Commission counts by status
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/commissions/stats [get]
func (h *AdminCommissionHandler) Stats(c *gin.Context) {
	stats, hit, err := h.commissions.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	h.metrics.RecordCacheOperation(hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export commissions as CSV or PDF
// @Tags Admin
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter, or all"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/commissions/export [get]
func (h *AdminCommissionHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exporter.ExportCommissions(c.Request.Context(), format, parseCommissionQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
