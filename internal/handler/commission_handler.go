package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/service"
	appErrors "github.com/atelier-labs/commission-api/pkg/errors"
	"github.com/atelier-labs/commission-api/pkg/response"
)

// CommissionHandler exposes the owner-facing commission endpoints.
type CommissionHandler struct {
	commissions *service.CommissionService
}

// NewCommissionHandler constructs CommissionHandler.
func NewCommissionHandler(commissions *service.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissions: commissions}
}

func parseCommissionQuery(c *gin.Context) dto.CommissionQuery {
	var query dto.CommissionQuery
	query.Status = strings.TrimSpace(c.Query("status"))
	query.Search = strings.TrimSpace(c.Query("search"))
	if tags := strings.TrimSpace(c.Query("tags")); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				query.Tags = append(query.Tags, tag)
			}
		}
	}
	query.IncludeArchived = c.Query("include_archived") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		query.PageSize = size
	}
	return query
}

// Create godoc
// @Summary Submit a commission request
// @Tags Commissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateCommissionRequest true "Commission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /commissions [post]
func (h *CommissionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid commission payload"))
		return
	}

	commission, err := h.commissions.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, commission)
}

// List godoc
// @Summary List own commissions
// @Tags Commissions
// @Produce json
// @Param status query string false "Status filter, or all"
// @Param search query string false "Search subject, description or reference"
// @Param tags query string false "Comma-separated tags"
// @Param include_archived query bool false "Include archived records"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /commissions [get]
func (h *CommissionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	commissions, pagination, err := h.commissions.List(c.Request.Context(), parseCommissionQuery(c), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, commissions, pagination)
}

// Get godoc
// @Summary Get commission detail
// @Tags Commissions
// @Produce json
// @Param id path string true "Commission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /commissions/{id} [get]
func (h *CommissionHandler) Get(c *gin.Context) {
	commission, err := h.commissions.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commission, nil)
}

// Update godoc
// @Summary Update an own commission
// @Tags Commissions
// @Accept json
// @Produce json
// @Param id path string true "Commission ID"
// @Param payload body dto.CommissionPatch true "Field patch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /commissions/{id} [patch]
func (h *CommissionHandler) Update(c *gin.Context) {
	var patch dto.CommissionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid patch payload"))
		return
	}

	commission, err := h.commissions.Update(c.Request.Context(), c.Param("id"), patch, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, commission, nil)
}

// Delete godoc
// @Summary Delete an own commission
// @Tags Commissions
// @Param id path string true "Commission ID"
// @Success 204 {object} response.Envelope
// @Router /commissions/{id} [delete]
func (h *CommissionHandler) Delete(c *gin.Context) {
	if err := h.commissions.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Archive godoc
// @Summary Archive a commission
// @Tags Commissions
// @Produce json
// @Param id path string true "Commission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /commissions/{id}/archive [post]
func (h *CommissionHandler) Archive(c *gin.Context) {
	commission, err := h.commissions.Archive(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commission, nil)
}

// Resubmit godoc
// @Summary Resubmit a rejected commission
// @Tags Commissions
// @Accept json
// @Produce json
// @Param id path string true "Commission ID"
// @Param payload body dto.ResubmitCommissionRequest true "Optional revision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /commissions/{id}/resubmit [post]
func (h *CommissionHandler) Resubmit(c *gin.Context) {
	var req dto.ResubmitCommissionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resubmit payload"))
			return
		}
	}

	commission, err := h.commissions.Resubmit(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, commission, nil)
}
