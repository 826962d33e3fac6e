package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/middleware"
	"github.com/atelier-labs/commission-api/internal/service"
	"github.com/atelier-labs/commission-api/pkg/response"
)

// PortfolioHandler exposes the public portfolio endpoints.
type PortfolioHandler struct {
	portfolio *service.PortfolioService
	metrics   *service.MetricsService
}

// NewPortfolioHandler constructs PortfolioHandler.
func NewPortfolioHandler(portfolio *service.PortfolioService, metrics *service.MetricsService) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio, metrics: metrics}
}

// Categories godoc
// @Summary List portfolio categories
// @Tags Portfolio
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portfolio/categories [get]
func (h *PortfolioHandler) Categories(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.portfolio.Categories(), nil)
}

// ListProjects godoc
// @Summary List portfolio projects
// @Tags Portfolio
// @Produce json
// @Param category query string false "Category filter"
// @Param featured query bool false "Featured only"
// @Success 200 {object} response.Envelope
// @Router /portfolio/projects [get]
func (h *PortfolioHandler) ListProjects(c *gin.Context) {
	var query dto.ProjectQuery
	query.Category = strings.TrimSpace(c.Query("category"))
	if featured := c.Query("featured"); featured != "" {
		v := featured == "true"
		query.Featured = &v
	}

	projects, hit, err := h.portfolio.ListProjects(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	if h.metrics != nil {
		h.metrics.RecordCacheOperation(hit)
	}
	response.JSON(c, http.StatusOK, projects, nil, middleware.ExtractMeta(c))
}

// GetProject godoc
// @Summary Get portfolio project detail
// @Tags Portfolio
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /portfolio/projects/{id} [get]
func (h *PortfolioHandler) GetProject(c *gin.Context) {
	project, err := h.portfolio.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}
