package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/commission-api/internal/dto"
	"github.com/atelier-labs/commission-api/internal/service"
	appErrors "github.com/atelier-labs/commission-api/pkg/errors"
	"github.com/atelier-labs/commission-api/pkg/response"
)

// ProfileHandler exposes profile management endpoints.
type ProfileHandler struct {
	service *service.AuthService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(svc *service.AuthService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Update godoc
// @Summary Update profile
// @Description Patch display name, avatar or bio for the current user
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.UpdateProfileRequest true "Profile patch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile [patch]
func (h *ProfileHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// CompleteOnboarding godoc
// @Summary Complete onboarding
// @Description Finalise first-run profile setup and mark onboarding done
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.CompleteOnboardingRequest true "Onboarding payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile/onboarding [post]
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CompleteOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid onboarding payload"))
		return
	}

	user, err := h.service.CompleteOnboarding(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}
