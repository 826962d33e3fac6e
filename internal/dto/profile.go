package dto

// UpdateProfileRequest is the explicit patch an owner may apply to their
// profile. Nil means "leave as is".
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=80"`
	Avatar      *string `json:"avatar" validate:"omitempty,url"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
}

// Empty reports whether the patch changes nothing.
func (p UpdateProfileRequest) Empty() bool {
	return p.DisplayName == nil && p.Avatar == nil && p.Bio == nil
}

// CompleteOnboardingRequest finishes the one-time post-signup profile step
// and flips the onboarding flag.
type CompleteOnboardingRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=80"`
	Avatar      string `json:"avatar" validate:"omitempty,url"`
	Bio         string `json:"bio" validate:"omitempty,max=1000"`
}
