package dto

import (
	"github.com/atelier-labs/commission-api/internal/models"
)

// CreateCommissionRequest is the new-commission form payload. Creation is the
// submission: the stored record starts in the submitted state.
type CreateCommissionRequest struct {
	TaskComplexity models.TaskComplexity `json:"task_complexity" validate:"required,oneof=easy medium hard extreme"`
	Subject        string                `json:"subject" validate:"required,max=200"`
	Description    string                `json:"description" validate:"required,max=3000"`
	ProposedAmount float64               `json:"proposed_amount" validate:"required,gt=0"`
	Tags           []string              `json:"tags" validate:"omitempty,dive,max=40"`
}

// CommissionPatch lists the only fields an owner may change on an existing
// record. Nil means "leave as is".
type CommissionPatch struct {
	TaskComplexity *models.TaskComplexity `json:"task_complexity" validate:"omitempty,oneof=easy medium hard extreme"`
	Subject        *string                `json:"subject" validate:"omitempty,min=1,max=200"`
	Description    *string                `json:"description" validate:"omitempty,min=1,max=3000"`
	ProposedAmount *float64               `json:"proposed_amount" validate:"omitempty,gt=0"`
	Tags           *[]string              `json:"tags" validate:"omitempty,dive,max=40"`
}

// Empty reports whether the patch changes nothing.
func (p CommissionPatch) Empty() bool {
	return p.TaskComplexity == nil && p.Subject == nil && p.Description == nil &&
		p.ProposedAmount == nil && p.Tags == nil
}

// ResubmitCommissionRequest revises a rejected commission and returns it to
// the submitted state.
type ResubmitCommissionRequest struct {
	CommissionPatch
}

// RejectCommissionRequest carries the mandatory rejection reason.
type RejectCommissionRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// OverrideStatusRequest force-sets a status through the admin selector,
// bypassing the guarded transition table.
type OverrideStatusRequest struct {
	Status models.CommissionStatus `json:"status" validate:"required"`
}

// CommissionQuery mirrors the supported listing filters.
type CommissionQuery struct {
	Status          string
	Search          string
	Tags            []string
	IncludeArchived bool
	Page            int
	PageSize        int
}
