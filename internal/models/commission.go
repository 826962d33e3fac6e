package models

import (
	"time"

	"github.com/lib/pq"
)

// TaskComplexity enumerates the pricing tiers a commission can be filed under.
type TaskComplexity string

const (
	ComplexityEasy    TaskComplexity = "easy"
	ComplexityMedium  TaskComplexity = "medium"
	ComplexityHard    TaskComplexity = "hard"
	ComplexityExtreme TaskComplexity = "extreme"
)

// Valid reports whether the complexity is one of the known tiers.
func (tc TaskComplexity) Valid() bool {
	switch tc {
	case ComplexityEasy, ComplexityMedium, ComplexityHard, ComplexityExtreme:
		return true
	}
	return false
}

// MaxDescriptionLength caps the free-text description of a commission.
const MaxDescriptionLength = 3000

// Commission is a single service request record. The reference number is
// assigned once at creation and never changes; rejection_reason is non-nil
// only while the latest rejection has not been superseded by a successful
// resubmission.
type Commission struct {
	ID              string           `db:"id" json:"id"`
	UserID          string           `db:"user_id" json:"user_id"`
	ReferenceNumber string           `db:"reference_number" json:"reference_number"`
	TaskComplexity  TaskComplexity   `db:"task_complexity" json:"task_complexity"`
	Subject         string           `db:"subject" json:"subject"`
	Description     string           `db:"description" json:"description"`
	ProposedAmount  float64          `db:"proposed_amount" json:"proposed_amount"`
	Status          CommissionStatus `db:"status" json:"status"`
	Tags            pq.StringArray   `db:"tags" json:"tags"`
	RejectionReason *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// CommissionFilter captures the listing predicate: status (empty or "all"
// disables the clause), case-insensitive substring search over subject,
// description and reference number, tag intersection, and archived
// visibility.
type CommissionFilter struct {
	UserID          string
	Status          string
	Search          string
	Tags            []string
	IncludeArchived bool
	Page            int
	PageSize        int
}

// CommissionStats aggregates record counts per status for the admin panel.
type CommissionStats struct {
	Total       int                      `json:"total"`
	ByStatus    map[CommissionStatus]int `json:"by_status"`
	GeneratedAt time.Time                `json:"generated_at"`
}
