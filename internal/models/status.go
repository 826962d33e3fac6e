package models

// CommissionStatus enumerates the lifecycle states of a commission.
type CommissionStatus string

const (
	StatusDraft     CommissionStatus = "draft"
	StatusSubmitted CommissionStatus = "submitted"
	StatusInReview  CommissionStatus = "in_review"
	StatusApproved  CommissionStatus = "approved"
	StatusAccepted  CommissionStatus = "accepted"
	StatusRejected  CommissionStatus = "rejected"
	StatusCompleted CommissionStatus = "completed"
	StatusArchived  CommissionStatus = "archived"
)

// AllStatuses lists every lifecycle state in display order.
var AllStatuses = []CommissionStatus{
	StatusDraft,
	StatusSubmitted,
	StatusInReview,
	StatusApproved,
	StatusAccepted,
	StatusRejected,
	StatusCompleted,
	StatusArchived,
}

// Valid reports whether the status is one of the enumerated states.
func (s CommissionStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// guardedTransitions is the lifecycle table enforced on the non-override
// paths. The admin override selector deliberately bypasses it.
var guardedTransitions = map[CommissionStatus][]CommissionStatus{
	StatusDraft:     {StatusSubmitted},
	StatusInReview:  {StatusAccepted, StatusRejected},
	StatusRejected:  {StatusSubmitted},
	StatusCompleted: {},
}

// CanTransition reports whether the guarded lifecycle allows moving from one
// state to another. MarkInReview and archival have their own predicates
// because they apply to sets of source states rather than single edges.
func CanTransition(from, to CommissionStatus) bool {
	for _, next := range guardedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanMarkInReview reports whether opening a record for triage should move it
// to in_review. Any state other than in_review itself qualifies.
func CanMarkInReview(from CommissionStatus) bool {
	return from.Valid() && from != StatusInReview
}

// CanArchive reports whether the owner may archive the record. Drafts have
// never been submitted and archived records stay archived.
func CanArchive(from CommissionStatus) bool {
	return from.Valid() && from != StatusDraft && from != StatusArchived
}

// CanResubmit reports whether the owner may revise and resubmit.
func CanResubmit(from CommissionStatus) bool {
	return from == StatusRejected
}
