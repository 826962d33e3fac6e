package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/atelier-labs/commission-api/internal/models"
)

const commissionColumns = `id, user_id, reference_number, task_complexity, subject, description, proposed_amount, status, tags, rejection_reason, created_at, updated_at`

// CommissionFieldUpdate lists the fields an owner-side patch may change.
// Nil means "leave as is".
type CommissionFieldUpdate struct {
	TaskComplexity *models.TaskComplexity
	Subject        *string
	Description    *string
	ProposedAmount *float64
	Tags           *[]string
}

// Empty reports whether the update changes nothing.
func (u CommissionFieldUpdate) Empty() bool {
	return u.TaskComplexity == nil && u.Subject == nil && u.Description == nil &&
		u.ProposedAmount == nil && u.Tags == nil
}

// CommissionRepository provides database access for commission records.
type CommissionRepository struct {
	db *sqlx.DB
}

// NewCommissionRepository creates a new instance of CommissionRepository.
func NewCommissionRepository(db *sqlx.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// Create inserts a new commission, assigning id, timestamps, and the
// per-year reference number in a single transaction.
func (r *CommissionRepository) Create(ctx context.Context, commission *models.Commission) error {
	if commission.ID == "" {
		commission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if commission.CreatedAt.IsZero() {
		commission.CreatedAt = now
	}
	commission.UpdatedAt = now
	if commission.Tags == nil {
		commission.Tags = pq.StringArray{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create commission: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	year := commission.CreatedAt.Year()
	const seqQuery = `INSERT INTO commission_counters (year, last_seq) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_seq = commission_counters.last_seq + 1
		RETURNING last_seq`
	var seq int
	if err := tx.GetContext(ctx, &seq, seqQuery, year); err != nil {
		return fmt.Errorf("next commission sequence: %w", err)
	}
	commission.ReferenceNumber = fmt.Sprintf("COM-%d-%03d", year, seq)

	const insertQuery = `INSERT INTO commissions (id, user_id, reference_number, task_complexity, subject, description, proposed_amount, status, tags, rejection_reason, created_at, updated_at)
		VALUES (:id, :user_id, :reference_number, :task_complexity, :subject, :description, :proposed_amount, :status, :tags, :rejection_reason, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, commission); err != nil {
		return fmt.Errorf("create commission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create commission: %w", err)
	}
	return nil
}

// GetByID returns a commission by identifier.
func (r *CommissionRepository) GetByID(ctx context.Context, id string) (*models.Commission, error) {
	query := fmt.Sprintf(`SELECT %s FROM commissions WHERE id = $1 LIMIT 1`, commissionColumns)
	var commission models.Commission
	if err := r.db.GetContext(ctx, &commission, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find commission by id: %w", err)
	}
	return &commission, nil
}

// List returns commissions matching the filter with a total count. A record
// matches when every active clause holds: status equality (unless "all"),
// case-insensitive substring search over subject, description, and reference
// number, tag intersection, and archived visibility.
func (r *CommissionRepository) List(ctx context.Context, filter models.CommissionFilter) ([]models.Commission, int, error) {
	baseQuery := `FROM commissions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	statusFilter := strings.ToLower(strings.TrimSpace(filter.Status))
	if statusFilter != "" && statusFilter != "all" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, statusFilter)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(subject) LIKE $%d OR LOWER(description) LIKE $%d OR LOWER(reference_number) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("tags && $%d", len(args)+1))
		args = append(args, pq.Array(filter.Tags))
	}
	if !filter.IncludeArchived && statusFilter != string(models.StatusArchived) {
		conditions = append(conditions, fmt.Sprintf("status <> $%d", len(args)+1))
		args = append(args, models.StatusArchived)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	// The export path reads up to its configured row cap in one page; the API
	// layer clamps interactive page sizes before building the filter.
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", commissionColumns, baseQuery, pageSize, offset)

	var commissions []models.Commission
	if err := r.db.SelectContext(ctx, &commissions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list commissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count commissions: %w", err)
	}

	return commissions, total, nil
}

// UpdateFields applies an owner patch, refreshing updated_at. Returns
// sql.ErrNoRows when the record does not exist.
func (r *CommissionRepository) UpdateFields(ctx context.Context, id string, update CommissionFieldUpdate, updatedAt time.Time) error {
	assignments, args := buildFieldAssignments(update)
	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, updatedAt)
	args = append(args, id)

	query := fmt.Sprintf("UPDATE commissions SET %s WHERE id = $%d", strings.Join(assignments, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update commission fields: %w", err)
	}
	return requireRowsAffected(result)
}

// UpdateStatus force-sets the status, leaving any rejection reason untouched.
func (r *CommissionRepository) UpdateStatus(ctx context.Context, id string, status models.CommissionStatus, updatedAt time.Time) error {
	const query = `UPDATE commissions SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update commission status: %w", err)
	}
	return requireRowsAffected(result)
}

// UpdateStatusWithReason sets the status and persists the rejection reason.
func (r *CommissionRepository) UpdateStatusWithReason(ctx context.Context, id string, status models.CommissionStatus, reason string, updatedAt time.Time) error {
	const query = `UPDATE commissions SET status = $2, rejection_reason = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, reason, updatedAt)
	if err != nil {
		return fmt.Errorf("update commission status with reason: %w", err)
	}
	return requireRowsAffected(result)
}

// Resubmit applies the revision patch, returns the record to submitted, and
// clears the rejection reason in one statement. The status guard in the WHERE
// clause makes the reason survive a failed resubmission.
func (r *CommissionRepository) Resubmit(ctx context.Context, id string, update CommissionFieldUpdate, updatedAt time.Time) error {
	assignments, args := buildFieldAssignments(update)
	assignments = append(assignments,
		fmt.Sprintf("status = $%d", len(args)+1),
		"rejection_reason = NULL",
		fmt.Sprintf("updated_at = $%d", len(args)+2),
	)
	args = append(args, models.StatusSubmitted, updatedAt)
	args = append(args, id, models.StatusRejected)

	query := fmt.Sprintf("UPDATE commissions SET %s WHERE id = $%d AND status = $%d",
		strings.Join(assignments, ", "), len(args)-1, len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("resubmit commission: %w", err)
	}
	return requireRowsAffected(result)
}

// Delete removes a commission outright.
func (r *CommissionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM commissions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete commission: %w", err)
	}
	return requireRowsAffected(result)
}

// CountByStatus aggregates record counts per status.
func (r *CommissionRepository) CountByStatus(ctx context.Context) (map[models.CommissionStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM commissions GROUP BY status`
	rows := []struct {
		Status models.CommissionStatus `db:"status"`
		Count  int                     `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count commissions by status: %w", err)
	}
	counts := make(map[models.CommissionStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func buildFieldAssignments(update CommissionFieldUpdate) ([]string, []interface{}) {
	var assignments []string
	var args []interface{}

	if update.TaskComplexity != nil {
		assignments = append(assignments, fmt.Sprintf("task_complexity = $%d", len(args)+1))
		args = append(args, *update.TaskComplexity)
	}
	if update.Subject != nil {
		assignments = append(assignments, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, *update.Subject)
	}
	if update.Description != nil {
		assignments = append(assignments, fmt.Sprintf("description = $%d", len(args)+1))
		args = append(args, *update.Description)
	}
	if update.ProposedAmount != nil {
		assignments = append(assignments, fmt.Sprintf("proposed_amount = $%d", len(args)+1))
		args = append(args, *update.ProposedAmount)
	}
	if update.Tags != nil {
		assignments = append(assignments, fmt.Sprintf("tags = $%d", len(args)+1))
		args = append(args, pq.Array(*update.Tags))
	}

	return assignments, args
}

func requireRowsAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
