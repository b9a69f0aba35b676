package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/devbuild/doctorate-api/internal/models"
)

// DefenseRepository handles persistence of defense requests and their jury.
type DefenseRepository struct {
	db *sqlx.DB
}

// NewDefenseRepository constructs the repository.
func NewDefenseRepository(db *sqlx.DB) *DefenseRepository {
	return &DefenseRepository{db: db}
}

const defenseColumns = `id, candidate_id, enrollment_id, status, article_count_q1q2, conference_count,
        training_credit_hours, prereq_admin_approved, admin_comment, scheduled_at, venue, created_at`

// Create persists a new defense request.
func (r *DefenseRepository) Create(ctx context.Context, defense *models.DefenseRequest) error {
	if defense.ID == "" {
		defense.ID = uuid.NewString()
	}
	if defense.CreatedAt.IsZero() {
		defense.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO defense_requests (id, candidate_id, enrollment_id, status, article_count_q1q2,
        conference_count, training_credit_hours, prereq_admin_approved, admin_comment, scheduled_at, venue, created_at)
        VALUES (:id, :candidate_id, :enrollment_id, :status, :article_count_q1q2,
        :conference_count, :training_credit_hours, :prereq_admin_approved, :admin_comment, :scheduled_at, :venue, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, defense); err != nil {
		return fmt.Errorf("create defense request: %w", err)
	}
	return nil
}

// FindByID returns a defense request by its ID.
func (r *DefenseRepository) FindByID(ctx context.Context, id string) (*models.DefenseRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM defense_requests WHERE id = $1`, defenseColumns)
	var defense models.DefenseRequest
	if err := r.db.GetContext(ctx, &defense, query, id); err != nil {
		return nil, err
	}
	return &defense, nil
}

// List returns defense requests filtered by the provided criteria.
func (r *DefenseRepository) List(ctx context.Context, filter models.DefenseFilter) ([]models.DefenseRequest, int, error) {
	var conditions []string
	var args []interface{}

	if filter.CandidateID != "" {
		conditions = append(conditions, fmt.Sprintf("candidate_id = $%d", len(args)+1))
		args = append(args, filter.CandidateID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM defense_requests%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		defenseColumns, clause, size, offset)

	var defenses []models.DefenseRequest
	if err := r.db.SelectContext(ctx, &defenses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list defense requests: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM defense_requests" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count defense requests: %w", err)
	}
	return defenses, total, nil
}

// UpdateStatus moves a request to a new status.
func (r *DefenseRepository) UpdateStatus(ctx context.Context, id string, status models.DefenseStatus) error {
	const query = `UPDATE defense_requests SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update defense status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordDecision stores the administrative decision together with the
// resulting status and prerequisite flag.
func (r *DefenseRepository) RecordDecision(ctx context.Context, id string, status models.DefenseStatus, prereqApproved bool, comment *string) error {
	const query = `UPDATE defense_requests SET status = $2, prereq_admin_approved = $3, admin_comment = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, prereqApproved, comment)
	if err != nil {
		return fmt.Errorf("record defense decision: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Schedule stamps date and venue and moves the request to SCHEDULED.
func (r *DefenseRepository) Schedule(ctx context.Context, id string, when time.Time, venue string) error {
	const query = `UPDATE defense_requests SET scheduled_at = $2, venue = $3, status = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, when, venue, models.DefenseStatusScheduled)
	if err != nil {
		return fmt.Errorf("schedule defense: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReplaceJury swaps the full jury set and moves the request to
// JURY_PROPOSED inside a single transaction.
func (r *DefenseRepository) ReplaceJury(ctx context.Context, defenseID string, members []models.JuryMember) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace jury: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM jury_members WHERE defense_id = $1`, defenseID); err != nil {
		return fmt.Errorf("delete previous jury: %w", err)
	}

	const insert = `INSERT INTO jury_members (id, defense_id, full_name, email, institution, role)
        VALUES (:id, :defense_id, :full_name, :email, :institution, :role)`
	for i := range members {
		if members[i].ID == "" {
			members[i].ID = uuid.NewString()
		}
		members[i].DefenseID = defenseID
		if _, err := tx.NamedExecContext(ctx, insert, members[i]); err != nil {
			return fmt.Errorf("insert jury member: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE defense_requests SET status = $2 WHERE id = $1`, defenseID, models.DefenseStatusJuryProposed)
	if err != nil {
		return fmt.Errorf("update defense status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace jury: %w", err)
	}
	return nil
}

// ListJury returns the jury members of a defense request.
func (r *DefenseRepository) ListJury(ctx context.Context, defenseID string) ([]models.JuryMember, error) {
	const query = `SELECT id, defense_id, full_name, email, institution, role FROM jury_members WHERE defense_id = $1 ORDER BY role, full_name`
	var members []models.JuryMember
	if err := r.db.SelectContext(ctx, &members, query, defenseID); err != nil {
		return nil, fmt.Errorf("list jury members: %w", err)
	}
	return members, nil
}
