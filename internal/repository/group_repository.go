package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lecturehub/lecturehub-api/internal/models"
)

// GroupRepository handles persistence of student groups and their
// membership enrollments.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupColumns = `id, name, group_code, created_by, active, created_at, updated_at`

// CreateWithOwner inserts the group and the creator's APPROVED membership in
// one transaction.
func (r *GroupRepository) CreateWithOwner(ctx context.Context, group *models.StudentGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	group.Active = true

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create group: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const groupQuery = `INSERT INTO student_groups (id, name, group_code, created_by, active, created_at, updated_at)
        VALUES (:id, :name, :group_code, :created_by, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, groupQuery, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	owner := models.GroupEnrollment{
		ID:              uuid.NewString(),
		GroupID:         group.ID,
		StudentID:       group.CreatedBy,
		Status:          models.EnrollmentStatusApproved,
		ApprovedByOwner: true,
		ApprovedAt:      &now,
		CreatedAt:       now,
	}
	const memberQuery = `INSERT INTO group_enrollments (id, group_id, student_id, status, approved_by_owner, approved_at, rejected_at, created_at)
        VALUES (:id, :group_id, :student_id, :status, :approved_by_owner, :approved_at, :rejected_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, memberQuery, owner); err != nil {
		return fmt.Errorf("create owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create group: %w", err)
	}
	return nil
}

// FindByID returns a group by its ID.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_groups WHERE id = $1`, groupColumns)
	var group models.StudentGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindActiveByCode returns an active group by its join code.
func (r *GroupRepository) FindActiveByCode(ctx context.Context, code string) (*models.StudentGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_groups WHERE group_code = $1 AND active = TRUE`, groupColumns)
	var group models.StudentGroup
	if err := r.db.GetContext(ctx, &group, query, code); err != nil {
		return nil, err
	}
	return &group, nil
}

// CodeExists reports whether any group holds the given code.
func (r *GroupRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM student_groups WHERE group_code = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group code: %w", err)
	}
	return true, nil
}

// ListForStudent returns active groups the student created or is an approved
// member of.
func (r *GroupRepository) ListForStudent(ctx context.Context, studentID string) ([]models.StudentGroup, error) {
	const query = `SELECT DISTINCT g.id, g.name, g.group_code, g.created_by, g.active, g.created_at, g.updated_at
        FROM student_groups g
        LEFT JOIN group_enrollments ge ON ge.group_id = g.id AND ge.status = $2
        WHERE g.active = TRUE AND (g.created_by = $1 OR ge.student_id = $1)
        ORDER BY g.created_at DESC`
	var groups []models.StudentGroup
	if err := r.db.SelectContext(ctx, &groups, query, studentID, models.EnrollmentStatusApproved); err != nil {
		return nil, fmt.Errorf("list groups for student: %w", err)
	}
	return groups, nil
}

// SetActive toggles the soft-delete flag for a group.
func (r *GroupRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE student_groups SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set group active: %w", err)
	}
	return nil
}

// ListMembers returns group enrollments with student info, optionally
// restricted to a status.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID string, status models.EnrollmentStatus) ([]models.GroupMember, error) {
	query := `SELECT ge.id, ge.group_id, ge.student_id, ge.status, ge.approved_by_owner, ge.approved_at, ge.rejected_at, ge.created_at,
        u.full_name AS student_name, u.email AS student_email
        FROM group_enrollments ge
        JOIN students s ON s.id = ge.student_id
        JOIN users u ON u.id = s.user_id
        WHERE ge.group_id = $1`
	args := []interface{}{groupID}
	if status != "" {
		query += " AND ge.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY ge.created_at ASC"

	var members []models.GroupMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// FindEnrollmentByID returns a group enrollment by its ID.
func (r *GroupRepository) FindEnrollmentByID(ctx context.Context, id string) (*models.GroupEnrollment, error) {
	const query = `SELECT id, group_id, student_id, status, approved_by_owner, approved_at, rejected_at, created_at FROM group_enrollments WHERE id = $1`
	var enrollment models.GroupEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// MembershipExists checks for a (student, group) join record in any status.
func (r *GroupRepository) MembershipExists(ctx context.Context, groupID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM group_enrollments WHERE group_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, groupID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// CreateJoinRequest inserts a PENDING group enrollment. The unique
// (student_id, group_id) constraint backs the duplicate check.
func (r *GroupRepository) CreateJoinRequest(ctx context.Context, enrollment *models.GroupEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	const query = `INSERT INTO group_enrollments (id, group_id, student_id, status, approved_by_owner, approved_at, rejected_at, created_at)
        VALUES (:id, :group_id, :student_id, :status, :approved_by_owner, :approved_at, :rejected_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create join request: %w", err)
	}
	return nil
}

// ApproveJoin approves a PENDING group enrollment and cascades PENDING
// course enrollments for every course the group already holds an APPROVED
// enrollment for, all in one transaction. Group approval never grants course
// access directly; it only queues per-course requests mirroring the group's
// own standing. Returns (false, 0, nil) when the enrollment was no longer
// PENDING.
func (r *GroupRepository) ApproveJoin(ctx context.Context, enrollmentID string, approvedAt time.Time) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin approve join: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const decide = `UPDATE group_enrollments SET status = $2, approved_by_owner = TRUE, approved_at = $3 WHERE id = $1 AND status = $4`
	result, err := tx.ExecContext(ctx, decide, enrollmentID, models.EnrollmentStatusApproved, approvedAt, models.EnrollmentStatusPending)
	if err != nil {
		return false, 0, fmt.Errorf("approve join: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("approve join rows: %w", err)
	}
	if affected == 0 {
		return false, 0, nil
	}

	var enrollment models.GroupEnrollment
	const load = `SELECT id, group_id, student_id, status, approved_by_owner, approved_at, rejected_at, created_at FROM group_enrollments WHERE id = $1`
	if err := tx.GetContext(ctx, &enrollment, load, enrollmentID); err != nil {
		return false, 0, fmt.Errorf("load approved join: %w", err)
	}

	var courseIDs []string
	const approvedCourses = `SELECT DISTINCT course_id FROM course_enrollments WHERE student_group_id = $1 AND student_id IS NULL AND status = $2`
	if err := tx.SelectContext(ctx, &courseIDs, approvedCourses, enrollment.GroupID, models.EnrollmentStatusApproved); err != nil {
		return false, 0, fmt.Errorf("list approved group courses: %w", err)
	}

	const insert = `INSERT INTO course_enrollments (id, course_id, student_id, student_group_id, group_enrollment_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, courseID := range courseIDs {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), courseID, enrollment.StudentID, enrollment.GroupID, enrollment.ID, models.EnrollmentStatusPending, approvedAt); err != nil {
			return false, 0, fmt.Errorf("cascade course enrollment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit approve join: %w", err)
	}
	return true, len(courseIDs), nil
}

// RejectJoin rejects a PENDING group enrollment via the same conditional
// update guard. No cascade.
func (r *GroupRepository) RejectJoin(ctx context.Context, enrollmentID string, rejectedAt time.Time) (bool, error) {
	const query = `UPDATE group_enrollments SET status = $2, rejected_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, enrollmentID, models.EnrollmentStatusRejected, rejectedAt, models.EnrollmentStatusPending)
	if err != nil {
		return false, fmt.Errorf("reject join: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reject join rows: %w", err)
	}
	return affected > 0, nil
}

// RemoveMember deletes a member's enrollment row. The creator guard lives in
// the service layer; this remains a plain delete.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, studentID string) (bool, error) {
	const query = `DELETE FROM group_enrollments WHERE group_id = $1 AND student_id = $2`
	result, err := r.db.ExecContext(ctx, query, groupID, studentID)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove member rows: %w", err)
	}
	return affected > 0, nil
}
