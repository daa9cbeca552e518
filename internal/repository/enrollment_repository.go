package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lecturehub/lecturehub-api/internal/models"
)

// EnrollmentRepository handles persistence of course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `e.id, e.course_id, e.student_id, e.student_group_id, e.group_enrollment_id, e.status, e.approved_at, e.rejected_at, e.created_at`

// List returns course enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, int, error) {
	base := `FROM course_enrollments e
JOIN courses c ON c.id = e.course_id
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN users su ON su.id = s.user_id
LEFT JOIN student_groups g ON g.id = e.student_group_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("c.lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.StudentGroupID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_group_id = $%d", len(args)+1))
		args = append(args, filter.StudentGroupID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT %s, c.name AS course_name, su.full_name AS student_name, g.name AS group_name
        %s ORDER BY e.created_at %s LIMIT %d OFFSET %d`, enrollmentColumns, base+clause, order, size, offset)

	var enrollments []models.CourseEnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns a course enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error) {
	const query = `SELECT id, course_id, student_id, student_group_id, group_enrollment_id, status, approved_at, rejected_at, created_at FROM course_enrollments WHERE id = $1`
	var enrollment models.CourseEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns a course enrollment with contextual info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseEnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, c.name AS course_name, su.full_name AS student_name, g.name AS group_name
        FROM course_enrollments e
        JOIN courses c ON c.id = e.course_id
        LEFT JOIN students s ON s.id = e.student_id
        LEFT JOIN users su ON su.id = s.user_id
        LEFT JOIN student_groups g ON g.id = e.student_group_id
        WHERE e.id = $1`, enrollmentColumns)
	var detail models.CourseEnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsForStudent checks for an enrollment of any status for the
// (course, student) pair. Rejected requests block re-requests.
func (r *EnrollmentRepository) ExistsForStudent(ctx context.Context, courseID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM course_enrollments WHERE course_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student enrollment: %w", err)
	}
	return true, nil
}

// ExistsForGroup checks for a group-level enrollment of any status for the
// (course, group) pair.
func (r *EnrollmentRepository) ExistsForGroup(ctx context.Context, courseID, groupID string) (bool, error) {
	const query = `SELECT 1 FROM course_enrollments WHERE course_id = $1 AND student_group_id = $2 AND student_id IS NULL LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, groupID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new course enrollment request.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	const query = `INSERT INTO course_enrollments (id, course_id, student_id, student_group_id, group_enrollment_id, status, approved_at, rejected_at, created_at)
        VALUES (:id, :course_id, :student_id, :student_group_id, :group_enrollment_id, :status, :approved_at, :rejected_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create course enrollment: %w", err)
	}
	return nil
}

// Decide transitions a PENDING enrollment to the terminal status in a single
// conditional update. The status guard in the WHERE clause closes the window
// between a read and a write, so concurrent duplicate decisions cannot both
// apply; the caller maps a false return to an invalid-state error.
func (r *EnrollmentRepository) Decide(ctx context.Context, id string, status models.EnrollmentStatus, decidedAt time.Time) (bool, error) {
	var query string
	switch status {
	case models.EnrollmentStatusApproved:
		query = `UPDATE course_enrollments SET status = $2, approved_at = $3, rejected_at = NULL WHERE id = $1 AND status = $4`
	case models.EnrollmentStatusRejected:
		query = `UPDATE course_enrollments SET status = $2, rejected_at = $3, approved_at = NULL WHERE id = $1 AND status = $4`
	default:
		return false, fmt.Errorf("decide enrollment: unsupported status %q", status)
	}
	result, err := r.db.ExecContext(ctx, query, id, status, decidedAt, models.EnrollmentStatusPending)
	if err != nil {
		return false, fmt.Errorf("decide course enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decide course enrollment rows: %w", err)
	}
	return affected > 0, nil
}
