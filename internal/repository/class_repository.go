package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lecturehub/lecturehub-api/internal/models"
)

// ClassRepository handles persistence of scheduled classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `cl.id, cl.course_id, cl.lecturer_id, cl.student_id, cl.student_group_id, cl.starts_at, cl.ends_at, cl.status, cl.notes, cl.created_at, cl.updated_at`

// List returns classes filtered by the provided criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	base := `FROM classes cl
JOIN courses c ON c.id = cl.course_id
LEFT JOIN students s ON s.id = cl.student_id
LEFT JOIN users su ON su.id = s.user_id
LEFT JOIN student_groups g ON g.id = cl.student_group_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("cl.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("cl.lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("cl.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.StudentGroupID != "" {
		conditions = append(conditions, fmt.Sprintf("cl.student_group_id = $%d", len(args)+1))
		args = append(args, filter.StudentGroupID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("cl.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("cl.starts_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("cl.starts_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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
        %s ORDER BY cl.starts_at %s LIMIT %d OFFSET %d`, classColumns, base+clause, order, size, offset)

	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, course_id, lecturer_id, student_id, student_group_id, starts_at, ends_at, status, notes, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a class with contextual info.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s, c.name AS course_name, su.full_name AS student_name, g.name AS group_name
        FROM classes cl
        JOIN courses c ON c.id = cl.course_id
        LEFT JOIN students s ON s.id = cl.student_id
        LEFT JOIN users su ON su.id = s.user_id
        LEFT JOIN student_groups g ON g.id = cl.student_group_id
        WHERE cl.id = $1`, classColumns)
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	if class.Status == "" {
		class.Status = models.ClassStatusScheduled
	}
	const query = `INSERT INTO classes (id, course_id, lecturer_id, student_id, student_group_id, starts_at, ends_at, status, notes, created_at, updated_at)
        VALUES (:id, :course_id, :lecturer_id, :student_id, :student_group_id, :starts_at, :ends_at, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// UpdateStatus transitions a class out of SCHEDULED. The WHERE guard keeps
// completed and cancelled classes immutable under concurrent updates.
func (r *ClassRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) (bool, error) {
	const query = `UPDATE classes SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC(), models.ClassStatusScheduled)
	if err != nil {
		return false, fmt.Errorf("update class status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update class status rows: %w", err)
	}
	return affected > 0, nil
}
