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

// LecturerRepository handles persistence of lecturer profiles.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs the repository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

const lecturerDetailColumns = `l.id, l.user_id, l.headline, l.bio, l.subjects, l.phone, l.photo_key, l.created_at, l.updated_at,
        u.email, u.full_name, u.active`

// FindByID returns a lecturer profile with account info.
func (r *LecturerRepository) FindByID(ctx context.Context, id string) (*models.LecturerDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturers l JOIN users u ON u.id = l.user_id WHERE l.id = $1`, lecturerDetailColumns)
	var detail models.LecturerDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID returns the lecturer profile owned by a user.
func (r *LecturerRepository) FindByUserID(ctx context.Context, userID string) (*models.LecturerDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturers l JOIN users u ON u.id = l.user_id WHERE l.user_id = $1`, lecturerDetailColumns)
	var detail models.LecturerDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns active lecturers matching the filter.
func (r *LecturerRepository) List(ctx context.Context, filter models.LecturerFilter) ([]models.LecturerDetail, int, error) {
	base := `FROM lecturers l JOIN users u ON u.id = l.user_id WHERE u.active = TRUE`
	var conditions []string
	var args []interface{}

	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(l.subjects) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Subject)+"%")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(l.headline) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, lecturerDetailColumns, base+clause, size, offset)

	var lecturers []models.LecturerDetail
	if err := r.db.SelectContext(ctx, &lecturers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lecturers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lecturers: %w", err)
	}
	return lecturers, total, nil
}

// Create inserts a new lecturer profile.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) error {
	if lecturer.ID == "" {
		lecturer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lecturer.CreatedAt.IsZero() {
		lecturer.CreatedAt = now
	}
	lecturer.UpdatedAt = now
	const query = `INSERT INTO lecturers (id, user_id, headline, bio, subjects, phone, photo_key, created_at, updated_at)
        VALUES (:id, :user_id, :headline, :bio, :subjects, :phone, :photo_key, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("create lecturer: %w", err)
	}
	return nil
}

// Update updates mutable profile fields.
func (r *LecturerRepository) Update(ctx context.Context, lecturer *models.Lecturer) error {
	lecturer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lecturers SET headline = :headline, bio = :bio, subjects = :subjects, phone = :phone, photo_key = :photo_key, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, lecturer)
	if err != nil {
		return fmt.Errorf("update lecturer: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
