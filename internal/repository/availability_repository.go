package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lecturehub/lecturehub-api/internal/models"
)

// AvailabilityRepository handles persistence of availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, lecturer_id, recurring, day_of_week, specific_date, start_time, end_time, created_at`

// List returns availability windows for a lecturer.
func (r *AvailabilityRepository) List(ctx context.Context, filter models.AvailabilityFilter) ([]models.Availability, int, error) {
	base := `FROM availability WHERE lecturer_id = $1`
	args := []interface{}{filter.LecturerID}
	if filter.Recurring != nil {
		base += fmt.Sprintf(" AND recurring = $%d", len(args)+1)
		args = append(args, *filter.Recurring)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY recurring DESC, day_of_week, specific_date, start_time LIMIT %d OFFSET %d", availabilityColumns, base, size, offset)
	var windows []models.Availability
	if err := r.db.SelectContext(ctx, &windows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list availability: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count availability: %w", err)
	}
	return windows, total, nil
}

// FindByID returns an availability window by its ID.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.Availability, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability WHERE id = $1`, availabilityColumns)
	var window models.Availability
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// Create persists a new availability window.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.Availability) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	if window.CreatedAt.IsZero() {
		window.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO availability (id, lecturer_id, recurring, day_of_week, specific_date, start_time, end_time, created_at)
        VALUES (:id, :lecturer_id, :recurring, :day_of_week, :specific_date, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Update replaces the window definition.
func (r *AvailabilityRepository) Update(ctx context.Context, window *models.Availability) error {
	const query = `UPDATE availability SET recurring = :recurring, day_of_week = :day_of_week, specific_date = :specific_date, start_time = :start_time, end_time = :end_time WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}

// Delete removes an availability window.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM availability WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}
