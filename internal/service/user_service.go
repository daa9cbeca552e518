package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/dto"
	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	CountByRole(ctx context.Context) (map[models.UserRole]int, error)
}

// UserService provides admin moderation over user accounts.
type UserService struct {
	repo      userRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(repo userRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, metrics: metrics, validator: validate, logger: logger}
}

// List returns users for the admin console. Unlike the public surfaces this
// includes inactive rows; the active filter is opt-in.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// SetStatus activates or deactivates a user account. Deactivation hides the
// user's public resources without touching historical rows.
func (s *UserService) SetStatus(ctx context.Context, id string, req dto.UpdateUserStatusRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role == models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be moderated")
	}

	if err := s.repo.SetActive(ctx, id, *req.Active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user status")
	}

	user.Active = *req.Active
	s.logger.Info("user status updated",
		zap.String("user_id", id),
		zap.Bool("active", user.Active))
	return user, nil
}

// Stats aggregates per-role user counts with a runtime metrics snapshot.
func (s *UserService) Stats(ctx context.Context) (*dto.AdminStats, error) {
	counts, err := s.repo.CountByRole(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}

	stats := &dto.AdminStats{
		TotalLecturers: counts[models.RoleLecturer],
		TotalStudents:  counts[models.RoleStudent],
		TotalAdmins:    counts[models.RoleAdmin],
	}
	for _, n := range counts {
		stats.TotalUsers += n
	}
	if s.metrics != nil {
		stats.System = s.metrics.Snapshot()
	} else {
		stats.System.GeneratedAt = time.Now().UTC()
	}
	return stats, nil
}
