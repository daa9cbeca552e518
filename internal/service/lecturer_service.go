package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type lecturerRepository interface {
	FindByID(ctx context.Context, id string) (*models.LecturerDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.LecturerDetail, error)
	List(ctx context.Context, filter models.LecturerFilter) ([]models.LecturerDetail, int, error)
	Update(ctx context.Context, lecturer *models.Lecturer) error
}

// UpdateLecturerProfileRequest modifies the caller's lecturer profile.
type UpdateLecturerProfileRequest struct {
	Headline string  `json:"headline" validate:"required,max=160"`
	Bio      string  `json:"bio"`
	Subjects string  `json:"subjects" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// LecturerService manages lecturer profiles.
type LecturerService struct {
	repo      lecturerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService creates a new lecturer service.
func NewLecturerService(repo lecturerRepository, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LecturerService{repo: repo, validator: validate, logger: logger}
}

// List returns active lecturers for the public directory.
func (s *LecturerService) List(ctx context.Context, filter models.LecturerFilter) ([]models.LecturerDetail, *models.Pagination, error) {
	lecturers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}
	return lecturers, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a lecturer's public profile. Inactive accounts are hidden.
func (s *LecturerService) Get(ctx context.Context, id string) (*models.LecturerDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	if !detail.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
	}
	return detail, nil
}

// GetByUserID returns the lecturer profile owned by the given user.
func (s *LecturerService) GetByUserID(ctx context.Context, userID string) (*models.LecturerDetail, error) {
	detail, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer profile")
	}
	return detail, nil
}

// UpdateByUserID updates the caller's own profile.
func (s *LecturerService) UpdateByUserID(ctx context.Context, userID string, req UpdateLecturerProfileRequest) (*models.LecturerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	detail, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	detail.Headline = req.Headline
	detail.Bio = req.Bio
	detail.Subjects = req.Subjects
	detail.Phone = req.Phone

	if err := s.repo.Update(ctx, &detail.Lecturer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecturer profile")
	}
	return detail, nil
}
