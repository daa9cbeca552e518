package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	Update(ctx context.Context, student *models.Student) error
}

// UpdateStudentProfileRequest modifies the caller's student profile.
type UpdateStudentProfileRequest struct {
	GradeLevel string  `json:"grade_level" validate:"required"`
	Phone      *string `json:"phone,omitempty"`
}

// StudentService manages student profiles.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates a new student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// GetByUserID returns the student profile owned by the given user.
func (s *StudentService) GetByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return detail, nil
}

// UpdateByUserID updates the caller's own profile.
func (s *StudentService) UpdateByUserID(ctx context.Context, userID string, req UpdateStudentProfileRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	detail, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	detail.GradeLevel = req.GradeLevel
	detail.Phone = req.Phone

	if err := s.repo.Update(ctx, &detail.Student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student profile")
	}
	return detail, nil
}
