package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) (bool, error)
}

type classCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ScheduleClassRequest schedules a session for a course. Exactly one of
// StudentID and StudentGroupID must be set.
type ScheduleClassRequest struct {
	CourseID       string    `json:"course_id" validate:"required"`
	StudentID      string    `json:"student_id"`
	StudentGroupID string    `json:"student_group_id"`
	StartsAt       time.Time `json:"starts_at" validate:"required"`
	EndsAt         time.Time `json:"ends_at" validate:"required"`
	Notes          string    `json:"notes"`
}

// ClassStatusRequest moves a class out of SCHEDULED.
type ClassStatusRequest struct {
	Status models.ClassStatus `json:"status" validate:"required,oneof=COMPLETED CANCELLED"`
}

// ClassService manages scheduled class sessions.
type ClassService struct {
	repo      classRepository
	courses   classCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService creates a new class service.
func NewClassService(repo classRepository, courses classCourseReader, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns classes; the handler scopes the filter to the caller's role.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a class with display info.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return detail, nil
}

// Schedule creates a SCHEDULED class for one of the lecturer's courses.
func (s *ClassService) Schedule(ctx context.Context, lecturerID string, req ScheduleClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if (req.StudentID == "") == (req.StudentGroupID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of student_id and student_group_id must be set")
	}
	if !req.StartsAt.Before(req.EndsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "starts_at must be before ends_at")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.LecturerID != lecturerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another lecturer")
	}

	class := &models.Class{
		CourseID:   req.CourseID,
		LecturerID: lecturerID,
		StartsAt:   req.StartsAt.UTC(),
		EndsAt:     req.EndsAt.UTC(),
		Status:     models.ClassStatusScheduled,
		Notes:      req.Notes,
	}
	if req.StudentID != "" {
		class.StudentID = &req.StudentID
	} else {
		class.StudentGroupID = &req.StudentGroupID
	}

	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// UpdateStatus completes or cancels a scheduled class. Terminal classes stay
// terminal; a late transition fails the precondition.
func (s *ClassService) UpdateStatus(ctx context.Context, id, lecturerID string, req ClassStatusRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.LecturerID != lecturerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another lecturer")
	}

	applied, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	if !applied {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "class is no longer scheduled")
	}

	class.Status = req.Status
	return class, nil
}
