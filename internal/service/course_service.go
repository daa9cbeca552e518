package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type flyerStorage interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

// CreateCourseRequest captures fields for publishing a course.
type CreateCourseRequest struct {
	Name            string  `json:"name" validate:"required"`
	Subject         string  `json:"subject" validate:"required"`
	Level           string  `json:"level" validate:"required"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	HourlyRate      float64 `json:"hourly_rate" validate:"required,gt=0"`
	Description     string  `json:"description"`
	Flyer           []byte  `json:"flyer,omitempty"`
	FlyerName       string  `json:"flyer_name,omitempty"`
}

// UpdateCourseRequest modifies course fields.
type UpdateCourseRequest struct {
	Name            string  `json:"name" validate:"required"`
	Subject         string  `json:"subject" validate:"required"`
	Level           string  `json:"level" validate:"required"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	HourlyRate      float64 `json:"hourly_rate" validate:"required,gt=0"`
	Description     string  `json:"description"`
}

// CourseService handles the course catalog workflows.
type CourseService struct {
	repo      courseRepository
	storage   flyerStorage
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates a new course service.
func NewCourseService(repo courseRepository, storage flyerStorage, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, storage: storage, cache: cache, validator: validate, logger: logger}
}

const courseCachePrefix = "catalog:courses"

type cachedCourseList struct {
	Courses    []models.CourseDetail `json:"courses"`
	Pagination *models.Pagination    `json:"pagination"`
}

// List returns the public catalog. Non-admin callers only ever see active
// courses; the handler pins Active before calling.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, bool, error) {
	key := courseCacheKey(filter)
	if s.cache != nil && s.cache.Enabled() {
		var cached cachedCourseList
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Courses, cached.Pagination, true, nil
		}
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	pagination := models.NewPagination(filter.Page, filter.PageSize, total)

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, cachedCourseList{Courses: courses, Pagination: pagination}, 0); err != nil {
			s.logger.Warn("failed to cache course list", zap.Error(err))
		}
	}
	return courses, pagination, false, nil
}

// Get returns a course by ID. Inactive courses are hidden unless includeInactive.
func (s *CourseService) Get(ctx context.Context, id string, includeInactive bool) (*models.CourseDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !detail.Active && !includeInactive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return detail, nil
}

// Create publishes a new course owned by the lecturer. When a flyer payload is
// present it is stored after the insert; a failed store rolls the course back
// with a best-effort delete so no course row points at a missing file.
func (s *CourseService) Create(ctx context.Context, lecturerID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		LecturerID:      lecturerID,
		Name:            req.Name,
		Subject:         req.Subject,
		Level:           req.Level,
		DurationMinutes: req.DurationMinutes,
		HourlyRate:      req.HourlyRate,
		Description:     req.Description,
		Active:          true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	if len(req.Flyer) > 0 && s.storage != nil {
		flyerKey := fmt.Sprintf("flyers/%s_%s", course.ID, flyerBasename(req.FlyerName))
		if _, err := s.storage.Save(flyerKey, req.Flyer); err != nil {
			if delErr := s.repo.Delete(ctx, course.ID); delErr != nil {
				s.logger.Error("failed to roll back course after flyer store failure",
					zap.String("course_id", course.ID), zap.Error(delErr))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store course flyer")
		}
		course.FlyerKey = &flyerKey
		if err := s.repo.Update(ctx, course); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach course flyer")
		}
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// Update modifies a course owned by the lecturer.
func (s *CourseService) Update(ctx context.Context, id, lecturerID string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.ownedCourse(ctx, id, lecturerID)
	if err != nil {
		return nil, err
	}

	course.Name = req.Name
	course.Subject = req.Subject
	course.Level = req.Level
	course.DurationMinutes = req.DurationMinutes
	course.HourlyRate = req.HourlyRate
	course.Description = req.Description

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// Deactivate soft-deletes a course. Existing enrollments and classes keep
// their course reference.
func (s *CourseService) Deactivate(ctx context.Context, id, lecturerID string) error {
	if _, err := s.ownedCourse(ctx, id, lecturerID); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
	}
	s.invalidateCatalog(ctx)
	return nil
}

// ownedCourse loads a course and enforces lecturer ownership.
func (s *CourseService) ownedCourse(ctx context.Context, id, lecturerID string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.LecturerID != lecturerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another lecturer")
	}
	return course, nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, courseCachePrefix+":*"); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
}

// flyerBasename strips any directory components from the client-supplied
// flyer name so the storage key cannot point outside the flyers directory.
func flyerBasename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return "flyer"
	}
	return base
}

func courseCacheKey(filter models.CourseFilter) string {
	active := "any"
	if filter.Active != nil {
		active = fmt.Sprintf("%t", *filter.Active)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%d:%d:%s:%s",
		courseCachePrefix, filter.LecturerID, filter.Subject, filter.Level, filter.Search,
		active, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
}
