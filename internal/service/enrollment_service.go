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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseEnrollmentDetail, error)
	ExistsForStudent(ctx context.Context, courseID, studentID string) (bool, error)
	ExistsForGroup(ctx context.Context, courseID, groupID string) (bool, error)
	Create(ctx context.Context, enrollment *models.CourseEnrollment) error
	Decide(ctx context.Context, id string, status models.EnrollmentStatus, decidedAt time.Time) (bool, error)
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type enrollmentGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentGroup, error)
}

// EnrollmentRequest captures an enrollment request for a course. GroupID is
// set when a group owner enrolls the whole group instead of themselves.
type EnrollmentRequest struct {
	GroupID string `json:"group_id"`
}

// EnrollmentDecisionRequest decides a pending course enrollment.
type EnrollmentDecisionRequest struct {
	Decision models.EnrollmentDecision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
}

// EnrollmentService drives the enrollment request lifecycle.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   enrollmentCourseReader
	groups    enrollmentGroupReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates a new enrollment service.
func NewEnrollmentService(repo enrollmentRepository, courses enrollmentCourseReader, groups enrollmentGroupReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, groups: groups, validator: validate, logger: logger}
}

// List returns enrollments visible to the caller; the handler scopes the
// filter to the caller's lecturer or student ID.
func (s *EnrollmentService) List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// ListForCourse returns a course's enrollment requests for its owner.
func (s *EnrollmentService) ListForCourse(ctx context.Context, courseID, lecturerID string, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, *models.Pagination, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.LecturerID != lecturerID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another lecturer")
	}
	filter.CourseID = courseID
	return s.List(ctx, filter)
}

// Request creates a PENDING enrollment for a student, or for a student group
// when groupID is set. A record in any status blocks a re-request; rejection
// is final.
func (s *EnrollmentService) Request(ctx context.Context, courseID, studentID, groupID string) (*models.CourseEnrollment, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	enrollment := &models.CourseEnrollment{
		CourseID: courseID,
		Status:   models.EnrollmentStatusPending,
	}

	if groupID != "" {
		group, err := s.groups.FindByID(ctx, groupID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
		}
		if !group.Active {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		if group.CreatedBy != studentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the group creator can enroll the group")
		}
		exists, err := s.repo.ExistsForGroup(ctx, courseID, groupID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group enrollment")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "group already has an enrollment request for this course")
		}
		enrollment.StudentGroupID = &groupID
	} else {
		exists, err := s.repo.ExistsForStudent(ctx, courseID, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an enrollment request already exists for this course")
		}
		enrollment.StudentID = &studentID
	}

	if err := s.repo.Create(ctx, enrollment); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an enrollment request already exists for this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Decide transitions a PENDING enrollment to APPROVED or REJECTED. Only the
// owning lecturer may decide, and only once; a late decision on an already
// decided request fails the precondition.
func (s *EnrollmentService) Decide(ctx context.Context, id, lecturerID string, req EnrollmentDecisionRequest) (*models.CourseEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	course, err := s.courses.FindByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.LecturerID != lecturerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another lecturer's course")
	}

	status := models.EnrollmentStatusApproved
	if req.Decision == models.DecisionReject {
		status = models.EnrollmentStatusRejected
	}

	now := time.Now().UTC()
	applied, err := s.repo.Decide(ctx, id, status, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide enrollment")
	}
	if !applied {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "enrollment has already been decided")
	}

	enrollment.Status = status
	if status == models.EnrollmentStatusApproved {
		enrollment.ApprovedAt = &now
		enrollment.RejectedAt = nil
	} else {
		enrollment.RejectedAt = &now
		enrollment.ApprovedAt = nil
	}

	s.logger.Info("enrollment decided",
		zap.String("enrollment_id", id),
		zap.String("status", string(status)))
	return enrollment, nil
}
