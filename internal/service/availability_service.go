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

type availabilityRepository interface {
	List(ctx context.Context, filter models.AvailabilityFilter) ([]models.Availability, int, error)
	FindByID(ctx context.Context, id string) (*models.Availability, error)
	Create(ctx context.Context, window *models.Availability) error
	Update(ctx context.Context, window *models.Availability) error
	Delete(ctx context.Context, id string) error
}

// AvailabilityRequest defines a bookable window. Recurring windows carry a
// weekday, one-off windows a calendar date; never both.
type AvailabilityRequest struct {
	Recurring    bool   `json:"recurring"`
	DayOfWeek    *int   `json:"day_of_week,omitempty"`
	SpecificDate string `json:"specific_date,omitempty"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
}

// AvailabilityService manages lecturer availability windows.
type AvailabilityService struct {
	repo      availabilityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService creates a new availability service.
func NewAvailabilityService(repo availabilityRepository, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, validator: validate, logger: logger}
}

// List returns a lecturer's availability windows.
func (s *AvailabilityService) List(ctx context.Context, filter models.AvailabilityFilter) ([]models.Availability, *models.Pagination, error) {
	windows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return windows, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Create adds an availability window for the lecturer.
func (s *AvailabilityService) Create(ctx context.Context, lecturerID string, req AvailabilityRequest) (*models.Availability, error) {
	window, err := s.buildWindow(lecturerID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability")
	}
	return window, nil
}

// Update replaces an availability window owned by the lecturer.
func (s *AvailabilityService) Update(ctx context.Context, id, lecturerID string, req AvailabilityRequest) (*models.Availability, error) {
	existing, err := s.ownedWindow(ctx, id, lecturerID)
	if err != nil {
		return nil, err
	}
	window, err := s.buildWindow(lecturerID, req)
	if err != nil {
		return nil, err
	}
	window.ID = existing.ID
	window.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	return window, nil
}

// Delete removes an availability window owned by the lecturer.
func (s *AvailabilityService) Delete(ctx context.Context, id, lecturerID string) error {
	if _, err := s.ownedWindow(ctx, id, lecturerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability")
	}
	return nil
}

func (s *AvailabilityService) ownedWindow(ctx context.Context, id, lecturerID string) (*models.Availability, error) {
	window, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	if window.LecturerID != lecturerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "availability belongs to another lecturer")
	}
	return window, nil
}

// buildWindow validates the request and maps it to the model. A recurring
// window must carry day_of_week and no date; a one-off window the inverse.
func (s *AvailabilityService) buildWindow(lecturerID string, req AvailabilityRequest) (*models.Availability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}

	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:mm")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:mm")
	}
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	window := &models.Availability{
		LecturerID: lecturerID,
		Recurring:  req.Recurring,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}

	if req.Recurring {
		if req.DayOfWeek == nil || req.SpecificDate != "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recurring windows require day_of_week and no specific_date")
		}
		if *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be between 0 and 6")
		}
		window.DayOfWeek = req.DayOfWeek
	} else {
		if req.SpecificDate == "" || req.DayOfWeek != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "one-off windows require specific_date and no day_of_week")
		}
		date, err := time.Parse("2006-01-02", req.SpecificDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "specific_date must be YYYY-MM-DD")
		}
		window.SpecificDate = &date
	}
	return window, nil
}

func parseClock(value string) (time.Time, error) {
	return time.Parse("15:04", value)
}
