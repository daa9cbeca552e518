package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type mockAvailabilityRepo struct {
	items   map[string]*models.Availability
	created []*models.Availability
	updated []*models.Availability
	deleted []string
}

func (m *mockAvailabilityRepo) List(ctx context.Context, filter models.AvailabilityFilter) ([]models.Availability, int, error) {
	out := make([]models.Availability, 0, len(m.items))
	for _, w := range m.items {
		out = append(out, *w)
	}
	return out, len(out), nil
}

func (m *mockAvailabilityRepo) FindByID(ctx context.Context, id string) (*models.Availability, error) {
	if w, ok := m.items[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAvailabilityRepo) Create(ctx context.Context, window *models.Availability) error {
	if window.ID == "" {
		window.ID = "generated"
	}
	m.created = append(m.created, window)
	return nil
}

func (m *mockAvailabilityRepo) Update(ctx context.Context, window *models.Availability) error {
	m.updated = append(m.updated, window)
	return nil
}

func (m *mockAvailabilityRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newAvailabilityService(repo *mockAvailabilityRepo) *AvailabilityService {
	return NewAvailabilityService(repo, validator.New(), zap.NewNop())
}

func intPtr(v int) *int { return &v }

func TestAvailabilityServiceCreateRecurring(t *testing.T) {
	repo := &mockAvailabilityRepo{}
	service := newAvailabilityService(repo)

	window, err := service.Create(context.Background(), "lec-1", AvailabilityRequest{
		Recurring: true,
		DayOfWeek: intPtr(2),
		StartTime: "09:00",
		EndTime:   "11:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "lec-1", window.LecturerID)
	require.NotNil(t, window.DayOfWeek)
	assert.Equal(t, 2, *window.DayOfWeek)
	assert.Nil(t, window.SpecificDate)
	assert.Len(t, repo.created, 1)
}

func TestAvailabilityServiceCreateOneOff(t *testing.T) {
	repo := &mockAvailabilityRepo{}
	service := newAvailabilityService(repo)

	window, err := service.Create(context.Background(), "lec-1", AvailabilityRequest{
		SpecificDate: "2026-09-15",
		StartTime:    "14:00",
		EndTime:      "15:00",
	})
	require.NoError(t, err)
	require.NotNil(t, window.SpecificDate)
	assert.Equal(t, "2026-09-15", window.SpecificDate.Format("2006-01-02"))
	assert.Nil(t, window.DayOfWeek)
}

func TestAvailabilityServiceCreateRejectsMixedShape(t *testing.T) {
	service := newAvailabilityService(&mockAvailabilityRepo{})

	cases := []AvailabilityRequest{
		// Recurring without weekday.
		{Recurring: true, StartTime: "09:00", EndTime: "10:00"},
		// Recurring with a date.
		{Recurring: true, DayOfWeek: intPtr(1), SpecificDate: "2026-09-15", StartTime: "09:00", EndTime: "10:00"},
		// One-off without a date.
		{StartTime: "09:00", EndTime: "10:00"},
		// One-off with a weekday.
		{DayOfWeek: intPtr(1), SpecificDate: "2026-09-15", StartTime: "09:00", EndTime: "10:00"},
	}
	for _, req := range cases {
		_, err := service.Create(context.Background(), "lec-1", req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestAvailabilityServiceCreateRejectsBadTimes(t *testing.T) {
	service := newAvailabilityService(&mockAvailabilityRepo{})

	_, err := service.Create(context.Background(), "lec-1", AvailabilityRequest{
		Recurring: true,
		DayOfWeek: intPtr(1),
		StartTime: "11:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = service.Create(context.Background(), "lec-1", AvailabilityRequest{
		Recurring: true,
		DayOfWeek: intPtr(1),
		StartTime: "9am",
		EndTime:   "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceCreateRejectsBadWeekday(t *testing.T) {
	service := newAvailabilityService(&mockAvailabilityRepo{})

	_, err := service.Create(context.Background(), "lec-1", AvailabilityRequest{
		Recurring: true,
		DayOfWeek: intPtr(7),
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceUpdateForeignWindow(t *testing.T) {
	repo := &mockAvailabilityRepo{
		items: map[string]*models.Availability{
			"w1": {ID: "w1", LecturerID: "lec-1"},
		},
	}
	service := newAvailabilityService(repo)

	_, err := service.Update(context.Background(), "w1", "lec-2", AvailabilityRequest{
		Recurring: true,
		DayOfWeek: intPtr(1),
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestAvailabilityServiceDeleteMissing(t *testing.T) {
	service := newAvailabilityService(&mockAvailabilityRepo{})

	err := service.Delete(context.Background(), "nope", "lec-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceUpdatePreservesIdentity(t *testing.T) {
	repo := &mockAvailabilityRepo{
		items: map[string]*models.Availability{
			"w1": {ID: "w1", LecturerID: "lec-1"},
		},
	}
	service := newAvailabilityService(repo)

	window, err := service.Update(context.Background(), "w1", "lec-1", AvailabilityRequest{
		SpecificDate: "2026-10-01",
		StartTime:    "08:00",
		EndTime:      "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "w1", window.ID)
	assert.Len(t, repo.updated, 1)
}
