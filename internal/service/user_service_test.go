package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/dto"
	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	listResult []models.User
	listTotal  int
	roleCounts map[models.UserRole]int
	setActive  []string
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	m.setActive = append(m.setActive, id)
	if u, ok := m.users[id]; ok {
		u.Active = active
	}
	return nil
}

func (m *mockUserRepo) CountByRole(ctx context.Context) (map[models.UserRole]int, error) {
	return m.roleCounts, nil
}

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, NewMetricsService(), validator.New(), zap.NewNop())
}

func boolPtr(v bool) *bool { return &v }

func TestUserServiceSetStatusDeactivates(t *testing.T) {
	repo := &mockUserRepo{
		users: map[string]*models.User{
			"u1": {ID: "u1", Role: models.RoleStudent, Active: true},
		},
	}
	service := newUserService(repo)

	user, err := service.SetStatus(context.Background(), "u1", dto.UpdateUserStatusRequest{Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Equal(t, []string{"u1"}, repo.setActive)
}

func TestUserServiceSetStatusAdminRejected(t *testing.T) {
	repo := &mockUserRepo{
		users: map[string]*models.User{
			"u1": {ID: "u1", Role: models.RoleAdmin, Active: true},
		},
	}
	service := newUserService(repo)

	_, err := service.SetStatus(context.Background(), "u1", dto.UpdateUserStatusRequest{Active: boolPtr(false)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.setActive)
}

func TestUserServiceSetStatusMissingUser(t *testing.T) {
	service := newUserService(&mockUserRepo{})

	_, err := service.SetStatus(context.Background(), "nope", dto.UpdateUserStatusRequest{Active: boolPtr(true)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceSetStatusRequiresActiveField(t *testing.T) {
	service := newUserService(&mockUserRepo{})

	_, err := service.SetStatus(context.Background(), "u1", dto.UpdateUserStatusRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceStats(t *testing.T) {
	repo := &mockUserRepo{
		roleCounts: map[models.UserRole]int{
			models.RoleLecturer: 4,
			models.RoleStudent:  30,
			models.RoleAdmin:    1,
		},
	}
	service := newUserService(repo)

	stats, err := service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 35, stats.TotalUsers)
	assert.Equal(t, 4, stats.TotalLecturers)
	assert.Equal(t, 30, stats.TotalStudents)
	assert.Equal(t, 1, stats.TotalAdmins)
	assert.False(t, stats.System.GeneratedAt.IsZero())
}
