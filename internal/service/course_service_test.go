package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type mockCourseRepo struct {
	items       map[string]*models.Course
	details     map[string]*models.CourseDetail
	listResult  []models.CourseDetail
	listTotal   int
	deleted     []string
	deactivated []string
	updated     []*models.Course
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if d, ok := m.details[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "generated"
	}
	if m.items == nil {
		m.items = make(map[string]*models.Course)
	}
	cp := *course
	m.items[course.ID] = &cp
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.updated = append(m.updated, course)
	cp := *course
	m.items[course.ID] = &cp
	return nil
}

func (m *mockCourseRepo) SetActive(ctx context.Context, id string, active bool) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

type mockFlyerStorage struct {
	saved   map[string][]byte
	saveErr error
}

func (m *mockFlyerStorage) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockFlyerStorage) Delete(filename string) error {
	delete(m.saved, filename)
	return nil
}

func newCourseService(repo *mockCourseRepo, store *mockFlyerStorage) *CourseService {
	return NewCourseService(repo, store, nil, validator.New(), zap.NewNop())
}

func validCourseRequest() CreateCourseRequest {
	return CreateCourseRequest{
		Name:            "Calculus I",
		Subject:         "math",
		Level:           "undergraduate",
		DurationMinutes: 90,
		HourlyRate:      40,
		Description:     "limits and derivatives",
	}
}

func TestCourseServiceCreate(t *testing.T) {
	repo := &mockCourseRepo{}
	service := newCourseService(repo, &mockFlyerStorage{})

	course, err := service.Create(context.Background(), "lec-1", validCourseRequest())
	require.NoError(t, err)
	assert.Equal(t, "lec-1", course.LecturerID)
	assert.True(t, course.Active)
	assert.Nil(t, course.FlyerKey)
	assert.Len(t, repo.items, 1)
}

func TestCourseServiceCreateWithFlyer(t *testing.T) {
	repo := &mockCourseRepo{}
	store := &mockFlyerStorage{}
	service := newCourseService(repo, store)

	req := validCourseRequest()
	req.Flyer = []byte("pdf-bytes")
	req.FlyerName = "flyer.pdf"

	course, err := service.Create(context.Background(), "lec-1", req)
	require.NoError(t, err)
	require.NotNil(t, course.FlyerKey)
	assert.Contains(t, *course.FlyerKey, course.ID)
	assert.Len(t, store.saved, 1)
}

func TestCourseServiceCreateStripsFlyerNameDirectories(t *testing.T) {
	repo := &mockCourseRepo{}
	store := &mockFlyerStorage{}
	service := newCourseService(repo, store)

	req := validCourseRequest()
	req.Flyer = []byte("pdf-bytes")
	req.FlyerName = "x/../../../../tmp/evil.txt"

	course, err := service.Create(context.Background(), "lec-1", req)
	require.NoError(t, err)
	require.NotNil(t, course.FlyerKey)
	assert.Equal(t, "flyers/"+course.ID+"_evil.txt", *course.FlyerKey)
	assert.NotContains(t, *course.FlyerKey, "..")
}

func TestCourseServiceCreateFlyerStoreFailureRollsBack(t *testing.T) {
	repo := &mockCourseRepo{}
	store := &mockFlyerStorage{saveErr: errors.New("disk full")}
	service := newCourseService(repo, store)

	req := validCourseRequest()
	req.Flyer = []byte("pdf-bytes")
	req.FlyerName = "flyer.pdf"

	_, err := service.Create(context.Background(), "lec-1", req)
	require.Error(t, err)
	assert.Empty(t, repo.items)
	assert.Len(t, repo.deleted, 1)
}

func TestCourseServiceCreateInvalidRate(t *testing.T) {
	service := newCourseService(&mockCourseRepo{}, &mockFlyerStorage{})

	req := validCourseRequest()
	req.HourlyRate = 0
	_, err := service.Create(context.Background(), "lec-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceGetHidesInactive(t *testing.T) {
	repo := &mockCourseRepo{
		details: map[string]*models.CourseDetail{
			"c1": {Course: models.Course{ID: "c1", Active: false}},
		},
	}
	service := newCourseService(repo, &mockFlyerStorage{})

	_, err := service.Get(context.Background(), "c1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	course, err := service.Get(context.Background(), "c1", true)
	require.NoError(t, err)
	assert.False(t, course.Active)
}

func TestCourseServiceUpdateForeignCourse(t *testing.T) {
	repo := &mockCourseRepo{
		items: map[string]*models.Course{
			"c1": {ID: "c1", LecturerID: "lec-1", Active: true},
		},
	}
	service := newCourseService(repo, &mockFlyerStorage{})

	req := UpdateCourseRequest{Name: "n", Subject: "s", Level: "l", DurationMinutes: 60, HourlyRate: 10}
	_, err := service.Update(context.Background(), "c1", "lec-2", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestCourseServiceDeactivate(t *testing.T) {
	repo := &mockCourseRepo{
		items: map[string]*models.Course{
			"c1": {ID: "c1", LecturerID: "lec-1", Active: true},
		},
	}
	service := newCourseService(repo, &mockFlyerStorage{})

	err := service.Deactivate(context.Background(), "c1", "lec-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, repo.deactivated)
}

func TestCourseServiceListWithoutCache(t *testing.T) {
	repo := &mockCourseRepo{
		listResult: []models.CourseDetail{{Course: models.Course{ID: "c1", Active: true}}},
		listTotal:  1,
	}
	service := newCourseService(repo, &mockFlyerStorage{})

	courses, pagination, cacheHit, err := service.List(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.False(t, cacheHit)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestCourseCacheKeyDistinguishesFilters(t *testing.T) {
	active := true
	a := courseCacheKey(models.CourseFilter{Subject: "math", Page: 1, PageSize: 20, Active: &active})
	b := courseCacheKey(models.CourseFilter{Subject: "physics", Page: 1, PageSize: 20, Active: &active})
	c := courseCacheKey(models.CourseFilter{Subject: "math", Page: 2, PageSize: 20, Active: &active})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}
