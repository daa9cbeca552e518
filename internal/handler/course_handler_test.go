package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecturehub/lecturehub-api/internal/middleware"
	"github.com/lecturehub/lecturehub-api/internal/models"
	"github.com/lecturehub/lecturehub-api/internal/service"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type stubCourseRepo struct {
	listFilter *models.CourseFilter
	items      []models.CourseDetail
	detail     *models.CourseDetail
}

func (s *stubCourseRepo) List(_ context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	s.listFilter = &filter
	return s.items, len(s.items), nil
}

func (s *stubCourseRepo) FindByID(_ context.Context, id string) (*models.Course, error) {
	if s.detail == nil || s.detail.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	course := s.detail.Course
	return &course, nil
}

func (s *stubCourseRepo) FindDetailByID(_ context.Context, id string) (*models.CourseDetail, error) {
	if s.detail == nil || s.detail.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	detail := *s.detail
	return &detail, nil
}

func (s *stubCourseRepo) Create(context.Context, *models.Course) error { return nil }
func (s *stubCourseRepo) Update(context.Context, *models.Course) error { return nil }
func (s *stubCourseRepo) SetActive(context.Context, string, bool) error {
	return nil
}
func (s *stubCourseRepo) Delete(context.Context, string) error { return nil }

type stubLecturerRepo struct {
	profile *models.LecturerDetail
}

func (s *stubLecturerRepo) FindByID(_ context.Context, id string) (*models.LecturerDetail, error) {
	return s.FindByUserID(context.Background(), id)
}

func (s *stubLecturerRepo) FindByUserID(_ context.Context, _ string) (*models.LecturerDetail, error) {
	if s.profile == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer profile not found")
	}
	return s.profile, nil
}

func (s *stubLecturerRepo) List(context.Context, models.LecturerFilter) ([]models.LecturerDetail, int, error) {
	return nil, 0, nil
}

func (s *stubLecturerRepo) Update(context.Context, *models.Lecturer) error { return nil }

func newCourseHandlerFixture(repo *stubCourseRepo, lecturers *stubLecturerRepo) *CourseHandler {
	courseSvc := service.NewCourseService(repo, nil, nil, nil, nil)
	lecturerSvc := service.NewLecturerService(lecturers, nil, nil)
	studentSvc := service.NewStudentService(nil, nil, nil)
	enrollmentSvc := service.NewEnrollmentService(nil, nil, nil, nil, nil)
	return NewCourseHandler(courseSvc, enrollmentSvc, lecturerSvc, studentSvc)
}

func TestCourseHandlerListPinsActiveFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &stubCourseRepo{items: []models.CourseDetail{
		{Course: models.Course{ID: "c1", Name: "Calculus I", Subject: "math", Active: true}, LecturerName: "Sam Roe"},
	}}
	h := newCourseHandlerFixture(repo, &stubLecturerRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/courses?subject=math&page=2&limit=5", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.listFilter)
	require.NotNil(t, repo.listFilter.Active)
	assert.True(t, *repo.listFilter.Active)
	assert.Equal(t, "math", repo.listFilter.Subject)
	assert.Equal(t, 2, repo.listFilter.Page)

	var body struct {
		Data []models.CourseDetail  `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "c1", body.Data[0].ID)
	assert.Contains(t, body.Meta, "processing_time_ms")
}

func TestCourseHandlerGetHidesInactiveFromPublic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &stubCourseRepo{detail: &models.CourseDetail{
		Course: models.Course{ID: "c1", Name: "Calculus I", Active: false},
	}}
	h := newCourseHandlerFixture(repo, &stubLecturerRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/courses/c1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseHandlerGetShowsInactiveToAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &stubCourseRepo{detail: &models.CourseDetail{
		Course: models.Course{ID: "c1", Name: "Calculus I", Active: false},
	}}
	h := newCourseHandlerFixture(repo, &stubLecturerRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/courses/c1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCourseHandlerCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	lecturers := &stubLecturerRepo{profile: &models.LecturerDetail{
		Lecturer: models.Lecturer{ID: "lec-1", UserID: "u1"},
	}}
	h := newCourseHandlerFixture(&stubCourseRepo{}, lecturers)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/courses", bytes.NewReader([]byte("{not-json")))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleLecturer})

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerCreateRequiresCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := newCourseHandlerFixture(&stubCourseRepo{}, &stubLecturerRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/courses", bytes.NewReader([]byte(`{}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
