package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecturehub/lecturehub-api/internal/middleware"
	"github.com/lecturehub/lecturehub-api/internal/models"
	"github.com/lecturehub/lecturehub-api/internal/service"
)

type stubEnrollmentRepo struct {
	enrollment    *models.CourseEnrollment
	decidedStatus models.EnrollmentStatus
}

func (s *stubEnrollmentRepo) List(context.Context, models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (s *stubEnrollmentRepo) FindByID(_ context.Context, id string) (*models.CourseEnrollment, error) {
	if s.enrollment == nil || s.enrollment.ID != id {
		return nil, sql.ErrNoRows
	}
	enrollment := *s.enrollment
	return &enrollment, nil
}

func (s *stubEnrollmentRepo) FindDetailByID(context.Context, string) (*models.CourseEnrollmentDetail, error) {
	return nil, sql.ErrNoRows
}

func (s *stubEnrollmentRepo) ExistsForStudent(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *stubEnrollmentRepo) ExistsForGroup(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *stubEnrollmentRepo) Create(context.Context, *models.CourseEnrollment) error { return nil }

func (s *stubEnrollmentRepo) Decide(_ context.Context, _ string, status models.EnrollmentStatus, _ time.Time) (bool, error) {
	s.decidedStatus = status
	return true, nil
}

type stubEnrollmentCourses struct {
	course *models.Course
}

func (s *stubEnrollmentCourses) FindByID(context.Context, string) (*models.Course, error) {
	if s.course == nil {
		return nil, sql.ErrNoRows
	}
	course := *s.course
	return &course, nil
}

func newEnrollmentHandlerFixture(repo *stubEnrollmentRepo, courses *stubEnrollmentCourses, lecturers *stubLecturerRepo) *EnrollmentHandler {
	enrollmentSvc := service.NewEnrollmentService(repo, courses, nil, nil, nil)
	lecturerSvc := service.NewLecturerService(lecturers, nil, nil)
	studentSvc := service.NewStudentService(nil, nil, nil)
	return NewEnrollmentHandler(enrollmentSvc, lecturerSvc, studentSvc)
}

func TestEnrollmentHandlerDecideRequiresCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := newEnrollmentHandlerFixture(&stubEnrollmentRepo{}, &stubEnrollmentCourses{}, &stubLecturerRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPut, "/enrollments/e1/status", bytes.NewReader([]byte(`{"decision":"APPROVE"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	h.Decide(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentHandlerDecideRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	lecturers := &stubLecturerRepo{profile: &models.LecturerDetail{
		Lecturer: models.Lecturer{ID: "lec-1", UserID: "u1"},
	}}
	h := newEnrollmentHandlerFixture(&stubEnrollmentRepo{}, &stubEnrollmentCourses{}, lecturers)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPut, "/enrollments/e1/status", bytes.NewReader([]byte("{not-json")))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleLecturer})

	h.Decide(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerDecideApprovesOwnCourseRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	studentID := "stu-1"
	repo := &stubEnrollmentRepo{enrollment: &models.CourseEnrollment{
		ID:        "e1",
		CourseID:  "c1",
		StudentID: &studentID,
		Status:    models.EnrollmentStatusPending,
	}}
	courses := &stubEnrollmentCourses{course: &models.Course{ID: "c1", LecturerID: "lec-1"}}
	lecturers := &stubLecturerRepo{profile: &models.LecturerDetail{
		Lecturer: models.Lecturer{ID: "lec-1", UserID: "u1"},
	}}
	h := newEnrollmentHandlerFixture(repo, courses, lecturers)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPut, "/enrollments/e1/status", bytes.NewReader([]byte(`{"decision":"APPROVE"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleLecturer})

	h.Decide(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EnrollmentStatusApproved, repo.decidedStatus)

	var body struct {
		Data models.CourseEnrollment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.EnrollmentStatusApproved, body.Data.Status)
}
