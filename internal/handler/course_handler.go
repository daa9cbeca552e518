package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lecturehub/lecturehub-api/internal/middleware"
	"github.com/lecturehub/lecturehub-api/internal/models"
	"github.com/lecturehub/lecturehub-api/internal/service"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
	"github.com/lecturehub/lecturehub-api/pkg/response"
)

// CourseHandler handles course catalog endpoints.
type CourseHandler struct {
	service     *service.CourseService
	enrollments *service.EnrollmentService
	lecturers   *service.LecturerService
	students    *service.StudentService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(svc *service.CourseService, enrollments *service.EnrollmentService, lecturers *service.LecturerService, students *service.StudentService) *CourseHandler {
	return &CourseHandler{service: svc, enrollments: enrollments, lecturers: lecturers, students: students}
}

// List godoc
// @Summary Browse the course catalog
// @Tags Courses
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param level query string false "Filter by level"
// @Param search query string false "Search keyword"
// @Param lecturer_id query string false "Filter by lecturer"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	start := time.Now()
	filter := courseFilterFromQuery(c)
	// Public catalog only surfaces active courses.
	active := true
	filter.Active = &active

	courses, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, courses, pagination, meta)
}

// Get godoc
// @Summary Get a course by id
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	includeInactive := claims != nil && claims.Role == models.RoleAdmin

	course, err := h.service.Get(c.Request.Context(), c.Param("id"), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Publish a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.Create(c.Request.Context(), lecturerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.Update(c.Request.Context(), c.Param("id"), lecturerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Soft delete a course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), lecturerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enroll godoc
// @Summary Request enrollment in a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.EnrollmentRequest false "Optional group enrollment"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.EnrollmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
			return
		}
	}

	enrollment, err := h.enrollments.Request(c.Request.Context(), c.Param("id"), studentID, req.GroupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// ListEnrollments godoc
// @Summary List a course's enrollment requests
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/enrollments [get]
func (h *CourseHandler) ListEnrollments(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter models.CourseEnrollmentFilter
	filter.Status = models.EnrollmentStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	enrollments, pagination, err := h.enrollments.ListForCourse(c.Request.Context(), c.Param("id"), lecturerID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

func (h *CourseHandler) callerLecturerID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	profile, err := h.lecturers.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}

func (h *CourseHandler) callerStudentID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	profile, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}

func courseFilterFromQuery(c *gin.Context) models.CourseFilter {
	var filter models.CourseFilter
	filter.LecturerID = c.Query("lecturer_id")
	filter.Subject = c.Query("subject")
	filter.Level = c.Query("level")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}
