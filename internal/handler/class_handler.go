package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lecturehub/lecturehub-api/internal/models"
	"github.com/lecturehub/lecturehub-api/internal/service"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
	"github.com/lecturehub/lecturehub-api/pkg/response"
)

// ClassHandler handles scheduled class endpoints.
type ClassHandler struct {
	service   *service.ClassService
	lecturers *service.LecturerService
	students  *service.StudentService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc *service.ClassService, lecturers *service.LecturerService, students *service.StudentService) *ClassHandler {
	return &ClassHandler{service: svc, lecturers: lecturers, students: students}
}

// List godoc
// @Summary List classes visible to the caller
// @Tags Classes
// @Security BearerAuth
// @Produce json
// @Param course_id query string false "Filter by course"
// @Param status query string false "Filter by status"
// @Param from query string false "From timestamp (RFC3339)"
// @Param to query string false "To timestamp (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	var filter models.ClassFilter
	filter.CourseID = c.Query("course_id")
	filter.Status = models.ClassStatus(strings.ToUpper(c.Query("status")))
	if raw := c.Query("from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &ts
		}
	}
	if raw := c.Query("to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &ts
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortOrder = c.Query("order")

	switch claims.Role {
	case models.RoleLecturer:
		profile, err := h.lecturers.GetByUserID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.LecturerID = profile.ID
	case models.RoleStudent:
		profile, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.StudentID = profile.ID
	case models.RoleAdmin:
		// Unscoped.
	}

	classes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get a class by id
// @Tags Classes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Schedule godoc
// @Summary Schedule a class
// @Tags Classes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.ScheduleClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Schedule(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.ScheduleClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.Schedule(c.Request.Context(), lecturerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// UpdateStatus godoc
// @Summary Complete or cancel a class
// @Tags Classes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.ClassStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{id}/status [put]
func (h *ClassHandler) UpdateStatus(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.ClassStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	class, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), lecturerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

func (h *ClassHandler) callerLecturerID(c *gin.Context) (string, error) {
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
