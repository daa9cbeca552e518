package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lecturehub/lecturehub-api/internal/models"
	"github.com/lecturehub/lecturehub-api/internal/service"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
	"github.com/lecturehub/lecturehub-api/pkg/response"
)

// EnrollmentHandler handles course enrollment endpoints.
type EnrollmentHandler struct {
	service   *service.EnrollmentService
	lecturers *service.LecturerService
	students  *service.StudentService
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(svc *service.EnrollmentService, lecturers *service.LecturerService, students *service.StudentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, lecturers: lecturers, students: students}
}

// List godoc
// @Summary List enrollments visible to the caller
// @Description Lecturers see requests against their own courses, students their own requests.
// @Tags Enrollments
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Param course_id query string false "Filter by course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	var filter models.CourseEnrollmentFilter
	filter.CourseID = c.Query("course_id")
	filter.Status = models.EnrollmentStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

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
		// Admin sees everything; filters stay as provided.
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role cannot list enrollments"))
		return
	}

	enrollments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Decide godoc
// @Summary Approve or reject an enrollment request
// @Tags Enrollments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.EnrollmentDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /enrollments/{id}/status [put]
func (h *EnrollmentHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	profile, err := h.lecturers.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.EnrollmentDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	enrollment, err := h.service.Decide(c.Request.Context(), c.Param("id"), profile.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
