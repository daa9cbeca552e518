package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lecturehub/lecturehub-api/internal/dto"
	"github.com/lecturehub/lecturehub-api/internal/models"
	"github.com/lecturehub/lecturehub-api/internal/service"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
	"github.com/lecturehub/lecturehub-api/pkg/response"
)

// GroupHandler handles student group endpoints.
type GroupHandler struct {
	service  *service.GroupService
	students *service.StudentService
}

// NewGroupHandler constructs a group handler.
func NewGroupHandler(svc *service.GroupService, students *service.StudentService) *GroupHandler {
	return &GroupHandler{service: svc, students: students}
}

// Create godoc
// @Summary Create a student group
// @Tags Groups
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group payload"))
		return
	}

	group, err := h.service.Create(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// ListMine godoc
// @Summary List the caller's groups
// @Tags Groups
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) ListMine(c *gin.Context) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	groups, err := h.service.ListMine(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get godoc
// @Summary Get a group
// @Description The creator sees the roster and join code, members the restricted view.
// @Tags Groups
// @Security BearerAuth
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	group, err := h.service.Get(c.Request.Context(), c.Param("id"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Soft delete a group
// @Tags Groups
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Join godoc
// @Summary Request to join a group by code
// @Tags Groups
// @Security BearerAuth
// @Produce json
// @Param groupCode path string true "Group join code"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /groups/join/{groupCode} [post]
func (h *GroupHandler) Join(c *gin.Context) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	enrollment, err := h.service.Join(c.Request.Context(), c.Param("groupCode"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// ListRequests godoc
// @Summary List pending join requests
// @Tags Groups
// @Security BearerAuth
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /groups/{id}/requests [get]
func (h *GroupHandler) ListRequests(c *gin.Context) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	requests, err := h.service.ListRequests(c.Request.Context(), c.Param("id"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Approve godoc
// @Summary Approve a join request
// @Description Also queues pending course enrollments for each course the group is approved in.
// @Tags Groups
// @Security BearerAuth
// @Produce json
// @Param enrollmentId path string true "Group enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /groups/requests/{enrollmentId}/approve [post]
func (h *GroupHandler) Approve(c *gin.Context) {
	h.decide(c, models.DecisionApprove)
}

// Reject godoc
// @Summary Reject a join request
// @Tags Groups
// @Security BearerAuth
// @Produce json
// @Param enrollmentId path string true "Group enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /groups/requests/{enrollmentId}/reject [post]
func (h *GroupHandler) Reject(c *gin.Context) {
	h.decide(c, models.DecisionReject)
}

// RemoveMember godoc
// @Summary Remove a member from the group
// @Tags Groups
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /groups/{id}/members/{studentId} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("studentId"), studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *GroupHandler) decide(c *gin.Context, decision models.EnrollmentDecision) {
	studentID, err := h.callerStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	enrollment, err := h.service.DecideJoin(c.Request.Context(), c.Param("enrollmentId"), studentID, decision)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

func (h *GroupHandler) callerStudentID(c *gin.Context) (string, error) {
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
