package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lecturehub/lecturehub-api/internal/models"
	"github.com/lecturehub/lecturehub-api/internal/service"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
	"github.com/lecturehub/lecturehub-api/pkg/response"
)

// AvailabilityHandler handles lecturer availability endpoints.
type AvailabilityHandler struct {
	service   *service.AvailabilityService
	lecturers *service.LecturerService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService, lecturers *service.LecturerService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc, lecturers: lecturers}
}

// List godoc
// @Summary List availability windows
// @Tags Availability
// @Security BearerAuth
// @Produce json
// @Param lecturer_id query string false "Lecturer ID (defaults to caller's profile)"
// @Param recurring query bool false "Filter recurring windows"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	var filter models.AvailabilityFilter
	filter.LecturerID = c.Query("lecturer_id")
	if filter.LecturerID == "" {
		lecturerID, err := h.callerLecturerID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.LecturerID = lecturerID
	}
	if raw := c.Query("recurring"); raw != "" {
		recurring := raw == "true"
		filter.Recurring = &recurring
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}

	windows, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, pagination)
}

// Create godoc
// @Summary Add an availability window
// @Tags Availability
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.AvailabilityRequest true "Window payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	window, err := h.service.Create(c.Request.Context(), lecturerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// Update godoc
// @Summary Replace an availability window
// @Tags Availability
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Window ID"
// @Param payload body service.AvailabilityRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /availability/{id} [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	window, err := h.service.Update(c.Request.Context(), c.Param("id"), lecturerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Delete godoc
// @Summary Remove an availability window
// @Tags Availability
// @Security BearerAuth
// @Param id path string true "Window ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	lecturerID, err := h.callerLecturerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), lecturerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AvailabilityHandler) callerLecturerID(c *gin.Context) (string, error) {
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
