package handler

import (
	"fmt"
	"io"
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

// LecturerHandler handles lecturer directory and profile endpoints.
type LecturerHandler struct {
	service *service.LecturerService
	exports *service.ExportService
}

// NewLecturerHandler constructs a lecturer handler.
func NewLecturerHandler(svc *service.LecturerService, exports *service.ExportService) *LecturerHandler {
	return &LecturerHandler{service: svc, exports: exports}
}

// List godoc
// @Summary Browse the lecturer directory
// @Tags Lecturers
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lecturers [get]
func (h *LecturerHandler) List(c *gin.Context) {
	var filter models.LecturerFilter
	filter.Subject = c.Query("subject")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	lecturers, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturers, pagination)
}

// Get godoc
// @Summary Get a lecturer's public profile
// @Tags Lecturers
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *LecturerHandler) Get(c *gin.Context) {
	lecturer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// Me godoc
// @Summary Get the caller's lecturer profile
// @Tags Lecturers
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lecturers/me [get]
func (h *LecturerHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	profile, err := h.service.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateMe godoc
// @Summary Update the caller's lecturer profile
// @Tags Lecturers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.UpdateLecturerProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /lecturers/me [put]
func (h *LecturerHandler) UpdateMe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	var req service.UpdateLecturerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	profile, err := h.service.UpdateByUserID(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ExportSchedule godoc
// @Summary Export the caller's class schedule
// @Tags Lecturers
// @Security BearerAuth
// @Produce json
// @Param format query string true "Export format (csv or pdf)"
// @Param from query string false "From timestamp (RFC3339)"
// @Param to query string false "To timestamp (RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lecturers/me/schedule/export [get]
func (h *LecturerHandler) ExportSchedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	profile, err := h.service.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			from = &ts
		}
	}
	if raw := c.Query("to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			to = &ts
		}
	}

	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.GenerateSchedule(c.Request.Context(), profile.ID, format, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt,
	}, nil)
}

// DownloadExport godoc
// @Summary Download a generated export
// @Tags Lecturers
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *LecturerHandler) DownloadExport(c *gin.Context) {
	_, relPath, _, err := h.exports.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export not found or expired"))
		return
	}

	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available"))
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", relPath))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
