package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lecturehub/lecturehub-api/internal/service"
)

func newAuthHandlerFixture() *AuthHandler {
	svc := service.NewAuthService(nil, nil, nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: "test-secret",
	})
	return NewAuthHandler(svc)
}

func TestAuthHandlerRegisterRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerRegisterRejectsAdminRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthHandlerFixture()

	payload := []byte(`{"email":"eve@example.com","password":"secret1","full_name":"Eve Admin","role":"ADMIN"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLoginRejectsMissingEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthHandlerFixture()

	payload := []byte(`{"password":"secret1"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
