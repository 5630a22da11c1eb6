package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/ipl_server/config"
	"github.com/qs3c/ipl_server/internal/api/middleware"
	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/pkg/jwt"
	"github.com/qs3c/ipl_server/internal/pkg/response"
	"github.com/qs3c/ipl_server/internal/repository"
	"github.com/qs3c/ipl_server/internal/service"
	"github.com/qs3c/ipl_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testContext 本地测试上下文
type testContext struct {
	DB *gorm.DB
}

const testJWTSecret = "test-secret-key"

func setupAuthHandler(t *testing.T) (*AuthHandler, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:      testJWTSecret,
			ExpireHours: 24,
		},
	}

	authService := service.NewAuthService(userRepo, cfg)
	handler := NewAuthHandler(authService)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return handler, &testContext{DB: db}, cleanup
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// mockAuth 跳过 JWT，直接写入身份
func mockAuth(userID string, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.IsAdminKey, isAdmin)
		c.Next()
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, ctx, cleanup := setupAuthHandler(t)
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := testutil.TestUser(t, ctx.DB,
		testutil.WithUsername("pengurus"),
		testutil.WithAdmin(),
		testutil.WithPasswordHash(string(hash)),
	)

	router := gin.New()
	router.POST("/login", handler.Login)

	w := performRequest(router, "POST", "/login", dto.LoginRequest{
		Username: "pengurus",
		Password: "password123",
	})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	token, ok := data["token"].(string)
	require.True(t, ok)

	claims, err := jwt.ParseToken(token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	handler, _, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/login", handler.Login)

	w := performRequest(router, "POST", "/login", dto.LoginRequest{
		Username: "nobody",
		Password: "wrongpassword",
	})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_Login_InvalidRequest(t *testing.T) {
	handler, _, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/login", handler.Login)

	w := performRequest(router, "POST", "/login", map[string]string{})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeParamError, resp.Code)
}
