package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ipl_server/internal/pkg/jwt"
	"github.com/qs3c/ipl_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key-for-middleware"

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func performAuthRequest(t *testing.T, router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("GET", "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuth_Success(t *testing.T) {
	router := gin.New()
	router.Use(Auth(testJWTSecret))
	router.GET("/test", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		assert.True(t, ok)
		assert.Equal(t, "u-123", userID)
		assert.False(t, IsAdmin(c))
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	token, err := jwt.GenerateToken("u-123", false, testJWTSecret, 24)
	require.NoError(t, err)

	w := performAuthRequest(t, router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Rejected(t *testing.T) {
	wrongSecret, err := jwt.GenerateToken("u-123", false, "different-secret", 24)
	require.NoError(t, err)
	expired, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, jwt.Claims{
		UserID: "u-123",
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "Token abc"},
		{"invalid token", "Bearer invalid-token"},
		{"wrong secret", "Bearer " + wrongSecret},
		{"expired token", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(Auth(testJWTSecret))
			router.GET("/test", func(c *gin.Context) {
				t.Error("handler should not run")
			})

			w := performAuthRequest(t, router, tt.header)
			resp := parseResponse(t, w)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, response.CodeAuthFailed, resp.Code)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	router := gin.New()
	router.Use(Auth(testJWTSecret), AdminOnly())
	router.GET("/test", func(c *gin.Context) {
		response.Success(c, nil)
	})

	resident, err := jwt.GenerateToken("u-1", false, testJWTSecret, 24)
	require.NoError(t, err)
	admin, err := jwt.GenerateToken("admin-1", true, testJWTSecret, 24)
	require.NoError(t, err)

	resp := parseResponse(t, performAuthRequest(t, router, "Bearer "+resident))
	assert.Equal(t, response.CodePermissionDenied, resp.Code)

	resp = parseResponse(t, performAuthRequest(t, router, "Bearer "+admin))
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		wantID string
		wantOK bool
	}{
		{"not set", nil, "", false},
		{"wrong type", int64(789), "", false},
		{"empty string", "", "", false},
		{"valid", "u-789", "u-789", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/test", func(c *gin.Context) {
				if tt.value != nil {
					c.Set(UserIDKey, tt.value)
				}
				userID, ok := GetUserID(c)
				assert.Equal(t, tt.wantOK, ok)
				assert.Equal(t, tt.wantID, userID)
				c.JSON(http.StatusOK, gin.H{})
			})

			w := performAuthRequest(t, router, "")
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}
