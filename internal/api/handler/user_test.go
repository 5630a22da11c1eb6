package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/pkg/response"
	"github.com/qs3c/ipl_server/internal/repository"
	"github.com/qs3c/ipl_server/internal/service"
	"github.com/qs3c/ipl_server/internal/testutil"
)

func setupUserHandler(t *testing.T) (*UserHandler, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userService := service.NewUserService(repository.NewUserRepository(db))
	handler := NewUserHandler(userService)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return handler, &testContext{DB: db}, cleanup
}

func TestUserHandler_GetProfile_Success(t *testing.T) {
	handler, ctx, cleanup := setupUserHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithUsername("profileuser"))

	router := gin.New()
	router.Use(mockAuth(user.ID, false))
	router.GET("/profile", handler.GetProfile)

	w := performRequest(router, "GET", "/profile", nil)
	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "profileuser", data["username"])
	assert.Equal(t, "60M2", data["house_type"])
}

func TestUserHandler_GetProfile_Unauthorized(t *testing.T) {
	handler, _, cleanup := setupUserHandler(t)
	defer cleanup()

	router := gin.New()
	router.GET("/profile", handler.GetProfile)

	w := performRequest(router, "GET", "/profile", nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestUserHandler_Create(t *testing.T) {
	handler, _, cleanup := setupUserHandler(t)
	defer cleanup()

	router := gin.New()
	router.Use(mockAuth("admin-1", true))
	router.POST("/users", handler.Create)
	router.GET("/users", handler.List)

	req := dto.CreateUserRequest{
		Username:    "warga_baru",
		Password:    "password123",
		Name:        "Warga Baru",
		HouseNumber: "B-12",
		HouseType:   "type 72",
	}

	w := performRequest(router, "POST", "/users", req)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	// 重复用户名
	w = performRequest(router, "POST", "/users", req)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)

	w = performRequest(router, "GET", "/users", nil)
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestUserHandler_Create_UnknownHouseType(t *testing.T) {
	handler, _, cleanup := setupUserHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/users", handler.Create)

	w := performRequest(router, "POST", "/users", dto.CreateUserRequest{
		Username:  "warga_aneh",
		Password:  "password123",
		Name:      "Warga",
		HouseType: "castle",
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}
