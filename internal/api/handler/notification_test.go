package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ipl_server/internal/model"
	"github.com/qs3c/ipl_server/internal/pkg/response"
	"github.com/qs3c/ipl_server/internal/repository"
	"github.com/qs3c/ipl_server/internal/service"
	"github.com/qs3c/ipl_server/internal/testutil"
)

func TestNotificationHandler_ListAndMarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	handler := NewNotificationHandler(service.NewNotificationService(repository.NewNotificationRepository(db)))

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	n := &model.Notification{
		UserID:  user.ID,
		Type:    model.NotificationTypeBill,
		Title:   "Tagihan IPL 2024-06",
		Message: "Tagihan baru sebesar 100000",
	}
	require.NoError(t, db.Create(n).Error)

	router := gin.New()
	router.Use(mockAuth(user.ID, false))
	router.GET("/notifications", handler.List)
	router.PUT("/notifications/:id/read", handler.MarkRead)

	w := performRequest(router, "GET", "/notifications", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, false, items[0].(map[string]interface{})["is_read"])

	w = performRequest(router, "PUT", "/notifications/"+n.ID+"/read", nil)
	resp = parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	w = performRequest(router, "PUT", "/notifications/missing/read", nil)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)

	// 其他住户的通知不可见
	otherRouter := gin.New()
	otherRouter.Use(mockAuth(other.ID, false))
	otherRouter.PUT("/notifications/:id/read", handler.MarkRead)
	w = performRequest(otherRouter, "PUT", "/notifications/"+n.ID+"/read", nil)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}
