package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/models"
)

func seedNotification(t *testing.T, env *handlerTestEnv, userID uint64, title string) *models.Notification {
	t.Helper()
	n := &models.Notification{
		UserID:   userID,
		Type:     models.NotificationSystem,
		Title:    title,
		Message:  "message for " + title,
		Priority: models.TaskPriorityMedium,
	}
	require.NoError(t, env.notificationService.Create(n))
	return n
}

func TestListNotifications(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.createUser(t, "reader", models.RoleUser)
	other, _ := env.createUser(t, "noise", models.RoleUser)

	seedNotification(t, env, user.ID, "first")
	second := seedNotification(t, env, user.ID, "second")
	seedNotification(t, env, other.ID, "not yours")

	w := env.request(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	items := body["notifications"].([]any)
	require.Len(t, items, 2)
	require.Equal(t, float64(2), body["unread_count"])

	// Newest first.
	require.Equal(t, "second", items[0].(map[string]any)["title"])

	_, err := env.notificationService.MarkRead(user.ID, second.ID)
	require.NoError(t, err)

	w = env.request(t, http.MethodGet, "/api/notifications?unreadOnly=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	items = body["notifications"].([]any)
	require.Len(t, items, 1)
	require.Equal(t, "first", items[0].(map[string]any)["title"])
	require.Equal(t, float64(1), body["unread_count"])
}

func TestUnreadCountEndpoint(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.createUser(t, "counter", models.RoleUser)

	w := env.request(t, http.MethodGet, "/api/notifications/unread/count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(0), decodeBody(t, w)["count"])

	seedNotification(t, env, user.ID, "one")
	seedNotification(t, env, user.ID, "two")

	w = env.request(t, http.MethodGet, "/api/notifications/unread/count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), decodeBody(t, w)["count"])
}

func TestMarkRead_OwnershipAndErrors(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.createUser(t, "owner", models.RoleUser)
	_, otherToken := env.createUser(t, "intruder", models.RoleUser)

	n := seedNotification(t, env, user.ID, "private")

	// Someone else's notification is forbidden, not hidden.
	w := env.request(t, http.MethodPut, "/api/notifications/"+itoa(n.ID)+"/read", otherToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPut, "/api/notifications/999999/read", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodPut, "/api/notifications/abc/read", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPut, "/api/notifications/"+itoa(n.ID)+"/read", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["is_read"])
	require.NotEmpty(t, body["read_at"])

	// Marking again is harmless.
	w = env.request(t, http.MethodPut, "/api/notifications/"+itoa(n.ID)+"/read", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestMarkAllRead(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.createUser(t, "bulk", models.RoleUser)

	// Nothing to update still succeeds with a zero count.
	w := env.request(t, http.MethodPut, "/api/notifications/read/all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(0), decodeBody(t, w)["updatedCount"])

	seedNotification(t, env, user.ID, "a")
	seedNotification(t, env, user.ID, "b")

	w = env.request(t, http.MethodPut, "/api/notifications/read/all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), decodeBody(t, w)["updatedCount"])

	w = env.request(t, http.MethodGet, "/api/notifications/unread/count", token, nil)
	require.Equal(t, float64(0), decodeBody(t, w)["count"])
}

func TestDeleteNotifications(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.createUser(t, "cleaner", models.RoleUser)
	_, otherToken := env.createUser(t, "bystander", models.RoleUser)

	n := seedNotification(t, env, user.ID, "gone soon")
	seedNotification(t, env, user.ID, "also gone")

	w := env.request(t, http.MethodDelete, "/api/notifications/"+itoa(n.ID), otherToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodDelete, "/api/notifications/"+itoa(n.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodDelete, "/api/notifications/"+itoa(n.ID), token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodDelete, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), decodeBody(t, w)["deletedCount"])

	var count int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)
}
