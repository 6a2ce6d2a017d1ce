package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/models"
)

func TestRegisterVerifyLoginFlow(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	user := body["user"].(map[string]any)
	require.Equal(t, "alice", user["username"])
	require.Equal(t, false, user["email_verified"])

	// Login before verification is refused with the verification flag.
	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "alice",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	body = decodeBody(t, w)
	require.Equal(t, true, body["requiresVerification"])

	var stored models.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&stored).Error)
	require.NotNil(t, stored.VerificationToken)

	w = env.request(t, http.MethodPost, "/api/auth/verify-email", "", map[string]any{
		"token": *stored.VerificationToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	require.Equal(t, false, body["requiresPasswordSetup"])

	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "alice",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	token, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	// The fresh token works against a protected endpoint.
	w = env.request(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	require.Empty(t, body["tasks"])
}

func TestRegister_DuplicateUsernameIsBadRequest(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.createUser(t, "bob", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "bob",
		"email":    "second@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, decodeBody(t, w)["error"], "username")
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.createUser(t, "carol", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "carol",
		"password": "wrongpassword",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedEndpointsRejectMissingOrBadToken(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/api/tasks", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_InvalidatesTokenAndIsIdempotent(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.createUser(t, "dave", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// A second logout with the dead token fails auth, not the handler.
	w = env.request(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetCurrentUser(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.createUser(t, "erin", models.RoleManager)

	w := env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, float64(user.ID), body["id"])
	require.Equal(t, "erin", body["username"])
	require.Equal(t, string(models.RoleManager), body["role"])
}

func TestRevokeSessions_OtherUserForbiddenForNonAdmin(t *testing.T) {
	env := setupHandlerTestEnv(t)
	target, targetToken := env.createUser(t, "frank", models.RoleUser)
	_, otherToken := env.createUser(t, "grace", models.RoleUser)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	w := env.request(t, http.MethodPost, "/api/auth/revoke-session/9999999", otherToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/revoke-session/abc", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/revoke-session/"+itoa(target.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/tasks", targetToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminProvisionedUserSetup(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	w := env.request(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"username": "hired",
		"email":    "hired@example.com",
		"role":     "manager",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var stored models.User
	require.NoError(t, env.db.Where("username = ?", "hired").First(&stored).Error)
	require.True(t, stored.AdminProvisioned)
	require.NotNil(t, stored.VerificationToken)

	w = env.request(t, http.MethodPost, "/api/auth/verify-email", "", map[string]any{
		"token": *stored.VerificationToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["requiresPasswordSetup"])

	w = env.request(t, http.MethodPost, "/api/auth/set-password", "", map[string]any{
		"token":    *stored.VerificationToken,
		"password": "chosen-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "hired",
		"password": "chosen-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestResendVerification_AlwaysGeneric(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/resend-verification", "", map[string]any{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, decodeBody(t, w)["message"], "If the email exists")
}
