package v1

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signUp(t *testing.T, svc *APIV1Service, username, password string) AuthResponse {
	t.Helper()
	body := `{"username": "` + username + `", "email": "` + username + `@example.com", "password": "` + password + `"}`
	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/auth/signup", body, 0)
	require.NoError(t, svc.SignUp(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := newTestAPIService(t)

	created := signUp(t, svc, "casey", "a-long-password")
	assert.NotEmpty(t, created.Token)
	require.NotNil(t, created.User)
	assert.Equal(t, "casey", created.User.Username)

	// The issued token resolves back to the user.
	userID, claims, err := svc.Authenticator.ValidateToken(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, userID)
	assert.Equal(t, "casey", claims.Username)

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/auth/signin", `{"username": "casey", "password": "a-long-password"}`, 0)
	require.NoError(t, svc.SignIn(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var signedIn AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signedIn))
	assert.NotEmpty(t, signedIn.Token)
}

func TestSignUpRejectsDuplicateUsername(t *testing.T) {
	svc := newTestAPIService(t)
	signUp(t, svc, "casey", "a-long-password")

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/auth/signup", `{"username": "casey", "password": "another-password"}`, 0)
	require.NoError(t, svc.SignUp(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := newTestAPIService(t)

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/auth/signup", `{"username": "casey", "password": "short"}`, 0)
	require.NoError(t, svc.SignUp(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	svc := newTestAPIService(t)
	signUp(t, svc, "casey", "a-long-password")

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/auth/signin", `{"username": "casey", "password": "wrong-password"}`, 0)
	require.NoError(t, svc.SignIn(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignInUnknownUser(t *testing.T) {
	svc := newTestAPIService(t)

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/auth/signin", `{"username": "ghost", "password": "whatever-pass"}`, 0)
	require.NoError(t, svc.SignIn(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
