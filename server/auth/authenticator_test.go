package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateToken(t *testing.T) {
	a, err := NewAuthenticator("test-secret")
	require.NoError(t, err)

	token, err := a.IssueToken(42, "casey")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int32(42), userID)
	assert.Equal(t, "casey", claims.Username)
}

func TestValidateTokenBearerPrefix(t *testing.T) {
	a, err := NewAuthenticator("test-secret")
	require.NoError(t, err)

	token, err := a.IssueToken(7, "sam")
	require.NoError(t, err)

	userID, _, err := a.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, int32(7), userID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	a, err := NewAuthenticator("secret-a")
	require.NoError(t, err)
	b, err := NewAuthenticator("secret-b")
	require.NoError(t, err)

	token, err := a.IssueToken(1, "casey")
	require.NoError(t, err)

	_, _, err = b.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsEmpty(t *testing.T) {
	a, err := NewAuthenticator("test-secret")
	require.NoError(t, err)

	_, _, err = a.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, _, err = a.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	_, err := NewAuthenticator("")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2-but-longer")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2-but-longer", hash)

	assert.True(t, CheckPassword(hash, "hunter2-but-longer"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}
