package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123"

func TestIssueAndValidate(t *testing.T) {
	svc, err := NewService(secret, time.Hour)
	require.NoError(t, err)

	tok, err := svc.Issue()
	require.NoError(t, err)
	assert.NotEmpty(t, tok.SessionID)

	claims, err := svc.Validate(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, tok.SessionID, claims.SessionID)

	other, err := svc.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, tok.SessionID, other.SessionID)
}

func TestValidateRejects(t *testing.T) {
	svc, err := NewService(secret, time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate("")
	assert.Error(t, err)
	_, err = svc.Validate("not-a-token")
	assert.Error(t, err)

	otherSvc, err := NewService("another-secret-value", time.Hour)
	require.NoError(t, err)
	tok, err := otherSvc.Issue()
	require.NoError(t, err)
	_, err = svc.Validate(tok.Value)
	assert.Error(t, err)

	// 过期令牌
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := svc.Issue()
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.Validate(old.Value)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	// alg=none 被拒绝
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Validate(none)
	assert.Error(t, err)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService("short", time.Hour)
	assert.Error(t, err)
	_, err = NewService(secret, 0)
	assert.Error(t, err)
}
