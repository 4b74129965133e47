package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer("test-secret", "veritrustx-test")
	require.NoError(t, err)
	return iss
}

func TestIssueAndVerify(t *testing.T) {
	iss := newTestIssuer(t)

	token, err := iss.Issue("ops@veritrustx", "auditor", time.Hour)
	require.NoError(t, err)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@veritrustx", claims.Subject)
	assert.Equal(t, "auditor", claims.Role)
	assert.Equal(t, "veritrustx-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", "x")
	require.Error(t, err)
}

func TestIssue_RejectsBadInput(t *testing.T) {
	iss := newTestIssuer(t)
	_, err := iss.Issue("", "", time.Hour)
	require.Error(t, err)
	_, err = iss.Issue("ops", "", 0)
	require.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	iss := newTestIssuer(t)
	base := time.Now()
	iss.now = func() time.Time { return base }

	token, err := iss.Issue("ops", "", time.Minute)
	require.NoError(t, err)

	iss.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = iss.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	token, err := newTestIssuer(t).Issue("ops", "", time.Hour)
	require.NoError(t, err)

	other, err := NewIssuer("test-secret", "someone-else")
	require.NoError(t, err)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := newTestIssuer(t).Issue("ops", "", time.Hour)
	require.NoError(t, err)

	other, err := NewIssuer("different-secret", "veritrustx-test")
	require.NoError(t, err)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongAlgorithm(t *testing.T) {
	iss := newTestIssuer(t)
	claims := jwt.RegisteredClaims{
		Issuer:    "veritrustx-test",
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = iss.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := newTestIssuer(t).Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
