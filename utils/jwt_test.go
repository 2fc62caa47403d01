package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewTokenManager("secret")
	token, err := m.Generate(5, "system")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, "system", claims.Username)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("one").Generate(1, "a")
	require.NoError(t, err)

	_, err = NewTokenManager("two").Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret")
	token, err := m.GenerateWithExpiry(1, "a", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, Username: "a"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret").Verify(signed)
	assert.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := TokenFromRequest(r, "session")
	assert.ErrorIs(t, err, ErrNoToken)

	r.AddCookie(&http.Cookie{Name: "session", Value: "from-cookie"})
	tok, err := TokenFromRequest(r, "session")
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", tok)

	r.Header.Set("Authorization", "Bearer from-header")
	tok, err = TokenFromRequest(r, "session")
	require.NoError(t, err)
	assert.Equal(t, "from-header", tok)

	r.Header.Set("Authorization", "Basic abc")
	_, err = TokenFromRequest(r, "session")
	assert.ErrorIs(t, err, ErrNoToken)
}
