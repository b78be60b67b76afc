package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret-key-for-unit-tests"), Issuer: "supplysphere-test", TTL: time.Hour}
}

func TestIssueParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", "vendor")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.SessionID)
	assert.Equal(t, time.Hour, tok.ExpiresAt.Sub(tok.IssuedAt))

	c, err := j.Parse(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, "vendor", c.Role)
	assert.Equal(t, tok.SessionID, c.SessionID())
}

func TestIssue_UniqueSessions(t *testing.T) {
	j := newJWTer()
	a, err := j.Issue("u1", "admin")
	require.NoError(t, err)
	b, err := j.Issue("u1", "admin")
	require.NoError(t, err)
	assert.NotEqual(t, a.SessionID, b.SessionID)
}

func TestParse_Rejects(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", "admin")
	require.NoError(t, err)

	other := newJWTer()
	other.Secret = []byte("a-completely-different-secret")
	_, err = other.Parse(tok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIss := newJWTer()
	wrongIss.Issuer = "someone-else"
	_, err = wrongIss.Parse(tok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = j.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	j := newJWTer()
	past := time.Now().Add(-3 * time.Hour)
	j.Now = func() time.Time { return past }
	tok, err := j.Issue("u1", "supplier")
	require.NoError(t, err)

	j.Now = nil
	_, err = j.Parse(tok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsNoneAlg(t *testing.T) {
	j := newJWTer()
	claims := Claims{UID: "u1", Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		ID: "sid", Issuer: j.Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = j.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
