package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier(t *testing.T) {
	v := NewTokenVerifier("s3cret")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	token, err := v.Sign(Claims{UserID: "u-1", Role: "teacher", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})
	require.NoError(t, err)
	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "teacher", claims.Role)

	// user_id rỗng thì lấy từ sub
	token, err = v.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u-2", ExpiresAt: exp}})
	require.NoError(t, err)
	claims, err = v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-2", claims.UserID)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := NewTokenVerifier("s3cret")
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	expired, err := v.Sign(Claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}})
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewTokenVerifier("other").Sign(Claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})
	require.NoError(t, err)
	_, err = v.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	anonymous, err := v.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})
	require.NoError(t, err)
	_, err = v.Verify(anonymous)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenVerifier("").Verify(anonymous)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
