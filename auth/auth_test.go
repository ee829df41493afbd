package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/pongarena/utils"
)

func TestVerify_RoundTrip(t *testing.T) {
	token, err := Issue("s3cret", "user-1", time.Minute)
	require.NoError(t, err)

	userID, err := NewJWTVerifier("s3cret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerify_NumericUserID(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": 42,
		"exp":    time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	userID, err := NewJWTVerifier("k").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", userID)
}

func TestVerify_ExpiredMessage(t *testing.T) {
	token, err := Issue("k", "u", -time.Minute)
	require.NoError(t, err)

	_, err = NewJWTVerifier("k").Verify(token)
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "token expired", appErr.Message)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_Failures(t *testing.T) {
	expired, err := Issue("k", "u", -time.Minute)
	require.NoError(t, err)
	wrongKey, err := Issue("other", "u", time.Minute)
	require.NoError(t, err)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte("k"))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"expired":   expired,
		"wrong key": wrongKey,
		"no userId": noUser,
	}
	v := NewJWTVerifier("k")
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.True(t, utils.IsCode(err, utils.CodeAuthInvalidToken), "got %v", err)
			assert.True(t, utils.IsKind(err, utils.KindAuth))
		})
	}
}
