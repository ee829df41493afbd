// Package auth verifies the bearer tokens presented by players.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lguibr/pongarena/utils"
)

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(token string) (string, error)
}

// Claims is the token payload issued by the user service.
type Claims struct {
	UserID interface{} `json:"userId"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify returns the token's userId claim. Malformed, badly signed and
// expired tokens all fail with AUTH_INVALID_TOKEN.
func (v *JWTVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", utils.NewAuthError(utils.CodeAuthInvalidToken, "missing token")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expired"
		}
		return "", utils.NewAuthError(utils.CodeAuthInvalidToken, "%s", msg).WithCause(err)
	}
	if !parsed.Valid {
		return "", utils.NewAuthError(utils.CodeAuthInvalidToken, "invalid token")
	}

	userID, err := userIDString(claims.UserID)
	if err != nil {
		return "", utils.NewAuthError(utils.CodeAuthInvalidToken, "invalid userId claim").WithCause(err)
	}
	return userID, nil
}

// userIDString accepts the numeric ids some issuers emit as well as strings.
func userIDString(v interface{}) (string, error) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", errors.New("empty userId")
		}
		return id, nil
	case float64:
		return strconv.FormatInt(int64(id), 10), nil
	case nil:
		return "", errors.New("missing userId")
	default:
		return "", fmt.Errorf("unsupported userId type %T", v)
	}
}

// Issue signs a token for userID. It backs the dev bot and tests; production
// tokens come from the user service.
func Issue(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
