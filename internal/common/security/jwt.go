package security

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT(key []byte) {
	TokenAuth = jwtauth.New("HS256", key, nil)
}

// GenerateReviewerToken mints a token for the jwt gate mode. Exposed for
// operators seeding reviewer credentials.
func GenerateReviewerToken(subject string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": "reviewer",
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}
