package auth

import (
	"time"

	"github.com/blindlink/guardian-connect-backend/env"
	"github.com/golang-jwt/jwt/v4"
)

func genAccessToken(aud, sub string) (string, error) {
	// HS256 for symmetric signature, sign and verify in server
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: time.Now().Add(2 * time.Hour).Unix(),
		IssuedAt:  time.Now().Unix(),
		Issuer:    "https://guardianconnect.blindlink.dev",
		Audience:  aud,
		Subject:   sub,
	})
	return token.SignedString([]byte(env.HS256_SECRET))
}
