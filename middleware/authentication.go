package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/blindlink/guardian-connect-backend/db"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/env"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// Authenticator verifies the access token, loads the guardian it names and
// checks the device session still exists. Downstream handlers read the
// "guardian" and "session" context values.
func Authenticator(logger *log.Logger) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie("accessToken")
			if err != nil {
				logger.Println(err)
				if errors.Is(err, http.ErrNoCookie) {
					w.WriteHeader(http.StatusUnauthorized)
				} else {
					w.WriteHeader(http.StatusInternalServerError)
				}
				return
			}
			t, err := jwt.Parse(c.Value, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(env.HS256_SECRET), nil
			})
			if err != nil || !t.Valid {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			claims, ok := t.Claims.(jwt.MapClaims)
			if !ok || claims["aud"] != r.Context().Value("deviceIP") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			gid := claims["sub"].(string)
			ip := claims["aud"].(string)
			db := db.GetDB(r.Context())
			var g model.Guardian
			if err := db.Preload("Sessions").First(&g, gid).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					w.WriteHeader(http.StatusForbidden)
				} else {
					w.WriteHeader(http.StatusInternalServerError)
				}
				return
			}
			var s *model.Session
			for i := range g.Sessions {
				if g.Sessions[i].IP == ip {
					s = &g.Sessions[i]
					break
				}
			}
			if s == nil {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("session does not exist"))
				return
			}
			ctx := context.WithValue(context.WithValue(r.Context(), "guardian", &g), "session", s)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
