package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/blindlink/guardian-connect-backend/db"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// WithConnection loads the request row and rejects guardians touching
// requests addressed to someone else. Must run after Authenticator.
func WithConnection(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "connectionID")
		if id == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		g := r.Context().Value("guardian").(*model.Guardian)
		var conn model.Connection
		err := db.GetDB(r.Context()).Preload("BlindUser").First(&conn, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				w.WriteHeader(http.StatusNotFound)
			} else {
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}
		if model.NormalizeGuardianID(conn.GuardianID) != model.NormalizeGuardianID(g.GuardianID) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		ctx := context.WithValue(r.Context(), "connection", &conn)
		h.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}
