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

func WithBlindUser(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "blindID")
		if id == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var u model.BlindUser
		err := db.GetDB(r.Context()).
			Where("blind_id = ?", model.NormalizeBlindID(id)).
			First(&u).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				w.WriteHeader(http.StatusNotFound)
			} else {
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}
		ctx := context.WithValue(r.Context(), "blindUser", &u)
		h.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}
