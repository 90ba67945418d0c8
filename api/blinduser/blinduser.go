package blinduser

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/blindlink/guardian-connect-backend/connection"
	"github.com/blindlink/guardian-connect-backend/db"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/idgen"
	"github.com/blindlink/guardian-connect-backend/middleware"
	"github.com/blindlink/guardian-connect-backend/mq"
	"github.com/blindlink/guardian-connect-backend/redis"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	logger *log.Logger
}

func (h *Handlers) lifecycle(ctx context.Context) *connection.Lifecycle {
	gdb := db.GetDB(ctx)
	return connection.NewLifecycle(connection.NewRepository(gdb), connection.NewDirectory(gdb), h.logger)
}

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	var body InSignup
	encoder, decoder := json.NewEncoder(w), json.NewDecoder(r.Body)
	decoder.Decode(&body)
	if body.Name == "" || body.Age <= 0 || body.Gender == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid input"))
		return
	}

	gdb := db.GetDB(r.Context())
	var last model.BlindUser
	if err := gdb.Order("created_at DESC").Limit(1).Find(&last).Error; err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	u := &model.BlindUser{
		BlindID:       idgen.Next(idgen.BlindPrefix, last.BlindID),
		Name:          body.Name,
		Age:           body.Age,
		Gender:        body.Gender,
		PhoneNumber:   body.PhoneNumber,
		Email:         body.Email,
		Address:       body.Address,
		ExpoPushToken: body.ExpoPushToken,
	}
	if err := gdb.Create(u).Error; err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	encoder.Encode(u)
	w.WriteHeader(http.StatusOK)
}

// getBlindUser also finishes the accept saga: an accepted request whose
// link step failed gets repaired here before the record is returned.
func (h *Handlers) getBlindUser(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("blindUser").(*model.BlindUser)
	if err := h.lifecycle(r.Context()).RepairLink(r.Context(), u); err != nil {
		h.logger.Println(err)
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(u)
}

// connect is the blind user's request to pair with a guardian. Duplicate
// active requests surface the existing row so the caller can distinguish
// "already pending" from "already connected".
func (h *Handlers) connect(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("blindUser").(*model.BlindUser)
	var body InConnect
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.GuardianID == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("missing field: guardian_id"))
		return
	}

	conn, err := h.lifecycle(r.Context()).RequestConnection(r.Context(), u.BlindID, body.GuardianID)
	encoder := json.NewEncoder(w)
	switch {
	case errors.Is(err, connection.ErrUnknownGuardian):
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("guardian not found"))
		return
	case errors.Is(err, connection.ErrDuplicateActiveRequest):
		if conn.Status == model.StatusAccepted {
			// Already connected, nothing to create.
			w.WriteHeader(http.StatusOK)
			encoder.Encode(&OutConnect{Status: conn.Status, ConnectionID: conn.ID})
			return
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("a connection request is already pending with this guardian"))
		return
	case err != nil:
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := mq.PublishChange(connection.OpInsert, conn); err != nil {
		h.logger.Println(err)
	}
	redis.Del("stats:" + model.NormalizeGuardianID(conn.GuardianID))

	w.WriteHeader(http.StatusCreated)
	encoder.Encode(&OutConnect{Status: conn.Status, ConnectionID: conn.ID})
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/blindusers", func(r chi.Router) {
		r.Post("/", h.signup)
		r.With(middleware.WithBlindUser).Get("/{blindID}", h.getBlindUser)
		r.With(middleware.WithBlindUser).Post("/{blindID}/connect", h.connect)
	})
}

func NewHandlers(l *log.Logger) *Handlers {
	return &Handlers{l}
}
