package connection

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	conn "github.com/blindlink/guardian-connect-backend/connection"
	"github.com/blindlink/guardian-connect-backend/db"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/middleware"
	"github.com/blindlink/guardian-connect-backend/mq"
	"github.com/blindlink/guardian-connect-backend/notify"
	"github.com/blindlink/guardian-connect-backend/redis"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	logger *log.Logger
}

func (h *Handlers) repo(ctx context.Context) *conn.Repository {
	return conn.NewRepository(db.GetDB(ctx))
}

func (h *Handlers) lifecycle(ctx context.Context) *conn.Lifecycle {
	gdb := db.GetDB(ctx)
	return conn.NewLifecycle(conn.NewRepository(gdb), conn.NewDirectory(gdb), h.logger)
}

func (h *Handlers) listPending(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value("guardian").(*model.Guardian)
	rows, err := h.repo(r.Context()).ListPendingForGuardian(r.Context(), g.GuardianID)
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	out := make([]model.PendingConnection, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.PendingView())
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(out)
}

func (h *Handlers) listAccepted(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value("guardian").(*model.Guardian)
	rows, err := h.repo(r.Context()).ListAcceptedForGuardian(r.Context(), g.GuardianID)
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rows)
}

func (h *Handlers) getConnection(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value("connection").(*model.Connection)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(c)
}

func (h *Handlers) decide(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value("connection").(*model.Connection)

	var body InDecide
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&body); err != nil || body.Decision == nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("missing field: decision"))
		return
	}
	decision := model.ConnectionStatus(*body.Decision)

	updated, err := h.lifecycle(r.Context()).Decide(r.Context(), c.ID, decision)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	h.postWrite(r, updated)

	if c.BlindUser != nil {
		if err := notify.Decision(c.BlindUser, updated.GuardianID, updated.Status); err != nil {
			h.logger.Println(err)
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(updated)
}

func (h *Handlers) remove(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value("connection").(*model.Connection)
	updated, err := h.lifecycle(r.Context()).Remove(r.Context(), c.ID)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	h.postWrite(r, updated)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(updated)
}

// postWrite fans the settled row out to the change feed and drops the
// guardian's cached dashboard counts.
func (h *Handlers) postWrite(r *http.Request, c *model.Connection) {
	if err := mq.PublishChange(conn.OpUpdate, c); err != nil {
		h.logger.Println(err)
	}
	redis.Del(statsKey(c.GuardianID))
}

func (h *Handlers) writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conn.ErrInvalidTransition):
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("this request has already been processed"))
	case errors.Is(err, conn.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	default:
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value("guardian").(*model.Guardian)
	key := statsKey(g.GuardianID)

	if cached, err := redis.Get(key); err != nil {
		h.logger.Println(err)
	} else if cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	repo := h.repo(r.Context())
	pending, err := repo.CountByGuardianAndStatus(r.Context(), g.GuardianID, model.StatusPending)
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	accepted, err := repo.CountByGuardianAndStatus(r.Context(), g.GuardianID, model.StatusAccepted)
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	out := &OutStats{PendingRequests: pending, ConnectedUsers: accepted}
	b, err := json.Marshal(out)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := redis.SetEx(key, statsTTL, b); err != nil {
		h.logger.Println(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func statsKey(guardianID string) string {
	return "stats:" + model.NormalizeGuardianID(guardianID)
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/connections", func(r chi.Router) {
		r.Use(middleware.Authenticator(h.logger))
		r.With(middleware.NoCache).Get("/pending", h.listPending)
		r.With(middleware.NoCache).Get("/accepted", h.listAccepted)
		r.Get("/stats", h.stats)
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithConnection)
			r.Get("/{connectionID}", h.getConnection)
			r.Post("/{connectionID}/decide", h.decide)
			r.Post("/{connectionID}/remove", h.remove)
		})
	})
}

func NewHandlers(l *log.Logger) *Handlers {
	return &Handlers{l}
}
