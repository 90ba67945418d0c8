package socket

import (
	"log"
	"net/http"

	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/middleware"
	"github.com/blindlink/guardian-connect-backend/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handlers struct {
	logger *log.Logger
}

// connectionsFeed upgrades the request and parks the guardian on the hub.
// The socket is one-way, the server only ever pushes change events down.
func (h *Handlers) connectionsFeed(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value("guardian").(*model.Guardian)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Println(err)
		return
	}

	hub := ws.GetHub()
	client := ws.NewClient(&ws.ClientCfg{
		Logger:     h.logger,
		Hub:        hub,
		Conn:       conn,
		GuardianID: model.NormalizeGuardianID(g.GuardianID),
		SessionID:  uuid.NewString(),
	})
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Authenticator(h.logger))
		r.Get("/connections", h.connectionsFeed)
	})
}

func NewHandlers(l *log.Logger) *Handlers {
	return &Handlers{l}
}
