package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blindlink/guardian-connect-backend/api/auth"
	"github.com/blindlink/guardian-connect-backend/api/blinduser"
	apiconn "github.com/blindlink/guardian-connect-backend/api/connection"
	"github.com/blindlink/guardian-connect-backend/api/guardian"
	"github.com/blindlink/guardian-connect-backend/api/socket"
	"github.com/blindlink/guardian-connect-backend/connection"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/mq"
	"github.com/blindlink/guardian-connect-backend/server"
	"github.com/blindlink/guardian-connect-backend/ws"
	"github.com/go-chi/chi/v5"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	hub := ws.GetHub()
	go hub.Run()

	consumer, err := mq.StartChangeConsumer(func(ev connection.ChangeEvent) {
		b, err := json.Marshal(ev)
		if err != nil {
			logger.Println(err)
			return
		}
		hub.Broadcast(model.NormalizeGuardianID(ev.Connection.GuardianID), b)
	})
	if err != nil {
		logger.Fatalln(err)
	}

	r := chi.NewRouter()
	server.SetupMiddlewares(r)
	auth.NewHandlers(logger).SetupRoutes(r)
	guardian.NewHandlers(logger).SetupRoutes(r)
	blinduser.NewHandlers(logger).SetupRoutes(r)
	apiconn.NewHandlers(logger).SetupRoutes(r)
	socket.NewHandlers(logger).SetupRoutes(r)

	srv := server.New(r)

	go func() {
		logger.Println("listening on", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalln(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Println(err)
	}
	consumer.Stop()
	mq.StopProducers()
	hub.Close()
}
