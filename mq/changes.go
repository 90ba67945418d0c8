package mq

import (
	"encoding/json"

	"github.com/blindlink/guardian-connect-backend/connection"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/env"
	"github.com/nsqio/go-nsq"
)

// TopicConnections carries one ChangeEvent per write on the connections
// table, at-least-once, to every server's fan-out consumer.
const TopicConnections = "connections"

// PublishChange emits a row-level change event for a connection write.
func PublishChange(op connection.Op, conn *model.Connection) error {
	ev := connection.ChangeEvent{Op: op, Connection: *conn}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return GetProducer().Publish(TopicConnections, b)
}

// StartChangeConsumer subscribes this server to the change feed. Each
// server uses its SERVER_ID as the channel so every instance sees every
// event and can serve its own websocket clients.
func StartChangeConsumer(handler func(connection.ChangeEvent)) (*nsq.Consumer, error) {
	consumer, err := nsq.NewConsumer(TopicConnections, env.SERVER_ID, nsq.NewConfig())
	if err != nil {
		return nil, err
	}
	consumer.AddHandler(nsq.HandlerFunc(func(message *nsq.Message) error {
		var ev connection.ChangeEvent
		if err := json.Unmarshal(message.Body, &ev); err != nil {
			// Malformed payloads are dropped, requeueing cannot fix them.
			return nil
		}
		handler(ev)
		return nil
	}))
	if err := consumer.ConnectToNSQLookupd(env.NSQLOOKUPD_ADDR); err != nil {
		consumer.Stop()
		return nil, err
	}
	return consumer, nil
}
