package mq

import (
	"os"
	"sync"

	"github.com/blindlink/guardian-connect-backend/env"
	"github.com/nsqio/go-nsq"
)

var producer *nsq.Producer
var once sync.Once

func GetProducer() *nsq.Producer {
	once.Do(func() {
		cfg := nsq.NewConfig()
		p, err := nsq.NewProducer(env.NSQD_TCP_ADDR, cfg)
		if err != nil {
			os.Exit(1)
		}
		producer = p
	})
	return producer
}

func StopProducers() {
	if producer != nil {
		producer.Stop()
	}
}
