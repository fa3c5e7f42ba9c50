package main

import (
	"flag"
	"log"
	"reflect"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/mos.go/pkg/env"
	"github.com/robotalks/mos.go/pkg/msgs"
)

var statusOnly bool

func init() {
	env.SetupFlags()
	flag.BoolVar(&statusOnly, "status", statusOnly, "Show status reports only.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q := env.MustNewConfig().MustConnectMQTT("mosmon")
	defer q.Close()

	topic := "#"
	if statusOnly {
		topic = "+/" + msgs.TopicStatus
	}
	q.Sub(topic, func(topic string, payload []byte) {
		msg, ok := msgs.ForTopic(topic)
		if !ok {
			log.Printf("%s: %d bytes", topic, len(payload))
			return
		}
		if err := proto.Unmarshal(payload, msg); err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
	})
	<-(chan struct{})(nil)
}
