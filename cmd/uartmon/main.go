package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/uart.go/pkg/bridge/mqtt"
	"github.com/robotalks/uart.go/pkg/bridge/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/uart/"
)

func init() {
	if val := os.Getenv("UART_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/meta"):
			if len(payload) == 0 {
				log.Printf("%s: gone", topic)
			} else {
				log.Printf("%s: %s", topic, string(payload))
			}
		case strings.HasSuffix(topic, "/rx"):
			evt, err := msgs.DecodePacketEvent(payload)
			if evt == nil {
				log.Printf("%s: bad event: %v", topic, err)
				return
			}
			if err != nil {
				log.Printf("%s: %v: %s", topic, err, evt)
				return
			}
			log.Printf("%s: %s", topic, evt)
		default:
			log.Printf("%s: %d bytes", topic, len(payload))
		}
	})
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
