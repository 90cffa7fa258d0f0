package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/termkbd/pkg/bus/mqtt"
	"github.com/robotalks/termkbd/pkg/bus/msgs"

	_ "github.com/robotalks/termkbd/pkg/keyboard/msgs"
)

var (
	mqttURL = mqtt.DefaultBrokerURL
)

func init() {
	if val := os.Getenv("KBD_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func now() string {
	return time.Now().Format("15:04:05.000000")
}

func main() {
	flag.Set("logtostderr", "true")
	flag.Parse()

	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(mqttURL)
	if err != nil {
		glog.Fatalln(err)
	}
	q := mqtt.NewQueue(opts, topicPrefix)
	q.Sub("#", func(topic string, payload []byte) {
		if _, ok := mqtt.ParseMetaTopic(topic); ok {
			fmt.Printf("%s %s: %s\n", now(), topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			glog.Warningf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			glog.Warningf("%s: decode error: (type_id=%x) %v", topic, typed.TypeID, err)
			return
		}
		fmt.Printf("%s %s: seq=%d %s\n", now(), topic, typed.Sequence, msgs.Describe(msg))
	})
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		glog.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
