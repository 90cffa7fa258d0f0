package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/robotalks/termkbd/pkg/bus"
	"github.com/robotalks/termkbd/pkg/bus/mqtt"
	"github.com/robotalks/termkbd/pkg/framework"
	"github.com/robotalks/termkbd/pkg/keyboard"
)

func init() {
	keyboard.SetupFlags()
}

func main() {
	flag.Set("logtostderr", "true")
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		glog.Warningf("load .env: %v", err)
	}
	if err := keyboard.LoadEnv(); err != nil {
		glog.Fatalln(err)
	}
	flag.Parse()

	conf := keyboard.NewConfig()
	if err := conf.Validate(); err != nil {
		glog.Fatalln(err)
	}
	dev, err := conf.OpenDevice()
	if err != nil {
		glog.Fatalln(err)
	}

	loop := framework.NewLoop()
	loop.Interval = conf.PollInterval
	pub := &bus.PublisherMux{}
	if conf.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(conf.MQTTBrokerURL, conf.NodeInfo())
		if err != nil {
			glog.Fatalf("create MQTT registrar error: %v", err)
		}
		pub.Add(reg)
		glog.Infof("registered as %s on %s", reg.Info.Ref.Name(), conf.MQTTBrokerURL)
	}
	ctl, err := conf.NewController(dev, pub)
	if err != nil {
		glog.Fatalln(err)
	}
	glog.Infof("keyboard on %s, pins data=%d clock=%d", dev.URL, conf.Pins.Data, conf.Pins.Clock)
	loop.Add(pub, ctl, &bus.UnsupportedCommands{}).RunOrFail()
}
