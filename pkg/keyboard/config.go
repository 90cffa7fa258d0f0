package keyboard

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/termkbd/pkg/bus"
	"github.com/robotalks/termkbd/pkg/bus/mqtt"
	"github.com/robotalks/termkbd/pkg/ps2"
)

// NodeType is the node type announced on the bus.
const NodeType = "kbd"

// Config defines the configurations of the keyboard node.
type Config struct {
	// Transport is the URL of the link to the keyboard, e.g.
	// serial:///dev/ttyUSB0?baud=115200, ws://host:port/path or sim:.
	Transport string   `yaml:"transport"`
	Pins      ps2.Pins `yaml:"pins"`
	// ReplyTimeout limits the wait for the reply of a command byte.
	ReplyTimeout time.Duration `yaml:"reply_timeout"`
	// PollInterval is the interval of the loop calling Scan.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ScansPerPoll is the number of Scan calls in one iteration.
	ScansPerPoll int `yaml:"scans_per_poll"`
	// ID identifies the node on the bus, defaults to machine ID.
	ID string `yaml:"id"`
	// MQTTBrokerURL specifies the MQTT broker to use, empty to disable.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt"`
	Description   string `yaml:"description"`
	Verbose       bool   `yaml:"verbose"`
}

// Defaults
const (
	DefaultTransport    = "sim:"
	DefaultPollInterval = 5 * time.Millisecond
	DefaultScansPerPoll = 8
)

var defaultConfig = Config{
	Transport:     DefaultTransport,
	Pins:          ps2.DefaultPins,
	PollInterval:  DefaultPollInterval,
	ScansPerPoll:  DefaultScansPerPoll,
	MQTTBrokerURL: mqtt.DefaultBrokerURL,
	Description:   "Scan code set 3 terminal keyboard",
}

func init() {
	if id, err := machineid.ID(); err == nil {
		defaultConfig.ID = id
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Transport, "transport", defaultConfig.Transport, "Keyboard transport URL (serial:///dev/ttyX?baud=N, ws://host/path, sim:)")
	flag.IntVar(&defaultConfig.Pins.Data, "data-pin", defaultConfig.Pins.Data, "Data pin, clock pin must be the next one")
	flag.IntVar(&defaultConfig.Pins.Clock, "clock-pin", defaultConfig.Pins.Clock, "Clock pin")
	flag.DurationVar(&defaultConfig.ReplyTimeout, "reply-timeout", defaultConfig.ReplyTimeout, "Timeout waiting for command reply, 0 for link default")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Poll interval")
	flag.IntVar(&defaultConfig.ScansPerPoll, "scans", defaultConfig.ScansPerPoll, "Scans per poll")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Node ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print key events")
}

// LoadEnv applies the config file named by KBD_CONFIG and environment
// overrides to the defaults. It's called before flag.Parse so flags
// still take precedence.
func LoadEnv() error {
	if fn := os.Getenv("KBD_CONFIG"); fn != "" {
		if err := defaultConfig.LoadFile(fn); err != nil {
			return err
		}
	}
	if val := os.Getenv("KBD_TRANSPORT"); val != "" {
		defaultConfig.Transport = val
	}
	if val, ok := os.LookupEnv("KBD_MQTT_URL"); ok {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("KBD_ID"); val != "" {
		defaultConfig.ID = val
	}
	if val := os.Getenv("KBD_DATA_PIN"); val != "" {
		pin, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid KBD_DATA_PIN %q: %w", val, err)
		}
		defaultConfig.Pins = ps2.Pins{Data: pin, Clock: pin + 1}
	}
	return nil
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadFile overrides the config with values from a YAML file.
func (c *Config) LoadFile(fn string) error {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", fn, err)
	}
	glog.V(1).Infof("config loaded from %s", fn)
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if err := c.Pins.Validate(); err != nil {
		return err
	}
	if c.Transport == "" {
		return fmt.Errorf("transport must be specified")
	}
	if c.ScansPerPoll <= 0 {
		return fmt.Errorf("scans per poll must be positive: %d", c.ScansPerPoll)
	}
	if c.MQTTBrokerURL != "" && c.ID == "" {
		return fmt.Errorf("node id must be specified")
	}
	return nil
}

// NodeInfo describes the node on the bus.
func (c *Config) NodeInfo() bus.NodeInfo {
	return bus.NodeInfo{
		Ref: bus.NodeRef{Type: NodeType, ID: c.ID},
		Meta: bus.NodeMeta{
			Description: c.Description,
			Labels: map[string]string{
				"transport": c.Transport,
				"data-pin":  strconv.Itoa(c.Pins.Data),
				"clock-pin": strconv.Itoa(c.Pins.Clock),
			},
		},
	}
}
