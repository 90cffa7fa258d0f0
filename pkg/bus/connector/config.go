// Package connector configures clients connecting nodes on the bus.
package connector

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/termkbd/pkg/bus"
	"github.com/robotalks/termkbd/pkg/bus/mqtt"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref bus.NodeRef

	// BrokerURL specifies where nodes are registered.
	// e.g. mqtt://host:port/topic-prefix
	BrokerURL string
}

var defaultConfig = Config{
	BrokerURL: mqtt.DefaultBrokerURL,
}

func init() {
	if val := os.Getenv("KBD_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("KBD_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("KBD_MQTT_URL"); val != "" {
		defaultConfig.BrokerURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "node-type", defaultConfig.Ref.Type, "Node type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "node-id", defaultConfig.Ref.ID, "Node ID to connect.")
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (bus.Connector, error) {
	u, err := url.Parse(c.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "tcp", "ssl", "ws", "wss":
		return mqtt.NewConnector(c.BrokerURL)
	default:
		return nil, fmt.Errorf("unknown broker URL scheme: %q", u.Scheme)
	}
}

// Connect directly connects to the node.
func (c *Config) Connect(ctx context.Context) (bus.Conn, error) {
	if !c.Ref.IsValid() {
		return nil, fmt.Errorf("node type and id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, c.Ref)
}

// MustConnect connects to the node or fails.
func (c *Config) MustConnect(ctx context.Context) bus.Conn {
	conn, err := c.Connect(ctx)
	if err != nil {
		glog.Fatalln(err)
	}
	return conn
}
