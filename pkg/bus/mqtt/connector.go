package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/termkbd/pkg/bus"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector implements bus.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// ParseMetaTopic extracts node reference from a meta topic.
func ParseMetaTopic(topic string) (ref bus.NodeRef, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta {
		return
	}
	ref.Type, ref.ID = items[0], items[1]
	return ref, ref.IsValid()
}

// Discover implements bus.Connector. It collects the retained meta of
// online nodes until DiscoverTimeout passes or ctx is done; nodes with
// cleared meta are offline and skipped.
func (c *Connector) Discover(ctx context.Context) ([]bus.NodeInfo, error) {
	q := NewQueue(c.options, c.topicPrefix)
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	defer q.Close()

	wait := c.DiscoverTimeout
	if wait <= 0 {
		wait = DefaultDiscoverTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	found := make(chan bus.NodeInfo, 16)
	q.Sub("+/+/"+TopicMeta, func(topic string, payload []byte) {
		info, ok := parseMeta(topic, payload)
		if !ok {
			return
		}
		select {
		case found <- info:
		case <-ctx.Done():
		}
	})

	var infos []bus.NodeInfo
	for {
		select {
		case info := <-found:
			infos = append(infos, info)
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return infos, nil
			}
			return infos, ctx.Err()
		}
	}
}

func parseMeta(topic string, payload []byte) (info bus.NodeInfo, ok bool) {
	if info.Ref, ok = ParseMetaTopic(topic); !ok || len(payload) == 0 {
		return info, false
	}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("invalid meta of %s: %v", info.Ref.Name(), err)
	}
	return info, true
}

// Connect implements bus.Connector.
func (c *Connector) Connect(ctx context.Context, ref bus.NodeRef) (bus.Conn, error) {
	conn := &Conn{Queue: NewQueue(c.options, c.topicPrefix)}
	conn.Init(NewReadWriter(conn.Queue).ForClient(ref))
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Conn is a client connection over MQTT.
type Conn struct {
	bus.ClientConn
	Queue *Queue
}
