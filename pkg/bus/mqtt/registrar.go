package mqtt

import (
	"context"
	"encoding/json"

	"github.com/robotalks/termkbd/pkg/bus"
	fx "github.com/robotalks/termkbd/pkg/framework"
)

// Registrar announces a node on MQTT and serves its commands.
type Registrar struct {
	Queue *Queue
	Info  bus.NodeInfo

	meta      []byte
	registrar bus.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info bus.NodeInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := info.Ref.Name() + "/" + TopicMeta
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("termkbd:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue: NewQueue(opts, topicPrefix),
		Info:  info,
		meta:  meta,
	}
	r.Queue.OnConnect = func(q *Queue) { q.PubWith(metaTopic, r.meta, 1, true) }
	r.registrar.Init(NewReadWriter(r.Queue).ForNode(info.Ref))
	return r, nil
}

// SendEvent implements bus.Publisher.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(r.Info.Ref.Name()+"/"+TopicMeta, nil, 1, true).Wait()
	return r.Queue.Close()
}
