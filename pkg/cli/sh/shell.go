// Package sh is the interactive client of keyboard nodes.
package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/termkbd/pkg/bus"
	"github.com/robotalks/termkbd/pkg/bus/connector"
	"github.com/robotalks/termkbd/pkg/bus/msgs"
	fx "github.com/robotalks/termkbd/pkg/framework"
)

var (
	// ErrNotConnected is reported by commands needing a node.
	ErrNotConnected = errors.New("not connected")
	// ErrCommandTimeout is reported when a node doesn't reply in time.
	ErrCommandTimeout = errors.New("command timeout")
)

// CommandTimeout bounds the wait for a command reply.
var CommandTimeout = 2 * time.Second

const (
	ctxShellKey = "$shell"
	idlePrompt  = "[none] > "
)

var (
	flagEvalOnly bool
	flagJSON     bool

	extraCmds []*ishell.Cmd
)

func init() {
	flag.BoolVar(&flagEvalOnly, "e", false, "Run the command from arguments and exit.")
	flag.BoolVar(&flagJSON, "json", false, "Print output in JSON.")
}

// AddCmds registers commands of other packages; call it from init.
func AddCmds(cmds ...*ishell.Cmd) {
	extraCmds = append(extraCmds, cmds...)
}

// Shell wraps an ishell.Shell with at most one node session.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	// Watch prints events from the connected node.
	Watch bool

	Shell  *ishell.Shell
	Config *connector.Config

	session *session
}

type session struct {
	ref  bus.NodeRef
	conn bus.Conn
	stop context.CancelFunc
}

// New creates a Shell with the builtin and registered commands.
func New(conf *connector.Config) *Shell {
	s := &Shell{
		Interactive: !flagEvalOnly,
		OutputJSON:  flagJSON,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(ctxShellKey, s)
	s.Shell.SetPrompt(idlePrompt)
	for _, cmd := range append(builtinCmds(), extraCmds...) {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets the Shell running a command.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(ctxShellKey).(*Shell)
}

// MustBeConnected rejects the command when no node is connected.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if !ShellFrom(c).Connected() {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// WithAutoConnect makes Run connect Config.Ref first.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connected tells whether a node session is open.
func (s *Shell) Connected() bool {
	return s.session != nil
}

// FormatInfo renders a node as "type/id: description".
func FormatInfo(info bus.NodeInfo) string {
	if info.Meta.Description == "" {
		return info.Ref.Name()
	}
	return info.Ref.Name() + ": " + info.Meta.Description
}

// FormatMsg renders a message as its type name and text form.
func FormatMsg(msg fx.Message) string {
	return msgs.Describe(msg)
}

func (s *Shell) render(v interface{}) (string, error) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		return string(out), err
	}
	if msg, ok := v.(fx.Message); ok {
		return FormatMsg(msg), nil
	}
	return fmt.Sprint(v), nil
}

// Print writes msg in the output format of the shell.
func (s *Shell) Print(c *ishell.Context, msg fx.Message) error {
	out, err := s.render(msg)
	if err != nil {
		return err
	}
	c.Println(out)
	return nil
}

// Call sends a command to the connected node and waits for the reply.
func (s *Shell) Call(msg fx.Message) (fx.Message, error) {
	if s.session == nil {
		return nil, ErrNotConnected
	}
	timer := time.NewTimer(CommandTimeout)
	defer timer.Stop()
	select {
	case res := <-s.session.conn.DoCommand(msg).ResultChan():
		return res.Msg, res.Err
	case <-timer.C:
		return nil, ErrCommandTimeout
	}
}

// DoCommand is Call reporting errors to the shell.
func DoCommand(c *ishell.Context, msg fx.Message) (fx.Message, error) {
	reply, err := ShellFrom(c).Call(msg)
	if err != nil {
		c.Err(err)
	}
	return reply, err
}

// RunCommand runs a command and prints the reply.
func RunCommand(c *ishell.Context, msg fx.Message) error {
	reply, err := DoCommand(c, msg)
	if err != nil {
		return err
	}
	s := ShellFrom(c)
	if _, ok := reply.(*msgs.CommandOK); ok && !s.OutputJSON {
		c.Println("OK")
		return nil
	}
	if err = s.Print(c, reply); err != nil {
		c.Err(err)
	}
	return err
}

// Discover lists nodes, only the ones of nodeType unless it's empty.
func (s *Shell) Discover(nodeType string) ([]bus.NodeInfo, error) {
	conn, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	infos, err := conn.Discover(context.Background())
	if err != nil {
		return nil, err
	}
	return filterByType(infos, nodeType), nil
}

func filterByType(infos []bus.NodeInfo, nodeType string) []bus.NodeInfo {
	if nodeType == "" {
		return infos
	}
	matched := infos[:0:0]
	for _, info := range infos {
		if info.Ref.Type == nodeType {
			matched = append(matched, info)
		}
	}
	return matched
}

// SelectNode discovers nodes of nodeType and asks which one to use
// when there are several. It returns nil when nothing is found.
func (s *Shell) SelectNode(nodeType string) (*bus.NodeInfo, error) {
	infos, err := s.Discover(nodeType)
	switch {
	case err != nil || len(infos) == 0:
		return nil, err
	case len(infos) == 1:
		return &infos[0], nil
	case !s.Interactive:
		return nil, fmt.Errorf("%d nodes found, specify TYPE and ID", len(infos))
	}
	choices := make([]string, len(infos))
	for i := range infos {
		choices[i] = FormatInfo(infos[i])
	}
	return &infos[s.Shell.MultiChoice(choices, "Which one to connect?")], nil
}

// Connect opens a session to ref, replacing the current one.
func (s *Shell) Connect(ref bus.NodeRef) error {
	conn, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	ctx, stop := context.WithCancel(context.Background())
	nodeConn, err := conn.Connect(ctx, ref)
	if err != nil {
		stop()
		return err
	}
	loop := fx.NewLoop()
	if adder, ok := nodeConn.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	loop.AddController(fx.PrLvControl, fx.ControlFunc(s.printEvents))

	s.Disconnect()
	s.session = &session{ref: ref, conn: nodeConn, stop: stop}
	go func() {
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			glog.Errorf("session %s: %v", ref.Name(), err)
		}
	}()
	s.Shell.SetPrompt(ref.Name() + " > ")
	return nil
}

// Disconnect closes the current session if any.
func (s *Shell) Disconnect() {
	if s.session == nil {
		return
	}
	s.session.stop()
	glog.V(1).Infof("disconnected from %s", s.session.ref.Name())
	s.session = nil
	s.Shell.SetPrompt(idlePrompt)
}

// printEvents consumes every message reaching the session loop.
func (s *Shell) printEvents(cc fx.ControlContext) error {
	cc.Messages().Consume(func(msg fx.Message) bool {
		if s.Watch {
			if out, err := s.render(msg); err == nil {
				s.Shell.Println(out)
			}
		}
		return true
	})
	return nil
}

// Run executes args as one command, or starts the interactive shell.
func (s *Shell) Run(args ...string) {
	if ref := s.Config.Ref; s.AutoConnect && ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", ref.Name())
		}
		if err := s.Connect(ref); err != nil {
			glog.Fatalf("connect %q failed: %v", ref.Name(), err)
		}
	}
	switch {
	case len(args) > 0:
		if err := s.Shell.Process(args...); err != nil {
			glog.Fatalln(err)
		}
	case s.Interactive:
		s.Shell.Run()
	default:
		glog.Fatalln("command expected")
	}
}

// Main parses flags and runs a Shell connected to the configured node.
func Main() {
	flag.Set("logtostderr", "true")
	flag.Parse()
	New(connector.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
