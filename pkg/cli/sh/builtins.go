package sh

import (
	"github.com/abiosoft/ishell"

	"github.com/robotalks/termkbd/pkg/bus"
)

func builtinCmds() []*ishell.Cmd {
	return []*ishell.Cmd{
		{
			Name:    "discover",
			Aliases: []string{"list", "l"},
			Help:    "[TYPE]",
			Func:    discover,
		},
		{
			Name:    "connect",
			Aliases: []string{"c"},
			Help:    "[TYPE [ID]]",
			Func:    connect,
		},
		{
			Name:    "disconnect",
			Aliases: []string{"d"},
			Func: func(c *ishell.Context) {
				ShellFrom(c).Disconnect()
			},
		},
		{
			Name:    "watch",
			Aliases: []string{"w"},
			Help:    "[on|off]",
			Func:    watch,
		},
	}
}

func argOrEmpty(args []string, n int) string {
	if n < len(args) {
		return args[n]
	}
	return ""
}

func discover(c *ishell.Context) {
	s := ShellFrom(c)
	infos, err := s.Discover(argOrEmpty(c.Args, 0))
	if err != nil {
		c.Err(err)
		return
	}
	if s.OutputJSON {
		if infos == nil {
			infos = []bus.NodeInfo{}
		}
		out, err := s.render(infos)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(out)
		return
	}
	if len(infos) == 0 {
		c.Println("No nodes found")
	}
	for _, info := range infos {
		c.Println(FormatInfo(info))
	}
}

func connect(c *ishell.Context) {
	s := ShellFrom(c)
	ref := bus.NodeRef{Type: argOrEmpty(c.Args, 0), ID: argOrEmpty(c.Args, 1)}
	if !ref.IsValid() {
		info, err := s.SelectNode(ref.Type)
		if err != nil {
			c.Err(err)
			return
		}
		if info == nil {
			c.Println("No nodes found")
			return
		}
		ref = info.Ref
	}
	if err := s.Connect(ref); err != nil {
		c.Err(err)
	}
}

func watch(c *ishell.Context) {
	s := ShellFrom(c)
	switch argOrEmpty(c.Args, 0) {
	case "":
		s.Watch = !s.Watch
	case "on":
		s.Watch = true
	default:
		s.Watch = false
	}
	c.Printf("watch: %v\n", s.Watch)
}
