// Package kbd adds keyboard commands to the shell.
package kbd

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/termkbd/pkg/cli/sh"
	"github.com/robotalks/termkbd/pkg/keyboard/msgs"
	"github.com/robotalks/termkbd/pkg/ps2"
)

var (
	// StatusCmd exposes StatusQuery command.
	StatusCmd = ishell.Cmd{
		Name:    "kbd.status",
		Aliases: []string{"ks"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.RunCommand(c, &msgs.StatusQuery{})
		}),
	}

	// MatrixCmd exposes MatrixQuery command and prints the dump.
	MatrixCmd = ishell.Cmd{
		Name:    "kbd.matrix",
		Aliases: []string{"km"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if s.OutputJSON {
				sh.RunCommand(c, &msgs.MatrixQuery{})
				return
			}
			reply, err := sh.DoCommand(c, &msgs.MatrixQuery{})
			if err != nil {
				return
			}
			if m, ok := reply.(*msgs.MatrixReply); ok {
				c.Print(RenderMatrix(m.Rows, s.Interactive))
				c.Printf("pressed: % X\n", m.Keys)
			}
		}),
	}

	// ResetCmd exposes ResetKeyboard command.
	ResetCmd = ishell.Cmd{
		Name:    "kbd.reset",
		Aliases: []string{"kr"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.RunCommand(c, &msgs.ResetKeyboard{})
		}),
	}

	// PressCmd injects a make code into a simulated keyboard.
	PressCmd = ishell.Cmd{
		Name:    "kbd.press",
		Aliases: []string{"kp"},
		Help:    "CODE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			inject(c, true)
		}),
	}

	// ReleaseCmd injects a break code into a simulated keyboard.
	ReleaseCmd = ishell.Cmd{
		Name:    "kbd.release",
		Aliases: []string{"kR"},
		Help:    "CODE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			inject(c, false)
		}),
	}
)

func inject(c *ishell.Context, pressed bool) {
	if len(c.Args) != 1 {
		c.Err(fmt.Errorf("scan code expected"))
		return
	}
	code, err := ParseCode(c.Args[0])
	if err != nil {
		c.Err(err)
		return
	}
	sh.RunCommand(c, &msgs.InjectKey{Code: uint32(code), Pressed: pressed})
}

// ParseCode parses a scan code in hex, with or without 0x prefix.
func ParseCode(s string) (byte, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	val, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid scan code %q", s)
	}
	code := byte(val)
	if code == ps2.CodeNone || !ps2.IsValidCode(code) {
		return 0, fmt.Errorf("%w: %02X", ps2.ErrInvalidCode, code)
	}
	return code, nil
}

func init() {
	sh.AddCmds(
		&StatusCmd,
		&MatrixCmd,
		&ResetCmd,
		&PressCmd,
		&ReleaseCmd,
	)
}
