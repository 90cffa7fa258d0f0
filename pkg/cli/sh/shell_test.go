package sh

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robotalks/termkbd/pkg/bus"
	"github.com/robotalks/termkbd/pkg/bus/msgs"
)

func TestFormatInfo(t *testing.T) {
	info := bus.NodeInfo{Ref: bus.NodeRef{Type: "kbd", ID: "desk"}}
	assert.Equal(t, "kbd/desk", FormatInfo(info))
	info.Meta.Description = "Terminal keyboard"
	assert.Equal(t, "kbd/desk: Terminal keyboard", FormatInfo(info))
}

func TestFormatMsg(t *testing.T) {
	assert.Equal(t, "CommandOK ", FormatMsg(msgs.NewCommandOK()))
	out := FormatMsg(msgs.NewCommandErr(errors.New("no reply")))
	assert.True(t, strings.HasPrefix(out, "CommandErr "))
	assert.Contains(t, out, `message:"no reply"`)
}

func TestFilterByType(t *testing.T) {
	infos := []bus.NodeInfo{
		{Ref: bus.NodeRef{Type: "kbd", ID: "1"}},
		{Ref: bus.NodeRef{Type: "joystick", ID: "1"}},
		{Ref: bus.NodeRef{Type: "kbd", ID: "2"}},
	}
	assert.Len(t, filterByType(infos, ""), 3)
	matched := filterByType(infos, "kbd")
	if assert.Len(t, matched, 2) {
		assert.Equal(t, "kbd/2", matched[1].Ref.Name())
	}
	assert.Empty(t, filterByType(infos, "mouse"))
	assert.Equal(t, "joystick", infos[1].Ref.Type)
}

func TestArgOrEmpty(t *testing.T) {
	args := []string{"kbd"}
	assert.Equal(t, "kbd", argOrEmpty(args, 0))
	assert.Equal(t, "", argOrEmpty(args, 1))
}

func TestCallNotConnected(t *testing.T) {
	s := &Shell{}
	_, err := s.Call(msgs.NewCommandOK())
	assert.Equal(t, ErrNotConnected, err)
	assert.False(t, s.Connected())
}
