// Package websocket connects to a remote bridge as a ps2.Transport.
// Each byte is carried in a binary frame.
package websocket

import (
	"golang.org/x/net/websocket"

	"github.com/robotalks/termkbd/pkg/ps2/link"
)

// Dial connects to the bridge at url.
func Dial(url, origin string) (*link.Link, error) {
	if origin == "" {
		origin = "http://localhost/"
	}
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return Wrap(conn), nil
}

// Wrap wraps an established connection.
func Wrap(conn *websocket.Conn) *link.Link {
	conn.PayloadType = websocket.BinaryFrame
	return link.New(conn)
}
