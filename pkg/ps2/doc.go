// Package ps2 drives a scan code set 3 keyboard over a two-wire
// synchronous serial link and keeps a matrix of pressed keys.
package ps2

// The engine is polled. Every Scan consumes at most one byte from the
// transport, feeds it to the protocol state machine and updates the key
// matrix. Before scan codes are trusted the device goes through the
// handshake:
//
//	RESET -> RESET_RESPONSE -> KBD_ID0 -> KBD_ID1 -> CONFIG -> READY
//
// A release is encoded as the break prefix 0xF0 followed by the code,
// which is tracked by the BREAK substate of READY.
//
// Producer: keyboard device
// Consumer: key event layer reading the matrix
