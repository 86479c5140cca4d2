// Package link speaks the framed serial protocol of the box's microcontroller.
//
// Every frame is a command byte, a fixed little-endian payload, and an EOT
// terminator. Commands are acknowledged with RECEIVED; the link blocks until
// the acknowledgement arrives while watching the HELO2 "alive" line and the
// lid switch. Closing the lid cancels the pending command with an ABORT frame
// and reports a nil response, which callers treat as an orderly stop rather
// than a fault.
package link
