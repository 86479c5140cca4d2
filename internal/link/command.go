package link

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Command is the leading byte of every frame.
type Command byte

const (
	CmdHello            Command = 0x00
	CmdAlreadyConnected Command = 0x01
	CmdError            Command = 0x02
	CmdReceived         Command = 0x03
	CmdAbort            Command = 0x63
	CmdSetMovement      Command = 'M'
	CmdSetLight         Command = 'L'
	CmdDoIt             Command = 'D'
	CmdUserInteract     Command = 'U'
	CmdRecord           Command = 'C'
	CmdRewind           Command = 'R'
	CmdDebugScroll      Command = 'S'
	CmdDebugSensors     Command = 'Z'
)

// EOT terminates every frame in both directions.
const EOT byte = 0x0A

func (c Command) String() string {
	switch c {
	case CmdHello:
		return "HELLO"
	case CmdAlreadyConnected:
		return "ALREADY_CONNECTED"
	case CmdError:
		return "ERROR"
	case CmdReceived:
		return "RECEIVED"
	case CmdAbort:
		return "ABORT"
	case CmdSetMovement:
		return "SET_MOVEMENT"
	case CmdSetLight:
		return "SET_LIGHT"
	case CmdDoIt:
		return "DO_IT"
	case CmdUserInteract:
		return "USER_INTERACT"
	case CmdRecord:
		return "RECORD"
	case CmdRewind:
		return "REWIND"
	case CmdDebugScroll:
		return "DEBUG_SCROLL"
	case CmdDebugSensors:
		return "DEBUG_SENSORS"
	default:
		return fmt.Sprintf("0x%02x", byte(c))
	}
}

// Scroll selects one of the two motorized scrolls.
type Scroll byte

const (
	ScrollHorizontal Scroll = 0
	ScrollVertical   Scroll = 1
)

func (s Scroll) String() string {
	if s == ScrollVertical {
		return "vertical"
	}
	return "horizontal"
}

// Layer selects one of the two light layers.
type Layer byte

const (
	Backlight  Layer = 0
	Frontlight Layer = 1
)

func (l Layer) String() string {
	if l == Frontlight {
		return "front"
	}
	return "back"
}

// Button is a single arcade button code; combined codes form a bitmask.
type Button byte

const (
	// ButtonNone is reported when the interaction timed out.
	ButtonNone   Button = 0
	ButtonBlue   Button = 1
	ButtonRed    Button = 2
	ButtonYellow Button = 4
	ButtonGreen  Button = 8
)

// Buttons lists the physical buttons in bit order.
var Buttons = []Button{ButtonBlue, ButtonRed, ButtonYellow, ButtonGreen}

func (b Button) String() string {
	switch b {
	case ButtonBlue:
		return "blue"
	case ButtonRed:
		return "red"
	case ButtonYellow:
		return "yellow"
	case ButtonGreen:
		return "green"
	case ButtonNone:
		return "timeout"
	default:
		return fmt.Sprintf("mask(0x%02x)", byte(b))
	}
}

// RGBW is a light color with channels in [0, 1].
type RGBW struct {
	R, G, B, W float64
}

// Pack encodes the color as W<<24 | B<<16 | G<<8 | R, each channel scaled to 0..255.
func (c RGBW) Pack() uint32 {
	return channel(c.W)<<24 | channel(c.B)<<16 | channel(c.G)<<8 | channel(c.R)
}

func channel(v float64) uint32 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint32(v * 255)
	}
}

// Frame is an outgoing command and its encoded payload.
type Frame struct {
	Command Command
	Payload []byte
}

// Encode returns the wire bytes: command, payload, EOT.
func (f Frame) Encode() []byte {
	out := make([]byte, 0, len(f.Payload)+2)
	out = append(out, byte(f.Command))
	out = append(out, f.Payload...)
	return append(out, EOT)
}

func bare(cmd Command) Frame { return Frame{Command: cmd} }

func Hello() Frame { return bare(CmdHello) }
func AlreadyConnected() Frame { return bare(CmdAlreadyConnected) }
func Abort() Frame { return bare(CmdAbort) }
func DoIt() Frame { return bare(CmdDoIt) }
func Rewind() Frame { return bare(CmdRewind) }
func DebugScroll() Frame { return bare(CmdDebugScroll) }
func DebugSensors() Frame { return bare(CmdDebugSensors) }

// SetMovement stages a motor move. Steps are signed; negative runs the scroll backwards.
func SetMovement(scroll Scroll, steps, speed int) (Frame, error) {
	if steps < math.MinInt16 || steps > math.MaxInt16 {
		return Frame{}, fmt.Errorf("movement steps %d out of range", steps)
	}
	if speed < 0 || speed > math.MaxUint8 {
		return Frame{}, fmt.Errorf("movement speed %d out of range", speed)
	}
	payload := make([]byte, 4)
	payload[0] = byte(scroll)
	binary.LittleEndian.PutUint16(payload[1:3], uint16(int16(steps)))
	payload[3] = byte(speed)
	return Frame{Command: CmdSetMovement, Payload: payload}, nil
}

// SetLight stages a light change on one layer with a fade duration.
func SetLight(layer Layer, color RGBW, fade time.Duration) Frame {
	payload := make([]byte, 9)
	payload[0] = byte(layer)
	binary.LittleEndian.PutUint32(payload[1:5], color.Pack())
	binary.LittleEndian.PutUint32(payload[5:9], millis(fade))
	return Frame{Command: CmdSetLight, Payload: payload}
}

// UserInteract lights the masked buttons and waits for a press. A zero timeout waits forever.
func UserInteract(mask Button, timeout time.Duration) Frame {
	payload := make([]byte, 5)
	payload[0] = byte(mask)
	binary.LittleEndian.PutUint32(payload[1:5], millis(timeout))
	return Frame{Command: CmdUserInteract, Payload: payload}
}

// Record shows the recording indicator for the given duration; the reply arrives when it ends.
func Record(duration time.Duration) Frame {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, millis(duration))
	return Frame{Command: CmdRecord, Payload: payload}
}

func millis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	switch {
	case ms <= 0:
		return 0
	case ms > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(ms)
	}
}

// Response is a frame received from the microcontroller, terminator included.
type Response struct {
	Raw    []byte
	Button Button
}
