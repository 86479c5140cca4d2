package link

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Movement is a decoded set-movement payload.
type Movement struct {
	Scroll Scroll
	Steps  int
	Speed  int
}

// Light is a decoded set-light payload.
type Light struct {
	Layer Layer
	Color uint32
	Fade  time.Duration
}

// Interaction is a decoded user-interaction payload.
type Interaction struct {
	Mask    Button
	Timeout time.Duration
}

// DecodeMovement reads the payload produced by SetMovement.
func DecodeMovement(f Frame) (Movement, error) {
	if err := expect(f, CmdSetMovement, 4); err != nil {
		return Movement{}, err
	}
	return Movement{
		Scroll: Scroll(f.Payload[0]),
		Steps:  int(int16(binary.LittleEndian.Uint16(f.Payload[1:3]))),
		Speed:  int(f.Payload[3]),
	}, nil
}

// DecodeLight reads the payload produced by SetLight.
func DecodeLight(f Frame) (Light, error) {
	if err := expect(f, CmdSetLight, 9); err != nil {
		return Light{}, err
	}
	return Light{
		Layer: Layer(f.Payload[0]),
		Color: binary.LittleEndian.Uint32(f.Payload[1:5]),
		Fade:  time.Duration(binary.LittleEndian.Uint32(f.Payload[5:9])) * time.Millisecond,
	}, nil
}

// DecodeInteraction reads the payload produced by UserInteract.
func DecodeInteraction(f Frame) (Interaction, error) {
	if err := expect(f, CmdUserInteract, 5); err != nil {
		return Interaction{}, err
	}
	return Interaction{
		Mask:    Button(f.Payload[0]),
		Timeout: time.Duration(binary.LittleEndian.Uint32(f.Payload[1:5])) * time.Millisecond,
	}, nil
}

// DecodeRecord reads the duration of a Record frame.
func DecodeRecord(f Frame) (time.Duration, error) {
	if err := expect(f, CmdRecord, 4); err != nil {
		return 0, err
	}
	return time.Duration(binary.LittleEndian.Uint32(f.Payload)) * time.Millisecond, nil
}

func expect(f Frame, cmd Command, size int) error {
	if f.Command != cmd {
		return fmt.Errorf("decode %s: frame is %s", cmd, f.Command)
	}
	if len(f.Payload) != size {
		return fmt.Errorf("decode %s: payload has %d bytes, want %d", cmd, len(f.Payload), size)
	}
	return nil
}
