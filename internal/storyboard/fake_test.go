package storyboard_test

import (
	"context"
	"time"

	"pizzabox/internal/link"
)

// fakeHardware records every frame and answers interaction polls from a
// queue of buttons. openChecks bounds how many LidOpen calls report true;
// a negative value keeps the lid open.
type fakeHardware struct {
	openChecks int
	lidCalls   int
	buttons    []link.Button
	frames     []link.Frame
	played     []string
	audio      []string
	videos     []string
	photos     []string
}

func newFakeHardware(buttons ...link.Button) *fakeHardware {
	return &fakeHardware{openChecks: -1, buttons: buttons}
}

func (f *fakeHardware) LidOpen() bool {
	f.lidCalls++
	return f.openChecks < 0 || f.lidCalls <= f.openChecks
}

func (f *fakeHardware) lidState() bool {
	return f.openChecks < 0 || f.lidCalls <= f.openChecks
}

func (f *fakeHardware) Send(_ context.Context, frame link.Frame, ignoreLid bool) (*link.Response, error) {
	f.frames = append(f.frames, frame)
	if !ignoreLid && !f.lidState() {
		return nil, nil
	}
	if frame.Command == link.CmdUserInteract {
		b := link.ButtonNone
		if len(f.buttons) > 0 {
			b, f.buttons = f.buttons[0], f.buttons[1:]
		}
		return &link.Response{Raw: []byte{byte(link.CmdReceived), byte(b), link.EOT}, Button: b}, nil
	}
	return &link.Response{Raw: []byte{byte(link.CmdReceived), link.EOT}}, nil
}

func (f *fakeHardware) Play(_ context.Context, path string) error {
	f.played = append(f.played, path)
	return nil
}

func (f *fakeHardware) Playing() bool { return false }

func (f *fakeHardware) StopPlayback() {}

func (f *fakeHardware) RecordAudio(_ context.Context, path string, _ time.Duration, _ bool) error {
	f.audio = append(f.audio, path)
	return nil
}

func (f *fakeHardware) RecordVideo(_ context.Context, path string, _ time.Duration) error {
	f.videos = append(f.videos, path)
	return nil
}

func (f *fakeHardware) CapturePhoto(_ context.Context, path string) error {
	f.photos = append(f.photos, path)
	return nil
}

func (f *fakeHardware) count(cmd link.Command) int {
	n := 0
	for _, fr := range f.frames {
		if fr.Command == cmd {
			n++
		}
	}
	return n
}

// movements decodes every set-movement frame in order.
func (f *fakeHardware) movements() []link.Movement {
	var out []link.Movement
	for _, fr := range f.frames {
		if fr.Command != link.CmdSetMovement {
			continue
		}
		mv, err := link.DecodeMovement(fr)
		if err != nil {
			panic(err)
		}
		out = append(out, mv)
	}
	return out
}
