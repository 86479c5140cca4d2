package hal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pizzabox/internal/hal"
	"pizzabox/internal/link"
)

type fakeDevice struct {
	sent      []link.Frame
	ignored   []bool
	lid       bool
	button    link.Button
	abortOn   link.Command
	sendErr   error
	played    []string
	playing   int
	stopCalls int
}

func (d *fakeDevice) LidOpen() bool { return d.lid }

func (d *fakeDevice) Send(_ context.Context, frame link.Frame, ignoreLid bool) (*link.Response, error) {
	d.sent = append(d.sent, frame)
	d.ignored = append(d.ignored, ignoreLid)
	if d.sendErr != nil {
		return nil, d.sendErr
	}
	if frame.Command == d.abortOn {
		return nil, nil
	}
	return &link.Response{Raw: []byte{byte(link.CmdReceived), byte(d.button), link.EOT}, Button: d.button}, nil
}

func (d *fakeDevice) Play(_ context.Context, path string) error {
	d.played = append(d.played, path)
	return nil
}

func (d *fakeDevice) Playing() bool {
	if d.playing > 0 {
		d.playing--
		return true
	}
	return false
}

func (d *fakeDevice) StopPlayback() { d.stopCalls++ }

func commands(frames []link.Frame) []link.Command {
	out := make([]link.Command, len(frames))
	for i, f := range frames {
		out[i] = f.Command
	}
	return out
}

func TestTurnOffIgnoresLid(t *testing.T) {
	d := &fakeDevice{lid: false}
	if err := hal.TurnOff(context.Background(), d); err != nil {
		t.Fatalf("TurnOff returned error: %v", err)
	}
	got := commands(d.sent)
	want := []link.Command{link.CmdSetLight, link.CmdSetLight, link.CmdDoIt}
	if len(got) != len(want) {
		t.Fatalf("unexpected frames %v", got)
	}
	for i := range want {
		if got[i] != want[i] || !d.ignored[i] {
			t.Fatalf("frame %d: got %s ignoreLid=%v", i, got[i], d.ignored[i])
		}
	}
}

func TestWaitForInputPlaysPrompt(t *testing.T) {
	d := &fakeDevice{lid: true, button: link.ButtonGreen}
	button, ok, err := hal.WaitForInput(context.Background(), d, link.ButtonRed|link.ButtonGreen, "/sfx/lang-select.wav", 10*time.Second)
	if err != nil || !ok {
		t.Fatalf("WaitForInput returned ok=%v err=%v", ok, err)
	}
	if button != link.ButtonGreen {
		t.Fatalf("expected green, got %s", button)
	}
	if len(d.played) != 1 || d.stopCalls != 1 {
		t.Fatalf("expected prompt played and stopped, played=%v stops=%d", d.played, d.stopCalls)
	}
	if d.sent[0].Payload[0] != byte(link.ButtonRed|link.ButtonGreen) {
		t.Fatalf("unexpected mask % x", d.sent[0].Payload)
	}
}

func TestWaitForInputReportsLidClosure(t *testing.T) {
	d := &fakeDevice{abortOn: link.CmdUserInteract}
	_, ok, err := hal.WaitForInput(context.Background(), d, link.ButtonBlue, "", 0)
	if err != nil || ok {
		t.Fatalf("expected lid closure, ok=%v err=%v", ok, err)
	}
}

func TestDoItReportsLidClosure(t *testing.T) {
	d := &fakeDevice{abortOn: link.CmdDoIt}
	done, err := hal.DoIt(context.Background(), d, false)
	if err != nil || done {
		t.Fatalf("expected lid closure, done=%v err=%v", done, err)
	}
}

func TestPlaySoundStopsWhenLidCloses(t *testing.T) {
	d := &fakeDevice{lid: false, playing: 100}
	finished, err := hal.PlaySound(context.Background(), d, "/story/DE01.wav")
	if err != nil || finished {
		t.Fatalf("expected cut short, finished=%v err=%v", finished, err)
	}
	if d.stopCalls != 1 {
		t.Fatalf("expected playback stopped once, got %d", d.stopCalls)
	}
}

func TestPlaySoundRunsToCompletion(t *testing.T) {
	d := &fakeDevice{lid: true, playing: 2}
	finished, err := hal.PlaySound(context.Background(), d, "/story/DE01.wav")
	if err != nil || !finished {
		t.Fatalf("expected completion, finished=%v err=%v", finished, err)
	}
}

func TestSetMovementPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	d := &fakeDevice{sendErr: boom}
	if err := hal.SetMovement(context.Background(), d, link.ScrollVertical, 100, 1); !errors.Is(err, boom) {
		t.Fatalf("expected send error, got %v", err)
	}
	if err := hal.SetMovement(context.Background(), &fakeDevice{}, link.ScrollVertical, 1<<20, 1); err == nil {
		t.Fatal("expected range error")
	}
}
