package link_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"pizzabox/internal/link"
	"pizzabox/internal/services"
)

func ack(extra ...byte) []byte {
	out := append([]byte{byte(link.CmdReceived)}, extra...)
	return append(out, link.EOT)
}

func newLink(port *fakePort, signals *fakeSignals) *link.Link {
	return link.New(port, signals, link.Options{HelloTimeout: 20 * time.Millisecond})
}

func connected(t *testing.T, port *fakePort, signals *fakeSignals) *link.Link {
	t.Helper()
	port.queue([]byte{byte(link.CmdAlreadyConnected), link.EOT})
	l := newLink(port, signals)
	if err := l.Handshake(context.Background()); err != nil {
		t.Fatalf("Handshake returned error: %v", err)
	}
	port.frames = nil
	return l
}

func TestHandshakeConfirmsFreshPeer(t *testing.T) {
	port := &fakePort{respond: func(frame []byte) [][]byte {
		switch link.Command(frame[0]) {
		case link.CmdHello:
			return [][]byte{{byte(link.CmdHello), link.EOT}}
		case link.CmdAlreadyConnected:
			return [][]byte{{byte(link.CmdAlreadyConnected), link.EOT}}
		}
		return nil
	}}
	l := newLink(port, &fakeSignals{})
	if err := l.Handshake(context.Background()); err != nil {
		t.Fatalf("Handshake returned error: %v", err)
	}
	if !l.Connected() {
		t.Fatal("expected link to be connected")
	}
	want := []byte{0x00, 0x0a, 0x01, 0x0a}
	if got := port.written.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("unexpected handshake bytes % x", got)
	}
}

func TestHandshakeAcceptsExistingSession(t *testing.T) {
	port := &fakePort{}
	port.queue([]byte{byte(link.CmdAlreadyConnected), link.EOT})
	l := newLink(port, &fakeSignals{})
	if err := l.Handshake(context.Background()); err != nil {
		t.Fatalf("Handshake returned error: %v", err)
	}
	if !l.Connected() {
		t.Fatal("expected link to be connected")
	}
	if got := port.written.Bytes(); !bytes.Equal(got, []byte{0x00, 0x0a}) {
		t.Fatalf("expected only HELLO written, got % x", got)
	}
}

func TestHandshakeFailures(t *testing.T) {
	cases := map[string][][]byte{
		"timeout":            nil,
		"unexpected reply":   {{byte(link.CmdError), link.EOT}},
		"missing confirm":    {{byte(link.CmdHello), link.EOT}},
		"unexpected confirm": {{byte(link.CmdHello), link.EOT}, {byte(link.CmdReceived), link.EOT}},
		"oversized reply":    {{byte(link.CmdHello), 0xFF, link.EOT}},
		"oversized confirm":  {{byte(link.CmdHello), link.EOT}, {byte(link.CmdAlreadyConnected), 0x01, link.EOT}},
	}
	for name, chunks := range cases {
		t.Run(name, func(t *testing.T) {
			port := &fakePort{}
			port.queue(chunks...)
			l := newLink(port, &fakeSignals{})
			err := l.Handshake(context.Background())
			if !errors.Is(err, services.ErrLink) {
				t.Fatalf("expected link error, got %v", err)
			}
			if l.Connected() {
				t.Fatal("link must stay disconnected")
			}
		})
	}
}

func TestSendBeforeHandshakeFails(t *testing.T) {
	port := &fakePort{}
	l := newLink(port, &fakeSignals{})
	_, err := l.Send(context.Background(), link.DoIt(), false)
	if !errors.Is(err, services.ErrNotConnected) {
		t.Fatalf("expected not connected, got %v", err)
	}
	if port.written.Len() != 0 {
		t.Fatalf("nothing should be written, got % x", port.written.Bytes())
	}
}

func TestSendReturnsAcknowledgement(t *testing.T) {
	port := &fakePort{}
	l := connected(t, port, &fakeSignals{})
	port.respond = func([]byte) [][]byte { return [][]byte{nil, ack()} }

	resp, err := l.Send(context.Background(), link.DoIt(), false)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp == nil || !bytes.Equal(resp.Raw, ack()) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSendJoinsPartialFrames(t *testing.T) {
	port := &fakePort{}
	l := connected(t, port, &fakeSignals{})
	port.respond = func([]byte) [][]byte {
		return [][]byte{{byte(link.CmdReceived)}, nil, nil, {link.EOT}}
	}
	resp, err := l.Send(context.Background(), link.Rewind(), true)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(resp.Raw) != 2 {
		t.Fatalf("expected joined frame, got % x", resp.Raw)
	}
}

func TestSendRejectsWrongAcknowledgement(t *testing.T) {
	port := &fakePort{}
	l := connected(t, port, &fakeSignals{})
	port.respond = func([]byte) [][]byte { return [][]byte{{byte(link.CmdError), link.EOT}} }

	_, err := l.Send(context.Background(), link.DoIt(), false)
	if !errors.Is(err, services.ErrProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if !errors.Is(err, services.ErrLink) {
		t.Fatalf("protocol errors are link errors, got %v", err)
	}
}

func TestUserInteractDecodesButton(t *testing.T) {
	port := &fakePort{}
	l := connected(t, port, &fakeSignals{})
	port.respond = func([]byte) [][]byte { return [][]byte{ack(byte(link.ButtonRed))} }

	resp, err := l.Send(context.Background(), link.UserInteract(link.ButtonRed|link.ButtonBlue, 0), false)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp.Button != link.ButtonRed {
		t.Fatalf("expected red, got %s", resp.Button)
	}
}

func TestUserInteractRejectsShortReply(t *testing.T) {
	port := &fakePort{}
	l := connected(t, port, &fakeSignals{})
	port.respond = func([]byte) [][]byte { return [][]byte{ack()} }

	_, err := l.Send(context.Background(), link.UserInteract(link.ButtonRed, 0), false)
	if !errors.Is(err, services.ErrProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestLidClosureAbortsOnce(t *testing.T) {
	port := &fakePort{}
	signals := &fakeSignals{}
	l := connected(t, port, signals)
	signals.lid = func(call int) bool { return call < 3 }
	port.respond = func(frame []byte) [][]byte {
		if link.Command(frame[0]) == link.CmdAbort {
			return [][]byte{[]byte("stale"), ack()}
		}
		return [][]byte{nil, nil, nil}
	}

	resp, err := l.Send(context.Background(), link.UserInteract(link.ButtonBlue, 0), false)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp != nil {
		t.Fatalf("expected nil response after lid closure, got %+v", resp)
	}
	aborts := 0
	for _, frame := range port.writtenFrames() {
		if link.Command(frame[0]) == link.CmdAbort {
			aborts++
		}
	}
	if aborts != 1 {
		t.Fatalf("expected exactly one ABORT, got %d", aborts)
	}
	if len(port.chunks) != 0 {
		t.Fatalf("expected port drained, %d chunks left", len(port.chunks))
	}
}

func TestIgnoreLidKeepsWaiting(t *testing.T) {
	port := &fakePort{}
	signals := &fakeSignals{lid: func(int) bool { return false }}
	l := connected(t, port, signals)
	port.respond = func([]byte) [][]byte { return [][]byte{nil, nil, ack()} }

	resp, err := l.Send(context.Background(), link.SetLight(link.Backlight, link.RGBW{}, 0), true)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp == nil {
		t.Fatal("expected acknowledgement with lid ignored")
	}
}

func TestPeerFaultStopsSending(t *testing.T) {
	port := &fakePort{}
	signals := &fakeSignals{}
	l := connected(t, port, signals)
	signals.alive = func(call int) bool { return call < 2 }
	port.respond = func([]byte) [][]byte { return [][]byte{nil, nil, nil} }

	_, err := l.Send(context.Background(), link.DoIt(), false)
	if !errors.Is(err, services.ErrPeerFault) {
		t.Fatalf("expected peer fault, got %v", err)
	}
	if frames := port.writtenFrames(); len(frames) != 1 {
		t.Fatalf("expected only the command frame, got %d frames", len(frames))
	}
}

func TestSendHonoursContext(t *testing.T) {
	port := &fakePort{}
	l := connected(t, port, &fakeSignals{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Send(ctx, link.DoIt(), false); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	port := &fakePort{}
	l := connected(t, port, &fakeSignals{})
	if err := l.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if !port.closed || l.Connected() {
		t.Fatal("expected port closed and link disconnected")
	}
}
