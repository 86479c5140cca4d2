package link

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pizzabox/internal/logging"
	"pizzabox/internal/services"
)

// Signals exposes the side-band lines consulted while waiting for replies.
type Signals interface {
	// PeerAlive reports the microcontroller's HELO2 line.
	PeerAlive() bool
	// LidOpen reports whether the box lid is open.
	LidOpen() bool
}

// Options configures a Link.
type Options struct {
	HelloTimeout time.Duration
	DrainLimit   int
	Logger       *slog.Logger
}

// Link is the request/acknowledge channel to the microcontroller. It is not
// safe for overlapping Send calls; the mutex only guards Close against a
// concurrent shutdown.
type Link struct {
	mu        sync.Mutex
	port      Port
	reader    *frameReader
	signals   Signals
	logger    *slog.Logger
	helloWait time.Duration
	drain     int
	connected bool
	closed    bool
}

const (
	defaultHelloTimeout = 2 * time.Second
	defaultDrainLimit   = 4096
)

// New wraps an open port. The link starts disconnected; call Handshake first.
func New(port Port, signals Signals, opts Options) *Link {
	if opts.HelloTimeout <= 0 {
		opts.HelloTimeout = defaultHelloTimeout
	}
	if opts.DrainLimit <= 0 {
		opts.DrainLimit = defaultDrainLimit
	}
	return &Link{
		port:      port,
		reader:    &frameReader{r: port},
		signals:   signals,
		logger:    logging.NewComponentLogger(opts.Logger, "link"),
		helloWait: opts.HelloTimeout,
		drain:     opts.DrainLimit,
	}
}

// Connected reports whether Handshake succeeded.
func (l *Link) Connected() bool {
	return l.connected
}

// Handshake performs the HELLO exchange. A peer that answers HELLO with HELLO
// is confirmed with ALREADY_CONNECTED; a peer that answers ALREADY_CONNECTED
// kept its session from an earlier run and is accepted with a warning.
func (l *Link) Handshake(ctx context.Context) error {
	if err := l.write(Hello()); err != nil {
		return err
	}
	deadline := time.Now().Add(l.helloWait)
	reply, err := l.awaitFrame(ctx, deadline)
	if err != nil {
		return err
	}
	if len(reply) == 0 {
		return services.Wrap(services.ErrLink, "link", "handshake", "no reply to HELLO", nil)
	}

	cmd, ok := control(reply)
	if !ok {
		return services.Wrap(services.ErrLink, "link", "handshake",
			fmt.Sprintf("malformed reply %x", reply), nil)
	}
	switch cmd {
	case CmdHello:
		if err := l.write(AlreadyConnected()); err != nil {
			return err
		}
		confirm, err := l.awaitFrame(ctx, deadline)
		if err != nil {
			return err
		}
		if len(confirm) == 0 {
			return services.Wrap(services.ErrLink, "link", "handshake", "no confirmation of ALREADY_CONNECTED", nil)
		}
		if c, ok := control(confirm); !ok || c != CmdAlreadyConnected {
			return services.Wrap(services.ErrLink, "link", "handshake",
				fmt.Sprintf("unexpected confirmation %x", confirm), nil)
		}
	case CmdAlreadyConnected:
		logging.WarnWithContext(l.logger, "microcontroller reports an existing connection", "link_reconnected",
			logging.String(logging.FieldErrorHint, "power cycle the box if the scrolls misbehave"),
			logging.String(logging.FieldImpact, "continuing with the previous link session"),
		)
	default:
		return services.Wrap(services.ErrLink, "link", "handshake",
			fmt.Sprintf("unexpected reply %x", reply), nil)
	}

	l.connected = true
	l.logger.Info("link established", logging.String(logging.FieldEventType, "link_connected"))
	return nil
}

// control returns the command of a handshake frame, which is exactly one
// command byte followed by EOT.
func control(frame []byte) (Command, bool) {
	if len(frame) != 2 || frame[1] != EOT {
		return 0, false
	}
	return Command(frame[0]), true
}

// Send writes one command frame and blocks until the acknowledgement arrives.
//
// Before every read attempt the HELO2 line is checked (low raises a peer
// fault) and, unless ignoreLid is set, the lid switch: a closed lid sends an
// out-of-band ABORT, drains the port, and returns a nil response with no error.
func (l *Link) Send(ctx context.Context, frame Frame, ignoreLid bool) (*Response, error) {
	if !l.connected {
		return nil, services.Wrap(services.ErrNotConnected, "link", "send",
			fmt.Sprintf("%s before handshake", frame.Command), nil)
	}
	if err := l.write(frame); err != nil {
		return nil, err
	}

	var raw []byte
	for len(raw) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.signals.PeerAlive() {
			return nil, services.Wrap(services.ErrPeerFault, "link", "send",
				fmt.Sprintf("HELO2 low while waiting for %s", frame.Command), nil)
		}
		if !ignoreLid && !l.signals.LidOpen() {
			l.logger.Info("lid closed while waiting; aborting command",
				logging.String("command", frame.Command.String()),
				logging.String(logging.FieldEventType, "link_abort"),
			)
			if err := l.write(Abort()); err != nil {
				return nil, err
			}
			if err := l.Flush(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		next, err := l.reader.next()
		if err != nil {
			return nil, services.Wrap(services.ErrLink, "link", "read", frame.Command.String(), err)
		}
		raw = next
	}

	l.logger.Debug("response received",
		logging.String("command", frame.Command.String()),
		logging.String("raw", fmt.Sprintf("%x", raw)),
	)
	if Command(raw[0]) != CmdReceived {
		return nil, services.Wrap(services.ErrProtocol, "link", "send",
			fmt.Sprintf("%s answered with %x", frame.Command, raw), nil)
	}
	resp := &Response{Raw: raw}
	if frame.Command == CmdUserInteract {
		if len(raw) != 3 {
			return nil, services.Wrap(services.ErrProtocol, "link", "send",
				fmt.Sprintf("USER_INTERACT expects 3 bytes, received %x", raw), nil)
		}
		resp.Button = Button(raw[1])
	}
	return resp, nil
}

// Flush discards any bytes buffered from the port.
func (l *Link) Flush() error {
	dropped, err := l.reader.drain(l.drain)
	if err != nil {
		return services.Wrap(services.ErrLink, "link", "flush", "", err)
	}
	if dropped > 0 {
		l.logger.Debug("flushed stale bytes", logging.Int("bytes", dropped))
	}
	return nil
}

// Close releases the port. The link cannot be reused afterwards.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
	if l.closed {
		return nil
	}
	l.closed = true
	return l.port.Close()
}

func (l *Link) write(frame Frame) error {
	if _, err := l.port.Write(frame.Encode()); err != nil {
		return services.Wrap(services.ErrLink, "link", "write", frame.Command.String(), err)
	}
	return nil
}

func (l *Link) awaitFrame(ctx context.Context, deadline time.Time) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := l.reader.next()
		if err != nil {
			return nil, services.Wrap(services.ErrLink, "link", "read", "handshake", err)
		}
		if len(frame) > 0 {
			return frame, nil
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
	}
}
