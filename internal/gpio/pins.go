package gpio

import (
	"errors"
	"log/slog"

	"pizzabox/internal/logging"
)

// PinConfig names the three handshake and safety lines of the box.
type PinConfig struct {
	Root         string
	LidPin       int
	LidActiveLow bool
	HeloOutPin   int
	HeloInPin    int
}

// Pins bundles the lid switch, the HELO1 output, and the HELO2 input.
type Pins struct {
	lid    *Line
	heloO  *Line
	heloI  *Line
	logger *slog.Logger
}

// OpenPins exports and opens all three lines.
func OpenPins(cfg PinConfig, logger *slog.Logger) (*Pins, error) {
	lid, err := Open(cfg.Root, cfg.LidPin, In, cfg.LidActiveLow)
	if err != nil {
		return nil, err
	}
	heloOut, err := Open(cfg.Root, cfg.HeloOutPin, Out, false)
	if err != nil {
		lid.Close()
		return nil, err
	}
	heloIn, err := Open(cfg.Root, cfg.HeloInPin, In, false)
	if err != nil {
		lid.Close()
		heloOut.Close()
		return nil, err
	}
	return &Pins{lid: lid, heloO: heloOut, heloI: heloIn, logger: logging.NewComponentLogger(logger, "gpio")}, nil
}

// LidOpen reports the lid switch. A read failure counts as closed so pending
// commands are aborted rather than left running.
func (p *Pins) LidOpen() bool {
	open, err := p.lid.Read()
	if err != nil {
		p.logger.Error("lid switch read failed", logging.Error(err), logging.String(logging.FieldEventType, "gpio_read_failed"))
		return false
	}
	return open
}

// PeerAlive reports HELO2. A read failure counts as low.
func (p *Pins) PeerAlive() bool {
	alive, err := p.heloI.Read()
	if err != nil {
		p.logger.Error("HELO2 read failed", logging.Error(err), logging.String(logging.FieldEventType, "gpio_read_failed"))
		return false
	}
	return alive
}

// SetHello drives HELO1.
func (p *Pins) SetHello(level bool) error {
	return p.heloO.Write(level)
}

// Close releases all three lines.
func (p *Pins) Close() error {
	return errors.Join(p.lid.Close(), p.heloO.Close(), p.heloI.Close())
}
