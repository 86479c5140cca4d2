package storage

import (
	"context"
	"log/slog"
	"path"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"pizzabox/internal/logging"
)

// Event is a USB block device appearing or disappearing.
type Event struct {
	Action string
	Device string
}

// Monitor watches udev for USB block devices so operators can see in the
// log when the recording stick is pulled mid-session.
type Monitor struct {
	logger  *slog.Logger
	handler func(Event)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a monitor. handler may be nil.
func NewMonitor(logger *slog.Logger, handler func(Event)) *Monitor {
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "storage-monitor"),
		handler: handler,
	}
}

// Start connects to the udev netlink socket. A connection failure is logged
// and otherwise ignored.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("udev monitor unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "udev_connect_failed"),
			logging.String(logging.FieldErrorHint, "run as a user allowed to open netlink sockets"),
			logging.String(logging.FieldImpact, "stick removal is only noticed at the next self test"),
		)
		return nil
	}
	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true
	go m.loop(ctx, conn, m.quit)

	m.logger.Debug("udev monitor started", logging.String(logging.FieldEventType, "udev_monitor_started"))
	return nil
}

// Stop closes the netlink connection. It is safe to call more than once.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.quit)
	m.quit = nil
	_ = m.conn.Close()
	m.conn = nil
	m.running = false
}

func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, matcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case ev := <-queue:
			m.handle(ev)
		case err := <-errs:
			m.logger.Debug("udev monitor error", logging.Error(err))
		}
	}
}

// matcher accepts USB disks and partitions being added or removed.
func matcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"ID_BUS":    "usb",
		},
	})
	return rules
}

func (m *Monitor) handle(ev netlink.UEvent) {
	device := deviceName(ev)
	if device == "" {
		return
	}
	event := Event{Action: string(ev.Action), Device: device}
	if ev.Action == netlink.REMOVE {
		logging.WarnWithContext(m.logger, "usb storage removed", "usb_storage_removed",
			logging.String("device", device),
			logging.String(logging.FieldErrorHint, "reinsert the recording stick"),
			logging.String(logging.FieldImpact, "recordings fail until the stick is back"),
		)
	} else {
		m.logger.Info("usb storage attached",
			logging.String(logging.FieldEventType, "usb_storage_attached"),
			logging.String("device", device),
		)
	}
	if m.handler != nil {
		m.handler(event)
	}
}

func deviceName(ev netlink.UEvent) string {
	if name := ev.Env["DEVNAME"]; name != "" {
		if path.IsAbs(name) {
			return name
		}
		return "/dev/" + name
	}
	if devpath := ev.Env["DEVPATH"]; devpath != "" {
		return "/dev/" + path.Base(devpath)
	}
	return ""
}
