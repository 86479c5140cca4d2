package gpio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Direction of a sysfs GPIO line.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// exportSettle bounds the wait for udev to create the line directory after export.
const exportSettle = time.Second

// Line is one exported sysfs GPIO. The value file stays open for the life of
// the line and is accessed with positioned reads and writes.
type Line struct {
	pin       int
	dir       Direction
	activeLow bool
	fd        int
	path      string
}

// Open exports pin under root (normally /sys/class/gpio), sets its direction,
// and opens its value file. activeLow inverts the logical level.
func Open(root string, pin int, dir Direction, activeLow bool) (*Line, error) {
	lineDir := filepath.Join(root, "gpio"+strconv.Itoa(pin))
	if _, err := os.Stat(lineDir); errors.Is(err, fs.ErrNotExist) {
		if err := writeFile(filepath.Join(root, "export"), strconv.Itoa(pin)); err != nil {
			return nil, fmt.Errorf("export gpio %d: %w", pin, err)
		}
		if err := waitFor(lineDir, exportSettle); err != nil {
			return nil, fmt.Errorf("export gpio %d: %w", pin, err)
		}
	}
	if err := writeFile(filepath.Join(lineDir, "direction"), string(dir)); err != nil {
		return nil, fmt.Errorf("set gpio %d direction: %w", pin, err)
	}
	valuePath := filepath.Join(lineDir, "value")
	flags := unix.O_RDONLY
	if dir == Out {
		flags = unix.O_RDWR
	}
	fd, err := unix.Open(valuePath, flags|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open gpio %d value: %w", pin, err)
	}
	return &Line{pin: pin, dir: dir, activeLow: activeLow, fd: fd, path: valuePath}, nil
}

// Pin returns the line number.
func (l *Line) Pin() int { return l.pin }

// Read returns the logical level of the line.
func (l *Line) Read() (bool, error) {
	var buf [1]byte
	n, err := unix.Pread(l.fd, buf[:], 0)
	if err != nil {
		return false, fmt.Errorf("read gpio %d: %w", l.pin, err)
	}
	if n == 0 {
		return false, fmt.Errorf("read gpio %d: empty value file", l.pin)
	}
	high := buf[0] == '1'
	return high != l.activeLow, nil
}

// Write drives an output line to the logical level.
func (l *Line) Write(level bool) error {
	if l.dir != Out {
		return fmt.Errorf("write gpio %d: line is an input", l.pin)
	}
	raw := level != l.activeLow
	value := []byte("0")
	if raw {
		value = []byte("1")
	}
	if _, err := unix.Pwrite(l.fd, value, 0); err != nil {
		return fmt.Errorf("write gpio %d: %w", l.pin, err)
	}
	return nil
}

// Close releases the value file. The line stays exported.
func (l *Line) Close() error {
	if l.fd < 0 {
		return nil
	}
	err := unix.Close(l.fd)
	l.fd = -1
	return err
}

func writeFile(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}

func waitFor(path string, limit time.Duration) error {
	deadline := time.Now().Add(limit)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s did not appear", path)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
