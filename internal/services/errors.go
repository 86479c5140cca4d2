package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLink          = errors.New("link error")
	ErrPeerFault     = errors.New("peer fault")
	ErrFileSystem    = errors.New("file system error")
	ErrConfiguration = errors.New("configuration error")
	ErrExternalTool  = errors.New("external tool error")

	// ErrNotConnected and ErrProtocol are link errors with a narrower cause.
	ErrNotConnected error = &linkCause{msg: "not connected"}
	ErrProtocol     error = &linkCause{msg: "protocol violation"}
)

type linkCause struct{ msg string }

func (e *linkCause) Error() string { return e.msg }

func (e *linkCause) Is(target error) bool { return target == ErrLink }

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later fault classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrLink
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind names the fault class of err for logging. Unclassified errors report
// "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrPeerFault):
		return "peer_fault"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrLink):
		return "link"
	case errors.Is(err, ErrFileSystem):
		return "file_system"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

// Hint returns a short operator hint for the fault class of err.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrPeerFault):
		return "check microcontroller power and the HELO wiring"
	case errors.Is(err, ErrLink):
		return "check the serial cable and that the firmware is running"
	case errors.Is(err, ErrFileSystem):
		return "insert the prepared USB stick and check the recordings directory"
	case errors.Is(err, ErrConfiguration):
		return "run pizzabox storyboard validate and pizzabox config validate"
	case errors.Is(err, ErrExternalTool):
		return "check that the audio and camera tools are installed"
	default:
		return "check logs for details"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
