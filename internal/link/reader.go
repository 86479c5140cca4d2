package link

import (
	"bytes"
	"errors"
	"io"

	"github.com/goburrow/serial"
)

// frameReader splits the byte stream into EOT-terminated frames. A read
// timeout yields no frame; bytes of a partial frame are kept for the next call.
type frameReader struct {
	r       io.Reader
	pending []byte
	buf     [64]byte
}

func (fr *frameReader) next() ([]byte, error) {
	for {
		if idx := bytes.IndexByte(fr.pending, EOT); idx >= 0 {
			frame := append([]byte(nil), fr.pending[:idx+1]...)
			fr.pending = fr.pending[idx+1:]
			return frame, nil
		}
		n, err := fr.r.Read(fr.buf[:])
		if n > 0 {
			fr.pending = append(fr.pending, fr.buf[:n]...)
			continue
		}
		if err == nil || isTimeout(err) {
			return nil, nil
		}
		return nil, err
	}
}

// drain discards buffered and in-flight bytes until the port goes quiet or
// limit bytes have been dropped.
func (fr *frameReader) drain(limit int) (int, error) {
	dropped := len(fr.pending)
	fr.pending = fr.pending[:0]
	for dropped < limit {
		n, err := fr.r.Read(fr.buf[:])
		dropped += n
		if n > 0 {
			continue
		}
		if err == nil || isTimeout(err) {
			return dropped, nil
		}
		return dropped, err
	}
	return dropped, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, serial.ErrTimeout)
}
