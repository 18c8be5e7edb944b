package http

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrPeerClosed is returned when the peer has shut its side of the connection down.
var ErrPeerClosed = errors.New("connection closed by peer")

// receive reads until the socket would block or the receive buffer is full. Bytes read
// before the socket would block are kept.
func (c *Conn) receive() error {
	for !c.in.Full() {
		n, err := c.socket.Read(c.in.Vacant())
		switch {
		case err == nil:
		case errors.Is(err, unix.EAGAIN):
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return err
		}

		if n == 0 {
			return ErrPeerClosed
		}

		c.in.Commit(n)
	}

	return nil
}

// send writes queued segments until they're drained or the socket would block. The
// progress is kept in segments, so the next call resumes exactly where this one stopped.
func (c *Conn) send() (done bool, _ error) {
	for c.sent < c.queued {
		n, err := c.socket.Writev(c.segments)
		switch {
		case err == nil:
		case errors.Is(err, unix.EAGAIN):
			return false, nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return false, err
		}

		if n == 0 {
			return false, nil
		}

		c.sent += n
		c.segments = advance(c.segments, n)
	}

	return true, nil
}

// advance drops n leading bytes from the segments.
func advance(segments [][]byte, n int) [][]byte {
	for len(segments) > 0 && n >= len(segments[0]) {
		n -= len(segments[0])
		segments = segments[1:]
	}

	if len(segments) > 0 {
		segments[0] = segments[0][n:]
	}

	return segments
}

func size(segments [][]byte) (total int) {
	for _, segment := range segments {
		total += len(segment)
	}

	return total
}
