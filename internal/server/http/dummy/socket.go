package dummy

import (
	"bytes"
	"io"

	"golang.org/x/sys/unix"
)

// Unlimited disables the write budget.
const Unlimited = -1

// Socket is an in-memory non-blocking socket. Reads return the fed data and unix.EAGAIN
// once it's exhausted. Writes are limited by a budget, emulating a full send buffer.
type Socket struct {
	input    []byte
	eof      bool
	budget   int
	Written  bytes.Buffer
	Writes   int
	WriteErr error
	Closed   bool
}

func NewSocket() *Socket {
	return &Socket{budget: Unlimited}
}

// Feed makes data available for reading.
func (s *Socket) Feed(data string) *Socket {
	s.input = append(s.input, data...)
	return s
}

// Shutdown makes reads return 0 bytes once the fed data is exhausted.
func (s *Socket) Shutdown() *Socket {
	s.eof = true
	return s
}

// Budget limits the number of bytes accepted by writes until the next Allow.
func (s *Socket) Budget(n int) *Socket {
	s.budget = n
	return s
}

// Allow increases the write budget by n bytes.
func (s *Socket) Allow(n int) *Socket {
	if s.budget != Unlimited {
		s.budget += n
	}

	return s
}

func (s *Socket) Read(b []byte) (int, error) {
	if s.Closed {
		return 0, unix.EBADF
	}

	if len(s.input) == 0 {
		if s.eof {
			return 0, nil
		}

		return 0, unix.EAGAIN
	}

	n := copy(b, s.input)
	s.input = s.input[n:]

	return n, nil
}

func (s *Socket) Writev(segments [][]byte) (int, error) {
	if s.WriteErr != nil {
		return 0, s.WriteErr
	}

	if s.budget == 0 {
		return 0, unix.EAGAIN
	}

	s.Writes++
	total := 0

	for _, segment := range segments {
		if s.budget != Unlimited && len(segment) > s.budget {
			segment = segment[:s.budget]
		}

		s.Written.Write(segment)
		total += len(segment)

		if s.budget != Unlimited {
			s.budget -= len(segment)
			if s.budget == 0 {
				break
			}
		}
	}

	return total, nil
}

func (s *Socket) Close() error {
	if s.Closed {
		return io.ErrClosedPipe
	}

	s.Closed = true
	return nil
}
