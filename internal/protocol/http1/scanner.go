package http1

import "github.com/indigo-web/fileserve/internal/buffer"

// LineStatus is a result of looking for a line terminator.
type LineStatus uint8

const (
	// LineIncomplete means no terminator is received yet, or the last received byte is
	// CR, so whether it's followed by LF is unknown.
	LineIncomplete LineStatus = iota + 1
	LineComplete
	LineMalformed
)

// Scanner splits the receive buffer into CRLF-terminated lines. It remembers how far it
// has already looked, so every byte is examined at most twice no matter how fragmented
// the input is.
type Scanner struct {
	checked int
}

// Scan looks for the end of the line starting at the consumed cursor of in. On success, the
// returned view excludes the terminator and the line together with its terminator is consumed.
func (s *Scanner) Scan(in *buffer.Inbound) (line buffer.View, status LineStatus) {
	start, filled := in.Consumed(), in.Filled()
	if s.checked < start {
		s.checked = start
	}

	for ; s.checked < filled; s.checked++ {
		switch in.At(s.checked) {
		case '\r':
			if s.checked+1 == filled {
				return line, LineIncomplete
			}

			if in.At(s.checked+1) != '\n' {
				return line, LineMalformed
			}

			line = buffer.View{Start: start, End: s.checked}
			s.checked += 2
			in.Consume(s.checked - start)

			return line, LineComplete
		case '\n':
			if s.checked > start && in.At(s.checked-1) == '\r' {
				line = buffer.View{Start: start, End: s.checked - 1}
				s.checked++
				in.Consume(s.checked - start)

				return line, LineComplete
			}

			return line, LineMalformed
		}
	}

	return line, LineIncomplete
}

// Sync moves the cursor to the consumed offset of in. Must be called whenever bytes are
// consumed bypassing the scanner, or the buffer is reset.
func (s *Scanner) Sync(in *buffer.Inbound) {
	s.checked = in.Consumed()
}
