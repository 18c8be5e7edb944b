package http1

import (
	"errors"

	"github.com/indigo-web/fileserve/http/status"
	"github.com/indigo-web/fileserve/internal/buffer"
)

// ErrResponseTooLarge is returned when the response head (or an inline body) doesn't fit
// into the write buffer.
var ErrResponseTooLarge = errors.New("response doesn't fit into the write buffer")

const (
	protocolSP    = "HTTP/1.1 "
	crlf          = "\r\n"
	contentLength = "Content-Length: "
	connection    = "Connection: "
)

// EmptyFileBody is sent in place of files having no contents.
const EmptyFileBody = "<html><body></body></html>"

var errorBodies = map[status.Code]string{
	status.BadRequest:          "Your request has bad syntax or is inherently impossible to satisfy.\n",
	status.Forbidden:           "You do not have permission to get file from this server.\n",
	status.NotFound:            "The requested file was not found on this server.\n",
	status.InternalServerError: "There was an unusual problem serving the requested file.\n",
}

// Outcome describes what a response must carry.
type Outcome struct {
	// Body is a file region, transferred without copying it into the write buffer. Used
	// with status.OK only.
	Body []byte
	Code status.Code
	// HeadOnly omits the body, keeping the Content-Length of the omitted one.
	HeadOnly bool
}

// Serializer renders responses into the write buffer and lays them out as a list of
// segments to be submitted to a single vectored write.
type Serializer struct {
	buff     *buffer.Outbound
	segments [2][]byte
}

func NewSerializer(buff *buffer.Outbound) *Serializer {
	return &Serializer{
		buff: buff,
	}
}

// Render composes the response. The first segment is always the write buffer, the second
// one (if any) is the file body. In case of ErrResponseTooLarge, the write buffer is left
// as it was before the call.
func (s *Serializer) Render(outcome Outcome, keepAlive bool) (segments [][]byte, err error) {
	code := outcome.Code
	inline, known := errorBodies[code]
	if code != status.OK && !known {
		code, inline = status.InternalServerError, errorBodies[status.InternalServerError]
	}

	zeroCopy := code == status.OK && len(outcome.Body) > 0
	if code == status.OK && !zeroCopy {
		inline = EmptyFileBody
	}

	bodyLength := len(inline)
	if zeroCopy {
		bodyLength = len(outcome.Body)
	}

	mark := s.buff.Len()
	ok := s.renderHead(code, bodyLength, keepAlive)
	if ok && !outcome.HeadOnly && !zeroCopy {
		ok = s.buff.AppendString(inline)
	}

	if !ok {
		s.buff.Trunc(mark)
		return nil, ErrResponseTooLarge
	}

	s.segments[0] = s.buff.Bytes()
	if zeroCopy && !outcome.HeadOnly {
		s.segments[1] = outcome.Body
		return s.segments[:2], nil
	}

	s.segments[1] = nil
	return s.segments[:1], nil
}

// Clear drops the rendered response.
func (s *Serializer) Clear() {
	s.buff.Clear()
	s.segments = [2][]byte{}
}

func (s *Serializer) renderHead(code status.Code, bodyLength int, keepAlive bool) bool {
	b := s.buff

	return b.AppendString(protocolSP) &&
		b.AppendInt(int64(code)) &&
		b.AppendString(" ") &&
		b.AppendString(string(status.Text(code))) &&
		b.AppendString(crlf) &&
		b.AppendString(contentLength) &&
		b.AppendInt(int64(bodyLength)) &&
		b.AppendString(crlf) &&
		b.AppendString(connection) &&
		b.AppendString(connectionToken(keepAlive)) &&
		b.AppendString(crlf) &&
		b.AppendString(crlf)
}

func connectionToken(keepAlive bool) string {
	if keepAlive {
		return "keep-alive"
	}

	return "close"
}
