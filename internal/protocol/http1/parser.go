package http1

import (
	"bytes"

	"github.com/indigo-web/fileserve/config"
	"github.com/indigo-web/fileserve/http/method"
	"github.com/indigo-web/fileserve/http/status"
	"github.com/indigo-web/fileserve/internal/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// State represents the state of the request's parsing
type State uint8

const (
	Pending State = iota + 1
	Completed
	Error
)

const (
	protocol         = "HTTP/1.1"
	absolutePrefix   = "http://"
	connectionKey    = "Connection:"
	contentLenKey    = "Content-Length:"
	hostKey          = "Host:"
	keepAliveToken   = "keep-alive"
	maxContentDigits = 18
)

// phase is one of requestLine, headers or body. Every phase carries only the data known
// at that point, and the transition functions return the next phase.
type phase interface {
	isPhase()
}

type requestLine struct{}

type headers struct {
	request Request
	number  int
}

type body struct {
	request Request
}

func (requestLine) isPhase() {}
func (headers) isPhase()     {}
func (body) isPhase()        {}

// Parser is a resumable request parser. It never blocks: if the buffered bytes aren't
// enough to make progress, Pending is returned and the call must be repeated as soon as
// more bytes are received.
type Parser struct {
	scanner    Scanner
	phase      phase
	maxHeaders int
	acceptHEAD bool
}

func NewParser(cfg *config.Config) *Parser {
	return &Parser{
		phase:      requestLine{},
		maxHeaders: cfg.Headers.MaxNumber,
		acceptHEAD: cfg.HTTP.AcceptHEAD,
	}
}

// Parse processes every complete line currently buffered in `in`. The request is returned
// only together with the Completed state.
func (p *Parser) Parse(in *buffer.Inbound) (state State, request Request, err error) {
	for {
		switch ph := p.phase.(type) {
		case requestLine:
			line, lineStatus := p.scanner.Scan(in)
			switch lineStatus {
			case LineIncomplete:
				return Pending, request, nil
			case LineMalformed:
				return Error, request, status.ErrBadRequest
			}

			next, err := p.parseRequestLine(in, line)
			if err != nil {
				return Error, request, err
			}

			p.phase = next
		case headers:
			line, lineStatus := p.scanner.Scan(in)
			switch lineStatus {
			case LineIncomplete:
				return Pending, request, nil
			case LineMalformed:
				return Error, request, status.ErrBadRequest
			}

			next, err := p.parseHeader(in, ph, line)
			if err != nil {
				return Error, request, err
			}

			if next == nil {
				p.phase = requestLine{}
				return Completed, ph.request, nil
			}

			p.phase = next
		case body:
			length := ph.request.ContentLength
			if len(in.Pending()) < length {
				return Pending, request, nil
			}

			in.Consume(length)
			p.scanner.Sync(in)
			p.phase = requestLine{}

			return Completed, ph.request, nil
		default:
			panic("BUG: unexpected parser phase")
		}
	}
}

// Reset prepares the parser for the next request. Must be called after the receive buffer
// is reset.
func (p *Parser) Reset(in *buffer.Inbound) {
	p.phase = requestLine{}
	p.scanner.Sync(in)
}

func (p *Parser) parseRequestLine(in *buffer.Inbound, line buffer.View) (phase, error) {
	text := in.Slice(line)

	sp := indexSpace(text)
	if sp == -1 {
		return nil, status.ErrBadRequest
	}

	var request Request

	request.Method = method.Parse(uf.B2S(text[:sp]))
	switch request.Method {
	case method.GET:
	case method.HEAD:
		if !p.acceptHEAD {
			return nil, status.ErrMethodNotImplemented
		}
	default:
		return nil, status.ErrMethodNotImplemented
	}

	pathStart := sp + 1 + skipSpaces(text[sp+1:])
	sp = indexSpace(text[pathStart:])
	if sp == -1 {
		return nil, status.ErrBadRequest
	}

	pathEnd := pathStart + sp
	version := text[pathEnd+1:]
	version = version[skipSpaces(version):]
	if !strcomp.EqualFold(uf.B2S(version), protocol) {
		return nil, status.ErrUnsupportedProtocol
	}

	if hasPrefixFold(text[pathStart:pathEnd], absolutePrefix) {
		pathStart += len(absolutePrefix)
		slash := bytes.IndexByte(text[pathStart:pathEnd], '/')
		if slash == -1 {
			return nil, status.ErrBadPath
		}

		pathStart += slash
	}

	if pathStart == pathEnd || text[pathStart] != '/' {
		return nil, status.ErrBadPath
	}

	request.Path = buffer.View{Start: line.Start + pathStart, End: line.Start + pathEnd}

	return headers{request: request}, nil
}

// parseHeader handles a single header line. Returned nil phase means the request is
// completed.
func (p *Parser) parseHeader(in *buffer.Inbound, ph headers, line buffer.View) (phase, error) {
	if line.Len() == 0 {
		switch {
		case ph.request.ContentLength == 0:
			return nil, nil
		case ph.request.ContentLength > in.Cap()-in.Consumed():
			return nil, status.ErrRequestTooLarge
		default:
			return body{request: ph.request}, nil
		}
	}

	if ph.number++; p.maxHeaders > 0 && ph.number > p.maxHeaders {
		return nil, status.ErrTooManyHeaders
	}

	text := in.Slice(line)

	switch {
	case hasPrefixFold(text, connectionKey):
		value := trimSpaces(text[len(connectionKey):])
		if strcomp.EqualFold(uf.B2S(value), keepAliveToken) {
			ph.request.KeepAlive = true
		}
	case hasPrefixFold(text, contentLenKey):
		length, ok := parseContentLength(trimSpaces(text[len(contentLenKey):]))
		if !ok {
			return nil, status.ErrBadContentLength
		}

		ph.request.ContentLength = length
	case hasPrefixFold(text, hostKey):
		value := trimSpaces(text[len(hostKey):])
		start := line.Start + len(hostKey) + skipSpaces(text[len(hostKey):])
		ph.request.Host = buffer.View{Start: start, End: start + len(value)}
		ph.request.HasHost = true
	}

	return ph, nil
}

func parseContentLength(value []byte) (length int, ok bool) {
	if len(value) == 0 || len(value) > maxContentDigits {
		return 0, false
	}

	for _, char := range value {
		if char < '0' || char > '9' {
			return 0, false
		}

		length = length*10 + int(char-'0')
	}

	return length, true
}

func hasPrefixFold(text []byte, prefix string) bool {
	return len(text) >= len(prefix) && strcomp.EqualFold(uf.B2S(text[:len(prefix)]), prefix)
}

func isSpace(char byte) bool {
	return char == ' ' || char == '\t'
}

func indexSpace(text []byte) int {
	for i, char := range text {
		if isSpace(char) {
			return i
		}
	}

	return -1
}

func skipSpaces(text []byte) int {
	for i, char := range text {
		if !isSpace(char) {
			return i
		}
	}

	return len(text)
}

func trimSpaces(text []byte) []byte {
	text = text[skipSpaces(text):]
	for len(text) > 0 && isSpace(text[len(text)-1]) {
		text = text[:len(text)-1]
	}

	return text
}
