package http

import (
	"github.com/indigo-web/fileserve/config"
	"github.com/indigo-web/fileserve/http/method"
	"github.com/indigo-web/fileserve/http/status"
	"github.com/indigo-web/fileserve/internal/buffer"
	"github.com/indigo-web/fileserve/internal/protocol/http1"
	"github.com/indigo-web/fileserve/internal/static"
	"github.com/indigo-web/utils/uf"
	"github.com/rs/zerolog"
)

// Interest tells the event loop what the connection is waiting for next.
type Interest uint8

const (
	Readable Interest = iota + 1
	Writable
	Close
)

// Conn is a state of a single client connection. It's driven by readiness events: the
// event loop calls OnReadable or OnWritable and applies the returned Interest. The methods
// must never be called concurrently.
type Conn struct {
	socket     Socket
	in         *buffer.Inbound
	parser     *http1.Parser
	serializer *http1.Serializer
	resolver   *static.Resolver
	counter    *Counter
	log        zerolog.Logger
	// mapping is owned by the connection from the moment the file is resolved and
	// until the response is fully sent or the connection is aborted.
	mapping   *static.Mapping
	segments  [][]byte
	queued    int
	sent      int
	keepAlive bool
	closed    bool
}

func NewConn(
	cfg *config.Config, socket Socket, resolver *static.Resolver, counter *Counter, log zerolog.Logger,
) *Conn {
	counter.Inc()

	return &Conn{
		socket:     socket,
		in:         buffer.NewInbound(cfg.NET.ReadBufferSize),
		parser:     http1.NewParser(cfg),
		serializer: http1.NewSerializer(buffer.NewOutbound(cfg.NET.WriteBufferSize)),
		resolver:   resolver,
		counter:    counter,
		log:        log,
	}
}

// OnReadable drains the socket and advances the parser.
func (c *Conn) OnReadable() Interest {
	if c.segments != nil {
		// the response isn't sent yet, so no new request may begin
		return Writable
	}

	if err := c.receive(); err != nil {
		c.log.Debug().Err(err).Msg("receive failed")
		return Close
	}

	return c.process()
}

// OnWritable sends as much of the pending response as the socket accepts.
func (c *Conn) OnWritable() Interest {
	if c.segments == nil {
		return Readable
	}

	done, err := c.send()
	if err != nil {
		c.log.Debug().Err(err).Int("sent", c.sent).Int("queued", c.queued).Msg("send failed")
		c.release()
		return Close
	}

	if !done {
		return Writable
	}

	c.release()
	if !c.keepAlive {
		return Close
	}

	c.reset()
	if len(c.in.Pending()) > 0 {
		// the client didn't wait for the response and has already sent the next request
		return c.process()
	}

	return Readable
}

// Close releases everything the connection holds. Safe to be called more than once.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}

	c.closed = true
	c.release()
	c.counter.Dec()

	return c.socket.Close()
}

func (c *Conn) process() Interest {
	state, request, err := c.parser.Parse(c.in)
	switch state {
	case http1.Pending:
		if !c.in.Full() {
			return Readable
		}

		c.log.Debug().Err(status.ErrRequestTooLarge).Msg("request rejected")
		c.keepAlive = false
		return c.respond(http1.Outcome{Code: status.BadRequest})
	case http1.Error:
		c.log.Debug().Err(err).Msg("request rejected")
		// the rest of the stream can't be trusted after a malformed request
		c.keepAlive = false
		return c.respond(http1.Outcome{Code: status.CodeOf(err)})
	case http1.Completed:
		c.keepAlive = request.KeepAlive
		return c.respond(c.resolve(request))
	default:
		panic("BUG: unexpected parser state")
	}
}

func (c *Conn) resolve(request http1.Request) http1.Outcome {
	if c.mapping != nil {
		panic("BUG: resolving a file while the previous one is still mapped")
	}

	path := uf.B2S(c.in.Slice(request.Path))
	mapping, err := c.resolver.Resolve(path)
	if err != nil {
		code := status.CodeOf(err)
		event := c.log.Debug()
		if code == status.InternalServerError {
			event = c.log.Warn()
		}

		event.Err(err).Str("path", path).Int("code", int(code)).Msg("file not served")

		return http1.Outcome{Code: code}
	}

	c.mapping = mapping

	return http1.Outcome{
		Code:     status.OK,
		Body:     mapping.Bytes(),
		HeadOnly: request.Method == method.HEAD,
	}
}

func (c *Conn) respond(outcome http1.Outcome) Interest {
	segments, err := c.serializer.Render(outcome, c.keepAlive)
	if err != nil {
		c.log.Error().Err(err).Int("code", int(outcome.Code)).Msg("cannot render response")
		c.release()
		return Close
	}

	c.segments = segments
	c.queued, c.sent = size(segments), 0

	return Writable
}

// release unmaps the file, if any, and drops the response.
func (c *Conn) release() {
	if err := c.mapping.Release(); err != nil {
		c.log.Warn().Err(err).Msg("munmap failed")
	}

	c.mapping = nil
	c.segments = nil
	c.queued, c.sent = 0, 0
	c.serializer.Clear()
}

// reset prepares the connection for the next request.
func (c *Conn) reset() {
	c.in.Reset()
	c.parser.Reset(c.in)
	c.keepAlive = false
}
