package http

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/fileserve/config"
	"github.com/indigo-web/fileserve/internal/protocol/http1"
	"github.com/indigo-web/fileserve/internal/server/http/dummy"
	"github.com/indigo-web/fileserve/internal/static"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const indexHTML = "<html><body></body></html>\n"

func newRoot(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "index.html", indexHTML, 0o644)
	writeFile(t, root, "secret", "top secret", 0o600)
	writeFile(t, root, "empty", "", 0o644)
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	return root
}

func writeFile(t *testing.T, root, name, content string, perm os.FileMode) {
	full := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(full, []byte(content), perm))
	require.NoError(t, os.Chmod(full, perm))
}

func newConn(t *testing.T, cfg *config.Config) (*Conn, *dummy.Socket, *Counter) {
	if len(cfg.Static.Root) == 0 || cfg.Static.Root == config.Default().Static.Root {
		cfg.Static.Root = newRoot(t)
	}

	socket := dummy.NewSocket()
	counter := new(Counter)
	conn := NewConn(cfg, socket, static.NewResolver(cfg.Static), counter, zerolog.Nop())
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn, socket, counter
}

func response(code, reason, connection, body string) string {
	return "HTTP/1.1 " + code + " " + reason + "\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"Connection: " + connection + "\r\n" +
		"\r\n" + body
}

const (
	badRequestBody = "Your request has bad syntax or is inherently impossible to satisfy.\n"
	forbiddenBody  = "You do not have permission to get file from this server.\n"
	notFoundBody   = "The requested file was not found on this server.\n"
	internalBody   = "There was an unusual problem serving the requested file.\n"
)

func TestConn(t *testing.T) {
	t.Run("file with keep-alive", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /index.html HTTP/1.1\r\nHost: x\r\nConnection: keep-alive\r\n\r\n")

		require.Equal(t, Writable, conn.OnReadable())
		require.NotNil(t, conn.mapping)
		require.Len(t, conn.segments, 2)
		require.Equal(t, len(indexHTML), len(conn.segments[1]))

		require.Equal(t, Readable, conn.OnWritable())
		require.Equal(t, response("200", "OK", "keep-alive", indexHTML), socket.Written.String())
		require.Nil(t, conn.mapping)
		require.False(t, socket.Closed)
	})

	t.Run("not found", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /missing HTTP/1.1\r\n\r\n")

		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Close, conn.OnWritable())
		require.Equal(t, response("404", "Not Found", "close", notFoundBody), socket.Written.String())
	})

	t.Run("forbidden", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /secret HTTP/1.1\r\n\r\n")

		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Close, conn.OnWritable())
		require.Equal(t, response("403", "Forbidden", "close", forbiddenBody), socket.Written.String())
	})

	t.Run("directory", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /dir HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")

		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Readable, conn.OnWritable())
		require.Equal(t, response("400", "Bad Request", "keep-alive", badRequestBody), socket.Written.String())
	})

	t.Run("unsupported method", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("POST / HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")

		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Close, conn.OnWritable())
		require.Equal(t, response("400", "Bad Request", "close", badRequestBody), socket.Written.String())
	})

	t.Run("not a regular file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Static.Root = newRoot(t)
		listener, err := net.Listen("unix", filepath.Join(cfg.Static.Root, "sock"))
		require.NoError(t, err)
		defer listener.Close()
		require.NoError(t, os.Chmod(filepath.Join(cfg.Static.Root, "sock"), 0o777))

		conn, socket, _ := newConn(t, cfg)
		socket.Feed("GET /sock HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")

		require.Equal(t, Writable, conn.OnReadable())
		require.Nil(t, conn.mapping)
		require.Equal(t, Readable, conn.OnWritable())
		require.Equal(t,
			response("500", "Internal Error", "keep-alive", internalBody),
			socket.Written.String(),
		)
	})

	t.Run("empty file", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /empty HTTP/1.1\r\n\r\n")

		require.Equal(t, Writable, conn.OnReadable())
		require.Len(t, conn.segments, 1)
		require.Equal(t, Close, conn.OnWritable())
		require.Equal(t, response("200", "OK", "close", http1.EmptyFileBody), socket.Written.String())
	})

	t.Run("absolute form", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET http://host/index.html HTTP/1.1\r\n\r\n")

		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Close, conn.OnWritable())
		require.Equal(t, response("200", "OK", "close", indexHTML), socket.Written.String())
	})

	t.Run("one byte at a time", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		raw := "GET /index.html HTTP/1.1\r\nHost: x\r\nConnection: keep-alive\r\n\r\n"

		for i := 0; i < len(raw)-1; i++ {
			socket.Feed(raw[i : i+1])
			require.Equal(t, Readable, conn.OnReadable(), "byte %d", i)
		}

		socket.Feed(raw[len(raw)-1:])
		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Readable, conn.OnWritable())
		require.Equal(t, response("200", "OK", "keep-alive", indexHTML), socket.Written.String())
	})

	t.Run("body is consumed", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /index.html HTTP/1.1\r\nConnection: keep-alive\r\nContent-Length: 10\r\n\r\n01234")
		require.Equal(t, Readable, conn.OnReadable())

		socket.Feed("56789")
		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Readable, conn.OnWritable())
		require.Empty(t, conn.in.Pending())
	})
}

func TestConnPartialWrites(t *testing.T) {
	cfg := config.Default()
	cfg.Static.Root = newRoot(t)
	content := strings.Repeat(uniuri.NewLen(1000), 64)
	writeFile(t, cfg.Static.Root, "big.txt", content, 0o644)

	conn, socket, _ := newConn(t, cfg)
	socket.Feed("GET /big.txt HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")
	require.Equal(t, Writable, conn.OnReadable())

	head := len(conn.segments[0])
	require.Equal(t, len(content), len(conn.segments[1]))
	require.Equal(t, head+len(content), conn.queued)

	socket.Budget(0)
	require.Equal(t, Writable, conn.OnWritable(), "blocked socket must keep the response")
	require.Zero(t, socket.Written.Len())

	// the first chunk ends in the middle of the head
	socket.Allow(head / 2)
	require.Equal(t, Writable, conn.OnWritable())
	require.Equal(t, head/2, conn.sent)

	for conn.segments != nil {
		socket.Allow(4093)
		interest := conn.OnWritable()
		if conn.segments != nil {
			require.Equal(t, Writable, interest)
		} else {
			require.Equal(t, Readable, interest)
		}
	}

	require.Equal(t, response("200", "OK", "keep-alive", content), socket.Written.String())
	require.Nil(t, conn.mapping)
}

func TestConnKeepAlive(t *testing.T) {
	t.Run("second request on the same connection", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /index.html HTTP/1.1\r\nHost: first\r\nConnection: keep-alive\r\nContent-Length: 3\r\n\r\nabc")
		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Readable, conn.OnWritable())
		first := socket.Written.String()
		socket.Written.Reset()

		require.Zero(t, conn.in.Filled())
		require.False(t, conn.keepAlive)

		socket.Feed("GET /missing HTTP/1.1\r\n\r\n")
		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Close, conn.OnWritable())
		require.Equal(t, response("200", "OK", "keep-alive", indexHTML), first)
		require.Equal(t, response("404", "Not Found", "close", notFoundBody), socket.Written.String())
	})

	t.Run("request sent before the response drained", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed(
			"GET /index.html HTTP/1.1\r\nConnection: keep-alive\r\n\r\n" +
				"GET /empty HTTP/1.1\r\nConnection: keep-alive\r\n\r\n",
		)
		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Writable, conn.OnWritable(), "the pending request must be processed right away")
		require.Equal(t, Readable, conn.OnWritable())
		require.Equal(t,
			response("200", "OK", "keep-alive", indexHTML)+
				response("200", "OK", "keep-alive", http1.EmptyFileBody),
			socket.Written.String(),
		)
	})

	t.Run("readable while a response is pending", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /index.html HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")
		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Readable, conn.OnWritable())
		require.Equal(t, response("200", "OK", "keep-alive", indexHTML), socket.Written.String())
	})
}

func TestConnHEAD(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.AcceptHEAD = true
	conn, socket, _ := newConn(t, cfg)
	socket.Feed("HEAD /index.html HTTP/1.1\r\n\r\n")

	require.Equal(t, Writable, conn.OnReadable())
	require.Equal(t, Close, conn.OnWritable())
	require.Equal(t,
		"HTTP/1.1 200 OK\r\nContent-Length: 27\r\nConnection: close\r\n\r\n",
		socket.Written.String(),
	)
}

func TestConnFailures(t *testing.T) {
	t.Run("peer closed", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET / HTT").Shutdown()
		require.Equal(t, Close, conn.OnReadable())
		require.Zero(t, socket.Written.Len())
	})

	t.Run("receive buffer overflow", func(t *testing.T) {
		cfg := config.Default()
		cfg.NET.ReadBufferSize = 64
		conn, socket, _ := newConn(t, cfg)
		socket.Feed("GET /index.html HTTP/1.1\r\nX-Padding: " + strings.Repeat("a", 100))

		require.Equal(t, Writable, conn.OnReadable())
		require.Equal(t, Close, conn.OnWritable())
		require.Equal(t, response("400", "Bad Request", "close", badRequestBody), socket.Written.String())
	})

	t.Run("send error releases the mapping", func(t *testing.T) {
		conn, socket, _ := newConn(t, config.Default())
		socket.Feed("GET /index.html HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")
		require.Equal(t, Writable, conn.OnReadable())
		require.NotNil(t, conn.mapping)

		socket.WriteErr = errors.New("connection reset by peer")
		require.Equal(t, Close, conn.OnWritable())
		require.Nil(t, conn.mapping)
		require.Nil(t, conn.segments)
	})

	t.Run("write buffer exhausted", func(t *testing.T) {
		cfg := config.Default()
		cfg.NET.WriteBufferSize = 32
		conn, socket, _ := newConn(t, cfg)
		socket.Feed("GET /index.html HTTP/1.1\r\n\r\n")

		require.Equal(t, Close, conn.OnReadable())
		require.Nil(t, conn.mapping)
		require.Zero(t, socket.Written.Len())
	})

	t.Run("close releases the mapping", func(t *testing.T) {
		conn, socket, counter := newConn(t, config.Default())
		socket.Feed("GET /index.html HTTP/1.1\r\n\r\n")
		require.Equal(t, Writable, conn.OnReadable())
		require.EqualValues(t, 1, counter.Load())

		require.NoError(t, conn.Close())
		require.Nil(t, conn.mapping)
		require.True(t, socket.Closed)
		require.Zero(t, counter.Load())

		require.NoError(t, conn.Close())
		require.Zero(t, counter.Load())
	})
}

func TestAdvance(t *testing.T) {
	segments := [][]byte{[]byte("head"), []byte("body")}
	segments = advance(segments, 2)
	require.Equal(t, "ad", string(segments[0]))
	segments = advance(segments, 3)
	require.Len(t, segments, 1)
	require.Equal(t, "ody", string(segments[0]))
	segments = advance(segments, 3)
	require.Empty(t, segments)
}
