//go:build linux

package tcp

import (
	"errors"
	"fmt"
	"sync"

	"github.com/indigo-web/fileserve/http/status"
	"github.com/indigo-web/fileserve/internal/server/http"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const (
	connFlags  = unix.EPOLLET | unix.EPOLLONESHOT | unix.EPOLLRDHUP
	onReadable = unix.EPOLLIN | connFlags
	onWritable = unix.EPOLLOUT | connFlags
)

// OnConn makes a connection state for a freshly accepted socket.
type OnConn func(fd int, log zerolog.Logger) *http.Conn

// Server is a single event loop. It accepts clients from its own listener and drives
// their connections by readiness events. Every connection is registered one-shot, so
// it's re-armed only after its callback returned.
type Server struct {
	listener  int
	epoll     int
	wake      int
	maxEvents int
	onConn    OnConn
	conns     map[int]*http.Conn
	log       zerolog.Logger
	// mu guards the wakeup descriptor against being written after it's closed
	mu       sync.Mutex
	stopped  bool
	released bool
}

func NewServer(listener, maxEvents int, onConn OnConn, log zerolog.Logger) (*Server, error) {
	epoll, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	wake, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epoll)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	s := &Server{
		listener:  listener,
		epoll:     epoll,
		wake:      wake,
		maxEvents: maxEvents,
		onConn:    onConn,
		conns:     make(map[int]*http.Conn),
		log:       log,
	}

	for _, fd := range []int{listener, wake} {
		if err = s.register(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN); err != nil {
			_ = unix.Close(wake)
			_ = unix.Close(epoll)
			return nil, fmt.Errorf("epoll_ctl: %w", err)
		}
	}

	return s, nil
}

// Start runs the loop until Stop is called or the poller fails. After Stop, the
// status.ErrShutdown is returned.
func (s *Server) Start() error {
	defer s.release()

	events := make([]unix.EpollEvent, s.maxEvents)

	for {
		n, err := unix.EpollWait(s.epoll, events, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}

			s.log.Error().Err(err).Msg("epoll_wait failed")
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for _, event := range events[:n] {
			switch fd := int(event.Fd); fd {
			case s.wake:
				return status.ErrShutdown
			case s.listener:
				s.accept()
			default:
				s.serve(fd, event.Events)
			}
		}
	}
}

// Stop shuts the listener and ALL the connections down. The call isn't blocking: the
// loop does the cleanup and returns from Start. Stopping a loop that has already
// returned is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.released {
		return nil
	}

	s.stopped = true
	_, err := unix.Write(s.wake, []byte{1, 0, 0, 0, 0, 0, 0, 0})
	return err
}

// Close releases the listener and the poller of a loop that was never started.
func (s *Server) Close() {
	s.release()
}

func (s *Server) accept() {
	for {
		fd, _, err := unix.Accept4(s.listener, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch {
		case err == nil:
		case errors.Is(err, unix.EAGAIN):
			return
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.ECONNABORTED):
			continue
		default:
			// most likely out of descriptors. The listener is level-triggered, so the
			// pending clients will be retried on the next wakeup
			s.log.Warn().Err(err).Msg("accept failed")
			return
		}

		log := s.log.With().Int("fd", fd).Logger()
		conn := s.onConn(fd, log)
		if err = s.register(unix.EPOLL_CTL_ADD, fd, onReadable); err != nil {
			log.Warn().Err(err).Msg("cannot register the connection")
			_ = conn.Close()
			continue
		}

		s.conns[fd] = conn
		log.Debug().Msg("accepted")
	}
}

func (s *Server) serve(fd int, events uint32) {
	conn, found := s.conns[fd]
	if !found {
		return
	}

	var interest http.Interest

	switch {
	case events&(unix.EPOLLERR|unix.EPOLLHUP) != 0:
		interest = http.Close
	case events&unix.EPOLLOUT != 0:
		interest = conn.OnWritable()
	default:
		interest = conn.OnReadable()
	}

	s.apply(fd, conn, interest)
}

func (s *Server) apply(fd int, conn *http.Conn, interest http.Interest) {
	var err error

	switch interest {
	case http.Readable:
		err = s.register(unix.EPOLL_CTL_MOD, fd, onReadable)
	case http.Writable:
		err = s.register(unix.EPOLL_CTL_MOD, fd, onWritable)
	case http.Close:
		s.close(fd, conn)
		return
	}

	if err != nil {
		s.log.Warn().Err(err).Int("fd", fd).Msg("cannot re-arm the connection")
		s.close(fd, conn)
	}
}

func (s *Server) close(fd int, conn *http.Conn) {
	_ = unix.EpollCtl(s.epoll, unix.EPOLL_CTL_DEL, fd, nil)
	delete(s.conns, fd)

	if err := conn.Close(); err != nil {
		s.log.Debug().Err(err).Int("fd", fd).Msg("close failed")
	}

	s.log.Debug().Int("fd", fd).Msg("closed")
}

func (s *Server) register(op, fd int, events uint32) error {
	return unix.EpollCtl(s.epoll, op, fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(fd),
	})
}

func (s *Server) release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}

	s.released = true
	_ = unix.Close(s.wake)
	s.mu.Unlock()

	for fd, conn := range s.conns {
		s.close(fd, conn)
	}

	_ = unix.Close(s.listener)
	_ = unix.Close(s.epoll)
}
