//go:build linux

package tcp

import (
	"fmt"

	"github.com/indigo-web/fileserve/internal/address"
	"golang.org/x/sys/unix"
)

// Listen creates a non-blocking listening socket. SO_REUSEPORT lets every event loop own
// a listener of its own on the same address.
func Listen(addr address.Address) (int, error) {
	sa, err := addr.Sockaddr()
	if err != nil {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	if err = setup(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}

	return fd, nil
}

func setup(fd int, sa *unix.SockaddrInet4) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("SO_REUSEADDR: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		return fmt.Errorf("SO_REUSEPORT: %w", err)
	}

	if err := unix.Bind(fd, sa); err != nil {
		return fmt.Errorf("bind: %w", err)
	}

	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

// Port returns the port the socket is bound to.
func Port(fd int) (int, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, err
	}

	inet, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, fmt.Errorf("unexpected socket address family: %T", sa)
	}

	return inet.Port, nil
}
