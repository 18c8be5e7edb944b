package http

import "golang.org/x/sys/unix"

// Socket is a non-blocking stream socket. Read and Writev return unix.EAGAIN when the
// operation would block.
type Socket interface {
	Read(b []byte) (int, error)
	Writev(segments [][]byte) (int, error)
	Close() error
}

// FD is a raw non-blocking socket descriptor.
type FD int

func (fd FD) Read(b []byte) (int, error) {
	n, err := unix.Read(int(fd), b)
	if n < 0 {
		n = 0
	}

	return n, err
}

func (fd FD) Writev(segments [][]byte) (int, error) {
	n, err := unix.Writev(int(fd), segments)
	if n < 0 {
		n = 0
	}

	return n, err
}

func (fd FD) Close() error {
	return unix.Close(int(fd))
}
