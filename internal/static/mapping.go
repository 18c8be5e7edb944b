package static

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mapping is a read-only private memory mapping of a whole file. The file descriptor is
// closed right after the mapping is established, the mapping stays valid until Release.
type Mapping struct {
	data []byte
}

// errNotRegular is returned for sockets, FIFOs, devices and alike.
var errNotRegular = errors.New("not a regular file")

// mapFile opens the file and maps it. O_NONBLOCK keeps a FIFO from blocking the caller.
func mapFile(name string) (*Mapping, error) {
	file, err := os.OpenFile(name, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", name, errNotRegular)
	}

	if info.Size() == 0 {
		// zero-length mappings are rejected by the kernel
		return &Mapping{}, nil
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	closeErr := file.Close()
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", name, err)
	}

	if closeErr != nil {
		_ = unix.Munmap(data)
		return nil, closeErr
	}

	return &Mapping{data: data}, nil
}

// Bytes returns the mapped region. Must not be used after Release.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the size of the mapped file.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Release unmaps the region. Calling it more than once is a no-op.
func (m *Mapping) Release() error {
	if m == nil || m.data == nil {
		return nil
	}

	data := m.data
	m.data = nil

	return unix.Munmap(data)
}
