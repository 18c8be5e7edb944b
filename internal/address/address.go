package address

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const DefaultHost = "0.0.0.0"

type Address struct {
	Host string
	Port uint16
}

// Parse splits the address into host and port. Missing host means every interface.
func Parse(addr string) (Address, error) {
	colon := strings.LastIndexByte(addr, ':')
	if colon == -1 {
		return Address{}, errors.New("no port given")
	}

	host, rawPort := addr[:colon], addr[colon+1:]
	port, err := strconv.ParseUint(rawPort, 10, 16)
	if err != nil {
		return Address{}, fmt.Errorf("invalid port: %s", rawPort)
	}

	if len(host) == 0 {
		host = DefaultHost
	}

	return Address{
		Host: host,
		Port: uint16(port),
	}, nil
}

func (a Address) IsLocalhost() bool {
	return strings.EqualFold(a.Host, "localhost")
}

// Sockaddr resolves the host into an IPv4 socket address.
func (a Address) Sockaddr() (*unix.SockaddrInet4, error) {
	host := a.Host
	if a.IsLocalhost() {
		host = "127.0.0.1"
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil {
			return nil, err
		}

		for _, candidate := range ips {
			if candidate.To4() != nil {
				ip = candidate
				break
			}
		}
	}

	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("not an ipv4 address: %s", a.Host)
	}

	sa := &unix.SockaddrInet4{Port: int(a.Port)}
	copy(sa.Addr[:], ip4)

	return sa, nil
}

func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}
