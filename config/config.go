package config

import (
	"runtime"
)

type (
	NET struct {
		// ReadBufferSize is a capacity of the per-connection receive buffer. A request,
		// including its body, must fit into it completely, otherwise it's rejected.
		ReadBufferSize int
		// WriteBufferSize is a capacity of the per-connection response buffer. It holds
		// the response head and, for error responses, the body. File contents never
		// go through it.
		WriteBufferSize int
		// Workers is a number of event loops. Each one owns a separate listener bound
		// with SO_REUSEPORT, so the kernel balances incoming connections among them.
		Workers int
		// MaxEvents limits how many readiness events are picked up in a single wait.
		MaxEvents int
	}

	Static struct {
		// Root is a directory requested paths are resolved against.
		Root string
		// MaxPathLength limits the length of the composed filesystem path. Longer paths
		// are truncated to MaxPathLength-1 bytes.
		MaxPathLength int
	}

	Headers struct {
		// MaxNumber is a maximal number of header lines allowed in a single request.
		// Zero disables the limit, leaving the receive buffer capacity the only bound.
		MaxNumber int
	}

	HTTP struct {
		// AcceptHEAD enables HEAD requests. When disabled, HEAD is rejected at the
		// request line just like any other unsupported method.
		AcceptHEAD bool `test:"nullable"`
	}

	Log struct {
		// Level is a zerolog level name, e.g. debug, info or warn.
		Level string
	}
)

// Config holds settings used across the server, mainly capacities and limits.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because zero capacities make every connection fail.
type Config struct {
	NET     NET
	Static  Static
	Headers Headers
	HTTP    HTTP
	Log     Log
}

// Default returns default config.
func Default() *Config {
	return &Config{
		NET: NET{
			ReadBufferSize:  2 * 1024,
			WriteBufferSize: 1 * 1024,
			Workers:         runtime.NumCPU(),
			MaxEvents:       128,
		},
		Static: Static{
			Root:          "/var/www/html",
			MaxPathLength: 200,
		},
		Headers: Headers{
			MaxNumber: 100,
		},
		HTTP: HTTP{
			AcceptHEAD: false,
		},
		Log: Log{
			Level: "info",
		},
	}
}
