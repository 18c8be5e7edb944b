package http1

import (
	"github.com/indigo-web/fileserve/http/method"
	"github.com/indigo-web/fileserve/internal/buffer"
)

// Request is a parsed request head. Path and Host refer to the receive buffer, therefore
// they're valid only until the buffer is reset.
type Request struct {
	Path          buffer.View
	Host          buffer.View
	ContentLength int
	Method        method.Method
	HasHost       bool
	KeepAlive     bool
}
