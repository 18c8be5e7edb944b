package http

import "sync/atomic"

// Counter tracks the number of live connections. A single instance is shared among all
// the event loops.
type Counter struct {
	active atomic.Int64
}

func (c *Counter) Inc() int64 {
	return c.active.Add(1)
}

func (c *Counter) Dec() int64 {
	return c.active.Add(-1)
}

func (c *Counter) Load() int64 {
	return c.active.Load()
}
