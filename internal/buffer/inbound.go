package buffer

// View is a range of bytes inside an Inbound buffer. It stays valid as long as the
// buffer isn't reset.
type View struct {
	Start, End int
}

func (v View) Len() int {
	return v.End - v.Start
}

// Inbound is a fixed-capacity receive buffer. Bytes in [0, consumed) are already handed
// to the parser, [consumed, filled) are received but not consumed yet, and [filled, cap)
// is free for the next read.
type Inbound struct {
	memory   []byte
	filled   int
	consumed int
}

func NewInbound(size int) *Inbound {
	return &Inbound{
		memory: make([]byte, size),
	}
}

// Vacant returns the free tail of the buffer to read into.
func (b *Inbound) Vacant() []byte {
	return b.memory[b.filled:]
}

// Commit marks n more bytes of the vacant tail as filled.
func (b *Inbound) Commit(n int) {
	b.filled += n
}

// Cap returns the capacity of the buffer.
func (b *Inbound) Cap() int {
	return len(b.memory)
}

// Full reports whether no more bytes can be received.
func (b *Inbound) Full() bool {
	return b.filled == len(b.memory)
}

func (b *Inbound) Filled() int {
	return b.filled
}

func (b *Inbound) Consumed() int {
	return b.consumed
}

// Consume moves the consumed cursor n bytes forward.
func (b *Inbound) Consume(n int) {
	b.consumed += n
}

// Pending returns bytes received but not consumed yet.
func (b *Inbound) Pending() []byte {
	return b.memory[b.consumed:b.filled]
}

// At returns a byte at the absolute offset.
func (b *Inbound) At(offset int) byte {
	return b.memory[offset]
}

// Slice returns the bytes the view refers to.
func (b *Inbound) Slice(v View) []byte {
	return b.memory[v.Start:v.End]
}

// Reset drops everything consumed, moving the pending tail (if any) to the beginning of
// the buffer. Views taken before the call are invalidated.
func (b *Inbound) Reset() {
	n := copy(b.memory, b.memory[b.consumed:b.filled])
	b.filled = n
	b.consumed = 0
}
