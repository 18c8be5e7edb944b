package buffer

import "strconv"

// Outbound is a fixed-capacity buffer responses are rendered into. It never grows: every
// append either fits completely or is discarded, so a failed render leaves nothing but
// previously written data behind.
type Outbound struct {
	memory []byte
}

func NewOutbound(size int) *Outbound {
	return &Outbound{
		memory: make([]byte, 0, size),
	}
}

// Append writes data, checking whether the new amount of bytes doesn't exceed the
// capacity, otherwise discarding the data and returning false.
func (b *Outbound) Append(elements []byte) (ok bool) {
	if len(b.memory)+len(elements) > cap(b.memory) {
		return false
	}

	b.memory = append(b.memory, elements...)
	return true
}

// AppendString does the same as Append.
func (b *Outbound) AppendString(str string) (ok bool) {
	if len(b.memory)+len(str) > cap(b.memory) {
		return false
	}

	b.memory = append(b.memory, str...)
	return true
}

// AppendInt writes a decimal representation of n.
func (b *Outbound) AppendInt(n int64) (ok bool) {
	var scratch [20]byte
	return b.Append(strconv.AppendInt(scratch[:0], n, 10))
}

// Len returns a number of bytes written so far.
func (b *Outbound) Len() int {
	return len(b.memory)
}

// Cap returns the capacity of the buffer.
func (b *Outbound) Cap() int {
	return cap(b.memory)
}

// Bytes returns everything written so far. The slice is valid until the next Trunc or Clear.
func (b *Outbound) Bytes() []byte {
	return b.memory
}

// Trunc rolls the buffer back to the length of n bytes. Used to undo a partially rendered
// response.
func (b *Outbound) Trunc(n int) {
	if n < len(b.memory) {
		b.memory = b.memory[:n]
	}
}

// Clear just resets the pointers, so old values may be overridden by new ones.
func (b *Outbound) Clear() {
	b.memory = b.memory[:0]
}
