package buffer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func BenchmarkOutbound(b *testing.B) {
	buff := NewOutbound(1024)
	smallString := []byte(strings.Repeat("a", 1023))

	b.ReportAllocs()
	b.SetBytes(int64(len(smallString)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = buff.Append(smallString)
		buff.Clear()
	}
}

func TestOutbound(t *testing.T) {
	t.Run("no overflow", func(t *testing.T) {
		buff := NewOutbound(20)
		require.True(t, buff.AppendString("Hello, "))
		require.True(t, buff.Append([]byte("World!")))
		require.True(t, buff.AppendInt(42))
		require.Equal(t, "Hello, World!42", string(buff.Bytes()))
		require.Equal(t, 20, buff.Cap())
	})

	t.Run("overflow is all or nothing", func(t *testing.T) {
		buff := NewOutbound(10)
		require.True(t, buff.AppendString("Hello"))
		require.False(t, buff.AppendString(", World!"))
		require.Equal(t, "Hello", string(buff.Bytes()))
		require.False(t, buff.AppendInt(1234567))
		require.True(t, buff.AppendInt(12345))
		require.Equal(t, 10, buff.Len())
	})

	t.Run("trunc", func(t *testing.T) {
		buff := NewOutbound(10)
		require.True(t, buff.AppendString("Hello"))
		mark := buff.Len()
		require.True(t, buff.AppendString("World"))
		buff.Trunc(mark)
		require.Equal(t, "Hello", string(buff.Bytes()))
		buff.Trunc(100)
		require.Equal(t, "Hello", string(buff.Bytes()))
		buff.Clear()
		require.Zero(t, buff.Len())
	})
}

func TestInbound(t *testing.T) {
	t.Run("fill and consume", func(t *testing.T) {
		buff := NewInbound(8)
		n := copy(buff.Vacant(), "GET /")
		buff.Commit(n)
		require.Equal(t, 5, buff.Filled())
		require.False(t, buff.Full())

		buff.Consume(4)
		require.Equal(t, "/", string(buff.Pending()))
		require.Equal(t, "GET", string(buff.Slice(View{Start: 0, End: 3})))
		require.Len(t, buff.Vacant(), 3)

		buff.Commit(copy(buff.Vacant(), "abc"))
		require.True(t, buff.Full())
		require.Empty(t, buff.Vacant())
	})

	t.Run("reset keeps the pending tail", func(t *testing.T) {
		buff := NewInbound(16)
		buff.Commit(copy(buff.Vacant(), "first|second"))
		buff.Consume(len("first|"))
		buff.Reset()
		require.Zero(t, buff.Consumed())
		require.Equal(t, "second", string(buff.Pending()))

		buff.Consume(buff.Filled())
		buff.Reset()
		require.Zero(t, buff.Filled())
		require.Len(t, buff.Vacant(), 16)
	})

	t.Run("at", func(t *testing.T) {
		buff := NewInbound(4)
		buff.Commit(copy(buff.Vacant(), "ab\r\n"))
		require.Equal(t, byte('\r'), buff.At(2))
		require.Equal(t, byte('\n'), buff.At(3))
		require.Equal(t, 4, buff.Cap())
	})
}
