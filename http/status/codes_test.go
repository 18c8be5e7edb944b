package status

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	for _, code := range []Code{OK, BadRequest, Forbidden, NotFound, InternalServerError} {
		require.NotEmpty(t, Text(code), code)
	}

	require.Equal(t, Status("Internal Error"), Text(InternalServerError))
	require.Empty(t, Text(418))
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, NotFound, CodeOf(ErrNotFound))
	require.Equal(t, BadRequest, CodeOf(fmt.Errorf("parse: %w", ErrTooManyHeaders)))
	require.Equal(t, InternalServerError, CodeOf(ErrShutdown))
}
