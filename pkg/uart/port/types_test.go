package port

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMustBeValid(t *testing.T) {
	require.NotPanics(t, func() { MustBeValid(UART1, 2) })
	require.NotPanics(t, func() { MustBeValid(UART2, 2) })
	for _, ch := range []Channel{0, UART3, 200} {
		func() {
			defer func() {
				r := recover()
				require.IsType(t, &ChannelError{}, r)
				require.Equal(t, ch, r.(*ChannelError).Channel)
			}()
			MustBeValid(ch, 2)
		}()
	}
	require.Panics(t, func() { MustBeValid(MaxChannel+1, 100) })
}

func TestErrorFlags(t *testing.T) {
	require.Equal(t, "none", ErrorFlags(0).String())
	require.Equal(t, "parity", ErrParity.String())
	require.Equal(t, "framing", ErrFraming.String())
	require.Equal(t, "parity|framing", (ErrParity | ErrFraming).String())
	require.True(t, (ErrParity | ErrFraming).Has(ErrFraming))
	require.False(t, ErrParity.Has(ErrFraming))
}

func TestChannel(t *testing.T) {
	require.Equal(t, 0, UART1.Index())
	require.Equal(t, "UART3", UART3.String())
}

func TestRecoverIOError(t *testing.T) {
	read := func() (err error) {
		defer RecoverIOError(&err)
		panic(&IOError{Op: "read", Device: "/dev/ttyS0", Err: io.EOF})
	}
	err := read()
	require.EqualError(t, err, "read /dev/ttyS0: EOF")
	require.ErrorIs(t, err, io.EOF)

	require.Panics(t, func() {
		var err error
		defer RecoverIOError(&err)
		MustBeValid(UART1, 0)
	})
}
