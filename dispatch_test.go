package panel

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSplitWindows(t *testing.T) {
	tests := []struct {
		name        string
		mode        Mode
		left, right Window
	}{
		{"default", DefaultMode, Window{0, 767, 0, 2047}, Window{768, 1535, 0, 2047}},
		{"small", Mode{HDisplay: 4, VDisplay: 2}, Window{0, 1, 0, 1}, Window{2, 3, 0, 1}},
		{"odd", Mode{HDisplay: 5, VDisplay: 3}, Window{0, 1, 0, 2}, Window{2, 4, 0, 2}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			left, right := SplitWindows(test.mode)
			assert.Equal(t, test.left, left)
			assert.Equal(t, test.right, right)
		})
	}
}

func TestSplitWindowsPartition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := 2 * rapid.IntRange(1, 4096).Draw(t, "half")
		v := rapid.IntRange(1, 4096).Draw(t, "v")

		left, right := SplitWindows(Mode{HDisplay: h, VDisplay: v})

		if left.X0 != 0 || right.X1 != h-1 {
			t.Fatalf("windows %s %s do not cover [0,%d]", left, right, h-1)
		}
		if right.X0 != left.X1+1 {
			t.Fatalf("windows %s %s overlap or leave a gap", left, right)
		}
		if left.Dx() != right.Dx() {
			t.Fatalf("windows %s %s differ in width", left, right)
		}
		if left.Y0 != 0 || left.Y1 != v-1 || right.Y0 != left.Y0 || right.Y1 != left.Y1 {
			t.Fatalf("windows %s %s do not span all %d rows", left, right, v)
		}
	})
}

func TestDispatcherWriteControl(t *testing.T) {
	j := new(journal)
	link1, link2 := newFakeConn(Link1, j), newFakeConn(Link2, j)
	d := NewDispatcher(link1, link2)

	require.NoError(t, d.WriteControl(dcsWriteDisplayBright, 0xFF))
	assert.Equal(t, journal{"link1 51 ff", "link2 51 ff"}, *j)
}

func TestDispatcherPrimaryFailure(t *testing.T) {
	j := new(journal)
	link1, link2 := newFakeConn(Link1, j), newFakeConn(Link2, j)
	cause := errors.New("bus error")
	link1.fail[dcsExitSleepMode] = cause
	d := NewDispatcher(link1, link2)

	err := d.ExitSleepMode()
	require.ErrorIs(t, err, cause)

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, Link1, dispatchErr.Link)
	assert.Equal(t, byte(dcsExitSleepMode), dispatchErr.Command)
	assert.Empty(t, link2.sent, "secondary must not be written after a primary failure")
}

func TestDispatcherLogsFailure(t *testing.T) {
	defer func(l zerolog.Logger, level zerolog.Level) {
		log.Logger = l
		zerolog.SetGlobalLevel(level)
	}(log.Logger, zerolog.GlobalLevel())

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	j := new(journal)
	link1, link2 := newFakeConn(Link1, j), newFakeConn(Link2, j)
	link1.fail[dcsSetDisplayOn] = errors.New("bus error")
	d := NewDispatcher(link1, link2)

	zerolog.SetGlobalLevel(zerolog.Disabled)
	require.Error(t, d.SetDisplayOn())
	assert.Empty(t, buf.String(), "the global level gates the package logger")

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	require.Error(t, d.SetDisplayOn())
	assert.Contains(t, buf.String(), `"component":"panel"`)
	assert.Contains(t, buf.String(), `"link":"link1"`)
	assert.Contains(t, buf.String(), "write control failed")
}

func TestDispatcherSecondaryFailure(t *testing.T) {
	j := new(journal)
	link1, link2 := newFakeConn(Link1, j), newFakeConn(Link2, j)
	cause := errors.New("no ack")
	link2.fail[dcsSetPixelFormat] = cause
	d := NewDispatcher(link1, link2)

	err := d.SetPixelFormat(PixelFormat24Bit)
	require.ErrorIs(t, err, cause)

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, Link2, dispatchErr.Link)
	assert.Equal(t, []sent{{cmd: dcsSetPixelFormat, params: []byte{PixelFormat24Bit}}}, link1.sent)
}

func TestDispatcherApplySplitAddressing(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		j := new(journal)
		d := NewDispatcher(newFakeConn(Link1, j), newFakeConn(Link2, j))

		require.NoError(t, d.ApplySplitAddressing(DefaultMode))
		assert.Equal(t, journal{
			"link2 2a 00 00 02 ff",
			"link2 2b 00 00 07 ff",
			"link1 2a 03 00 05 ff",
			"link1 2b 00 00 07 ff",
		}, *j)
	})

	t.Run("swapped", func(t *testing.T) {
		j := new(journal)
		d := NewDispatcher(newFakeConn(Link1, j), newFakeConn(Link2, j))
		d.SwapHalves(true)

		require.NoError(t, d.ApplySplitAddressing(DefaultMode))
		assert.Equal(t, journal{
			"link1 2a 00 00 02 ff",
			"link1 2b 00 00 07 ff",
			"link2 2a 03 00 05 ff",
			"link2 2b 00 00 07 ff",
		}, *j)
	})
}

func TestDispatcherApplySplitAddressingFailure(t *testing.T) {
	tests := []struct {
		name   string
		link   string
		cmd    byte
		window string
		writes int
	}{
		{"left column", Link2, dcsSetColumnAddress, "column", 1},
		{"left page", Link2, dcsSetPageAddress, "page", 2},
		{"right column", Link1, dcsSetColumnAddress, "column", 3},
		{"right page", Link1, dcsSetPageAddress, "page", 4},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			j := new(journal)
			links := map[string]*fakeConn{Link1: newFakeConn(Link1, j), Link2: newFakeConn(Link2, j)}
			cause := errors.New("nak")
			links[test.link].fail[test.cmd] = cause
			d := NewDispatcher(links[Link1], links[Link2])

			err := d.ApplySplitAddressing(DefaultMode)
			require.ErrorIs(t, err, cause)

			var addrErr *AddressingError
			require.ErrorAs(t, err, &addrErr)
			assert.Equal(t, test.link, addrErr.Link)
			assert.Equal(t, test.window, addrErr.Window)
			assert.Len(t, *j, test.writes)
		})
	}
}

func TestDispatcherClose(t *testing.T) {
	j := new(journal)
	link1, link2 := newFakeConn(Link1, j), newFakeConn(Link2, j)
	d := NewDispatcher(link1, link2)

	require.NoError(t, d.Close())
	assert.True(t, link1.closed)
	assert.True(t, link2.closed)
}
