// SPDX-License-Identifier: GPL-3.0-or-later

package datalink_test

import (
	"errors"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/rbmk-project/linksim/datalink"
	"github.com/rbmk-project/linksim/medium"
	"github.com/rbmk-project/linksim/physical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePhys is a [datalink.PhysicalLayer] recording frames.
type fakePhys struct {
	client  physical.Client
	frames  [][]byte
	sendErr error
	regErr  error
}

func (fp *fakePhys) Register(client physical.Client) error {
	if fp.regErr != nil {
		return fp.regErr
	}
	fp.client = client
	return nil
}

func (fp *fakePhys) Send(buf []byte) error {
	fp.frames = append(fp.frames, append([]byte{}, buf...))
	return fp.sendErr
}

// inbox is a [datalink.Client] recording payloads.
type inbox struct {
	payloads []string
}

func (ib *inbox) Receive(data []byte) error {
	ib.payloads = append(ib.payloads, string(data))
	return nil
}

// feed delivers buf to the engine one byte at a time.
func feed(e *datalink.Engine, buf []byte) error {
	for _, b := range buf {
		if err := e.Receive(b); err != nil {
			return err
		}
	}
	return nil
}

func newEngine(t *testing.T, scheme datalink.Scheme, limits datalink.Limits) (*datalink.Engine, *fakePhys, *inbox) {
	phys := &fakePhys{}
	e, err := datalink.New(phys, scheme, limits)
	require.NoError(t, err)
	e.Logger = slogt.New(t)
	require.Same(t, e, phys.client)
	ib := &inbox{}
	require.NoError(t, e.Register(ib))
	return e, phys, ib
}

func TestNew(t *testing.T) {
	t.Run("missing physical layer", func(t *testing.T) {
		e, err := datalink.New(nil, datalink.NewSimple(), datalink.DefaultLimits())
		assert.ErrorIs(t, err, datalink.ErrNoPhysicalLayer)
		assert.Nil(t, e)
	})

	t.Run("missing scheme", func(t *testing.T) {
		e, err := datalink.New(&fakePhys{}, nil, datalink.DefaultLimits())
		assert.ErrorIs(t, err, datalink.ErrNilScheme)
		assert.Nil(t, e)
	})

	t.Run("physical layer refuses registration", func(t *testing.T) {
		expected := errors.New("mocked register error")
		e, err := datalink.New(&fakePhys{regErr: expected}, datalink.NewSimple(), datalink.DefaultLimits())
		assert.ErrorIs(t, err, expected)
		assert.Nil(t, e)
	})

	t.Run("double client registration", func(t *testing.T) {
		e, _, _ := newEngine(t, datalink.NewSimple(), datalink.DefaultLimits())
		assert.ErrorIs(t, e.Register(&inbox{}), datalink.ErrClientRegistered)
	})
}

func TestEngineSend(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		e, phys, _ := newEngine(t, datalink.NewSimple(), datalink.DefaultLimits())
		require.NoError(t, e.Send([]byte("abc")))
		require.NoError(t, e.Send([]byte("{}")))
		assert.Equal(t, [][]byte{[]byte("{abc}"), []byte(`{\{\}}`)}, phys.frames)
		assert.Equal(t, uint64(2), e.Stats().FramesSent)
	})

	t.Run("parity", func(t *testing.T) {
		e, phys, _ := newEngine(t, datalink.NewParity(), datalink.DefaultLimits())
		require.NoError(t, e.Send([]byte("The quick brown fox...")))
		assert.Len(t, phys.frames, 3)
		assert.Equal(t, uint64(3), e.Stats().FramesSent)
	})

	t.Run("physical layer failure", func(t *testing.T) {
		expected := errors.New("mocked send error")
		e, phys, _ := newEngine(t, datalink.NewParity(), datalink.DefaultLimits())
		phys.sendErr = expected
		assert.ErrorIs(t, e.Send([]byte("The quick brown fox...")), expected)
		assert.Len(t, phys.frames, 1)
		assert.Equal(t, uint64(0), e.Stats().FramesSent)
	})
}

func TestEngineReceive(t *testing.T) {
	t.Run("delivers complete frames", func(t *testing.T) {
		e, _, ib := newEngine(t, datalink.NewSimple(), datalink.DefaultLimits())
		require.NoError(t, feed(e, []byte(`{abc}{\{\}}`)))
		assert.Equal(t, []string{"abc", "{}"}, ib.payloads)
		assert.Equal(t, uint64(2), e.Stats().FramesDelivered)
	})

	t.Run("simple missing start is fatal", func(t *testing.T) {
		e, _, ib := newEngine(t, datalink.NewSimple(), datalink.DefaultLimits())
		err := feed(e, []byte("xabc}"))
		assert.ErrorIs(t, err, datalink.ErrMissingStart)
		assert.Empty(t, ib.payloads)
	})

	t.Run("parity drops corrupted frames and continues", func(t *testing.T) {
		e, _, ib := newEngine(t, datalink.NewParity(), datalink.DefaultLimits())
		good := datalink.NewParity().Frame([]byte("abd"))[0]
		bad := append([]byte{}, good...)
		bad[2] ^= 0x01

		require.NoError(t, feed(e, bad))
		require.NoError(t, feed(e, []byte("xy\x00}")))
		require.NoError(t, feed(e, good))

		assert.Equal(t, []string{"abd"}, ib.payloads)
		assert.Equal(t, datalink.Stats{FramesDelivered: 1, FramesDropped: 2}, e.Stats())
	})

	t.Run("buffer overflow", func(t *testing.T) {
		e, _, ib := newEngine(t, datalink.NewSimple(), datalink.Limits{MaxFrameBuffer: 4})
		err := feed(e, []byte("{abcdef}"))
		assert.ErrorIs(t, err, datalink.ErrBufferOverflow)
		assert.Empty(t, ib.payloads)
	})

	t.Run("buffer at capacity still completes", func(t *testing.T) {
		e, _, ib := newEngine(t, datalink.NewSimple(), datalink.Limits{MaxFrameBuffer: 5})
		require.NoError(t, feed(e, []byte("{abc}{abc}")))
		assert.Equal(t, []string{"abc", "abc"}, ib.payloads)
	})

	t.Run("no client", func(t *testing.T) {
		e, err := datalink.New(&fakePhys{}, datalink.NewSimple(), datalink.DefaultLimits())
		require.NoError(t, err)
		assert.ErrorIs(t, feed(e, []byte("{abc}")), datalink.ErrNoClient)
	})
}

// pair wires two engines over a medium.
func pair(t *testing.T, m medium.Medium, scheme func() datalink.Scheme) (*datalink.Engine, *inbox) {
	left, err := physical.New(m)
	require.NoError(t, err)
	right, err := physical.New(m)
	require.NoError(t, err)
	sender, err := datalink.New(left, scheme(), datalink.DefaultLimits())
	require.NoError(t, err)
	receiver, err := datalink.New(right, scheme(), datalink.DefaultLimits())
	require.NoError(t, err)
	receiver.Logger = slogt.New(t)
	ib := &inbox{}
	require.NoError(t, receiver.Register(ib))
	require.NoError(t, sender.Register(&inbox{}))
	return sender, ib
}

func TestRoundTripOverPerfectMedium(t *testing.T) {
	messages := []string{"abc", "abd", "The quick brown fox...", "Does {}{} byte packing \\ work?"}

	t.Run("simple", func(t *testing.T) {
		sender, ib := pair(t, medium.NewPerfect(nil), func() datalink.Scheme { return datalink.NewSimple() })
		for _, msg := range messages {
			require.NoError(t, sender.Send([]byte(msg)))
		}
		assert.Equal(t, messages, ib.payloads)
	})

	t.Run("parity", func(t *testing.T) {
		sender, ib := pair(t, medium.NewPerfect(nil), func() datalink.Scheme { return datalink.NewParity() })
		for _, msg := range messages {
			require.NoError(t, sender.Send([]byte(msg)))
		}
		assert.Equal(t, []string{
			"abc",
			"abd",
			"The quic", "k brown ", "fox...",
			"Does {}{", "} byte p", "acking \\", " work?",
		}, ib.payloads)
	})
}

// scriptedSource is a [medium.Source] returning the scripted
// values in order and then always one.
type scriptedSource struct {
	values []float64
}

func (ss *scriptedSource) RandU01() float64 {
	if len(ss.values) <= 0 {
		return 1
	}
	value := ss.values[0]
	ss.values = ss.values[1:]
	return value
}

func TestParityOverNoisyMedium(t *testing.T) {
	// "abd" travels as "{abd\x01}". With one-bit bursts, each idle
	// transmission draws once, a burst draws twice, and the cooldown
	// transmission following a burst draws nothing.
	newNoisy := func(t *testing.T, values []float64) *medium.BurstyNoise {
		cfg := medium.DefaultConfig()
		cfg.MaxBurstLength = 1
		cfg.Source = &scriptedSource{values: values}
		m, err := medium.NewBurstyNoise(cfg)
		require.NoError(t, err)
		return m
	}

	idle := func(count int) []float64 {
		values := make([]float64, count)
		for idx := range values {
			values[idx] = 1
		}
		return values
	}

	t.Run("single flip is dropped", func(t *testing.T) {
		// transmission 9 is bit 1 of 'a', which becomes 'c'
		m := newNoisy(t, append(idle(9), 0, 0))
		sender, ib := pair(t, m, func() datalink.Scheme { return datalink.NewParity() })
		require.NoError(t, sender.Send([]byte("abd")))
		require.NoError(t, sender.Send([]byte("abd")))
		assert.Equal(t, []string{"abd"}, ib.payloads)
		assert.Equal(t, medium.Stats{BitsSent: 96, BitsFlipped: 1, Bursts: 1}, m.Stats())
	})

	t.Run("double flip goes undetected", func(t *testing.T) {
		// transmissions 9 and 11 flip bit 1 of 'a' and bit 3 of 'a',
		// turning 0x61 into 0x6b
		values := append(idle(9), 0, 0)
		values = append(values, 0, 0)
		m := newNoisy(t, values)
		sender, ib := pair(t, m, func() datalink.Scheme { return datalink.NewParity() })
		require.NoError(t, sender.Send([]byte("abd")))
		assert.Equal(t, []string{"kbd"}, ib.payloads)
		assert.Equal(t, uint64(2), m.Stats().BitsFlipped)
	})
}
