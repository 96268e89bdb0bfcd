// SPDX-License-Identifier: GPL-3.0-or-later

package bitvec_test

import (
	"testing"

	"github.com/rbmk-project/linksim/bitvec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	vec := bitvec.New()
	assert.Equal(t, 0, vec.Len())
	assert.Empty(t, vec.Bytes())
	assert.False(t, vec.Bit(0))
	assert.False(t, vec.Bit(1<<20))
}

func TestFromBytesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "single byte", data: []byte{0xA5}},
		{name: "text", data: []byte("The quick brown fox...")},
		{name: "all values", data: func() []byte {
			out := make([]byte, 256)
			for idx := range out {
				out[idx] = byte(idx)
			}
			return out
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := bitvec.FromBytes(tt.data)
			assert.Equal(t, 8*len(tt.data), vec.Len())
			assert.Equal(t, tt.data, vec.Bytes())
		})
	}
}

func TestFromBytesBitOrder(t *testing.T) {
	vec := bitvec.FromBytes([]byte{0x80, 0x01})
	assert.Equal(t, "1000000000000001", vec.String())
	assert.True(t, vec.Bit(0))
	assert.True(t, vec.Bit(15))
	assert.False(t, vec.Bit(16))
}

func TestFromRange(t *testing.T) {
	data := []byte("xxabcxx")
	vec := bitvec.FromRange(data, 2, 5)
	assert.Equal(t, 24, vec.Len())
	assert.Equal(t, []byte("abc"), vec.Bytes())

	t.Run("invalid range panics", func(t *testing.T) {
		assert.Panics(t, func() { bitvec.FromRange(data, 5, 2) })
		assert.Panics(t, func() { bitvec.FromRange(data, -1, 2) })
		assert.Panics(t, func() { bitvec.FromRange(data, 0, 100) })
	})
}

func TestSetBit(t *testing.T) {
	t.Run("grows the known length", func(t *testing.T) {
		vec := bitvec.New()
		vec.SetBit(0, true)
		assert.Equal(t, 1, vec.Len())
		vec.SetBit(9, true)
		assert.Equal(t, 10, vec.Len())
		assert.Equal(t, []byte{0x80, 0x40}, vec.Bytes())
	})

	t.Run("setting below the frontier keeps the length", func(t *testing.T) {
		vec := bitvec.New()
		vec.SetBit(20, false)
		vec.SetBit(3, true)
		assert.Equal(t, 21, vec.Len())
		assert.True(t, vec.Bit(3))
	})

	t.Run("far indexes", func(t *testing.T) {
		vec := bitvec.New()
		vec.SetBit(100000, true)
		assert.Equal(t, 100001, vec.Len())
		assert.True(t, vec.Bit(100000))
		assert.False(t, vec.Bit(99999))
		assert.False(t, vec.Bit(1<<30))
	})

	t.Run("negative index panics", func(t *testing.T) {
		vec := bitvec.New()
		assert.Panics(t, func() { vec.SetBit(-1, true) })
		assert.Panics(t, func() { vec.Bit(-1) })
	})
}

func TestBytesPadsFinalByte(t *testing.T) {
	vec := bitvec.New()
	for idx := 0; idx < 11; idx++ {
		vec.SetBit(idx, true)
	}
	require.Equal(t, 11, vec.Len())
	assert.Equal(t, []byte{0xFF, 0xE0}, vec.Bytes())
}

func TestOnesCount(t *testing.T) {
	data := []byte{0x00, 0x01, 0xFF, 0x10}
	vec := bitvec.FromBytes(data)
	assert.Equal(t, 10, vec.OnesCount())
	assert.Equal(t, 0, bitvec.New().OnesCount())
}
