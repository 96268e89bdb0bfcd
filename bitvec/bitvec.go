// SPDX-License-Identifier: GPL-3.0-or-later

// Package bitvec implements a growable sequence of bits.
//
// A [*Vector] is conceptually infinite: reading any non-negative index
// never fails and unset bits read as false. The known length is the
// highest explicitly written index plus one.
package bitvec

import "github.com/rbmk-project/common/runtimex"

// bitsPerByte is the number of bits in a byte.
const bitsPerByte = 8

// Vector is a growable sequence of bits.
//
// Construct using [New], [FromBytes] or [FromRange].
type Vector struct {
	// array is the backing storage. Its length is the storage
	// extent and is always >= length.
	array []bool

	// length is the known length.
	length int
}

// New creates an empty [*Vector].
func New() *Vector {
	return &Vector{
		array:  make([]bool, 1),
		length: 0,
	}
}

// FromBytes creates a [*Vector] holding the bits of data, most
// significant bit first within each byte.
func FromBytes(data []byte) *Vector {
	vec := &Vector{
		array:  make([]bool, max(1, len(data)*bitsPerByte)),
		length: 0,
	}
	for _, b := range data {
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			vec.array[vec.length] = b&mask != 0
			vec.length++
		}
	}
	return vec
}

// FromRange is like [FromBytes] but only uses data[begin:end].
//
// This function panics if the range is not valid for data.
func FromRange(data []byte, begin, end int) *Vector {
	runtimex.Assert(begin >= 0 && begin <= end && end <= len(data), "bitvec: invalid byte range")
	return FromBytes(data[begin:end])
}

// SetBit sets the bit at index to value, growing the storage
// as needed. This method panics if index is negative.
func (v *Vector) SetBit(index int, value bool) {
	runtimex.Assert(index >= 0, "bitvec: negative index")
	if index >= len(v.array) {
		v.expand(max(index*2, index+1))
	}
	if index >= v.length {
		v.length = index + 1
	}
	v.array[index] = value
}

// Bit returns the bit at index. Indexes beyond the storage extent
// read as false. This method panics if index is negative.
func (v *Vector) Bit(index int) bool {
	runtimex.Assert(index >= 0, "bitvec: negative index")
	if index >= len(v.array) {
		return false
	}
	return v.array[index]
}

// Len returns the known length.
func (v *Vector) Len() int {
	return v.length
}

// OnesCount returns the number of set bits within the known length.
func (v *Vector) OnesCount() int {
	var count int
	for _, bit := range v.array[:v.length] {
		if bit {
			count++
		}
	}
	return count
}

// Bytes returns the compact representation of the known bits. Bit i
// maps to byte i/8 at position 7-(i%8) and the final byte is zero padded.
func (v *Vector) Bytes() []byte {
	out := make([]byte, (v.length+bitsPerByte-1)/bitsPerByte)
	for idx := 0; idx < v.length; idx++ {
		if v.array[idx] {
			out[idx/bitsPerByte] |= 0x80 >> (idx % bitsPerByte)
		}
	}
	return out
}

// String returns the known bits as a string of zeroes and ones.
func (v *Vector) String() string {
	buf := make([]byte, v.length)
	for idx := range buf {
		buf[idx] = '0'
		if v.array[idx] {
			buf[idx] = '1'
		}
	}
	return string(buf)
}

// expand grows the storage to size, keeping existing bits.
func (v *Vector) expand(size int) {
	if size <= len(v.array) {
		return
	}
	array := make([]bool, size)
	copy(array, v.array)
	v.array = array
}
