// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hwy

import (
	"encoding/binary"
	"math/bits"
)

// This file provides the 64-lane byte compress used by the byte-oriented
// compactor. Compress packs lanes where the mask is set to the front of the
// register, preserving their order.

// Dispatch function variables. These are initialized to the portable
// implementations and may be overridden in z_*.go init files.
var (
	// CompressBytes64 left-packs the bytes of src selected by mask into dst
	// and returns the number of bytes kept. Lanes of dst at and past the
	// returned count are unspecified.
	CompressBytes64 = BaseCompressBytes64
)

// BaseCompressBytes64 is the portable CompressBytes64.
// For example: src=[a,b,c,d,...], mask=0b1101 -> dst=[a,c,d,...], count=3
func BaseCompressBytes64(dst, src *[ByteLanes]byte, mask uint64) int {
	count := 0
	for m := mask; m != 0; m &= m - 1 {
		dst[count] = src[bits.TrailingZeros64(m)]
		count++
	}
	return count
}

// MaskFromBytes64 derives the lane predicate of a 64-byte mask block:
// bit i of the result is set when b[i] is nonzero.
func MaskFromBytes64(b *[ByteLanes]byte) uint64 {
	var mask uint64
	for i := 0; i < ByteLanes/8; i++ {
		w := binary.LittleEndian.Uint64(b[i*8:])
		mask |= nonzeroBytes(w) << (i * 8)
	}
	return mask
}

// MaskFromBytes derives the lane predicate of up to 64 mask bytes. Lanes
// past len(b) are cleared.
func MaskFromBytes(b []byte) uint64 {
	if len(b) >= ByteLanes {
		return MaskFromBytes64((*[ByteLanes]byte)(b))
	}
	var block [ByteLanes]byte
	copy(block[:], b)
	return MaskFromBytes64(&block)
}

// nonzeroBytes returns an 8-bit mask with bit j set when byte j of w is
// nonzero.
func nonzeroBytes(w uint64) uint64 {
	// Fold every byte onto its bit 0.
	w |= w >> 4
	w |= w >> 2
	w |= w >> 1
	return GatherByteBits(w)
}

const (
	lowBitEachByte = 0x0101010101010101
	gatherMagic    = 0x0102040810204080
	diagonalBits   = 0x8040201008040201
)

// GatherByteBits packs bit 0 of each byte of w into an 8-bit value, bit j
// coming from byte j.
func GatherByteBits(w uint64) uint64 {
	// Byte j's bit ends up at bit 56+j, after >> 56 we get the 8-bit mask.
	return ((w & lowBitEachByte) * gatherMagic) >> 56
}

// SpreadByteBits is the inverse of GatherByteBits: bit j of the low byte of
// b is moved to bit 0 of byte j.
func SpreadByteBits(b uint64) uint64 {
	// Replicate b into every byte, keep bit j in byte j, then turn any
	// nonzero byte into 0x01.
	x := ((b & 0xFF) * lowBitEachByte) & diagonalBits
	return ((x + 0x7F7F7F7F7F7F7F7F) >> 7) & lowBitEachByte
}
