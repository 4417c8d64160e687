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

package filter

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/ajroetker/go-streamcompact/hwy"
	"github.com/ajroetker/go-streamcompact/hwy/asm"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/bitplane"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/fieldcompress"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/streamcompress"
)

// ByteCompactor left-packs the selected bytes of one 64-byte block.
type ByteCompactor interface {
	// Name identifies the implementation in logs and metrics.
	Name() string

	// CompactBlock writes the bytes of src whose mask bit is set to the
	// front of dst, in order, and returns how many were written. Bytes of
	// dst past the count are unspecified.
	CompactBlock(dst, src *[hwy.ByteLanes]byte, mask uint64) int
}

var defaultCompactor = func() ByteCompactor {
	if c, err := NewHardwareCompactor(); err == nil {
		return c
	}
	return NewBitwiseCompactor()
}()

// DefaultCompactor returns the hardware compactor when the CPU has a byte
// compress instruction and the bitwise compactor otherwise.
func DefaultCompactor() ByteCompactor {
	return defaultCompactor
}

type hardwareCompactor struct{}

// NewHardwareCompactor returns a compactor built on VPCOMPRESSB. It fails
// with ErrNoHardwareCompress when the CPU lacks AVX-512 VBMI2 or SIMD is
// disabled.
func NewHardwareCompactor() (ByteCompactor, error) {
	if !hwy.HasByteCompress() {
		return nil, errors.Wrapf(ErrNoHardwareCompress, "dispatch level %s", hwy.CurrentName())
	}
	return hardwareCompactor{}, nil
}

func (hardwareCompactor) Name() string { return CompactorHardware }

func (hardwareCompactor) CompactBlock(dst, src *[hwy.ByteLanes]byte, mask uint64) int {
	asm.CompressBytes64(dst, src, mask)
	return bits.OnesCount64(mask)
}

const laneWords = hwy.ByteLanes / 8

// bitwiseCompactor runs one block through the bit-level stages: the 64
// bytes become 8 bit-planes of one word each, every plane is compressed
// under the mask and the planes are transposed back.
type bitwiseCompactor struct{}

// NewBitwiseCompactor returns the portable compactor.
func NewBitwiseCompactor() ByteCompactor {
	return bitwiseCompactor{}
}

func (bitwiseCompactor) Name() string { return CompactorBitwise }

func (bitwiseCompactor) CompactBlock(dst, src *[hwy.ByteLanes]byte, mask uint64) int {
	var in, out [laneWords]uint64
	var planeBuf, denseBuf [8][1]uint64
	var planes, dense [8][]uint64
	for p := range planes {
		planes[p] = planeBuf[p][:]
		dense[p] = denseBuf[p][:]
	}
	for i := range in {
		in[i] = binary.LittleEndian.Uint64(src[i*8:])
	}

	bitplane.Transpose(planes[:], in[:], 8, hwy.ByteLanes)
	for p := range planes {
		planes[p][0] = fieldcompress.CompressWord(planes[p][0], mask, hwy.WordBits)
	}
	sel := [1]uint64{mask}
	n := streamcompress.Append(dense[:], planes[:], sel[:], hwy.WordBits, 0, 1, streamcompress.Cursor{}).Pos()
	bitplane.Untranspose(out[:], dense[:], 8, n)

	for i := 0; i < (n+7)/8; i++ {
		binary.LittleEndian.PutUint64(dst[i*8:], out[i])
	}
	return n
}
