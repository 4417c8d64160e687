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
	"math/bits"

	"github.com/pkg/errors"

	"github.com/ajroetker/go-streamcompact/hwy"
)

// FilterBytes copies the bytes of src whose mask byte is nonzero to the
// front of dst, preserving order, and returns how many were copied. It
// uses the default engine.
func FilterBytes(dst, src, mask []byte) (int, error) {
	return defaultEngine().FilterBytes(dst, src, mask)
}

// CompactBytes is FilterBytes driven by an explicit compactor.
func CompactBytes(c ByteCompactor, dst, src, mask []byte) (int, error) {
	if len(mask) != len(src) {
		return 0, errors.Wrapf(ErrLengthMismatch, "mask has %d bytes, input has %d", len(mask), len(src))
	}
	lanes := make([]uint64, hwy.NumBlocks(len(src), hwy.ByteLanes))
	total := 0
	for i := range lanes {
		lanes[i] = hwy.MaskFromBytes(mask[i*hwy.ByteLanes : min((i+1)*hwy.ByteLanes, len(mask))])
		total += bits.OnesCount64(lanes[i])
	}
	if total > len(dst) {
		return 0, errors.Wrapf(ErrCapacity, "%d bytes selected, output holds %d", total, len(dst))
	}

	var out [hwy.ByteLanes]byte
	n := 0
	hwy.ProcessWithTail(len(src), hwy.ByteLanes,
		func(offset int) {
			k := c.CompactBlock(&out, (*[hwy.ByteLanes]byte)(src[offset:]), lanes[offset/hwy.ByteLanes])
			n += copy(dst[n:], out[:k])
		},
		func(offset, count int) {
			var block [hwy.ByteLanes]byte
			copy(block[:], src[offset:offset+count])
			k := c.CompactBlock(&out, &block, lanes[offset/hwy.ByteLanes])
			n += copy(dst[n:], out[:k])
		},
	)
	return n, nil
}
