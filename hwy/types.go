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

// Package hwy provides the word- and register-level primitives used by the
// stream compaction kernels, with runtime CPU dispatch.
//
// Operations automatically use the best available instructions (AVX-512
// VBMI2 VPCOMPRESSB, BMI2 PEXT/PDEP) or fall back to portable Go code.
// Dispatch is decided once at init and can be forced to the portable
// implementations with HWY_NO_SIMD=1.
//
// Basic usage:
//
//	import "github.com/ajroetker/go-streamcompact/hwy"
//
//	var src, dst [hwy.ByteLanes]byte
//	mask := hwy.MaskFromBytes64(&maskBytes)
//	n := hwy.CompressBytes64(&dst, &src, mask)
//	// dst[:n] holds the selected bytes in order
package hwy

const (
	// WordBits is the number of bits in one stream word.
	WordBits = 64

	// ByteLanes is the number of 8-bit lanes in one compress register.
	ByteLanes = 64
)

// FirstN returns a word with the low n bits set.
// n is clamped to [0, 64].
func FirstN(n int) uint64 {
	if n <= 0 {
		return 0
	}
	if n >= WordBits {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}

// WordsFor returns the number of 64-bit words needed to hold n bits.
func WordsFor(nbits int) int {
	if nbits <= 0 {
		return 0
	}
	return (nbits + WordBits - 1) / WordBits
}
