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

import "math/bits"

// This file provides bit manipulation operations on stream words.
// The parallel extract/deposit pair is what field compression and bit-plane
// transposition are built on.

// Dispatch function variables, overridden by z_bitops_amd64.go when BMI2
// is available.
var (
	// ExtractBits gathers the bits of src at the positions set in mask into
	// the low popcount(mask) bits of the result, preserving their order.
	// For example: src=0b1011_0110, mask=0b1111_0000 -> 0b1011
	ExtractBits = BaseExtractBits

	// DepositBits scatters the low popcount(mask) bits of src to the
	// positions set in mask. It is the inverse of ExtractBits.
	DepositBits = BaseDepositBits
)

// BaseExtractBits is the portable ExtractBits.
func BaseExtractBits(src, mask uint64) uint64 {
	var res uint64
	for bb := uint64(1); mask != 0; bb <<= 1 {
		if src&mask&-mask != 0 {
			res |= bb
		}
		mask &= mask - 1
	}
	return res
}

// BaseDepositBits is the portable DepositBits.
func BaseDepositBits(src, mask uint64) uint64 {
	var res uint64
	for bb := uint64(1); mask != 0; bb <<= 1 {
		if src&bb != 0 {
			res |= mask & -mask
		}
		mask &= mask - 1
	}
	return res
}

// PopCountWords counts all set bits across words.
func PopCountWords(words []uint64) int {
	// Process 4 words at a time (unrolled)
	count := 0
	i := 0
	for ; i+4 <= len(words); i += 4 {
		count += bits.OnesCount64(words[i]) + bits.OnesCount64(words[i+1]) +
			bits.OnesCount64(words[i+2]) + bits.OnesCount64(words[i+3])
	}
	for ; i < len(words); i++ {
		count += bits.OnesCount64(words[i])
	}
	return count
}

// PopCountBits counts the set bits among the first n bits of words. Bits
// past the end of words count as zero.
func PopCountBits(words []uint64, n int) int {
	full := n / WordBits
	if full > len(words) {
		full = len(words)
	}
	count := PopCountWords(words[:full])
	if rem := n % WordBits; rem != 0 && full < len(words) {
		count += bits.OnesCount64(words[full] & FirstN(rem))
	}
	return count
}
