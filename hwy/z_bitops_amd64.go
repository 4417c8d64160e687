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

//go:build !noasm && amd64

package hwy

import (
	"math/bits"

	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-streamcompact/hwy/asm"
)

// AMD64 dispatch for the assembly kernels.
//
// The z_ prefix ensures this init() runs after dispatch_amd64.go, so the
// HWY_NO_SIMD override has already been applied to the dispatch level.

func init() {
	if NoSimdEnv() {
		return
	}

	if cpu.X86.HasBMI2 {
		ExtractBits = asm.ExtractBits
		DepositBits = asm.DepositBits
		hasBitManip = true
	}

	// VPCOMPRESSB is VBMI2; the opmask move needs BW.
	if cpu.X86.HasAVX512BW && cpu.X86.HasAVX512VBMI2 {
		CompressBytes64 = compressBytes64AVX512
		hasByteCompress = true
	}
}

func compressBytes64AVX512(dst, src *[ByteLanes]byte, mask uint64) int {
	asm.CompressBytes64(dst, src, mask)
	return bits.OnesCount64(mask)
}
