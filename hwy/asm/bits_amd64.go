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

package asm

// Hand-written AVX-512 VBMI2 and BMI2 kernels. Callers must check CPU
// support first; executing these on older CPUs raises SIGILL.

//go:noescape
func compressBytes64AVX512(dst, src *[64]byte, mask uint64)

func pextq(src, mask uint64) uint64

func pdepq(src, mask uint64) uint64

// CompressBytes64 stores the bytes of src selected by mask contiguously at
// the front of dst using VPCOMPRESSB. Only popcount(mask) bytes of dst are
// written; the rest keep their previous contents.
func CompressBytes64(dst, src *[64]byte, mask uint64) {
	compressBytes64AVX512(dst, src, mask)
}

// ExtractBits gathers the bits of src at the positions set in mask into the
// low bits of the result (PEXT).
func ExtractBits(src, mask uint64) uint64 {
	return pextq(src, mask)
}

// DepositBits scatters the low bits of src to the positions set in mask
// (PDEP).
func DepositBits(src, mask uint64) uint64 {
	return pdepq(src, mask)
}
