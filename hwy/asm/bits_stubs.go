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


//go:build !amd64 || noasm

package asm

// Stub implementations for non-amd64 or noasm builds.
// These should never be called - the hwy package keeps its portable
// implementations when the assembly kernels are not compiled in.

func CompressBytes64(dst, src *[64]byte, mask uint64) { panic("AVX-512 VBMI2 not available") }
func ExtractBits(src, mask uint64) uint64            { panic("BMI2 not available") }
func DepositBits(src, mask uint64) uint64            { panic("BMI2 not available") }
