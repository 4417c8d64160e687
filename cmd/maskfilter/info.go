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

package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/klauspost/cpuid/v2"

	"github.com/ajroetker/go-streamcompact/hwy"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/filter"
)

// features reported by info, in display order.
var features = []cpuid.FeatureID{
	cpuid.BMI2,
	cpuid.POPCNT,
	cpuid.AVX2,
	cpuid.AVX512F,
	cpuid.AVX512BW,
	cpuid.AVX512VBMI2,
	cpuid.ASIMD,
}

func addInfoCommand(app *kingpin.Application) {
	app.Command("info", "Print the CPU features and compactor selection.").Action(func(*kingpin.ParseContext) error {
		fmt.Print(infoReport())
		return nil
	})
}

func infoReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cpu:          %s (%d cores, %d threads)\n",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores)
	var have []string
	for _, f := range features {
		if cpuid.CPU.Supports(f) {
			have = append(have, f.String())
		}
	}
	fmt.Fprintf(&b, "features:     %s\n", strings.Join(have, " "))
	fmt.Fprintf(&b, "dispatch:     %s (%d-byte vectors)\n", hwy.CurrentName(), hwy.CurrentWidth())
	fmt.Fprintf(&b, "bit manip:    %t\n", hwy.HasBitManip())
	fmt.Fprintf(&b, "byte compress:%t\n", hwy.HasByteCompress())
	fmt.Fprintf(&b, "compactor:    %s\n", filter.DefaultCompactor().Name())
	return b.String()
}
