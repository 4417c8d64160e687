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
	"github.com/pkg/errors"
)

// Errors returned by the engine. They are wrapped with call details, so
// match them with errors.Is.
var (
	// ErrFieldWidth reports an extraction, block or element width the
	// engine cannot use.
	ErrFieldWidth = errors.New("invalid field width")

	// ErrStreamRange reports a stream offset or output count selecting
	// streams outside the input set.
	ErrStreamRange = errors.New("stream selection out of range")

	// ErrLengthMismatch reports a mask whose length differs from the
	// input length.
	ErrLengthMismatch = errors.New("mask and input lengths differ")

	// ErrCapacity reports an output that cannot hold every selected
	// element.
	ErrCapacity = errors.New("output capacity too small")

	// ErrNoHardwareCompress reports a request for the hardware byte
	// compactor on a CPU without a byte compress instruction.
	ErrNoHardwareCompress = errors.New("hardware byte compress not available")
)

// errorReason maps an engine error to its metric label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrFieldWidth):
		return "field_width"
	case errors.Is(err, ErrStreamRange):
		return "stream_range"
	case errors.Is(err, ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	default:
		return "other"
	}
}
