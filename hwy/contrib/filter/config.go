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
	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajroetker/go-streamcompact/hwy"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/stream"
)

// Compactor names accepted by Config.Compactor.
const (
	CompactorAuto     = "auto"
	CompactorHardware = "hardware"
	CompactorBitwise  = "bitwise"
)

const (
	// DefaultBlockWidth is the number of bits per stream processed as
	// one unit.
	DefaultBlockWidth = 512

	// MaxBlockWidth is the largest accepted block width.
	MaxBlockWidth = 4096
)

// Config configures an Engine.
type Config struct {
	// BlockWidth is the number of bits per stream in one block. It must
	// be a positive multiple of 64 no larger than MaxBlockWidth.
	BlockWidth int

	// Workers is the number of workers running the block-parallel stages.
	// Zero means GOMAXPROCS.
	Workers int

	// Compactor selects the byte compactor: CompactorAuto,
	// CompactorHardware or CompactorBitwise.
	Compactor string

	// Logger receives engine logs. Nil means no logging.
	Logger log.Logger

	// Registerer receives engine metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer

	// Allocator provides pipeline intermediates. Nil means a pool
	// allocator owned by the engine.
	Allocator stream.Allocator
}

// DefaultConfig returns the configuration used by the package-level
// functions.
func DefaultConfig() Config {
	return Config{
		BlockWidth: DefaultBlockWidth,
		Compactor:  CompactorAuto,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BlockWidth <= 0 || c.BlockWidth%hwy.WordBits != 0 || c.BlockWidth > MaxBlockWidth {
		return errors.Wrapf(ErrFieldWidth, "block width %d is not a multiple of %d in (0, %d]",
			c.BlockWidth, hwy.WordBits, MaxBlockWidth)
	}
	if c.Workers < 0 {
		return errors.Errorf("invalid worker count %d", c.Workers)
	}
	switch c.Compactor {
	case "", CompactorAuto, CompactorHardware, CompactorBitwise:
	default:
		return errors.Errorf("unknown compactor %q", c.Compactor)
	}
	return nil
}
