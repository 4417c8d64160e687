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
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/ajroetker/go-streamcompact/hwy/contrib/filter"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/stream"
)

const (
	modePipeline = "pipeline"
	modeDirect   = "direct"
)

// runCommand filters one input file under one mask file.
type runCommand struct {
	input, mask, output string
	mode                string
	fieldWidth          int
	cfg                 filter.Config
}

func addRunCommand(app *kingpin.Application) {
	cmd := &runCommand{cfg: filter.DefaultConfig()}
	c := app.Command("run", "Keep the input bytes whose mask byte is nonzero.").Action(cmd.run)
	c.Flag("input", "Input file.").Required().StringVar(&cmd.input)
	c.Flag("mask", "Mask file, one byte per input byte.").Required().StringVar(&cmd.mask)
	c.Flag("output", "Output file.").Required().StringVar(&cmd.output)
	c.Flag("mode", "Compaction strategy.").Default(modePipeline).EnumVar(&cmd.mode, modePipeline, modeDirect)
	c.Flag("field-width", "Field width of the field-compress stage.").Default("64").IntVar(&cmd.fieldWidth)
	registerEngineFlags(c, &cmd.cfg)
}

// registerEngineFlags maps the engine configuration onto flags of c.
func registerEngineFlags(c *kingpin.CmdClause, cfg *filter.Config) {
	c.Flag("block-width", "Bits per stream processed as one block.").
		Default("512").IntVar(&cfg.BlockWidth)
	c.Flag("compactor", "Byte compactor used by the direct strategy.").
		Default(filter.CompactorAuto).
		EnumVar(&cfg.Compactor, filter.CompactorAuto, filter.CompactorHardware, filter.CompactorBitwise)
	c.Flag("workers", "Workers for block-parallel stages, 0 for one per CPU.").
		Default("0").IntVar(&cfg.Workers)
}

func (cmd *runCommand) run(*kingpin.ParseContext) error {
	src, err := readFile(cmd.input)
	if err != nil {
		return err
	}
	mask, err := readFile(cmd.mask)
	if err != nil {
		return err
	}

	cmd.cfg.Logger = logger
	e, err := filter.New(cmd.cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	start := time.Now()
	out, err := filterWith(e, cmd.mode, cmd.fieldWidth, src, mask)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := writeFile(cmd.output, out); err != nil {
		return err
	}
	level.Info(logger).Log(
		"msg", "filtered",
		"mode", cmd.mode,
		"input", humanize.Bytes(uint64(len(src))),
		"kept", humanize.Comma(int64(len(out))),
		"duration", elapsed,
		"throughput", throughput(len(src), elapsed),
	)
	return nil
}

// filterWith compacts src under mask with the given strategy.
func filterWith(e *filter.Engine, mode string, fieldWidth int, src, mask []byte) ([]byte, error) {
	switch mode {
	case modeDirect:
		dst := make([]byte, len(src))
		n, err := e.FilterBytes(dst, src, mask)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	case modePipeline:
		in := stream.FromBytes(src)
		out := stream.New(1, len(src), 8)
		if err := e.FilterByMask(stream.MaskFromBytes(mask), in, out, 0, fieldWidth, true); err != nil {
			return nil, err
		}
		return out.Bytes(0), nil
	default:
		return nil, errors.Errorf("unknown mode %q", mode)
	}
}

func throughput(n int, d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	return humanize.Bytes(uint64(float64(n)/d.Seconds())) + "/s"
}
