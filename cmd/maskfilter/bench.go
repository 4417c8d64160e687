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
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-streamcompact/hwy/contrib/filter"
)

// benchCommand compacts random data with both strategies and checks them
// against a linear scan.
type benchCommand struct {
	size       int
	seed       int64
	fieldWidth int
	cfg        filter.Config
}

func addBenchCommand(app *kingpin.Application) {
	cmd := &benchCommand{cfg: filter.DefaultConfig()}
	c := app.Command("bench", "Compact random bytes with every strategy and verify the results.").Action(cmd.run)
	c.Flag("size", "Number of input bytes.").Default("1000000").IntVar(&cmd.size)
	c.Flag("seed", "Random seed, 0 for time based.").Default("0").Int64Var(&cmd.seed)
	c.Flag("field-width", "Field width of the field-compress stage.").Default("64").IntVar(&cmd.fieldWidth)
	registerEngineFlags(c, &cmd.cfg)
}

type benchResult struct {
	mode     string
	elapsed  time.Duration
	survived int
}

func (cmd *benchCommand) run(*kingpin.ParseContext) error {
	seed := cmd.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src, mask := randomInput(rand.New(rand.NewSource(seed)), cmd.size)
	want := linearScan(src, mask)
	level.Info(logger).Log("msg", "generated input", "size", humanize.Bytes(uint64(cmd.size)),
		"selected", humanize.Comma(int64(len(want))), "seed", seed)

	cmd.cfg.Logger = logger
	e, err := filter.New(cmd.cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	modes := []string{modeDirect, modePipeline}
	results := make([]benchResult, len(modes))
	var g errgroup.Group
	for i, mode := range modes {
		g.Go(func() error {
			start := time.Now()
			got, err := filterWith(e, mode, cmd.fieldWidth, src, mask)
			if err != nil {
				return errors.Wrap(err, mode)
			}
			results[i] = benchResult{mode: mode, elapsed: time.Since(start), survived: len(got)}
			if !bytes.Equal(got, want) {
				return errors.Errorf("%s: output differs from linear scan", mode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		name := r.mode
		if r.mode == modeDirect {
			name += "/" + e.Compactor().Name()
		}
		fmt.Printf("%-18s %10s %12s  ok\n", name, r.elapsed.Round(time.Microsecond), throughput(cmd.size, r.elapsed))
	}
	return nil
}

// randomInput returns n random bytes and a mask of random 0/1 bytes.
func randomInput(rng *rand.Rand, n int) (src, mask []byte) {
	src = make([]byte, n)
	mask = make([]byte, n)
	rng.Read(src)
	for i := range mask {
		mask[i] = byte(rng.Intn(2))
	}
	return src, mask
}

func linearScan(src, mask []byte) []byte {
	out := make([]byte, 0, len(src))
	for i, b := range src {
		if mask[i] != 0 {
			out = append(out, b)
		}
	}
	return out
}
