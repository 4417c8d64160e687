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

// Command maskfilter compacts byte files under a byte mask.
//
// Usage:
//
//	maskfilter run --input=data.zst --mask=mask.bin --output=out.lz4
//	maskfilter bench --size=1000000
//	maskfilter info
//
// Input, mask and output files ending in .zst or .lz4 are compressed with
// zstd or lz4; other files are read and written as is. A mask byte that is
// nonzero keeps the input byte at the same position.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

var logger log.Logger

func main() {
	app := kingpin.New("maskfilter", "Mask-driven stream compaction.")
	app.HelpFlag.Short('h')
	logLevel := app.Flag("log.level", "Only log messages with the given severity or above.").
		Default("info").Enum("debug", "info", "warn", "error")
	app.PreAction(func(*kingpin.ParseContext) error {
		logger = newLogger(*logLevel)
		return nil
	})

	addRunCommand(app)
	addBenchCommand(app)
	addInfoCommand(app)

	if _, err := app.Parse(os.Args[1:]); err != nil {
		exitWithErr(err)
	}
}

func newLogger(lvl string) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = level.NewFilter(l, levelOption(lvl))
	return log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func levelOption(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, "maskfilter:", err)
	os.Exit(1)
}
