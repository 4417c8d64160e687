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
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// codec names the compression applied to a file, chosen by its extension.
type codec int

const (
	codecRaw codec = iota
	codecZstd
	codecLZ4
)

func codecFor(name string) codec {
	switch filepath.Ext(name) {
	case ".zst", ".zstd":
		return codecZstd
	case ".lz4":
		return codecLZ4
	default:
		return codecRaw
	}
}

func (c codec) String() string {
	switch c {
	case codecZstd:
		return "zstd"
	case codecLZ4:
		return "lz4"
	default:
		return "raw"
	}
}

// readFile returns the decompressed contents of name.
func readFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	b, err := decode(codecFor(name), f)
	return b, errors.Wrapf(err, "reading %s", name)
}

// writeFile stores b in name, compressed according to its extension.
func writeFile(name string, b []byte) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := encode(codecFor(name), f, b); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	return f.Close()
}

func decode(c codec, r io.Reader) ([]byte, error) {
	switch c {
	case codecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return io.ReadAll(dec)
	case codecLZ4:
		return io.ReadAll(lz4.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

func encode(c codec, w io.Writer, b []byte) error {
	switch c {
	case codecZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := io.Copy(enc, bytes.NewReader(b)); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	case codecLZ4:
		zw := lz4.NewWriter(w)
		if _, err := io.Copy(zw, bytes.NewReader(b)); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	default:
		_, err := w.Write(b)
		return err
	}
}
