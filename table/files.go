/*
 * files.go, part of goconf.
 *
 *
 * Copyright 2021 Raul Mera rauldotmeraatusachdotcl
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 *
 */

package table

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var escaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

//Read reads a table from tab-separated text. The first line has the column names.
//Tabs, newlines and backslashes in cells are escaped with a backslash.
func Read(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	var T *Table
	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("table: line %d: %w", n, err)
		}
		atEOF := errors.Is(err, io.EOF)
		line = strings.TrimRight(line, "\r\n")
		//empty lines are rows with empty cells, except before the header and at the end
		if !(line == "" && (T == nil || atEOF)) {
			fields := strings.Split(line, "\t")
			for i := range fields {
				fields[i] = unescape(fields[i])
			}
			if T == nil {
				if T, err = New(fields...); err != nil {
					return nil, fmt.Errorf("table: header: %w", err)
				}
			} else {
				T.AddRow(fields...)
			}
		}
		if atEOF {
			break
		}
	}
	if T == nil {
		return nil, errors.New("table: no header")
	}
	return T, nil
}

//Write writes T as tab-separated text.
func Write(w io.Writer, T *Table) error {
	bw := bufio.NewWriter(w)
	writeLine := func(fields []string) {
		for i, v := range fields {
			if i > 0 {
				bw.WriteByte('\t')
			}
			escaper.WriteString(bw, v)
		}
		bw.WriteByte('\n')
	}
	T.mu.RLock()
	writeLine(T.columns)
	for _, r := range T.rows {
		writeLine(r)
	}
	T.mu.RUnlock()
	return bw.Flush()
}

//zstdReadCloser closes the decoder, which doesn't implement io.ReadCloser.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func newReader(name string, f io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		d, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewReader(f)
	default:
		return io.NopCloser(f), nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newWriter(name string, f io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		return zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewWriterLevel(f, gzip.BestCompression)
	default:
		return nopWriteCloser{f}, nil
	}
}

//ReadFile reads a table from the file name. Files ending in .zst are decompressed with
//zstd, files ending in .gz with gzip.
func ReadFile(name string) (*Table, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	defer f.Close()
	r, err := newReader(strings.ToLower(name), bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("table: %s: %w", name, err)
	}
	defer r.Close()
	T, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return T, nil
}

//WriteFile writes T to the file name, which is created or truncated, compressing it
//according to the extension, as in ReadFile.
func WriteFile(name string, T *Table) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("table: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("table: %w", cerr)
		}
	}()
	w, err := newWriter(strings.ToLower(name), f)
	if err != nil {
		return fmt.Errorf("table: %s: %w", name, err)
	}
	if err := Write(w, T); err != nil {
		w.Close()
		return fmt.Errorf("table: %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("table: %s: %w", name, err)
	}
	return nil
}
