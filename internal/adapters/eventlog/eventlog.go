// Package eventlog reads and writes observed event logs: one "<offset>,<name>"
// record per line, no header and no escaping.
package eventlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/pkg/errkind"
)

const maxLineBytes = 1 << 20

// Read parses every non-blank line of r in file order. The offset and name are
// split on the first comma; the name is trimmed and must not be empty.
func Read(ctx context.Context, r io.Reader) ([]model.Sample, error) {
	const op = "eventlog.read"
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	out := make([]model.Sample, 0, 128)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, errkind.WrapKind(op, errkind.ErrInternal, err)
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		s, err := ParseLine(text)
		if err != nil {
			return nil, errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("line %d: %w", line, err))
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("line %d: %w", line+1, err))
		}
		return nil, errkind.WrapKind(op, errkind.ErrInternal, err)
	}
	return out, nil
}

// ParseLine parses a single "<offset>,<name>" record. Errors never quote the
// line, since logs may be read from files the caller should not see.
func ParseLine(text string) (model.Sample, error) {
	rawOffset, name, ok := strings.Cut(text, ",")
	if !ok {
		return model.Sample{}, fmt.Errorf("%w: missing comma", ErrMalformedLine)
	}
	off, err := strconv.Atoi(strings.TrimSpace(rawOffset))
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: offset is not an integer", ErrMalformedLine)
	}
	if off < 0 {
		return model.Sample{}, fmt.Errorf("%w: negative offset %d", ErrMalformedLine, off)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Sample{}, fmt.Errorf("%w: empty name", ErrMalformedLine)
	}
	return model.Sample{Offset: off, Name: name}, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(ctx context.Context, path string) ([]model.Sample, error) {
	const op = "eventlog.read_file"
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errkind.WrapKind(op, errkind.ErrNotFound, fmt.Errorf("%w: %s", ErrFileNotFound, path))
		}
		return nil, errkind.WrapKind(op, errkind.ErrInternal, err)
	}
	defer f.Close()

	samples, err := Read(ctx, f)
	if err != nil {
		return nil, errkind.Wrap(op, fmt.Errorf("%s: %w", path, err))
	}
	return samples, nil
}

// Write renders samples in the format Read accepts.
func Write(w io.Writer, samples []model.Sample) error {
	const op = "eventlog.write"
	bw := bufio.NewWriter(w)
	for _, s := range samples {
		if _, err := fmt.Fprintf(bw, "%d,%s\n", s.Offset, s.Name); err != nil {
			return errkind.WrapKind(op, errkind.ErrInternal, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errkind.WrapKind(op, errkind.ErrInternal, err)
	}
	return nil
}

// WriteFile creates or truncates path and writes samples to it.
func WriteFile(path string, samples []model.Sample) (err error) {
	const op = "eventlog.write_file"
	f, err := os.Create(path)
	if err != nil {
		return errkind.WrapKind(op, errkind.ErrInternal, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errkind.WrapKind(op, errkind.ErrInternal, cerr)
		}
	}()
	return Write(f, samples)
}
