// Package fileio reads and writes files on the local disk and stores blobs
// through the Storage interface.
package fileio

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sarchlab/heartbeat/logging"
)

// ReadFile returns the whole content of a file.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}

// WriteString appends input to a file, creating it if needed. If newLine is
// set, a line break follows input. If returnOutput is set, the whole content
// of the file is read back and returned.
func WriteString(path, input string, newLine, returnOutput bool) (string, error) {
	return writeString(path, input, os.O_APPEND, newLine, returnOutput)
}

// WriteAllString replaces the content of a file with input. The newLine and
// returnOutput flags work as in WriteString.
func WriteAllString(path, input string, newLine, returnOutput bool) (string, error) {
	return writeString(path, input, os.O_TRUNC, newLine, returnOutput)
}

func writeString(
	path, input string,
	mode int,
	newLine, returnOutput bool,
) (string, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	if newLine {
		input += "\n"
	}

	_, err = f.WriteString(input)
	closeErr := f.Close()

	if err = errors.Join(err, closeErr); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if !returnOutput {
		return "", nil
	}

	return ReadFile(path)
}

// WriteBinary encodes v into a file with encoding/gob. If appendTo is set,
// the value is appended to the file as an independent stream; otherwise the
// file is replaced.
func WriteBinary[T any](path string, v T, appendTo bool) error {
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendTo {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	err = gob.NewEncoder(f).Encode(v)
	closeErr := f.Close()

	if err = errors.Join(err, closeErr); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return nil
}

// ReadBinary decodes the first value written to a file by WriteBinary.
func ReadBinary[T any](path string) (T, error) {
	var v T

	f, err := os.Open(path)
	if err != nil {
		return v, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&v); err != nil {
		return v, fmt.Errorf("decode %s: %w", path, err)
	}

	return v, nil
}

// ReadAllBinary decodes every value appended to a file by WriteBinary.
func ReadAllBinary[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// A bufio.Reader is an io.ByteReader, so each decoder consumes exactly
	// one stream and the next decoder starts where it stopped.
	r := bufio.NewReader(f)

	var values []T

	for {
		if _, err := r.Peek(1); err == io.EOF {
			return values, nil
		}

		var v T
		if err := gob.NewDecoder(r).Decode(&v); err != nil {
			return values, fmt.Errorf("decode %s: %w", path, err)
		}

		values = append(values, v)
	}
}

// DeleteFile removes a file. Failures are logged and returned; removing a
// file that does not exist is not a failure.
func DeleteFile(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}

	slog.Default().Error("unable to delete file",
		logging.Component("fileio"),
		"path", path,
		"error", err,
	)

	return fmt.Errorf("delete %s: %w", path, err)
}
