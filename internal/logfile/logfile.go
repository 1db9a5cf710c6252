// Package logfile owns the on-disk command log: an append-only file of
// newline-delimited records addressed by byte offset.
//
// The log knows nothing about record contents. Framing is the newline;
// parsing is the codec's job. Offsets returned by Append are stable until
// the file is rewritten by compaction.
package logfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/aalhour/logcask/vfs"
)

// Log is a handle on one log file, opened for append and offset reads.
// It is owned by a single store instance and is not safe for concurrent use.
type Log struct {
	fs   vfs.FS
	path string
	f    vfs.LogFile
	size int64
}

// Open opens the log file at path for appending and offset reads, creating
// it if absent.
func Open(fs vfs.FS, path string) (*Log, error) {
	f, err := fs.OpenAppend(path)
	if err != nil {
		return nil, fmt.Errorf("logfile: open %s: %w", path, err)
	}
	size, err := f.Size()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("logfile: stat %s: %w", path, err)
	}
	return &Log{fs: fs, path: path, f: f, size: size}, nil
}

// Path returns the file path the log was opened against.
func (l *Log) Path() string {
	return l.path
}

// Size returns the current log size in bytes.
func (l *Log) Size() int64 {
	return l.size
}

// Append writes one record at end-of-file and returns the byte offset at
// which it begins.
func (l *Log) Append(record []byte) (int64, error) {
	offset := l.size
	n, err := l.f.Write(record)
	l.size += int64(n)
	if err != nil {
		return 0, fmt.Errorf("logfile: append: %w", err)
	}
	return offset, nil
}

// Sync flushes appended records to stable storage.
func (l *Log) Sync() error {
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("logfile: sync: %w", err)
	}
	return nil
}

// ReadAt reads the single record beginning at offset, returning the raw
// line including its trailing newline if present. Returns io.EOF when
// offset is at or beyond end-of-file.
func (l *Log) ReadAt(offset int64) ([]byte, error) {
	if offset >= l.size {
		return nil, io.EOF
	}
	r := bufio.NewReader(io.NewSectionReader(l.f, offset, l.size-offset))
	line, err := r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("logfile: read at %d: %w", offset, err)
	}
	if len(line) == 0 {
		return nil, io.EOF
	}
	return line, nil
}

// Replay scans the log from the beginning, calling fn with each record and
// the offset at which it starts. A trailing line with no newline is an
// interrupted append: replay stops silently before it. An error from fn
// aborts the scan and is returned unchanged.
func (l *Log) Replay(fn func(offset int64, line []byte) error) error {
	r := bufio.NewReader(io.NewSectionReader(l.f, 0, l.size))
	var offset int64
	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// Either a clean end or an unterminated trailing line.
			return nil
		}
		if err != nil {
			return fmt.Errorf("logfile: replay at %d: %w", offset, err)
		}
		if err := fn(offset, line); err != nil {
			return err
		}
		offset += int64(len(line))
	}
}

// Close closes the underlying file handle.
func (l *Log) Close() error {
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("logfile: close: %w", err)
	}
	return nil
}
