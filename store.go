package logcask

// store.go implements the store facade: open, get, set, remove, close.

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aalhour/logcask/internal/codec"
	"github.com/aalhour/logcask/internal/keydir"
	"github.com/aalhour/logcask/internal/logfile"
	"github.com/aalhour/logcask/internal/logging"
)

// Fixed filenames inside the store directory.
const (
	logFileName     = "db.jsonl"
	lockFileName    = "LOCK"
	compactFileName = "db.jsonl.compact"
)

// Common errors returned by store operations.
var (
	// ErrNotFound is returned by Get when a key has no live value and by
	// Remove when asked to remove an absent key.
	ErrNotFound = errors.New("logcask: key not found")

	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("logcask: store is closed")

	// ErrLocked is returned by Open when another process holds the
	// store directory.
	ErrLocked = errors.New("logcask: store directory locked by another process")
)

// ErrCorrupt is the sentinel wrapped by errors reporting a log record that
// does not decode. Use errors.Is(err, ErrCorrupt) to detect corruption.
var ErrCorrupt = codec.ErrCorrupt

// Store is a log-structured key/value store over a single directory.
//
// A Store exclusively owns its log file and keydir for its entire
// lifetime. It is NOT safe for concurrent use; see the package
// documentation.
type Store struct {
	opts   *Options
	dir    string
	lock   io.Closer
	log    *logfile.Log
	keys   *keydir.Dir
	codec  *codec.Codec
	logger Logger
	closed bool
}

// Open opens the store in dir, creating the directory and log file if
// absent, and rebuilds the keydir by replaying the log. A nil opts means
// DefaultOptions.
func Open(dir string, opts *Options) (*Store, error) {
	opts, err := opts.sanitize()
	if err != nil {
		return nil, err
	}
	if err := opts.FS.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logcask: create store directory: %w", err)
	}

	lock, err := opts.FS.Lock(filepath.Join(dir, lockFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocked, err)
	}

	c, err := codec.New(opts.Compression, opts.Checksum)
	if err != nil {
		_ = lock.Close()
		return nil, err
	}

	log, err := logfile.Open(opts.FS, filepath.Join(dir, logFileName))
	if err != nil {
		_ = lock.Close()
		return nil, err
	}

	s := &Store{
		opts:   opts,
		dir:    dir,
		lock:   lock,
		log:    log,
		keys:   keydir.New(),
		codec:  c,
		logger: opts.Logger,
	}
	if err := s.rebuild(); err != nil {
		_ = log.Close()
		_ = lock.Close()
		return nil, err
	}
	s.logger.Infof(logging.NSStore+"opened %s: %d keys, %d log bytes",
		dir, s.keys.Len(), log.Size())
	return s, nil
}

// Get returns the current value for key.
// Returns ErrNotFound if the key has no live value.
// A record at the indexed offset that fails to decode is reported as an
// error wrapping ErrCorrupt: the keydir only holds offsets it has itself
// verified, so a decode failure there means the log changed underneath us.
func (s *Store) Get(key string) (string, error) {
	if s.closed {
		return "", ErrStoreClosed
	}
	e, ok := s.keys.Get(key)
	if !ok {
		return "", ErrNotFound
	}

	line, err := s.log.ReadAt(e.Offset)
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: index offset %d beyond end of log", ErrCorrupt, e.Offset)
	}
	if err != nil {
		return "", err
	}
	cmd, err := s.codec.Decode(line)
	if err != nil {
		return "", fmt.Errorf("logcask: record at offset %d: %w", e.Offset, err)
	}
	if cmd.IsRemove() || cmd.Key != key {
		// Should not occur under correct keydir maintenance.
		return "", ErrNotFound
	}
	return cmd.Value, nil
}

// Set records that key now maps to value. Overwriting an existing key is
// permitted and supersedes the prior record.
func (s *Store) Set(key, value string) error {
	if s.closed {
		return ErrStoreClosed
	}
	if err := s.appendCommand(codec.Write(key, value)); err != nil {
		return err
	}
	return s.maybeCompact()
}

// Remove deletes key from the store by logging a tombstone.
// Returns ErrNotFound if the key has no live value.
func (s *Store) Remove(key string) error {
	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.keys.Get(key); !ok {
		return ErrNotFound
	}
	if err := s.appendCommand(codec.Remove(key)); err != nil {
		return err
	}
	return s.maybeCompact()
}

// Close releases the store's log handle and directory lock.
// Operations on a closed store return ErrStoreClosed.
func (s *Store) Close() error {
	if s.closed {
		return ErrStoreClosed
	}
	s.closed = true

	closeErr := s.log.Close()
	if err := s.lock.Close(); err != nil && closeErr == nil {
		closeErr = fmt.Errorf("logcask: release lock: %w", err)
	}
	s.logger.Infof(logging.NSStore+"closed %s", s.dir)
	return closeErr
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	return s.keys.Len()
}

// LogSize returns the current size of the log file in bytes.
func (s *Store) LogSize() int64 {
	return s.log.Size()
}

// appendCommand encodes cmd, appends it to the log, and applies it to the
// keydir.
func (s *Store) appendCommand(cmd codec.Command) error {
	line, err := s.codec.Encode(cmd)
	if err != nil {
		return err
	}
	offset, err := s.log.Append(line)
	if err != nil {
		return err
	}
	if s.opts.SyncWrites {
		if err := s.log.Sync(); err != nil {
			return err
		}
	}
	s.apply(cmd, keydir.Entry{Offset: offset, Len: int64(len(line))})
	return nil
}

// apply updates the keydir with one command.
func (s *Store) apply(cmd codec.Command, e keydir.Entry) {
	if cmd.IsWrite() {
		s.keys.Put(cmd.Key, e)
	} else {
		s.keys.Delete(cmd.Key)
	}
}

// rebuild clears the keydir and replays the entire log into it.
// Individual records that fail to decode are skipped with a warning:
// a torn line must not take the rest of the store down with it.
func (s *Store) rebuild() error {
	s.keys.Reset()
	skipped := 0
	err := s.log.Replay(func(offset int64, line []byte) error {
		cmd, err := s.codec.Decode(line)
		if err != nil {
			skipped++
			s.logger.Warnf(logging.NSReplay+"skipping record at offset %d: %v", offset, err)
			return nil
		}
		s.apply(cmd, keydir.Entry{Offset: offset, Len: int64(len(line))})
		return nil
	})
	if err != nil {
		return err
	}
	if skipped > 0 {
		s.logger.Warnf(logging.NSReplay+"skipped %d undecodable records in %s", skipped, s.log.Path())
	}
	return nil
}
