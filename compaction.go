package logcask

// compaction.go reclaims log space held by superseded records and
// tombstones by rewriting the log with only the live records.

import (
	"fmt"
	"path/filepath"

	"github.com/aalhour/logcask/internal/keydir"
	"github.com/aalhour/logcask/internal/logfile"
	"github.com/aalhour/logcask/internal/logging"
)

// Compact rewrites the log to contain exactly one write record per live
// key and atomically replaces the old log. The keydir is rebuilt from the
// new file, since every offset changes.
//
// If the rewrite fails at any point before the final rename, the old log
// remains untouched and authoritative.
func (s *Store) Compact() error {
	if s.closed {
		return ErrStoreClosed
	}
	return s.compact()
}

// maybeCompact applies the compaction trigger policy after a mutation.
//
// With CompactionThreshold <= 0 every mutation compacts (the baseline
// policy: correct, throughput-poor). Otherwise compaction runs when the
// stale fraction of the log crosses the threshold and the log has reached
// CompactionMinBytes.
func (s *Store) maybeCompact() error {
	t := s.opts.CompactionThreshold
	if t <= 0 {
		return s.compact()
	}
	size := s.log.Size()
	if size < s.opts.CompactionMinBytes {
		return nil
	}
	stale := size - s.keys.LiveBytes()
	if float64(stale)/float64(size) < t {
		return nil
	}
	s.logger.Debugf(logging.NSCompact+"stale fraction %.2f over threshold %.2f",
		float64(stale)/float64(size), t)
	return s.compact()
}

func (s *Store) compact() error {
	oldSize := s.log.Size()
	tmpPath := filepath.Join(s.dir, compactFileName)
	logPath := filepath.Join(s.dir, logFileName)

	if err := s.writeRewrite(tmpPath); err != nil {
		// The old log has not been touched; drop the partial rewrite.
		_ = s.opts.FS.Remove(tmpPath)
		return err
	}

	// Rename-over-existing is atomic on the same filesystem: no reader
	// ever observes a partially-written log under the canonical path.
	if err := s.opts.FS.Rename(tmpPath, logPath); err != nil {
		_ = s.opts.FS.Remove(tmpPath)
		return fmt.Errorf("logcask: swap compacted log: %w", err)
	}
	if err := s.opts.FS.SyncDir(s.dir); err != nil {
		return fmt.Errorf("logcask: sync store directory: %w", err)
	}

	// The old handle still addresses the replaced file; reopen against
	// the now-current path and rebuild, since every offset moved.
	if err := s.log.Close(); err != nil {
		return err
	}
	log, err := logfile.Open(s.opts.FS, logPath)
	if err != nil {
		return err
	}
	s.log = log
	if err := s.rebuild(); err != nil {
		return err
	}

	s.logger.Infof(logging.NSCompact+"rewrote %d live records, %d -> %d bytes",
		s.keys.Len(), oldSize, log.Size())
	return nil
}

// writeRewrite copies every live record, unchanged, from the current log
// into a new file at tmpPath and syncs it.
func (s *Store) writeRewrite(tmpPath string) error {
	f, err := s.opts.FS.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("logcask: create rewrite file: %w", err)
	}

	var copyErr error
	s.keys.Range(func(key string, e keydir.Entry) bool {
		line, err := s.log.ReadAt(e.Offset)
		if err != nil {
			copyErr = fmt.Errorf("logcask: reread %q at offset %d: %w", key, e.Offset, err)
			return false
		}
		if _, err := f.Write(line); err != nil {
			copyErr = fmt.Errorf("logcask: write rewrite file: %w", err)
			return false
		}
		return true
	})
	if copyErr != nil {
		_ = f.Close()
		return copyErr
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("logcask: sync rewrite file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("logcask: close rewrite file: %w", err)
	}
	return nil
}
