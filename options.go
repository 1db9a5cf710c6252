package logcask

// options.go implements store configuration options.

import (
	"fmt"

	"github.com/aalhour/logcask/internal/checksum"
	"github.com/aalhour/logcask/internal/compression"
	"github.com/aalhour/logcask/internal/logging"
	"github.com/aalhour/logcask/vfs"
)

// Logger is an alias for the logging.Logger interface.
// This allows users to pass their own logger implementation.
type Logger = logging.Logger

// CompressionType is an alias for the compression type.
type CompressionType = compression.Type

// Compression type constants.
const (
	CompressionNone   = compression.NoCompression
	CompressionSnappy = compression.SnappyCompression
	CompressionZlib   = compression.ZlibCompression
	CompressionLZ4    = compression.LZ4Compression
	CompressionZstd   = compression.ZstdCompression
)

// ChecksumType is an alias for the checksum type.
type ChecksumType = checksum.Type

// Checksum type constants.
const (
	ChecksumNone   = checksum.TypeNone
	ChecksumCRC32C = checksum.TypeCRC32C
	ChecksumXXH3   = checksum.TypeXXH3
)

// Options controls how a store is opened and operated.
//
// The zero value reproduces the baseline engine: uncompressed unsealed
// records and a full compaction after every single mutation.
// DefaultOptions returns the recommended configuration instead: sealed
// records and threshold-triggered compaction.
type Options struct {
	// Logger receives store, replay, and compaction events.
	// Defaults to a WARN-level stderr logger.
	Logger Logger

	// FS is the filesystem the store operates on.
	// Defaults to the OS filesystem.
	FS vfs.FS

	// SyncWrites fsyncs the log after every mutation. Without it the
	// append is still the unit of durability, but persistence follows
	// the operating system's writeback.
	SyncWrites bool

	// Compression is applied to record values before they are logged.
	Compression CompressionType

	// Checksum seals every record with an integrity checksum that is
	// verified on read. ChecksumNone disables sealing.
	Checksum ChecksumType

	// CompactionThreshold is the stale-byte fraction of the log above
	// which a mutation triggers compaction. Zero or negative compacts
	// after every mutation (the baseline policy).
	CompactionThreshold float64

	// CompactionMinBytes is the minimum log size before the threshold
	// policy considers compacting. Ignored by the baseline policy.
	CompactionMinBytes int64
}

// Default compaction policy used by DefaultOptions.
const (
	defaultCompactionThreshold = 0.5
	defaultCompactionMinBytes  = 1 << 20 // 1 MiB
)

// DefaultOptions returns the recommended store configuration.
func DefaultOptions() *Options {
	return &Options{
		Checksum:            ChecksumXXH3,
		CompactionThreshold: defaultCompactionThreshold,
		CompactionMinBytes:  defaultCompactionMinBytes,
	}
}

// sanitize validates opts and fills in defaults, returning a private copy.
// A nil opts means DefaultOptions.
func (o *Options) sanitize() (*Options, error) {
	var s Options
	if o == nil {
		s = *DefaultOptions()
	} else {
		s = *o
	}
	s.Logger = logging.OrDefault(s.Logger)
	if s.FS == nil {
		s.FS = vfs.Default()
	}
	if !s.Compression.IsSupported() {
		return nil, fmt.Errorf("logcask: unsupported compression type %s", s.Compression)
	}
	if !s.Checksum.IsSupported() {
		return nil, fmt.Errorf("logcask: unsupported checksum type %s", s.Checksum)
	}
	return &s, nil
}
