package logcask

// options_file.go loads store options from a YAML file, for tools that
// configure the store without code (the CLI's --config flag).

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aalhour/logcask/internal/logging"
)

// optionsFile is the YAML shape of an options file. Fields that cannot be
// expressed in configuration (Logger, FS) are set programmatically.
type optionsFile struct {
	SyncWrites          bool    `yaml:"sync_writes"`
	Compression         string  `yaml:"compression"`
	Checksum            string  `yaml:"checksum"`
	CompactionThreshold float64 `yaml:"compaction_threshold"`
	CompactionMinBytes  int64   `yaml:"compaction_min_bytes"`
	LogLevel            string  `yaml:"log_level"`
}

// LoadOptions reads an options file and merges it over DefaultOptions.
// Absent fields keep their defaults.
//
// Example file:
//
//	sync_writes: true
//	compression: zstd
//	checksum: xxh3
//	compaction_threshold: 0.5
//	compaction_min_bytes: 1048576
//	log_level: info
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("logcask: read options file: %w", err)
	}

	var file optionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("logcask: parse options file: %w", err)
	}

	opts := DefaultOptions()
	opts.SyncWrites = file.SyncWrites
	if file.Compression != "" {
		opts.Compression, err = parseCompression(file.Compression)
		if err != nil {
			return nil, err
		}
	}
	if file.Checksum != "" {
		opts.Checksum, err = parseChecksum(file.Checksum)
		if err != nil {
			return nil, err
		}
	}
	if file.CompactionThreshold != 0 {
		opts.CompactionThreshold = file.CompactionThreshold
	}
	if file.CompactionMinBytes != 0 {
		opts.CompactionMinBytes = file.CompactionMinBytes
	}
	if file.LogLevel != "" {
		level, err := parseLogLevel(file.LogLevel)
		if err != nil {
			return nil, err
		}
		opts.Logger = logging.NewDefaultLogger(level)
	}
	return opts, nil
}

func parseCompression(name string) (CompressionType, error) {
	switch strings.ToLower(name) {
	case "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "zlib":
		return CompressionZlib, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("logcask: unknown compression %q", name)
	}
}

func parseChecksum(name string) (ChecksumType, error) {
	switch strings.ToLower(name) {
	case "none":
		return ChecksumNone, nil
	case "crc32c":
		return ChecksumCRC32C, nil
	case "xxh3":
		return ChecksumXXH3, nil
	default:
		return ChecksumNone, fmt.Errorf("logcask: unknown checksum %q", name)
	}
}

func parseLogLevel(name string) (logging.Level, error) {
	switch strings.ToLower(name) {
	case "error":
		return logging.LevelError, nil
	case "warn":
		return logging.LevelWarn, nil
	case "info":
		return logging.LevelInfo, nil
	case "debug":
		return logging.LevelDebug, nil
	default:
		return logging.LevelError, fmt.Errorf("logcask: unknown log level %q", name)
	}
}
