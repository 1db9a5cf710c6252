// Package codec encodes and decodes logcask log records.
//
// One record is one newline-terminated JSON object. JSON string escaping
// guarantees that no literal newline can appear inside a record, so the
// newline is an unambiguous frame boundary.
//
// Record Format:
//
//	{"type":"write","key":K,"value":V[,"enc":CODEC][,"sum":ALG:HEX]}
//	{"type":"remove","key":K[,"sum":ALG:HEX]}
//
// When "enc" names a compression codec, "value" holds the base64 of the
// compressed bytes. The "sum" seal always covers the logical payload
// (type, key, uncompressed value), so records can be copied verbatim
// between log files during compaction without resealing.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aalhour/logcask/internal/checksum"
	"github.com/aalhour/logcask/internal/compression"
)

// ErrCorrupt indicates a log line that does not parse as a valid record.
// Errors returned by Decode wrap ErrCorrupt with detail.
var ErrCorrupt = errors.New("codec: corrupted record")

// Command types as stored in the "type" field.
// These values are embedded in the on-disk format and MUST NOT change.
const (
	TypeWrite  = "write"
	TypeRemove = "remove"
)

// Command is one logged intent: a write of key to value, or a removal of key.
type Command struct {
	Type  string
	Key   string
	Value string
}

// Write returns a write command for key and value.
func Write(key, value string) Command {
	return Command{Type: TypeWrite, Key: key, Value: value}
}

// Remove returns a remove (tombstone) command for key.
func Remove(key string) Command {
	return Command{Type: TypeRemove, Key: key}
}

// IsWrite reports whether the command is a write.
func (c Command) IsWrite() bool { return c.Type == TypeWrite }

// IsRemove reports whether the command is a tombstone.
func (c Command) IsRemove() bool { return c.Type == TypeRemove }

// record is the wire shape of a command.
type record struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	Enc   string `json:"enc,omitempty"`
	Sum   string `json:"sum,omitempty"`
}

// Codec encodes commands with a fixed compression and checksum
// configuration. Decoding is configuration-independent: every record
// carries enough information to decode itself.
type Codec struct {
	compression compression.Type
	checksum    checksum.Type
}

// New returns a codec that compresses values with comp and seals records
// with sum. checksum.TypeNone disables sealing.
func New(comp compression.Type, sum checksum.Type) (*Codec, error) {
	if !comp.IsSupported() {
		return nil, fmt.Errorf("codec: unsupported compression type %s", comp)
	}
	if !sum.IsSupported() {
		return nil, fmt.Errorf("codec: unsupported checksum type %s", sum)
	}
	return &Codec{compression: comp, checksum: sum}, nil
}

// Encode serializes a command as one newline-terminated line.
func (c *Codec) Encode(cmd Command) ([]byte, error) {
	rec := record{Type: cmd.Type, Key: cmd.Key}

	switch cmd.Type {
	case TypeWrite:
		rec.Value = cmd.Value
		if c.compression != compression.NoCompression {
			compressed, err := compression.Compress(c.compression, []byte(cmd.Value))
			if err != nil {
				return nil, fmt.Errorf("codec: compress value: %w", err)
			}
			rec.Enc = c.compression.String()
			rec.Value = base64.StdEncoding.EncodeToString(compressed)
		}
	case TypeRemove:
		// Tombstones carry no value.
	default:
		return nil, fmt.Errorf("codec: unknown command type %q", cmd.Type)
	}

	if c.checksum != checksum.TypeNone {
		rec.Sum = seal(c.checksum, cmd)
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal record: %w", err)
	}
	return append(line, '\n'), nil
}

// Decode parses one log line back into a command. The line may carry its
// trailing newline. Decode verifies the integrity seal when present.
func (c *Codec) Decode(line []byte) (Command, error) {
	line = bytes.TrimRight(line, "\n")
	if len(line) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrCorrupt)
	}

	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	cmd := Command{Type: rec.Type, Key: rec.Key}
	switch rec.Type {
	case TypeWrite:
		value, err := decodeValue(rec)
		if err != nil {
			return Command{}, err
		}
		cmd.Value = value
	case TypeRemove:
	default:
		return Command{}, fmt.Errorf("%w: unknown command type %q", ErrCorrupt, rec.Type)
	}

	if rec.Sum != "" {
		if err := verifySeal(rec.Sum, cmd); err != nil {
			return Command{}, err
		}
	}
	return cmd, nil
}

// decodeValue recovers the logical value, decompressing when the record
// names a codec.
func decodeValue(rec record) (string, error) {
	enc, err := compression.Parse(rec.Enc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if enc == compression.NoCompression {
		return rec.Value, nil
	}

	compressed, err := base64.StdEncoding.DecodeString(rec.Value)
	if err != nil {
		return "", fmt.Errorf("%w: bad base64 value: %v", ErrCorrupt, err)
	}
	value, err := compression.Decompress(enc, compressed)
	if err != nil {
		return "", fmt.Errorf("%w: decompress value: %v", ErrCorrupt, err)
	}
	return string(value), nil
}

// seal computes the integrity seal for a command: the checksum of the
// logical payload, prefixed with the algorithm name.
func seal(t checksum.Type, cmd Command) string {
	return t.String() + ":" + strconv.FormatUint(checksum.Sum(t, payload(cmd)), 16)
}

// verifySeal checks a record's seal against its decoded command.
func verifySeal(s string, cmd Command) error {
	name, hexSum, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("%w: malformed seal %q", ErrCorrupt, s)
	}
	var t checksum.Type
	switch name {
	case checksum.TypeCRC32C.String():
		t = checksum.TypeCRC32C
	case checksum.TypeXXH3.String():
		t = checksum.TypeXXH3
	default:
		return fmt.Errorf("%w: unknown seal algorithm %q", ErrCorrupt, name)
	}
	want, err := strconv.ParseUint(hexSum, 16, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed seal %q", ErrCorrupt, s)
	}
	if got := checksum.Sum(t, payload(cmd)); got != want {
		return fmt.Errorf("%w: seal mismatch: computed %x, recorded %x", ErrCorrupt, got, want)
	}
	return nil
}

// payload is the byte sequence covered by the seal. NUL separators keep
// ("ab","c") and ("a","bc") distinct.
func payload(cmd Command) []byte {
	p := make([]byte, 0, len(cmd.Type)+len(cmd.Key)+len(cmd.Value)+2)
	p = append(p, cmd.Type...)
	p = append(p, 0)
	p = append(p, cmd.Key...)
	p = append(p, 0)
	p = append(p, cmd.Value...)
	return p
}
