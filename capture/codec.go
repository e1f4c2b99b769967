// Package capture records serial traffic for later inspection. A Sink
// accumulates timestamped, direction-tagged lines during a session; the
// result can be serialized to a compact capture stream, optionally
// compressed, and replayed back into records.
package capture

import (
	"fmt"

	"github.com/tokenline/tokenline/errs"
)

// CodecType selects the compression applied to a capture stream.
type CodecType uint8

const (
	CodecNone CodecType = 0x1 // CodecNone stores the stream uncompressed.
	CodecS2   CodecType = 0x2 // CodecS2 applies S2 compression.
	CodecLZ4  CodecType = 0x3 // CodecLZ4 applies LZ4 block compression.
	CodecZstd CodecType = 0x4 // CodecZstd applies Zstandard compression.
)

// String returns the codec name.
func (t CodecType) String() string {
	switch t {
	case CodecNone:
		return "None"
	case CodecS2:
		return "S2"
	case CodecLZ4:
		return "LZ4"
	case CodecZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}

// ParseCodecType maps a configuration string to a codec type.
func ParseCodecType(s string) (CodecType, error) {
	switch s {
	case "", "none":
		return CodecNone, nil
	case "s2":
		return CodecS2, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrUnknownCodec, s)
	}
}

// Codec compresses and decompresses capture payloads.
type Codec interface {
	// Compress compresses data into a newly allocated slice.
	Compress(data []byte) ([]byte, error)

	// Decompress recovers the original payload from compressed data.
	Decompress(data []byte) ([]byte, error)
}

// newCodec instantiates the codec for a stream type.
func newCodec(t CodecType) (Codec, error) {
	switch t {
	case CodecNone:
		return NoopCodec{}, nil
	case CodecS2:
		return S2Codec{}, nil
	case CodecLZ4:
		return LZ4Codec{}, nil
	case CodecZstd:
		return ZstdCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: type 0x%02x", errs.ErrUnknownCodec, uint8(t))
	}
}
