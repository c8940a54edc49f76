// Package compression wraps the codecs used for stored snapshots.
package compression

import (
	"errors"
	"fmt"
)

const (
	CodecZstd = "zstd"
	CodecGzip = "gzip"
)

// MaxDecodedSize bounds what Decompress will inflate. A post list snapshot is far below it,
// so anything larger is a corrupt or foreign payload.
const MaxDecodedSize = 64 << 20

var (
	// ErrCorrupt is wrapped by Decompress when the input is not a payload of that codec.
	ErrCorrupt = errors.New("corrupt compressed payload")
	// ErrTooLarge is wrapped by Decompress when the payload inflates past MaxDecodedSize.
	ErrTooLarge = errors.New("decompressed payload too large")

	ErrUnknownCodec = errors.New("unknown codec")
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var (
	_ Compressor = ZstdCompressor{}
	_ Compressor = GzipCompressor{}
)

// ForName returns the codec called name. An empty name selects zstd.
func ForName(name string) (Compressor, error) {
	switch name {
	case CodecZstd, "":
		return ZstdCompressor{}, nil
	case CodecGzip:
		return GzipCompressor{}, nil
	}
	return nil, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownCodec, name, CodecZstd, CodecGzip)
}
