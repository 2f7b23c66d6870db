package store

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
)

// Encoding names how a record's data is stored.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingZstd Encoding = "zstd"
)

// Content smaller than this is never compressed.
const minCompressSize = 512

// EncodeAll and DecodeAll are safe for concurrent use, so one encoder and
// one decoder serve every store.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// Codec encodes document content for storage.
type Codec struct {
	// Compress enables zstd for content of at least 512 bytes.
	Compress bool
}

// Encode returns the stored form of content.
func (c Codec) Encode(content []byte) ([]byte, Encoding, error) {
	if !c.Compress || len(content) < minCompressSize {
		return content, EncodingJSON, nil
	}
	return encoder.EncodeAll(content, make([]byte, 0, len(content)/4)), EncodingZstd, nil
}

// Decode reverses Encode. It accepts either encoding whatever c.Compress
// says, so compression can be switched on for an existing store.
func (c Codec) Decode(data []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingJSON, "":
		return data, nil
	case EncodingZstd:
		out, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}

// Digest returns the BLAKE3 digest of content, prefixed with the algorithm.
// Insignificant JSON whitespace does not change the digest.
func Digest(content []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err == nil {
		content = buf.Bytes()
	}
	sum := blake3.Sum256(content)
	return "blake3:" + hex.EncodeToString(sum[:])
}
