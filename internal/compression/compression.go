// Package compression provides the request-body codecs the OTLP log
// receivers accept, with pooled buffers and coders on the ingest path.
package compression

import (
	"bytes"
	"fmt"
	"strings"
)

// Type represents a compression algorithm.
type Type string

const (
	// TypeNone means no compression.
	TypeNone Type = "none"
	// TypeGzip uses gzip compression.
	TypeGzip Type = "gzip"
	// TypeZstd uses zstd compression.
	TypeZstd Type = "zstd"
)

// ParseType parses a compression type string.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TypeNone, nil
	case "gzip":
		return TypeGzip, nil
	case "zstd":
		return TypeZstd, nil
	default:
		return TypeNone, fmt.Errorf("unsupported compression type: %s", s)
	}
}

// ContentEncoding returns the HTTP Content-Encoding header value for the
// compression type.
func (t Type) ContentEncoding() string {
	switch t {
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	default:
		return ""
	}
}

// ParseContentEncoding parses an HTTP Content-Encoding header value to a
// compression type. Unknown encodings map to TypeNone; the receiver
// decides whether that is a passthrough or a rejection.
func ParseContentEncoding(encoding string) Type {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		return TypeGzip
	case "zstd":
		return TypeZstd
	default:
		return TypeNone
	}
}

// Compress compresses data with the given algorithm. The pooled
// CompressToBuf variant avoids the result allocation on hot paths.
func Compress(data []byte, t Type) ([]byte, error) {
	if t == TypeNone || t == "" {
		return data, nil
	}
	var buf bytes.Buffer
	if err := CompressToBuf(&buf, data, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decompresses data with the given algorithm.
func Decompress(data []byte, t Type) ([]byte, error) {
	if t == TypeNone || t == "" {
		return data, nil
	}
	var buf bytes.Buffer
	if err := DecompressToBuf(&buf, data, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
