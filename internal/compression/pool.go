package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
)

// maxPoolBufSize caps the buffers the pool retains. Larger buffers are
// discarded on release so a single oversized request cannot pin memory.
const maxPoolBufSize = 4 * 1024 * 1024

var (
	bufferPoolGets          atomic.Uint64
	bufferPoolPuts          atomic.Uint64
	bufferActive            atomic.Int64
	compressionPoolGets     atomic.Uint64
	compressionPoolPuts     atomic.Uint64
	compressionPoolDiscards atomic.Uint64
	compressionPoolNews     atomic.Uint64
)

var bufferPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// GetBuffer returns an empty buffer from the pool.
func GetBuffer() *bytes.Buffer {
	bufferPoolGets.Add(1)
	bufferActive.Add(1)
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// ReleaseBuffer returns buf to the pool. Nil is a no-op.
func ReleaseBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	bufferActive.Add(-1)
	if buf.Cap() > maxPoolBufSize {
		compressionPoolDiscards.Add(1)
		return
	}
	bufferPoolPuts.Add(1)
	bufferPool.Put(buf)
}

// BufferActiveCount reports how many pooled buffers are checked out.
func BufferActiveCount() int64 {
	return bufferActive.Load()
}

// Coder pools. Gzip readers/writers and zstd decoders keep sizable
// internal state, so recycling them matters more than the buffers.
var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			compressionPoolNews.Add(1)
			return gzip.NewWriter(io.Discard)
		},
	}
	gzipReaderPool = sync.Pool{
		New: func() interface{} {
			compressionPoolNews.Add(1)
			return new(gzip.Reader)
		},
	}
	zstdEncoderPool = sync.Pool{
		New: func() interface{} {
			compressionPoolNews.Add(1)
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			return enc
		},
	}
	zstdDecoderPool = sync.Pool{
		New: func() interface{} {
			compressionPoolNews.Add(1)
			dec, _ := zstd.NewReader(nil)
			return dec
		},
	}
)

// CompressToBuf compresses data into dst using a pooled coder.
func CompressToBuf(dst *bytes.Buffer, data []byte, t Type) error {
	switch t {
	case TypeNone, "":
		_, err := dst.Write(data)
		return err
	case TypeGzip:
		compressionPoolGets.Add(1)
		gw := gzipWriterPool.Get().(*gzip.Writer)
		gw.Reset(dst)
		if _, err := gw.Write(data); err != nil {
			compressionPoolDiscards.Add(1)
			return fmt.Errorf("gzip write: %w", err)
		}
		if err := gw.Close(); err != nil {
			compressionPoolDiscards.Add(1)
			return fmt.Errorf("gzip close: %w", err)
		}
		compressionPoolPuts.Add(1)
		gzipWriterPool.Put(gw)
		return nil
	case TypeZstd:
		compressionPoolGets.Add(1)
		enc := zstdEncoderPool.Get().(*zstd.Encoder)
		enc.Reset(dst)
		if _, err := enc.Write(data); err != nil {
			enc.Reset(nil)
			compressionPoolDiscards.Add(1)
			return fmt.Errorf("zstd write: %w", err)
		}
		if err := enc.Close(); err != nil {
			enc.Reset(nil)
			compressionPoolDiscards.Add(1)
			return fmt.Errorf("zstd close: %w", err)
		}
		enc.Reset(nil)
		compressionPoolPuts.Add(1)
		zstdEncoderPool.Put(enc)
		return nil
	default:
		return fmt.Errorf("unsupported compression type: %s", t)
	}
}

// DecompressToBuf decompresses data into dst using a pooled coder.
func DecompressToBuf(dst *bytes.Buffer, data []byte, t Type) error {
	switch t {
	case TypeNone, "":
		_, err := dst.Write(data)
		return err
	case TypeGzip:
		compressionPoolGets.Add(1)
		gr := gzipReaderPool.Get().(*gzip.Reader)
		if err := gr.Reset(bytes.NewReader(data)); err != nil {
			compressionPoolPuts.Add(1)
			gzipReaderPool.Put(gr)
			return fmt.Errorf("gzip reset: %w", err)
		}
		if _, err := dst.ReadFrom(gr); err != nil {
			compressionPoolPuts.Add(1)
			gzipReaderPool.Put(gr)
			return fmt.Errorf("gzip read: %w", err)
		}
		if err := gr.Close(); err != nil {
			compressionPoolPuts.Add(1)
			gzipReaderPool.Put(gr)
			return fmt.Errorf("gzip close: %w", err)
		}
		compressionPoolPuts.Add(1)
		gzipReaderPool.Put(gr)
		return nil
	case TypeZstd:
		compressionPoolGets.Add(1)
		dec := zstdDecoderPool.Get().(*zstd.Decoder)
		if err := dec.Reset(bytes.NewReader(data)); err != nil {
			compressionPoolDiscards.Add(1)
			return fmt.Errorf("zstd reset: %w", err)
		}
		if _, err := dst.ReadFrom(dec); err != nil {
			_ = dec.Reset(nil)
			compressionPoolPuts.Add(1)
			zstdDecoderPool.Put(dec)
			return fmt.Errorf("zstd read: %w", err)
		}
		// Drop the input reference before pooling.
		_ = dec.Reset(nil)
		compressionPoolPuts.Add(1)
		zstdDecoderPool.Put(dec)
		return nil
	default:
		return fmt.Errorf("unsupported compression type: %s", t)
	}
}

// Stats is a point-in-time snapshot of the pool counters.
type Stats struct {
	CompressionPoolGets     uint64
	CompressionPoolPuts     uint64
	CompressionPoolDiscards uint64
	CompressionPoolNews     uint64
	BufferPoolGets          uint64
	BufferPoolPuts          uint64
}

// PoolStats returns the current pool counters.
func PoolStats() Stats {
	return Stats{
		CompressionPoolGets:     compressionPoolGets.Load(),
		CompressionPoolPuts:     compressionPoolPuts.Load(),
		CompressionPoolDiscards: compressionPoolDiscards.Load(),
		CompressionPoolNews:     compressionPoolNews.Load(),
		BufferPoolGets:          bufferPoolGets.Load(),
		BufferPoolPuts:          bufferPoolPuts.Load(),
	}
}

// ResetPoolStats zeroes the pool counters. Test helper; the active
// buffer gauge is left alone so checkout accounting stays truthful.
func ResetPoolStats() {
	bufferPoolGets.Store(0)
	bufferPoolPuts.Store(0)
	compressionPoolGets.Store(0)
	compressionPoolPuts.Store(0)
	compressionPoolDiscards.Store(0)
	compressionPoolNews.Store(0)
}
