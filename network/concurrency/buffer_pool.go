package concurrency

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	// DefaultInitialBufferSize is the initial capacity of pooled buffers.
	// Most JSON-RPC responses fit in 64KB.
	DefaultInitialBufferSize = 64 * 1024

	// DefaultMaxBufferSize is the largest buffer kept in the pool.
	// Larger buffers are left to the GC to avoid memory bloat.
	DefaultMaxBufferSize = 4 * 1024 * 1024
)

// ErrBodyTooLarge is returned when a body exceeds the caller's byte limit.
var ErrBodyTooLarge = errors.New("body exceeds size limit")

// BufferPool manages reusable byte buffers for reading response bodies.
// Every replica of an outcall reads its own body concurrently, so buffers
// are recycled through a sync.Pool.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, DefaultInitialBufferSize))
			},
		},
	}
}

// getBuffer retrieves a buffer from the pool.
func (bp *BufferPool) getBuffer() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer returns a buffer to the pool.
func (bp *BufferPool) putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > DefaultMaxBufferSize {
		return
	}
	bp.pool.Put(buf)
}

// ReadCapped reads r fully, failing with ErrBodyTooLarge as soon as more
// than limit bytes are available. A limit of 0 means no bytes are allowed.
func (bp *BufferPool) ReadCapped(r io.Reader, limit uint64) ([]byte, error) {
	buf := bp.getBuffer()
	defer bp.putBuffer(buf)

	// Read one byte past the limit to tell "exactly limit" from "too large".
	limitedReader := io.LimitReader(r, int64(min(limit, uint64(1<<62)))+1)
	if _, err := buf.ReadFrom(limitedReader); err != nil {
		return nil, err
	}

	if uint64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrBodyTooLarge, limit)
	}

	// Return an independent copy: the buffer goes back to the pool.
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
