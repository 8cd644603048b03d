package transport

import (
	"sync"
)

// bufferPool reuses 9000-byte receive buffers (RFC 6762 §17 allows mDNS
// jumbo messages up to that size) to keep Receive off the allocator on
// its hot path.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 9000)
		return &buf
	},
}

// GetBuffer returns a pooled 9000-byte buffer. Callers must return it
// via PutBuffer, typically with defer.
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer zeroes and returns a buffer obtained from GetBuffer.
func PutBuffer(bufPtr *[]byte) {
	buf := *bufPtr
	for i := range buf {
		buf[i] = 0
	}
	bufferPool.Put(bufPtr)
}
