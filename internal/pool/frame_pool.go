package pool

import "sync"

// frameBufSize fits the largest wire frame: a 6-byte header followed by a
// 255-byte payload.
const frameBufSize = 6 + 255

var framePool = sync.Pool{
	New: func() any {
		buf := make([]byte, frameBufSize)
		return &buf
	},
}

// GetFrameBuf returns a frame-sized scratch buffer from the pool.
//
// Return the buffer to the pool with PutFrameBuf.
func GetFrameBuf() []byte {
	bp, _ := framePool.Get().(*[]byte) // Type assertion is safe here since we only put *[]byte into the pool
	return *bp
}

// PutFrameBuf returns buf to the pool.
//
// buf cannot be accessed after returning to the pool. Buffers that have
// been resliced below the full frame size are restored before pooling;
// foreign buffers with a smaller capacity are dropped.
func PutFrameBuf(buf []byte) {
	if cap(buf) < frameBufSize {
		return
	}
	buf = buf[:frameBufSize]
	framePool.Put(&buf)
}
