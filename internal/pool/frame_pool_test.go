package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFrameBuf(t *testing.T) {
	buf := GetFrameBuf()
	assert.Len(t, buf, frameBufSize)
	PutFrameBuf(buf)
}

func TestPutFrameBuf_RestoresLength(t *testing.T) {
	buf := GetFrameBuf()
	PutFrameBuf(buf[:6])

	got := GetFrameBuf()
	assert.Len(t, got, frameBufSize)
	PutFrameBuf(got)
}

func TestPutFrameBuf_DropsUndersized(t *testing.T) {
	// Must not panic or pool a too-small foreign buffer.
	PutFrameBuf(make([]byte, 3))

	got := GetFrameBuf()
	assert.Len(t, got, frameBufSize)
	PutFrameBuf(got)
}
