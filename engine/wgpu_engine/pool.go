package wgpu_engine

import (
	"math"
	"math/bits"

	"honnef.co/go/wgpu"
)

type bufferProperties struct {
	size   uint64
	usages wgpu.BufferUsage
}

// resourcePool recycles GPU buffers. Buffers are grouped into power of two
// size classes so a freed buffer can serve later requests of similar size.
type resourcePool struct {
	bufs map[bufferProperties][]*wgpu.Buffer
}

func (pool *resourcePool) getBuf(
	size uint64,
	name string,
	usage wgpu.BufferUsage,
	dev *wgpu.Device,
) *wgpu.Buffer {
	props := bufferProperties{
		size:   poolSizeClass(size, poolSizeClassBits),
		usages: usage,
	}
	if bufVec, ok := pool.bufs[props]; ok {
		if len(bufVec) > 0 {
			buf := bufVec[len(bufVec)-1]
			pool.bufs[props] = bufVec[:len(bufVec)-1]
			return buf
		}
	}
	return dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  props.size,
		Usage: usage,
	})
}

// freeBuf returns a buffer to the pool. size must be the size the buffer
// was requested with.
func (pool *resourcePool) freeBuf(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	props := bufferProperties{
		size:   poolSizeClass(size, poolSizeClassBits),
		usages: usage,
	}
	pool.bufs[props] = append(pool.bufs[props], buf)
}

// purge releases every pooled buffer.
func (pool *resourcePool) purge() {
	for props, bufVec := range pool.bufs {
		for _, buf := range bufVec {
			buf.Release()
		}
		delete(pool.bufs, props)
	}
}

const poolSizeClassBits = 1

func poolSizeClass(x uint64, numBits uint32) uint64 {
	if x > 1<<numBits {
		a := bits.LeadingZeros64(x - 1)
		b := (x - 1) | (((math.MaxUint64 / 2) >> numBits) >> a)
		return b + 1
	} else {
		return 1 << numBits
	}
}
