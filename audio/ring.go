package audio

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
)

// Ring is the DMA buffer shared between the mixer and a backend. The mixer
// writes between Lock and Unlock; the backend drains it through Read, which
// advances the play cursor.
type Ring struct {
	mu       sync.Mutex
	buf      []byte
	bps      int // bytes per sample
	samples  int
	consumed atomic.Uint64 // samples read since open
	silence  byte
}

func NewRing(f Format) *Ring {
	r := &Ring{
		bps:     f.BytesPerSample(),
		samples: f.BufferSamples(),
	}
	if f.SampleBits == 8 {
		r.silence = 0x80
	}
	r.buf = make([]byte, r.samples*r.bps)
	r.Clear()
	return r
}

// Cursor is the read position in raw samples within the ring.
func (r *Ring) Cursor() uint32 {
	return uint32(r.consumed.Load() % uint64(r.samples))
}

// Consumed is the total number of raw samples read since open.
func (r *Ring) Consumed() uint64 {
	return r.consumed.Load()
}

func (r *Ring) Lock()   { r.mu.Lock() }
func (r *Ring) Unlock() { r.mu.Unlock() }

// Bytes exposes the backing store; only valid while locked.
func (r *Ring) Bytes() []byte {
	return r.buf
}

func (r *Ring) Clear() {
	for i := range r.buf {
		r.buf[i] = r.silence
	}
}

// Read copies whole samples from the play cursor, wrapping as needed. It
// always fills p (rounded down to a whole sample) so pull-model backends
// never see a short read.
func (r *Ring) Read(p []byte) (int, error) {
	n := len(p) / r.bps * r.bps
	if n == 0 {
		return 0, nil
	}
	r.mu.Lock()
	pos := int(r.consumed.Load()%uint64(r.samples)) * r.bps
	done := 0
	for done < n {
		c := copy(p[done:n], r.buf[pos:])
		done += c
		pos = 0
	}
	r.consumed.Add(uint64(n / r.bps))
	r.mu.Unlock()
	return n, nil
}

// ReadInt16 fills buf from a 16-bit ring.
func (r *Ring) ReadInt16(buf []int16) int {
	tmp := make([]byte, len(buf)*2)
	n, _ := r.Read(tmp)
	for i := 0; i < n/2; i++ {
		buf[i] = int16(binary.LittleEndian.Uint16(tmp[i*2:]))
	}
	return n / 2
}

// Advance moves the play cursor without copying, for backends that discard
// output.
func (r *Ring) Advance(samples int) {
	r.mu.Lock()
	r.consumed.Add(uint64(samples))
	r.mu.Unlock()
}
