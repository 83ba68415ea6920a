package provider

import (
	"sync"

	"github.com/shaban/audioengine/format"
)

// Raw wraps an already-decoded, fully in-memory interleaved F32 block. It is
// the simplest provider: no decode step, fully seekable, length always known.
// Grounded on the "raw PCM buffer" source kind that every decoder in
// ik5-audpbx/audio ultimately produces before handing samples to the mixer.
type Raw struct {
	mu     sync.Mutex
	format format.AudioFormat
	data   []float32 // interleaved
	pos    int64     // frames
	cb     callbacks
}

// NewRaw creates a Raw provider over data, which is retained (not copied).
func NewRaw(f format.AudioFormat, data []float32) *Raw {
	return &Raw{format: f, data: data}
}

func (r *Raw) Format() format.AudioFormat { return r.format }

func (r *Raw) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

func (r *Raw) Length() (int64, bool) {
	return int64(len(r.data) / r.format.Channels), true
}

func (r *Raw) CanSeek() bool { return true }

func (r *Raw) Seek(frame int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := int64(len(r.data) / r.format.Channels)
	if frame < 0 {
		frame = 0
	}
	if frame > total {
		frame = total
	}
	r.pos = frame
	r.cb.firePositionChanged(frame)
	return nil
}

func (r *Raw) Read(dst []float32) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := r.format.Channels
	start := r.pos * int64(ch)
	if start >= int64(len(r.data)) {
		r.cb.fireEndReached()
		return 0, nil
	}
	n := copy(dst, r.data[start:])
	n -= n % ch
	r.pos += int64(n / ch)
	return n, nil
}

func (r *Raw) Close() error { return nil }

func (r *Raw) OnEndReached(fn func()) func()           { return r.cb.OnEndReached(fn) }
func (r *Raw) OnPositionChanged(fn func(int64)) func() { return r.cb.OnPositionChanged(fn) }
