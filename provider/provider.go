// Package provider implements the SoundDataProvider abstraction: a lazy,
// forward-read, optionally seekable PCM source owned by whatever player
// reads it and released when that player is disposed.
package provider

import (
	"sync"

	"github.com/shaban/audioengine/audioerr"
	"github.com/shaban/audioengine/format"
)

// Provider is a lazy, forward-read PCM source. Read always returns
// interleaved F32 samples regardless of the provider's own backing
// encoding. Read returns (0, nil) at end of stream; callers watch
// EndReached for the edge-triggered event instead of treating 0 as an error.
type Provider interface {
	Format() format.AudioFormat

	// Position returns the current read position in frames.
	Position() int64

	// Length returns the total frame count and true, or (0, false) when
	// the provider's length is unknown (e.g. a live network stream).
	Length() (frames int64, known bool)

	CanSeek() bool

	// Seek repositions to the given frame offset. Returns audioerr with
	// KindNotSeekable if CanSeek() is false.
	Seek(frame int64) error

	// Read fills dst (interleaved F32, a multiple of Format().Channels
	// long) and returns the number of samples written. Returns 0 at EOS.
	Read(dst []float32) (int, error)

	// Close releases provider-owned resources (file handles, network
	// sockets, capture queues).
	Close() error
}

// EventSource is implemented by providers that support end-reached and
// position-changed notifications. It is a separate, optional interface
// rather than part of Provider; every provider in this package implements
// it.
type EventSource interface {
	OnEndReached(fn func()) (unsubscribe func())
	OnPositionChanged(fn func(frame int64)) (unsubscribe func())
}

// callbacks is the shared copy-on-write event fan-out used by every
// provider variant below, mirroring the engine's subscriber-list pattern
// used for the audio-processed broadcast.
type callbacks struct {
	mu               sync.Mutex
	endReached       []func()
	positionChanged  []func(int64)
}

func (c *callbacks) OnEndReached(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endReached = append(append([]func(){}, c.endReached...), fn)
	idx := len(c.endReached) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.endReached) {
			c.endReached = append(c.endReached[:idx:idx], c.endReached[idx+1:]...)
		}
	}
}

func (c *callbacks) OnPositionChanged(fn func(int64)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positionChanged = append(append([]func(int64){}, c.positionChanged...), fn)
	idx := len(c.positionChanged) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.positionChanged) {
			c.positionChanged = append(c.positionChanged[:idx:idx], c.positionChanged[idx+1:]...)
		}
	}
}

func (c *callbacks) fireEndReached() {
	c.mu.Lock()
	fns := append([]func(){}, c.endReached...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *callbacks) firePositionChanged(frame int64) {
	c.mu.Lock()
	fns := append([]func(int64){}, c.positionChanged...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(frame)
	}
}

// errNotSeekable is returned by providers that are forward-only.
func errNotSeekable() error {
	return audioerr.New(audioerr.KindNotSeekable, "provider does not support seeking")
}
