// Package device implements the device-driven engine (C7): device
// lifecycle, enumeration, and the audio callback that drives the graph's
// master mixer and fans captured input out to subscribers. Backed by
// github.com/gen2brain/malgo for cross-platform device I/O, grounded on
// _examples/tphakala-birdnet-go/internal/myaudio/capture.go's
// InitContext/InitDevice/Start wiring, generalized from capture-only to
// playback, capture, full-duplex, and loopback.
package device

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"

	"github.com/shaban/audioengine/audioerr"
	"github.com/shaban/audioengine/format"
	"github.com/shaban/audioengine/graph"
)

// State is a device's lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateStopped
	StateRunning
)

// Mode selects which direction(s) a device moves audio.
type Mode int

const (
	ModePlayback Mode = iota
	ModeCapture
	ModeFullDuplex
	ModeLoopback
)

// Capability tags an audio-processed broadcast with which direction
// produced the block.
type Capability int

const (
	CapabilityPlayback Capability = iota
	CapabilityCapture
)

// Info describes an enumerable playback or capture device. Only the
// UTF-8 name is exposed; the legacy fixed-string layout is left to
// malgo.
type Info struct {
	ID     string
	Name   string
	Mode   Mode
}

// Spec is the engine-level configuration for opening a device: sample
// rate, channel count, and encoding plus a buffer-size hint.
type Spec struct {
	format.AudioFormat
	BufferFrames int
}

// ResolveSpec fills in zero fields of a partially specified Spec with the
// engine's defaults (48kHz, stereo, 512-frame buffer). Encoding is kept as
// given; its zero value is format.EncodingS16.
func ResolveSpec(s Spec) Spec {
	if s.SampleRate == 0 {
		s.SampleRate = 48000
	}
	if s.Channels == 0 {
		s.Channels = 2
	}
	if s.BufferFrames == 0 {
		s.BufferFrames = 512
	}
	return s
}

// CaptureSubscriber receives a fanned-out capture block. Implementations
// must not block; long work belongs on its own goroutine fed by a queue.
type CaptureSubscriber func(buf []float32, channels int)

// ProcessedSubscriber receives the global audio-processed broadcast.
type ProcessedSubscriber func(buf []float32, channels int, cap Capability)

// Device owns one malgo device handle and its lifecycle.
type Device struct {
	ID    string
	Mode  Mode
	Spec  Spec

	mu       sync.RWMutex
	state    atomic.Int32
	malgoDev *malgo.Device

	master *graph.Mixer // attached for playback/full-duplex modes

	subMu       sync.RWMutex
	captureSubs []CaptureSubscriber

	scratchMu  sync.Mutex
	outScratch []float32
	inScratch  []float32
}

// Engine owns zero or more devices, the global audio-processed broadcast
// list, and the control-thread switch-device operation. Each playback or
// full-duplex device carries its own master mixer; the Engine holds no
// master mixer of its own.
type Engine struct {
	ctx *malgo.AllocatedContext

	mu      sync.Mutex
	devices map[string]*Device

	processedMu   sync.RWMutex
	processedSubs []ProcessedSubscriber

	monitor *Monitor
}

// ParseBackend maps a host-facing backend name (as passed to
// enginex.New's backend-priority argument) to the matching malgo.Backend
// constant. Unknown names report ok=false so the caller can skip them
// rather than silently falling back to the platform default.
func ParseBackend(name string) (b malgo.Backend, ok bool) {
	switch name {
	case "wasapi":
		return malgo.BackendWasapi, true
	case "dsound":
		return malgo.BackendDsound, true
	case "winmm":
		return malgo.BackendWinmm, true
	case "coreaudio":
		return malgo.BackendCoreaudio, true
	case "sndio":
		return malgo.BackendSndio, true
	case "audio4":
		return malgo.BackendAudio4, true
	case "oss":
		return malgo.BackendOss, true
	case "pulseaudio":
		return malgo.BackendPulseaudio, true
	case "alsa":
		return malgo.BackendAlsa, true
	case "jack":
		return malgo.BackendJack, true
	case "aaudio":
		return malgo.BackendAaudio, true
	case "opensl":
		return malgo.BackendOpensl, true
	case "webaudio":
		return malgo.BackendWebaudio, true
	case "null":
		return malgo.BackendNull, true
	default:
		return malgo.BackendNull, false
	}
}

func nativeBackend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}

// New creates an Engine, initializing the malgo backend context.
// backendPriority, if non-empty, is tried before the platform default.
func New(backendPriority ...malgo.Backend) (*Engine, error) {
	backends := append(append([]malgo.Backend{}, backendPriority...), nativeBackend())
	ctx, err := malgo.InitContext(backends, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, audioerr.Wrap(audioerr.KindDeviceError, err, "initializing audio backend context")
	}
	e := &Engine{ctx: ctx, devices: make(map[string]*Device)}
	e.monitor = newMonitor(e)
	return e, nil
}

// ListPlaybackDevices enumerates playback-capable devices.
func (e *Engine) ListPlaybackDevices() ([]Info, error) {
	return e.listDevices(malgo.Playback, ModePlayback)
}

// ListCaptureDevices enumerates capture-capable devices.
func (e *Engine) ListCaptureDevices() ([]Info, error) {
	return e.listDevices(malgo.Capture, ModeCapture)
}

func (e *Engine) listDevices(kind malgo.DeviceType, mode Mode) ([]Info, error) {
	infos, err := e.ctx.Devices(kind)
	if err != nil {
		return nil, audioerr.Wrap(audioerr.KindDeviceError, err, "enumerating devices")
	}
	out := make([]Info, 0, len(infos))
	for _, info := range infos {
		out = append(out, Info{ID: info.ID.String(), Name: info.Name(), Mode: mode})
	}
	return out, nil
}

// OpenPlayback initializes a playback device and attaches a fresh master
// mixer to it.
func (e *Engine) OpenPlayback(deviceID string, spec Spec) (*Device, error) {
	spec = ResolveSpec(spec)
	d := &Device{ID: deviceOrNewID(deviceID), Mode: ModePlayback, Spec: spec, master: graph.NewMixer("master")}
	if err := e.initMalgoDevice(d, deviceID); err != nil {
		return nil, err
	}
	e.register(d)
	return d, nil
}

// OpenCapture initializes a capture device with no attached mixer.
func (e *Engine) OpenCapture(deviceID string, spec Spec) (*Device, error) {
	spec = ResolveSpec(spec)
	d := &Device{ID: deviceOrNewID(deviceID), Mode: ModeCapture, Spec: spec}
	if err := e.initMalgoDevice(d, deviceID); err != nil {
		return nil, err
	}
	e.register(d)
	return d, nil
}

// OpenFullDuplex initializes a device that both renders the master mixer
// and fans captured input to subscribers in the same callback.
func (e *Engine) OpenFullDuplex(deviceID string, spec Spec) (*Device, error) {
	spec = ResolveSpec(spec)
	d := &Device{ID: deviceOrNewID(deviceID), Mode: ModeFullDuplex, Spec: spec, master: graph.NewMixer("master")}
	if err := e.initMalgoDevice(d, deviceID); err != nil {
		return nil, err
	}
	e.register(d)
	return d, nil
}

// OpenLoopback initializes a loopback capture device (capturing a
// platform's own output mix), valid only where the backend supports it.
func (e *Engine) OpenLoopback(spec Spec) (*Device, error) {
	if nativeBackend() != malgo.BackendWasapi {
		return nil, audioerr.New(audioerr.KindNotSupported, "loopback capture requires WASAPI (Windows)")
	}
	spec = ResolveSpec(spec)
	d := &Device{ID: uuid.NewString(), Mode: ModeLoopback, Spec: spec}
	if err := e.initMalgoDevice(d, ""); err != nil {
		return nil, err
	}
	e.register(d)
	return d, nil
}

func deviceOrNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func (e *Engine) register(d *Device) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.devices[d.ID] = d
}

func (e *Engine) initMalgoDevice(d *Device, nativeID string) error {
	var deviceType malgo.DeviceType
	switch d.Mode {
	case ModePlayback:
		deviceType = malgo.Playback
	case ModeCapture, ModeLoopback:
		deviceType = malgo.Capture
	case ModeFullDuplex:
		deviceType = malgo.Duplex
	}

	cfg := malgo.DefaultDeviceConfig(deviceType)
	cfg.SampleRate = uint32(d.Spec.SampleRate)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(d.Spec.Channels)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = uint32(d.Spec.Channels)
	cfg.PeriodSizeInFrames = uint32(d.Spec.BufferFrames)

	callbacks := malgo.DeviceCallbacks{
		Data: d.onCallback,
	}

	dev, err := malgo.InitDevice(e.ctx.Context, cfg, callbacks)
	if err != nil {
		return audioerr.Wrap(audioerr.KindDeviceError, err, "initializing device %q", nativeID)
	}
	d.malgoDev = dev
	d.state.Store(int32(StateStopped))
	return nil
}

// onCallback is the malgo audio callback: it renders the master mixer into
// pOutput (for Playback/FullDuplex), fans pInput out to capture
// subscribers (for Capture/FullDuplex/Loopback). It does not call
// Engine.BroadcastProcessed. Must not allocate or block; subscriber lists
// are snapshotted copy-on-write.
func (d *Device) onCallback(pOutput, pInput []byte, frameCount uint32) {
	channels := d.Spec.Channels
	if d.master != nil {
		buf := d.rentScratch(&d.outScratch, int(frameCount)*channels)
		for i := range buf {
			buf[i] = 0
		}
		d.master.Render(buf, channels)
		format.EncodeFromF32(d.Spec.Encoding, buf, pOutput)
	}
	if len(pInput) > 0 {
		buf := d.rentScratch(&d.inScratch, int(frameCount)*channels)
		format.DecodeToF32(d.Spec.Encoding, pInput, buf)
		for _, sub := range d.snapshotCaptureSubs() {
			sub(buf, channels)
		}
	}
}

// rentScratch returns a []float32 of exactly n samples backed by *slot,
// growing *slot in place the first time a given block size is seen and
// reusing it on every subsequent callback so steady-state rendering never
// allocates.
func (d *Device) rentScratch(slot *[]float32, n int) []float32 {
	d.scratchMu.Lock()
	defer d.scratchMu.Unlock()
	if cap(*slot) < n {
		*slot = make([]float32, n)
	}
	return (*slot)[:n]
}

func (d *Device) snapshotCaptureSubs() []CaptureSubscriber {
	d.subMu.RLock()
	defer d.subMu.RUnlock()
	return d.captureSubs
}

// AddCaptureSubscriber registers fn to receive every captured block.
func (d *Device) AddCaptureSubscriber(fn CaptureSubscriber) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	next := make([]CaptureSubscriber, len(d.captureSubs)+1)
	copy(next, d.captureSubs)
	next[len(d.captureSubs)] = fn
	d.captureSubs = next
}

// Master returns the device's attached master mixer, or nil for
// capture-only devices.
func (d *Device) Master() *graph.Mixer { return d.master }

// State returns the device's current lifecycle state.
func (d *Device) State() State { return State(d.state.Load()) }

// Start transitions Stopped->Running.
func (d *Device) Start(timeout time.Duration) error {
	if State(d.state.Load()) == StateUninitialized {
		return audioerr.New(audioerr.KindDeviceError, "device not initialized")
	}
	done := make(chan error, 1)
	go func() { done <- d.malgoDev.Start() }()
	select {
	case err := <-done:
		if err != nil {
			return audioerr.Wrap(audioerr.KindDeviceError, err, "starting device")
		}
		d.state.Store(int32(StateRunning))
		return nil
	case <-time.After(timeout):
		return audioerr.New(audioerr.KindTimeout, "starting device exceeded %s", timeout)
	}
}

// Stop transitions Running->Stopped.
func (d *Device) Stop(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- d.malgoDev.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			return audioerr.Wrap(audioerr.KindDeviceError, err, "stopping device")
		}
		d.state.Store(int32(StateStopped))
		return nil
	case <-time.After(timeout):
		return audioerr.New(audioerr.KindTimeout, "stopping device exceeded %s", timeout)
	}
}

// Dispose releases the device's native handle.
func (d *Device) Dispose() error {
	if d.malgoDev != nil {
		d.malgoDev.Uninit()
	}
	d.state.Store(int32(StateUninitialized))
	return nil
}

// SwitchDevice stops old, creates a new device with old's format/config,
// reattaches old's master-mixer subtree and capture subscribers, and
// restarts if old was running — rolling back to old on any failure.
func (e *Engine) SwitchDevice(old *Device, newDeviceID string, timeout time.Duration) (*Device, error) {
	wasRunning := old.State() == StateRunning
	if wasRunning {
		if err := old.Stop(timeout); err != nil {
			return nil, err
		}
	}

	next := &Device{ID: deviceOrNewID(newDeviceID), Mode: old.Mode, Spec: old.Spec, master: old.master}
	next.captureSubs = old.snapshotCaptureSubs()

	if err := e.initMalgoDevice(next, newDeviceID); err != nil {
		// Rollback: restart old on its original device.
		if wasRunning {
			_ = old.Start(timeout)
		}
		return nil, err
	}

	if wasRunning {
		if err := next.Start(timeout); err != nil {
			// Rollback: drop the new handle and restart old.
			_ = next.Dispose()
			_ = old.Start(timeout)
			return nil, err
		}
	}

	e.mu.Lock()
	delete(e.devices, old.ID)
	e.devices[next.ID] = next
	e.mu.Unlock()

	_ = old.Dispose()
	return next, nil
}

// BroadcastProcessed fans buf out to every registered audio-processed
// subscriber, tagged with which capability produced it. The device
// callback does not call it; it runs on whatever goroutine calls it, and
// subscribers must be short and non-blocking.
func (e *Engine) BroadcastProcessed(buf []float32, channels int, cap Capability) {
	e.processedMu.RLock()
	subs := e.processedSubs
	e.processedMu.RUnlock()
	for _, sub := range subs {
		sub(buf, channels, cap)
	}
}

// OnProcessed registers a global audio-processed subscriber.
func (e *Engine) OnProcessed(fn ProcessedSubscriber) {
	e.processedMu.Lock()
	defer e.processedMu.Unlock()
	next := make([]ProcessedSubscriber, len(e.processedSubs)+1)
	copy(next, e.processedSubs)
	next[len(e.processedSubs)] = fn
	e.processedSubs = next
}

// Monitor returns the engine's hotplug device monitor.
func (e *Engine) Monitor() *Monitor { return e.monitor }

// Dispose stops device monitoring and releases every device along with
// the backend context.
func (e *Engine) Dispose() error {
	e.monitor.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range e.devices {
		_ = d.Dispose()
	}
	e.devices = make(map[string]*Device)
	if e.ctx != nil {
		e.ctx.Uninit()
	}
	return nil
}
