// Package enginex is the audio engine's public facade: it wires together
// device, graph, player, midi, synth, and timeline into the host-facing
// operations a caller actually needs (open a device, attach a player or
// synth to it, connect MIDI, build a composition).
package enginex

import (
	"time"

	"github.com/gen2brain/malgo"

	"github.com/shaban/audioengine/device"
	"github.com/shaban/audioengine/format"
	"github.com/shaban/audioengine/graph"
	"github.com/shaban/audioengine/midi"
	"github.com/shaban/audioengine/player"
	"github.com/shaban/audioengine/provider"
	"github.com/shaban/audioengine/synth"
	"github.com/shaban/audioengine/timeline"
)

// Logger is the narrow structured-logging surface enginex depends on,
// satisfied directly by *slog.Logger so the host can pass its own
// logger without an adapter.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Engine is the top-level facade combining a device.Engine (whose playback
// devices each carry a master mixer) and a MIDI router. One Engine per process is the normal
// deployment shape; nothing here prevents more.
type Engine struct {
	Devices *device.Engine
	Router  *midi.Router

	log Logger
}

// New creates an Engine, initializing its device backend. backendPriority
// names (e.g. "wasapi", "coreaudio", "alsa", "pulseaudio") are tried in
// order before the platform default; unrecognized names are skipped.
func New(log Logger, backendPriority ...string) (*Engine, error) {
	var backends []malgo.Backend
	for _, name := range backendPriority {
		if b, ok := device.ParseBackend(name); ok {
			backends = append(backends, b)
		}
	}
	devEngine, err := device.New(backends...)
	if err != nil {
		return nil, err
	}
	return &Engine{Devices: devEngine, Router: midi.NewRouter(), log: log}, nil
}

// ListPlaybackDevices enumerates playback-capable devices.
func (e *Engine) ListPlaybackDevices() ([]device.Info, error) {
	return e.Devices.ListPlaybackDevices()
}

// ListCaptureDevices enumerates capture-capable devices.
func (e *Engine) ListCaptureDevices() ([]device.Info, error) {
	return e.Devices.ListCaptureDevices()
}

// OpenPlayback opens a playback device at the given format.
func (e *Engine) OpenPlayback(deviceID string, f format.AudioFormat) (*device.Device, error) {
	return e.Devices.OpenPlayback(deviceID, device.Spec{AudioFormat: f})
}

// OpenCapture opens a capture device at the given format.
func (e *Engine) OpenCapture(deviceID string, f format.AudioFormat) (*device.Device, error) {
	return e.Devices.OpenCapture(deviceID, device.Spec{AudioFormat: f})
}

// OpenFullDuplex opens a device that both plays and captures.
func (e *Engine) OpenFullDuplex(deviceID string, f format.AudioFormat) (*device.Device, error) {
	return e.Devices.OpenFullDuplex(deviceID, device.Spec{AudioFormat: f})
}

// OpenLoopback opens a loopback capture device (Windows/WASAPI only).
func (e *Engine) OpenLoopback(f format.AudioFormat) (*device.Device, error) {
	return e.Devices.OpenLoopback(device.Spec{AudioFormat: f})
}

// SwitchDevice moves old's attached graph and capture subscribers onto a
// freshly opened device, so an in-progress mix survives an output change.
func (e *Engine) SwitchDevice(old *device.Device, newDeviceID string) (*device.Device, error) {
	return e.Devices.SwitchDevice(old, newDeviceID, 5*time.Second)
}

// Dispose releases every device and the backend context.
func (e *Engine) Dispose() error {
	return e.Devices.Dispose()
}

// NewMixer creates a standalone mixer; callers typically attach it to a
// playback Device's Master() mixer as a sub-mix, or use the device's
// master mixer directly.
func NewMixer(name string) *graph.Mixer { return graph.NewMixer(name) }

// NewSoundPlayer creates a sound player over prov, ready to attach to a
// Mixer via AddComponent.
func NewSoundPlayer(name string, prov provider.Provider) *player.SoundPlayer {
	return player.New(name, prov)
}

// NewSynth creates a synthesizer node ready to attach to a Mixer.
func NewSynth(name string, sampleRate float64) *synth.Node {
	return synth.NewNode(name, synth.New(sampleRate))
}

// NewComposition creates a timeline composition at the given format.
func NewComposition(sampleRate float64, channels int) *timeline.Composition {
	return timeline.NewComposition(sampleRate, channels)
}

// ConnectMidi wires a MIDI source through a new route to the given
// destination(s) and registers it in the Router under routeName,
// replacing any route already registered under that name.
func (e *Engine) ConnectMidi(routeName string, src midi.Source, faultLimit int32, destinations ...midi.Destination) (*midi.Route, error) {
	route := midi.NewRoute(routeName, faultLimit)
	for _, d := range destinations {
		route.AddDestination(d)
	}
	route.OnRouteError(func(err error) {
		if e.log != nil {
			e.log.Warn("midi route error", "route", routeName, "err", err)
		}
	})
	if err := route.Connect(src); err != nil {
		return nil, err
	}
	e.Router.AddRoute(route)
	return route, nil
}

// DisconnectMidi disconnects and removes a named route.
func (e *Engine) DisconnectMidi(routeName string) {
	e.Router.RemoveRoute(routeName)
}
