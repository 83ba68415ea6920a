package midi

import (
	"time"

	"github.com/rakyll/portmidi"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/shaban/audioengine/audioerr"
)

// Source is anything that produces Messages: a physical input port, a
// timeline's scheduled MIDI events, or a synth's own note feedback.
type Source interface {
	Listen(func(Message)) (stop func(), err error)
}

// Destination is anything Messages can be sent to: a physical output
// port, a synth, or another route.
type Destination interface {
	Send(Message) error
}

// GomidiSource listens on a gitlab.com/gomidi/midi/v2 input port (virtual
// or hardware, enumerated through the rtmididrv/portmididrv backends).
type GomidiSource struct {
	port drivers.In
}

// NewGomidiSource wraps an already-opened gomidi input port.
func NewGomidiSource(port drivers.In) *GomidiSource {
	return &GomidiSource{port: port}
}

func (s *GomidiSource) Listen(fn func(Message)) (func(), error) {
	if err := s.port.Open(); err != nil {
		return nil, audioerr.Wrap(audioerr.KindDeviceError, err, "opening MIDI input %q", s.port.String())
	}
	stop, err := gomidi.ListenTo(s.port, func(msg gomidi.Message, _ int32) {
		fn(fromGomidi(msg, time.Now()))
	}, gomidi.HandleError(func(error) {}))
	if err != nil {
		_ = s.port.Close()
		return nil, audioerr.Wrap(audioerr.KindDeviceError, err, "listening on MIDI input %q", s.port.String())
	}
	return func() {
		stop()
		_ = s.port.Close()
	}, nil
}

// GomidiDestination sends Messages out a gomidi output port.
type GomidiDestination struct {
	port drivers.Out
}

// NewGomidiDestination wraps an already-opened gomidi output port.
func NewGomidiDestination(port drivers.Out) *GomidiDestination {
	return &GomidiDestination{port: port}
}

func (d *GomidiDestination) Send(m Message) error {
	if !d.port.IsOpen() {
		if err := d.port.Open(); err != nil {
			return audioerr.Wrap(audioerr.KindDeviceError, err, "opening MIDI output %q", d.port.String())
		}
	}
	if err := d.port.Send(m.toGomidi()); err != nil {
		return audioerr.Wrap(audioerr.KindDeviceError, err, "sending MIDI to %q", d.port.String())
	}
	return nil
}

// PortmidiSource wraps a github.com/rakyll/portmidi input stream, polled
// at the given interval via stream.Read.
type PortmidiSource struct {
	stream   *portmidi.Stream
	interval time.Duration
	stop     chan struct{}
}

// NewPortmidiSource opens a portmidi input stream on deviceID.
func NewPortmidiSource(deviceID portmidi.DeviceID, bufferSize int64) (*PortmidiSource, error) {
	s, err := portmidi.NewInputStream(deviceID, bufferSize)
	if err != nil {
		return nil, audioerr.Wrap(audioerr.KindDeviceError, err, "opening portmidi input %v", deviceID)
	}
	return &PortmidiSource{stream: s, interval: 2 * time.Millisecond}, nil
}

func (s *PortmidiSource) Listen(fn func(Message)) (func(), error) {
	stop := make(chan struct{})
	s.stop = stop
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				events, err := s.stream.Read(1024)
				if err != nil {
					continue
				}
				for _, ev := range events {
					fn(Message{
						Status:    byte(ev.Status),
						Data1:     byte(ev.Data1),
						Data2:     byte(ev.Data2),
						Timestamp: time.Now(),
					})
				}
			}
		}
	}()
	return func() {
		close(stop)
		_ = s.stream.Close()
	}, nil
}

// PortmidiDestination wraps a portmidi output stream.
type PortmidiDestination struct {
	stream *portmidi.Stream
}

// NewPortmidiDestination opens a portmidi output stream on deviceID.
func NewPortmidiDestination(deviceID portmidi.DeviceID) (*PortmidiDestination, error) {
	s, err := portmidi.NewOutputStream(deviceID, 1024, 0)
	if err != nil {
		return nil, audioerr.Wrap(audioerr.KindDeviceError, err, "opening portmidi output %v", deviceID)
	}
	return &PortmidiDestination{stream: s}, nil
}

func (d *PortmidiDestination) Send(m Message) error {
	if m.IsSysEx() {
		return d.stream.WriteSysExBytes(portmidi.Time(), m.Raw)
	}
	if err := d.stream.WriteShort(int64(m.Status), int64(m.Data1), int64(m.Data2)); err != nil {
		return audioerr.Wrap(audioerr.KindDeviceError, err, "sending MIDI via portmidi")
	}
	return nil
}
