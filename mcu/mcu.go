package mcu

import (
	"errors"
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/zap"
)

// ErrClosed is returned once the transport or device has been closed.
var ErrClosed = errors.New("mcu: closed")

// ErrPortLost is returned when a MIDI port disappears underneath the transport.
var ErrPortLost = errors.New("mcu: midi port lost")

// Transport moves already framed MIDI messages.
type Transport interface {
	// Poll returns the next buffered frame without blocking. ok is false
	// when no frame is available.
	Poll() (frame midi.Message, ok bool, err error)
	// Send writes one frame, it may block briefly.
	Send(frame midi.Message) error
	Close() error
}

// rx buffer between the driver callback and Poll
const portBufferSize = 1024

// PortTransport is a Transport over a pair of system MIDI ports.
type PortTransport struct {
	in     drivers.In
	out    drivers.Out
	send   func(midi.Message) error
	stop   func()
	frames chan midi.Message
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger
}

// get a list of midi outputs
func GetMidiOutputs() []string {
	outs := midi.GetOutPorts()
	var names []string
	for _, output := range outs {
		names = append(names, output.String())
	}
	return names
}

// get a list of midi inputs
func GetMidiInputs() []string {
	ins := midi.GetInPorts()
	var names []string
	for _, input := range ins {
		names = append(names, input.String())
	}
	return names
}

// OpenPorts finds and opens the named MIDI ports.
func OpenPorts(portIn, portOut string, log *zap.Logger) (*PortTransport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &PortTransport{
		frames: make(chan midi.Message, portBufferSize),
		done:   make(chan struct{}),
		log:    log,
	}
	var err error
	t.in, err = midi.FindInPort(portIn)
	if err != nil {
		return nil, fmt.Errorf("could not find MIDI input %q: %w", portIn, err)
	}
	t.out, err = midi.FindOutPort(portOut)
	if err != nil {
		return nil, fmt.Errorf("could not find MIDI output %q: %w", portOut, err)
	}
	if err = t.in.Open(); err != nil {
		return nil, fmt.Errorf("could not open MIDI input %q: %w", portIn, err)
	}
	if err = t.out.Open(); err != nil {
		t.in.Close()
		return nil, fmt.Errorf("could not open MIDI output %q: %w", portOut, err)
	}
	t.send, err = midi.SendTo(t.out)
	if err != nil {
		t.closePorts()
		return nil, err
	}
	t.stop, err = midi.ListenTo(t.in, t.receive, midi.UseSysEx())
	if err != nil {
		t.closePorts()
		return nil, err
	}
	log.Info("MIDI connected", zap.String("in", portIn), zap.String("out", portOut))
	return t, nil
}

// called from the driver thread
func (t *PortTransport) receive(message midi.Message, timestampms int32) {
	frame := make(midi.Message, len(message))
	copy(frame, message)
	select {
	case t.frames <- frame:
	default:
		t.log.Warn("MIDI input buffer full, dropping frame", zap.Stringer("frame", frame))
	}
}

func (t *PortTransport) Poll() (midi.Message, bool, error) {
	select {
	case <-t.done:
		return nil, false, ErrClosed
	default:
	}
	select {
	case frame := <-t.frames:
		return frame, true, nil
	default:
	}
	if !t.in.IsOpen() {
		return nil, false, fmt.Errorf("%w: input %s", ErrPortLost, t.in.String())
	}
	return nil, false, nil
}

func (t *PortTransport) Send(frame midi.Message) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	if !t.out.IsOpen() {
		return fmt.Errorf("%w: output %s", ErrPortLost, t.out.String())
	}
	if err := t.send(frame); err != nil {
		return fmt.Errorf("send %v: %w", frame, err)
	}
	return nil
}

// Close stops listening and closes both ports. Pending Poll and Send calls
// return ErrClosed afterwards.
func (t *PortTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		if t.stop != nil {
			t.stop()
		}
		err = t.closePorts()
		t.log.Info("MIDI disconnected")
	})
	return err
}

func (t *PortTransport) closePorts() error {
	var errs []error
	if t.in != nil {
		if err := t.in.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if t.out != nil {
		if err := t.out.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
