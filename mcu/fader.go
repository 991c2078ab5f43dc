package mcu

import (
	"github.com/normen/mcu-host/msg"
)

// ManagedFader reconciles physical fader movement with software moves.
//
// A fader is released or touched. While touched, physical positions are
// tracked in raw and copied to latched on release. In touchless mode,
// positions reported while the fader is not touched are motor echo and are
// ignored. Every change of the latched value raises pending until the
// consumer clears it.
//
// ManagedFader is not safe for concurrent use, the Device serializes access.
type ManagedFader struct {
	index     byte
	raw       uint16
	latched   uint16
	touched   bool
	touchless bool
	pending   bool
	wake      chan<- struct{}
}

// NewManagedFader creates a released fader. wake may be nil, otherwise it
// receives a non-blocking signal whenever pending is raised.
func NewManagedFader(index byte, wake chan<- struct{}) *ManagedFader {
	return &ManagedFader{index: index, wake: wake}
}

func (f *ManagedFader) Index() byte { return f.index }

// Touch handles the touch sensor. Releasing latches the last raw position.
func (f *ManagedFader) Touch(pressed bool) {
	if pressed {
		f.touched = true
		return
	}
	if !f.touched {
		return
	}
	f.touched = false
	f.latched = f.raw
	f.raise()
}

// Update applies a physical position report.
func (f *ManagedFader) Update(position uint16) {
	if f.touched || !f.touchless {
		f.raw = position
	}
}

// SetPosition commits a software move regardless of touch state.
func (f *ManagedFader) SetPosition(position uint16) {
	f.latched = position
	f.raise()
}

func (f *ManagedFader) SetTouchless(on bool) { f.touchless = on }

func (f *ManagedFader) Pending() bool { return f.pending }

// Clear lowers the pending flag.
func (f *ManagedFader) Clear() { f.pending = false }

func (f *ManagedFader) Raw() uint16     { return f.raw }
func (f *ManagedFader) Latched() uint16 { return f.latched }
func (f *ManagedFader) Touched() bool   { return f.touched }

// State returns a copy of the fader for callbacks.
func (f *ManagedFader) State() msg.FaderState {
	return msg.FaderState{
		Index:     f.index,
		Raw:       f.raw,
		Latched:   f.latched,
		Touched:   f.touched,
		Touchless: f.touchless,
		LatchedDB: PositionToDB(f.latched),
	}
}

func (f *ManagedFader) raise() {
	f.pending = true
	if f.wake == nil {
		return
	}
	select {
	case f.wake <- struct{}{}:
	default:
	}
}
