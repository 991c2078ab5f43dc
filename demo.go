package main

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/normen/mcu-host/gomcu"
	"github.com/normen/mcu-host/logging"
	"github.com/normen/mcu-host/mcu"
	"github.com/normen/mcu-host/msg"
)

// Demo wires surface controls back to the surface: V-switches slam the
// faders, VPots nudge them and the jog wheel cycles the LCD colours.
type Demo struct {
	device *mcu.Device
	log    *zap.Logger
	// only touched from the rx task
	colour int
}

func NewDemo(device *mcu.Device) *Demo {
	return &Demo{device: device, log: logging.GetLogger().Named("demo"), colour: int(gomcu.LCDWhite)}
}

func (d *Demo) Handlers() mcu.Handlers {
	return mcu.Handlers{
		OnButton:       d.button,
		OnVPot:         d.vpot,
		OnScrollWheel:  d.wheel,
		OnManagedFader: d.fader,
		OnConnection:   d.connection,
	}
}

func (d *Demo) check(err error) {
	if err != nil {
		d.log.Warn("demo command failed", zap.Error(err))
	}
}

func (d *Demo) button(e gomcu.ButtonPressEvent) {
	sw := gomcu.Switch(e.Index)
	if sw < gomcu.V1 || sw > gomcu.V8 {
		return
	}
	var position uint16
	if e.Pressed {
		position = gomcu.MaxPosition
	}
	d.check(d.device.SetFader(int(sw-gomcu.V1), position))
}

func (d *Demo) vpot(e gomcu.VPotMoveEvent) {
	index := int(e.Index)
	state, err := d.device.Fader(index)
	if err != nil {
		d.check(err)
		return
	}
	position := int(state.Latched) + e.Delta*20
	position = max(0, min(int(gomcu.MaxPosition), position))
	d.check(d.device.SetFader(index, uint16(position)))

	colours := d.device.LCDColours()
	d.check(d.device.UpdateLCDColour(index, wrapColour(int(colours[index])+e.Delta)))
}

func (d *Demo) wheel(e gomcu.ScrollWheelMoveEvent) {
	d.colour = int(wrapColour(d.colour + e.Delta))
	var colours [gomcu.LCDSegments]byte
	for i := range colours {
		colours[i] = byte(d.colour)
	}
	d.check(d.device.UpdateLCDColours(colours))
}

func (d *Demo) fader(state msg.FaderState) {
	if int(state.Index) >= gomcu.LCDSegments {
		return
	}
	d.check(d.device.UpdateLCDSegment(int(state.Index), 1, formatDB(state.LatchedDB), mcu.Truncate))
}

func (d *Demo) connection(state msg.ConnectionState) {
	if !state.Connected {
		return
	}
	for i := 0; i < gomcu.LCDSegments; i++ {
		d.check(d.device.UpdateLCDSegment(i, 0, fmt.Sprintf("Channel %d", i+1), mcu.Abbreviate))
	}
	d.check(d.device.UpdateTimecode("HELLO", 2, gomcu.LeftToRight))
}

// LCD colours run from off to white
func wrapColour(c int) byte {
	n := int(gomcu.LCDWhite) + 1
	return byte(((c % n) + n) % n)
}

func formatDB(db float64) string {
	if math.IsInf(db, -1) {
		return "-inf"
	}
	return fmt.Sprintf("%.1f", db)
}
