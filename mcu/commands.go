package mcu

import (
	"fmt"
	"strings"

	"github.com/normen/mcu-host/gomcu"
)

// TextPolicy decides what happens to segment text wider than the segment.
type TextPolicy int

const (
	// Truncate cuts the text at the segment width.
	Truncate TextPolicy = iota
	// Wrap continues the text on the lower line of the same segment.
	Wrap
	// Abbreviate shortens the text the way channel names are shortened.
	Abbreviate
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func (d *Device) checkFader(index int) error {
	if index < 0 || index >= d.opts.Faders {
		return invalid("fader index %d out of range (0..%d)", index, d.opts.Faders-1)
	}
	return nil
}

func checkSegment(index int) error {
	if index < 0 || index >= gomcu.LCDSegments {
		return invalid("LCD index %d out of range (0..%d)", index, gomcu.LCDSegments-1)
	}
	return nil
}

func checkColour(colour byte) error {
	if colour > 0x0F {
		return invalid("colour 0x%02X out of range (0x00..0x0F)", colour)
	}
	return nil
}

// SetLED sets a button LED.
func (d *Device) SetLED(index gomcu.Switch, state gomcu.LEDState) error {
	if index > 0x7F {
		return invalid("LED index %d out of range (0..127)", index)
	}
	switch state {
	case gomcu.LEDOff, gomcu.LEDBlink, gomcu.LEDOn:
	default:
		return invalid("LED state 0x%02X", byte(state))
	}
	return d.enqueue(gomcu.SetLED{Index: byte(index), State: state})
}

// SetFader moves a motor fader and latches the position.
func (d *Device) SetFader(index int, position uint16) error {
	if err := d.checkFader(index); err != nil {
		return err
	}
	if position > gomcu.MaxPosition {
		return invalid("fader position %d out of range (0..%d)", position, gomcu.MaxPosition)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enqueue(gomcu.FaderMoveEvent{Index: byte(index), Position: position}); err != nil {
		return err
	}
	d.faders[index].SetPosition(position)
	return nil
}

// SetFaderDB moves a fader to the position of a dB value on its scale.
func (d *Device) SetFaderDB(index int, db float64) error {
	return d.SetFader(index, DBToPosition(db))
}

func (d *Device) SetVPotLED(index int, mode, value byte, extra bool) error {
	if index < 0 || index > 7 {
		return invalid("VPot index %d out of range (0..7)", index)
	}
	if mode > gomcu.RingWidth {
		return invalid("VPot ring mode %d out of range (0..3)", mode)
	}
	if value > 0x0F {
		return invalid("VPot ring value %d out of range (0..15)", value)
	}
	return d.enqueue(gomcu.SetVPotLED{Index: byte(index), Mode: mode, Value: value, Extra: extra})
}

// SetMeter sets a channel level meter from a dB value.
func (d *Device) SetMeter(index int, db float64) error {
	if index < 0 || index > 7 {
		return invalid("meter index %d out of range (0..7)", index)
	}
	return d.enqueue(gomcu.UpdateMeter{Index: byte(index), DB: db})
}

// checkASCII rejects bytes above 0x7F, inside a SysEx frame they read as status bytes
func checkASCII(text string) error {
	for i := 0; i < len(text); i++ {
		if text[i] > 0x7F {
			return invalid("LCD text %q is not 7 bit ASCII", text)
		}
	}
	return nil
}

func lcdMessage(text string, offset int) (gomcu.UpdateLCD, error) {
	if offset < 0 || offset >= gomcu.LCDSize {
		return gomcu.UpdateLCD{}, invalid("LCD offset %d out of range (0..%d)", offset, gomcu.LCDSize-1)
	}
	if err := checkASCII(text); err != nil {
		return gomcu.UpdateLCD{}, err
	}
	if offset+len(text) > gomcu.LCDSize {
		return gomcu.UpdateLCD{}, invalid("LCD text of %d bytes at offset %d overflows the display", len(text), offset)
	}
	return gomcu.UpdateLCD{Text: text, Offset: byte(offset)}, nil
}

// UpdateLCD writes raw ASCII text at a display offset.
func (d *Device) UpdateLCD(text string, offset int) error {
	m, err := lcdMessage(text, offset)
	if err != nil {
		return err
	}
	return d.enqueue(m)
}

// UpdateLCDSegment writes centred text into one segment line.
func (d *Device) UpdateLCDSegment(index, line int, text string, policy TextPolicy) error {
	if err := checkSegment(index); err != nil {
		return err
	}
	if line < 0 || line > 1 {
		return invalid("LCD line %d out of range (0..1)", line)
	}
	if err := checkASCII(text); err != nil {
		return err
	}
	w := gomcu.SegmentWidth
	switch policy {
	case Abbreviate:
		text = strings.TrimSpace(ShortenText(text, w))
	case Wrap:
		if line == 0 && len(text) > w {
			return d.UpdateLCDStrip(index, text[:w], text[w:])
		}
	}
	return d.UpdateLCD(centre(text, w), gomcu.LCDOffset(index, line))
}

// UpdateLCDStrip writes both lines of one segment. Either both lines are
// queued or neither is.
func (d *Device) UpdateLCDStrip(index int, upper, lower string) error {
	if err := checkSegment(index); err != nil {
		return err
	}
	w := gomcu.SegmentWidth
	top, err := lcdMessage(centre(upper, w), gomcu.LCDOffset(index, 0))
	if err != nil {
		return err
	}
	bottom, err := lcdMessage(centre(lower, w), gomcu.LCDOffset(index, 1))
	if err != nil {
		return err
	}
	return d.enqueue(top, bottom)
}

// UpdateLCDColour changes the backlight colour of one segment.
func (d *Device) UpdateLCDColour(index int, colour byte) error {
	if err := checkSegment(index); err != nil {
		return err
	}
	if err := checkColour(colour); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	colours := d.lcdColours
	colours[index] = colour
	if err := d.enqueue(gomcu.UpdateLCDColour{Colours: colours}); err != nil {
		return err
	}
	d.lcdColours = colours
	return nil
}

// UpdateLCDColours changes the colour of every segment.
func (d *Device) UpdateLCDColours(colours [gomcu.LCDSegments]byte) error {
	for _, c := range colours {
		if err := checkColour(c); err != nil {
			return err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enqueue(gomcu.UpdateLCDColour{Colours: colours}); err != nil {
		return err
	}
	d.lcdColours = colours
	return nil
}

func (d *Device) UpdateTimecodeChar(char rune, offset int, dir gomcu.TextDirection) error {
	if offset < 0 || offset >= gomcu.TimecodeSize {
		return invalid("timecode offset %d out of range (0..%d)", offset, gomcu.TimecodeSize-1)
	}
	return d.enqueue(gomcu.UpdateTimecodeChar{Char: char, Offset: byte(offset), Order: dir})
}

// UpdateTimecode writes a string into the timecode display, one character
// per message. Nothing is queued unless every character fits.
func (d *Device) UpdateTimecode(text string, offset int, dir gomcu.TextDirection) error {
	runes := []rune(text)
	if offset < 0 || offset+len(runes) > gomcu.TimecodeSize {
		return invalid("timecode text %q at offset %d does not fit", text, offset)
	}
	msgs := make([]gomcu.Message, len(runes))
	for i, r := range runes {
		msgs[i] = gomcu.UpdateTimecodeChar{Char: r, Offset: byte(offset + i), Order: dir}
	}
	return d.enqueue(msgs...)
}

// ConfigTouchless switches touchless fader mode on the device and in every
// managed fader.
func (d *Device) ConfigTouchless(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enqueue(gomcu.ConfigTouchlessFaders{On: on}); err != nil {
		return err
	}
	d.touchless = on
	for _, f := range d.faders {
		f.SetTouchless(on)
	}
	return nil
}

func (d *Device) ConfigTouchSensitivity(index int, sensitivity byte) error {
	if err := d.checkFader(index); err != nil {
		return err
	}
	if sensitivity > 0x05 {
		return invalid("sensitivity 0x%02X out of range (0x00..0x05)", sensitivity)
	}
	return d.enqueue(gomcu.ConfigTouchSensitivity{Index: byte(index), Sensitivity: sensitivity})
}

// ConfigChannelMeterMode sets the meter mode bits of a channel, see gomcu.MeterLevelMeter.
func (d *Device) ConfigChannelMeterMode(channel int, mode byte) error {
	if channel < 0 || channel > 7 {
		return invalid("meter channel %d out of range (0..7)", channel)
	}
	if mode > gomcu.MeterLevelMeter|gomcu.MeterPeakHold|gomcu.MeterSignalLED {
		return invalid("meter mode 0x%02X", mode)
	}
	return d.enqueue(gomcu.ConfigChannelMeterMode{Channel: byte(channel), Mode: mode})
}

func (d *Device) ConfigLCDMeterMode(vertical bool) error {
	return d.enqueue(gomcu.ConfigLCDMeterMode{Vertical: vertical})
}

// ConfigLCDBacklight sets the backlight timeout in minutes, 0 switches it off.
func (d *Device) ConfigLCDBacklight(minutes int) error {
	if minutes < 0 || minutes > 0x7F {
		return invalid("backlight timeout %d out of range (0..127)", minutes)
	}
	return d.enqueue(gomcu.ConfigLCDBacklight{Minutes: byte(minutes)})
}

func (d *Device) ConfigTransportClick(on bool) error {
	return d.enqueue(gomcu.ConfigTransportClick{On: on})
}

func (d *Device) RequestFirmwareVersion() error {
	return d.enqueue(gomcu.FirmwareVersionRequest{})
}

// Reset resets the device.
func (d *Device) Reset() error {
	return d.enqueue(gomcu.Reset{})
}
