// Package gomcu translates Mackie Control protocol messages to and from raw
// MIDI frames. It holds no state and performs no I/O.
package gomcu

import (
	"errors"
)

var (
	// ErrUnrecognized is returned for frames that match no known message.
	ErrUnrecognized = errors.New("gomcu: unrecognized frame")
	// ErrDirection is returned when encoding a device-to-host message or
	// decoding a host-to-device message.
	ErrDirection = errors.New("gomcu: message not supported in this direction")
	// ErrMalformed is returned for frames that are too short for their type.
	ErrMalformed = errors.New("gomcu: malformed frame")
)

// Direction tells which side of the link may send a message.
type Direction uint8

const (
	HostToDevice Direction = 1 << iota
	DeviceToHost
)

func (d Direction) String() string {
	switch d {
	case HostToDevice:
		return "host->device"
	case DeviceToHost:
		return "device->host"
	case HostToDevice | DeviceToHost:
		return "bidirectional"
	}
	return "none"
}

// Message is implemented by every protocol message. The set is closed.
type Message interface {
	// Command is the SysEx opcode, or the status nibble for channel messages.
	Command() byte
	// ResponseRequired is true for device messages that obligate a reply.
	ResponseRequired() bool
	Direction() Direction
	sealed()
}

// MIDI status bytes used by the protocol
const (
	StatusNoteOff       byte = 0x80
	StatusNoteOn        byte = 0x90
	StatusControlChange byte = 0xB0
	StatusPressure      byte = 0xD0
	StatusPitchBend     byte = 0xE0
	StatusSysEx         byte = 0xF0
	StatusEndOfSysEx    byte = 0xF7
)

// Header follows the SysEx start byte in every frame.
var Header = [4]byte{0x00, 0x00, 0x66, 0x14}

// SysEx commands
const (
	CmdDeviceQuery                byte = 0x00
	CmdHostConnectionQuery        byte = 0x01
	CmdHostConnectionReply        byte = 0x02
	CmdHostConnectionConfirmation byte = 0x03
	CmdHostConnectionError        byte = 0x04
	CmdTransportClick             byte = 0x0A
	CmdLCDBacklight               byte = 0x0B
	CmdTouchlessFaders            byte = 0x0C
	CmdTouchSensitivity           byte = 0x0E
	CmdUpdateLCD                  byte = 0x12
	CmdFirmwareVersionRequest     byte = 0x13
	CmdFirmwareVersionResponse    byte = 0x14
	CmdChannelMeterMode           byte = 0x20
	CmdLCDMeterMode               byte = 0x21
	CmdReset                      byte = 0x63
	CmdUpdateLCDColour            byte = 0x72
)

// SerialLength is the length of the device serial number in connection messages.
const SerialLength = 7

type base struct{}

func (base) ResponseRequired() bool { return false }
func (base) sealed()                {}

type outbound struct{ base }

func (outbound) Direction() Direction { return HostToDevice }

type inbound struct{ base }

func (inbound) Direction() Direction { return DeviceToHost }

// Connection

// DeviceQuery asks the device to start the connection handshake.
type DeviceQuery struct{ outbound }

func (DeviceQuery) Command() byte { return CmdDeviceQuery }

// HostConnectionQuery carries the device challenge.
type HostConnectionQuery struct {
	inbound
	Serial    string
	Challenge [4]byte
}

func (HostConnectionQuery) Command() byte          { return CmdHostConnectionQuery }
func (HostConnectionQuery) ResponseRequired() bool { return true }

// HostConnectionReply answers a HostConnectionQuery.
type HostConnectionReply struct {
	outbound
	Serial   string
	Response [4]byte
}

func (HostConnectionReply) Command() byte { return CmdHostConnectionReply }

// NewHostConnectionReply builds the reply for a query, computing the response code.
func NewHostConnectionReply(q HostConnectionQuery) HostConnectionReply {
	return HostConnectionReply{Serial: q.Serial, Response: ChallengeResponse(q.Challenge)}
}

type HostConnectionConfirmation struct {
	inbound
	Serial string
}

func (HostConnectionConfirmation) Command() byte { return CmdHostConnectionConfirmation }

// HostConnectionError is sent by the device when the challenge response was wrong.
// The device refuses further messages afterwards.
type HostConnectionError struct {
	inbound
	Serial string
}

func (HostConnectionError) Command() byte { return CmdHostConnectionError }

type FirmwareVersionRequest struct{ outbound }

func (FirmwareVersionRequest) Command() byte { return CmdFirmwareVersionRequest }

type FirmwareVersionResponse struct {
	inbound
	Version string
}

func (FirmwareVersionResponse) Command() byte { return CmdFirmwareVersionResponse }

// Configuration

// ConfigTransportClick toggles the click on transport buttons.
type ConfigTransportClick struct {
	outbound
	On bool
}

func (ConfigTransportClick) Command() byte { return CmdTransportClick }

// ConfigLCDBacklight sets the backlight timeout in minutes, 0 turns it off.
type ConfigLCDBacklight struct {
	outbound
	Minutes byte
}

func (ConfigLCDBacklight) Command() byte { return CmdLCDBacklight }

// ConfigTouchlessFaders makes the device report fader movement without touch.
type ConfigTouchlessFaders struct {
	outbound
	On bool
}

func (ConfigTouchlessFaders) Command() byte { return CmdTouchlessFaders }

type ConfigTouchSensitivity struct {
	outbound
	Index       byte
	Sensitivity byte
}

func (ConfigTouchSensitivity) Command() byte { return CmdTouchSensitivity }

// channel meter mode bits
const (
	MeterSignalLED  byte = 1 << 0
	MeterPeakHold   byte = 1 << 1
	MeterLevelMeter byte = 1 << 2
)

type ConfigChannelMeterMode struct {
	outbound
	Channel byte
	Mode    byte
}

func (ConfigChannelMeterMode) Command() byte { return CmdChannelMeterMode }

type ConfigLCDMeterMode struct {
	outbound
	Vertical bool
}

func (ConfigLCDMeterMode) Command() byte { return CmdLCDMeterMode }

type Reset struct{ outbound }

func (Reset) Command() byte { return CmdReset }

// Display

// UpdateLCD writes raw text at a buffer offset. Text is not truncated.
type UpdateLCD struct {
	outbound
	Text   string
	Offset byte
}

func (UpdateLCD) Command() byte { return CmdUpdateLCD }

type UpdateLCDColour struct {
	outbound
	Colours [LCDSegments]byte
}

func (UpdateLCDColour) Command() byte { return CmdUpdateLCDColour }

// TextDirection selects how timecode offsets are counted.
type TextDirection uint8

const (
	RightToLeft TextDirection = iota
	LeftToRight
)

type UpdateTimecodeChar struct {
	outbound
	Char   rune
	Offset byte
	Order  TextDirection
}

func (UpdateTimecodeChar) Command() byte { return StatusControlChange }

// Control surface

// FaderMoveEvent is a motor command when sent and a position report when
// received. It is the only message valid in both directions.
type FaderMoveEvent struct {
	base
	Index    byte
	Position uint16
}

func (FaderMoveEvent) Command() byte        { return StatusPitchBend }
func (FaderMoveEvent) Direction() Direction { return HostToDevice | DeviceToHost }

type ButtonPressEvent struct {
	inbound
	Index   byte
	Pressed bool
}

func (ButtonPressEvent) Command() byte { return StatusNoteOn }

// LED states
type LEDState byte

const (
	LEDOff   LEDState = 0x00
	LEDBlink LEDState = 0x01
	LEDOn    LEDState = 0x7F
)

type SetLED struct {
	outbound
	Index byte
	State LEDState
}

func (SetLED) Command() byte { return StatusNoteOn }

type VPotMoveEvent struct {
	inbound
	Index byte
	Delta int
}

func (VPotMoveEvent) Command() byte { return StatusControlChange }

type ScrollWheelMoveEvent struct {
	inbound
	Delta int
}

func (ScrollWheelMoveEvent) Command() byte { return StatusControlChange }

// VPot ring modes
const (
	RingSingle     byte = 0b00
	RingFillCentre byte = 0b01
	RingFillLeft   byte = 0b10
	RingWidth      byte = 0b11
)

type SetVPotLED struct {
	outbound
	Index byte
	Mode  byte
	Value byte
	// Extra lights the LED underneath the encoder.
	Extra bool
}

func (SetVPotLED) Command() byte { return StatusControlChange }

// UpdateMeter sets a channel meter from a dB value. ClipSet and ClipClear are
// accepted as sentinel values.
type UpdateMeter struct {
	outbound
	Index byte
	DB    float64
}

func (UpdateMeter) Command() byte { return StatusPressure }
