package gomcu

import (
	"bytes"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// fixed controller numbers
const (
	CCVPotBase    byte = 0x10
	CCVPotRing    byte = 0x30
	CCScrollWheel byte = 0x3C
	CCTimecode    byte = 0x40
	CCTimecodeEnd byte = 0x4B
)

// MaxPosition is the highest 14 bit fader position.
const MaxPosition uint16 = 0x3FFF

// Encode returns the MIDI frame for a host-to-device message.
func Encode(m Message) (midi.Message, error) {
	if m.Direction()&HostToDevice == 0 {
		return nil, fmt.Errorf("%w: encode %T", ErrDirection, m)
	}
	switch e := m.(type) {
	case DeviceQuery:
		return sysex(CmdDeviceQuery), nil
	case HostConnectionReply:
		payload := append(serialBytes(e.Serial), e.Response[:]...)
		return sysex(CmdHostConnectionReply, payload...), nil
	case FirmwareVersionRequest:
		return sysex(CmdFirmwareVersionRequest, 0x00), nil
	case ConfigTransportClick:
		return sysex(CmdTransportClick, boolByte(e.On)), nil
	case ConfigLCDBacklight:
		return sysex(CmdLCDBacklight, e.Minutes&0x7F), nil
	case ConfigTouchlessFaders:
		return sysex(CmdTouchlessFaders, boolByte(e.On)), nil
	case ConfigTouchSensitivity:
		return sysex(CmdTouchSensitivity, e.Index, e.Sensitivity), nil
	case ConfigChannelMeterMode:
		return sysex(CmdChannelMeterMode, e.Channel, e.Mode&0x07), nil
	case ConfigLCDMeterMode:
		return sysex(CmdLCDMeterMode, boolByte(e.Vertical)), nil
	case Reset:
		return sysex(CmdReset), nil
	case UpdateLCD:
		return sysex(CmdUpdateLCD, append([]byte{e.Offset}, e.Text...)...), nil
	case UpdateLCDColour:
		return sysex(CmdUpdateLCDColour, e.Colours[:]...), nil
	case UpdateTimecodeChar:
		cc := CCTimecode + e.Offset
		if e.Order == LeftToRight {
			cc = CCTimecodeEnd - e.Offset
		}
		return midi.Message{StatusControlChange, cc & 0x7F, SegmentChar(e.Char)}, nil
	case FaderMoveEvent:
		return midi.Message{
			StatusPitchBend | (e.Index & 0x0F),
			byte(e.Position & 0x7F),
			byte((e.Position >> 7) & 0x7F),
		}, nil
	case SetLED:
		return midi.Message{StatusNoteOn, e.Index & 0x7F, byte(e.State)}, nil
	case SetVPotLED:
		return midi.Message{StatusControlChange, CCVPotRing | (e.Index & 0x0F), RingByte(e.Mode, e.Value, e.Extra)}, nil
	case UpdateMeter:
		return midi.Message{StatusPressure, (e.Index&0x0F)<<4 | LevelForDB(e.DB)}, nil
	}
	return nil, fmt.Errorf("%w: encode %T", ErrUnrecognized, m)
}

// Decode classifies a device-to-host frame.
func Decode(frame []byte) (Message, error) {
	if len(frame) == 0 {
		return nil, ErrMalformed
	}
	if frame[0] == StatusSysEx {
		return decodeSysEx(frame)
	}
	if len(frame) < 2 {
		return nil, ErrMalformed
	}
	status := frame[0] & 0xF0
	switch status {
	case StatusPitchBend:
		if len(frame) < 3 {
			return nil, ErrMalformed
		}
		return FaderMoveEvent{
			Index:    frame[0] & 0x0F,
			Position: uint16(frame[2]&0x7F)<<7 | uint16(frame[1]&0x7F),
		}, nil
	case StatusNoteOn, StatusNoteOff:
		if len(frame) < 3 {
			return nil, ErrMalformed
		}
		return ButtonPressEvent{
			Index:   frame[1] & 0x7F,
			Pressed: status == StatusNoteOn && frame[2] != 0,
		}, nil
	case StatusControlChange:
		if len(frame) < 3 {
			return nil, ErrMalformed
		}
		// the low nibble picks the wheel, every other controller is a VPot
		cc := frame[1]
		if cc&0x0F == CCScrollWheel&0x0F {
			return ScrollWheelMoveEvent{Delta: decodeDelta(frame[2])}, nil
		}
		return VPotMoveEvent{Index: cc & 0x07, Delta: decodeDelta(frame[2])}, nil
	case StatusPressure:
		return nil, fmt.Errorf("%w: meter level", ErrDirection)
	}
	return nil, fmt.Errorf("%w: status 0x%02X", ErrUnrecognized, frame[0])
}

func decodeSysEx(frame []byte) (Message, error) {
	if len(frame) < 7 || frame[len(frame)-1] != StatusEndOfSysEx {
		return nil, ErrMalformed
	}
	if !bytes.Equal(frame[1:5], Header[:]) {
		return nil, fmt.Errorf("%w: header % X", ErrUnrecognized, frame[1:5])
	}
	cmd := frame[5]
	payload := frame[6 : len(frame)-1]
	switch cmd {
	case CmdHostConnectionQuery:
		if len(payload) < SerialLength+4 {
			return nil, ErrMalformed
		}
		q := HostConnectionQuery{Serial: string(payload[:SerialLength])}
		copy(q.Challenge[:], payload[SerialLength:SerialLength+4])
		return q, nil
	case CmdHostConnectionConfirmation:
		if len(payload) < SerialLength {
			return nil, ErrMalformed
		}
		return HostConnectionConfirmation{Serial: string(payload[:SerialLength])}, nil
	case CmdHostConnectionError:
		if len(payload) < SerialLength {
			return nil, ErrMalformed
		}
		return HostConnectionError{Serial: string(payload[:SerialLength])}, nil
	case CmdFirmwareVersionResponse:
		return FirmwareVersionResponse{Version: string(payload)}, nil
	case CmdDeviceQuery, CmdHostConnectionReply, CmdTransportClick, CmdLCDBacklight,
		CmdTouchlessFaders, CmdTouchSensitivity, CmdUpdateLCD, CmdFirmwareVersionRequest,
		CmdChannelMeterMode, CmdLCDMeterMode, CmdReset, CmdUpdateLCDColour:
		return nil, fmt.Errorf("%w: command 0x%02X", ErrDirection, cmd)
	}
	return nil, fmt.Errorf("%w: command 0x%02X", ErrUnrecognized, cmd)
}

func sysex(cmd byte, payload ...byte) midi.Message {
	frame := make(midi.Message, 0, len(payload)+7)
	frame = append(frame, StatusSysEx)
	frame = append(frame, Header[:]...)
	frame = append(frame, cmd)
	frame = append(frame, payload...)
	return append(frame, StatusEndOfSysEx)
}

// serial numbers are always 7 bytes on the wire
func serialBytes(serial string) []byte {
	b := make([]byte, SerialLength)
	copy(b, serial)
	return b
}

func boolByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}

// encodeDelta packs a relative movement as sign-magnitude, bit 6 set for negative.
func encodeDelta(delta int) byte {
	neg := delta < 0
	if neg {
		delta = -delta
	}
	if delta > 0x3F {
		delta = 0x3F
	}
	b := byte(delta)
	if neg {
		b |= 0x40
	}
	return b
}

// decodeDelta is the inverse of encodeDelta.
func decodeDelta(b byte) int {
	mag := int(b & 0x3F)
	if b&0x40 != 0 {
		return -mag
	}
	return mag
}

// RingByte packs a VPot LED ring state. Bit 7 is always 0.
func RingByte(mode, value byte, extra bool) byte {
	b := value&0x0F | (mode&0x03)<<4
	if extra {
		b |= 0x40
	}
	return b
}
