package gomcu

import "unicode"

// LCD geometry
const (
	LCDSegments  = 8
	SegmentWidth = 7
	LineWidth    = 0x38
	LCDSize      = 2 * LineWidth
	TimecodeSize = int(CCTimecodeEnd-CCTimecode) + 1
)

// LCD colours
const (
	LCDOff byte = iota
	LCDRed
	LCDGreen
	LCDYellow
	LCDBlue
	LCDPink
	LCDCyan
	LCDWhite
)

// LCDOffset returns the buffer offset of a segment on line 0 or 1.
func LCDOffset(segment, line int) int {
	return segment*SegmentWidth + line*LineWidth
}

var segmentChars = map[rune]byte{
	' ': 0x00, 'a': 0x01, 'b': 0x02, 'c': 0x03,
	'd': 0x04, 'e': 0x05, 'f': 0x06, 'g': 0x07,
	'h': 0x08, 'i': 0x09, 'j': 0x0A, 'k': 0x0B,
	'l': 0x0C, 'm': 0x0D, 'n': 0x0E, 'o': 0x0F,
	'p': 0x10, 'q': 0x11, 'r': 0x12, 's': 0x13,
	't': 0x14, 'u': 0x15, 'v': 0x16, 'w': 0x17,
	'x': 0x18, 'y': 0x19, 'z': 0x1A, '_': 0x1F,
	'"': 0x22, '\'': 0x27, ',': 0x2C, '-': 0x2D,
	'.': 0x40, '0': 0x30, '1': 0x31, '2': 0x32,
	'3': 0x33, '4': 0x34, '5': 0x35, '6': 0x36,
	'7': 0x37, '8': 0x38, '9': 0x39,
}

// SegmentChar maps a rune to the 7-segment character code, 0x00 (blank) if unknown.
func SegmentChar(r rune) byte {
	return segmentChars[unicode.ToLower(r)]
}
