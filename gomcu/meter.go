package gomcu

import "math"

// meter sentinels
var (
	ClipSet   = math.Inf(1)
	ClipClear = math.MaxFloat64
)

type meterLevel struct {
	code  byte
	match func(db float64) bool
}

// checked in order, first match wins
var meterLevels = []meterLevel{
	{0x0F, func(db float64) bool { return db == ClipSet }},
	{0x0E, func(db float64) bool { return db == ClipClear }},
	{0x0D, func(db float64) bool { return db > 0 }},
	{0x0C, func(db float64) bool { return db == 0 }},
	{0x0B, func(db float64) bool { return db >= -2 }},
	{0x0A, func(db float64) bool { return db >= -4 }},
	{0x09, func(db float64) bool { return db >= -6 }},
	{0x08, func(db float64) bool { return db >= -8 }},
	{0x07, func(db float64) bool { return db >= -10 }},
	{0x06, func(db float64) bool { return db >= -14 }},
	{0x05, func(db float64) bool { return db >= -20 }},
	{0x04, func(db float64) bool { return db >= -30 }},
	{0x03, func(db float64) bool { return db >= -40 }},
	{0x02, func(db float64) bool { return db >= -50 }},
	{0x01, func(db float64) bool { return db >= -60 }},
}

// LevelForDB returns the 4 bit meter code for a dB value.
func LevelForDB(db float64) byte {
	for _, l := range meterLevels {
		if l.match(db) {
			return l.code
		}
	}
	return 0x00
}
