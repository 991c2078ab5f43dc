// Package surface keeps a passive picture of the control surface for
// renderers. It never sends anything.
package surface

import (
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/normen/mcu-host/gomcu"
	"github.com/normen/mcu-host/mcu"
)

// Surface accumulates LED, fader, display and meter state from messages.
type Surface struct {
	mu            sync.Mutex
	touchBase     gomcu.Switch
	faderLevels   []uint16
	faderTouch    []bool
	ledStates     map[byte]gomcu.LEDState
	buttonStates  map[byte]bool
	vpotLedStates map[byte]byte
	text          []byte
	colours       [gomcu.LCDSegments]byte
	timecode      [gomcu.TimecodeSize]byte
	meters        [8]byte
}

// NewSurface creates a model for faders motor faders whose touch sensors
// start at touchBase, zero means gomcu.Fader1.
func NewSurface(faders int, touchBase gomcu.Switch) *Surface {
	if touchBase == 0 {
		touchBase = gomcu.Fader1
	}
	s := &Surface{
		touchBase:     touchBase,
		faderLevels:   make([]uint16, faders),
		faderTouch:    make([]bool, faders),
		ledStates:     make(map[byte]gomcu.LEDState),
		buttonStates:  make(map[byte]bool),
		vpotLedStates: make(map[byte]byte),
		text:          []byte(strings.Repeat(" ", gomcu.LCDSize)),
	}
	for i := range s.colours {
		s.colours[i] = gomcu.LCDWhite
	}
	for i := range s.timecode {
		s.timecode[i] = ' '
	}
	return s
}

// Apply implements mcu.SurfaceModel.
func (s *Surface) Apply(m gomcu.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e := m.(type) {
	case gomcu.FaderMoveEvent:
		if int(e.Index) < len(s.faderLevels) {
			s.faderLevels[e.Index] = e.Position
		}
	case gomcu.ButtonPressEvent:
		s.buttonStates[e.Index] = e.Pressed
		if t := int(e.Index) - int(s.touchBase); t >= 0 && t < len(s.faderTouch) {
			s.faderTouch[t] = e.Pressed
		}
	case gomcu.SetLED:
		s.ledStates[e.Index] = e.State
	case gomcu.SetVPotLED:
		s.vpotLedStates[e.Index] = gomcu.RingByte(e.Mode, e.Value, e.Extra)
	case gomcu.UpdateLCD:
		if int(e.Offset) < len(s.text) {
			copy(s.text[e.Offset:], e.Text)
		}
	case gomcu.UpdateLCDColour:
		s.colours = e.Colours
	case gomcu.UpdateTimecodeChar:
		cell := int(e.Offset)
		if e.Order == gomcu.LeftToRight {
			cell = gomcu.TimecodeSize - 1 - cell
		}
		if cell >= 0 && cell < len(s.timecode) {
			s.timecode[cell] = byte(e.Char)
		}
	case gomcu.UpdateMeter:
		if int(e.Index) < len(s.meters) {
			s.meters[e.Index] = gomcu.LevelForDB(e.DB)
		}
	}
}

// Fader is the renderer view of one fader.
type Fader struct {
	Position uint16  `yaml:"position"`
	DB       float64 `yaml:"db"`
	Touched  bool    `yaml:"touched"`
}

// Snapshot is a copy of the surface state.
type Snapshot struct {
	Faders    []Fader                   `yaml:"faders"`
	LEDs      map[string]gomcu.LEDState `yaml:"leds"`
	Pressed   []string                  `yaml:"pressed,omitempty"`
	VPotRings map[byte]byte             `yaml:"vpot_rings,omitempty"`
	LCD       [2]string                 `yaml:"lcd"`
	Colours   []byte                    `yaml:"colours,flow"`
	Timecode  string                    `yaml:"timecode"`
	Meters    []byte                    `yaml:"meters,flow"`
}

func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		LEDs:      make(map[string]gomcu.LEDState, len(s.ledStates)),
		VPotRings: make(map[byte]byte, len(s.vpotLedStates)),
		LCD:       [2]string{string(s.text[:gomcu.LineWidth]), string(s.text[gomcu.LineWidth:])},
		Colours:   append([]byte(nil), s.colours[:]...),
		Meters:    append([]byte(nil), s.meters[:]...),
	}
	for i, level := range s.faderLevels {
		snap.Faders = append(snap.Faders, Fader{
			Position: level,
			DB:       mcu.PositionToDB(level),
			Touched:  s.faderTouch[i],
		})
	}
	for k, v := range s.ledStates {
		snap.LEDs[gomcu.Switch(k).String()] = v
	}
	for k, v := range s.buttonStates {
		if v {
			snap.Pressed = append(snap.Pressed, gomcu.Switch(k).String())
		}
	}
	for k, v := range s.vpotLedStates {
		snap.VPotRings[k] = v
	}
	// cell 0 is the rightmost digit
	var tc strings.Builder
	for i := len(s.timecode) - 1; i >= 0; i-- {
		tc.WriteByte(s.timecode[i])
	}
	snap.Timecode = tc.String()
	return snap
}

// WriteYAML writes the current snapshot as YAML.
func (s *Surface) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Snapshot()); err != nil {
		return err
	}
	return enc.Close()
}
