package gomcu

// Switch is a button or LED index.
type Switch byte

const (
	Rec1 Switch = iota
	Rec2
	Rec3
	Rec4
	Rec5
	Rec6
	Rec7
	Rec8
	Solo1
	Solo2
	Solo3
	Solo4
	Solo5
	Solo6
	Solo7
	Solo8
	Mute1
	Mute2
	Mute3
	Mute4
	Mute5
	Mute6
	Mute7
	Mute8
	Select1
	Select2
	Select3
	Select4
	Select5
	Select6
	Select7
	Select8
	V1
	V2
	V3
	V4
	V5
	V6
	V7
	V8
	AssignTrack
	AssignSend
	AssignPan
	AssignPlugin
	AssignEQ
	AssignInstrument
	BankL
	BankR
	ChannelL
	ChannelR
	Flip
	GlobalView
	NameValue
	SMPTEBeats
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	MIDITracks
	Inputs
	AudioTracks
	AudioInstrument
	Aux
	Busses
	Outputs
	User
	Shift
	Option
	Control
	CMDAlt
	Read
	Write
	Trim
	Touch
	Latch
	Group
	Save
	Undo
	Cancel
	Enter
	Marker
	Nudge
	Cycle
	Drop
	Replace
	Click
	Solo
	Rewind
	FastFwd
	Stop
	Play
	Record
	Up
	Down
	Left
	Right
	Zoom
	Scrub
	UserA
	UserB
	Fader1
	Fader2
	Fader3
	Fader4
	Fader5
	Fader6
	Fader7
	Fader8
	FaderMaster
	SMPTELed
	BeatsLed
	RudeSolo
)

const RelayClick Switch = 0x76

// Names maps a switch index to a readable label.
var Names = map[Switch]string{
	Rec1: "Rec 1", Rec2: "Rec 2", Rec3: "Rec 3", Rec4: "Rec 4",
	Rec5: "Rec 5", Rec6: "Rec 6", Rec7: "Rec 7", Rec8: "Rec 8",
	Solo1: "Solo 1", Solo2: "Solo 2", Solo3: "Solo 3", Solo4: "Solo 4",
	Solo5: "Solo 5", Solo6: "Solo 6", Solo7: "Solo 7", Solo8: "Solo 8",
	Mute1: "Mute 1", Mute2: "Mute 2", Mute3: "Mute 3", Mute4: "Mute 4",
	Mute5: "Mute 5", Mute6: "Mute 6", Mute7: "Mute 7", Mute8: "Mute 8",
	Select1: "Sel 1", Select2: "Sel 2", Select3: "Sel 3", Select4: "Sel 4",
	Select5: "Sel 5", Select6: "Sel 6", Select7: "Sel 7", Select8: "Sel 8",
	V1: "Vpot switch 1", V2: "Vpot switch 2", V3: "Vpot switch 3", V4: "Vpot switch 4",
	V5: "Vpot switch 5", V6: "Vpot switch 6", V7: "Vpot switch 7", V8: "Vpot switch 8",
	AssignTrack:      "Assign Track",
	AssignSend:       "Assign Send",
	AssignPan:        "Assign Pan/Surround",
	AssignPlugin:     "Assign Plug-in",
	AssignEQ:         "Assign EQ",
	AssignInstrument: "Assign Instrument",
	BankL:            "Bank Left",
	BankR:            "Bank Right",
	ChannelL:         "Channel Left",
	ChannelR:         "Channel Right",
	Flip:             "Flip",
	GlobalView:       "Global",
	NameValue:        "Name / Value Button",
	SMPTEBeats:       "SMPTE / BEATS Button",

	F1: "F1", F2: "F2", F3: "F3", F4: "F4",
	F5: "F5", F6: "F6", F7: "F7", F8: "F8",

	MIDITracks:      "MIDI Tracks",
	Inputs:          "Inputs",
	AudioTracks:     "Audio Tracks",
	AudioInstrument: "Audio Instruments",
	Aux:             "Aux",
	Busses:          "Busses",
	Outputs:         "Outputs",
	User:            "User",
	Shift:           "Shift",
	Option:          "Option",
	Control:         "Control",
	CMDAlt:          "Alt",
	Read:            "Read/Off",
	Write:           "Write",
	Trim:            "Trim",
	Touch:           "Touch",
	Latch:           "Latch",
	Group:           "Group",
	Save:            "Save",
	Undo:            "Undo",
	Cancel:          "Cancel",
	Enter:           "Enter",
	Marker:          "Markers",
	Nudge:           "Nudge",
	Cycle:           "Cycle",
	Drop:            "Drop",
	Replace:         "Replace",
	Click:           "Click",
	Solo:            "Solo",
	Rewind:          "Rewind",
	FastFwd:         "Forward",
	Stop:            "Stop",
	Play:            "Play",
	Record:          "Record",
	Up:              "Up",
	Down:            "Down",
	Left:            "Left",
	Right:           "Right",
	Zoom:            "Zoom",
	Scrub:           "Scrub",
	UserA:           "User switch 1",
	UserB:           "User switch 2",
	Fader1:          "Fader 1 Touched",
	Fader2:          "Fader 2 Touched",
	Fader3:          "Fader 3 Touched",
	Fader4:          "Fader 4 Touched",
	Fader5:          "Fader 5 Touched",
	Fader6:          "Fader 6 Touched",
	Fader7:          "Fader 7 Touched",
	Fader8:          "Fader 8 Touched",
	FaderMaster:     "Master Fader Touched",
	SMPTELed:        "SMPTE Led",
	BeatsLed:        "BEATS Led",
	RudeSolo:        "RUDE SOLO Led",
	RelayClick:      "Relay Click",
}

// IDs maps a label back to its switch.
var IDs = func() map[string]Switch {
	ids := make(map[string]Switch, len(Names))
	for k, v := range Names {
		ids[v] = k
	}
	return ids
}()

func (s Switch) String() string {
	if name, ok := Names[s]; ok {
		return name
	}
	return "Unknown"
}
