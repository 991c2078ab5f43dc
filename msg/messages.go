// Package msg holds the values handed to session callbacks. They are copies,
// so callbacks cannot change session state through them.
package msg

// FaderState is a snapshot of a managed fader.
type FaderState struct {
	Index     byte
	Raw       uint16
	Latched   uint16
	Touched   bool
	Touchless bool
	// LatchedDB is the latched position on the fader's dB scale.
	LatchedDB float64
}

// ConnectionState describes the handshake with the device.
type ConnectionState struct {
	Connected bool
	Serial    string
	Firmware  string
}
