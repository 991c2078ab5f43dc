package mcu

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/normen/mcu-host/gomcu"
	"github.com/normen/mcu-host/msg"
)

// fakeTransport is an in-memory Transport
type fakeTransport struct {
	mu       sync.Mutex
	inbox    []midi.Message
	closed   bool
	sendErr  error
	sent     chan midi.Message
	closeCnt int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(chan midi.Message, 4096)}
}

func (t *fakeTransport) push(frames ...[]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range frames {
		t.inbox = append(t.inbox, midi.Message(f))
	}
}

func (t *fakeTransport) Poll() (midi.Message, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, false, ErrClosed
	}
	if len(t.inbox) == 0 {
		return nil, false, nil
	}
	f := t.inbox[0]
	t.inbox = t.inbox[1:]
	return f, true, nil
}

func (t *fakeTransport) Send(frame midi.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent <- frame
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.closeCnt++
	return nil
}

var deviceQueryFrame = []byte{0xF0, 0x00, 0x00, 0x66, 0x14, 0x00, 0xF7}

// nextFrame returns the next transmitted frame that is not a heartbeat
func nextFrame(t *testing.T, ft *fakeTransport) midi.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f := <-ft.sent:
			if bytes.Equal(f, deviceQueryFrame) {
				continue
			}
			return f
		case <-timeout:
			t.Fatal("timed out waiting for a transmitted frame")
			return nil
		}
	}
}

func startDevice(t *testing.T, opts Options) (*Device, *fakeTransport, <-chan error) {
	t.Helper()
	ft := newFakeTransport()
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = time.Hour
	}
	d := NewDevice(ft, opts)
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	t.Cleanup(func() {
		d.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after Close")
		}
	})
	return d, ft, done
}

func TestValidation(t *testing.T) {
	d := NewDevice(newFakeTransport(), Options{})
	tests := []struct {
		name string
		call func() error
	}{
		{"fader negative", func() error { return d.SetFader(-1, 0) }},
		{"fader too high", func() error { return d.SetFader(9, 0) }},
		{"fader position", func() error { return d.SetFader(0, 0x4000) }},
		{"sensitivity", func() error { return d.ConfigTouchSensitivity(0, 6) }},
		{"sensitivity fader", func() error { return d.ConfigTouchSensitivity(9, 3) }},
		{"colour", func() error { return d.UpdateLCDColour(0, 16) }},
		{"colour index", func() error { return d.UpdateLCDColour(8, 1) }},
		{"colours", func() error { return d.UpdateLCDColours([8]byte{0, 0, 0, 0x10}) }},
		{"led state", func() error { return d.SetLED(3, gomcu.LEDState(5)) }},
		{"led index", func() error { return d.SetLED(0x80, gomcu.LEDOn) }},
		{"vpot mode", func() error { return d.SetVPotLED(0, 4, 0, false) }},
		{"lcd offset", func() error { return d.UpdateLCD("x", 112) }},
		{"lcd overflow", func() error { return d.UpdateLCD("abc", 110) }},
		{"lcd line", func() error { return d.UpdateLCDSegment(0, 2, "x", Truncate) }},
		{"lcd non ascii", func() error { return d.UpdateLCD("Café", 0) }},
		{"segment non ascii", func() error { return d.UpdateLCDSegment(0, 0, "Café", Truncate) }},
		{"abbreviate non ascii", func() error { return d.UpdateLCDSegment(0, 1, "Überschrift", Abbreviate) }},
		{"strip non ascii", func() error { return d.UpdateLCDStrip(0, "Bass", "Gerät") }},
		{"timecode", func() error { return d.UpdateTimecode("0123456789ABC", 0, gomcu.RightToLeft) }},
		{"backlight", func() error { return d.ConfigLCDBacklight(128) }},
		{"meter mode", func() error { return d.ConfigChannelMeterMode(8, 0) }},
		{"meter", func() error { return d.SetMeter(8, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
			if n := len(d.tx); n != 0 {
				t.Errorf("%d messages queued after validation error", n)
			}
		})
	}
	if d.LCDColours()[0] != gomcu.LCDWhite {
		t.Error("colour mirror changed by rejected command")
	}
}

func TestQueueFull(t *testing.T) {
	d := NewDevice(newFakeTransport(), Options{QueueSize: 2})
	if err := d.SetLED(1, gomcu.LEDOn); err != nil {
		t.Fatal(err)
	}
	if err := d.SetLED(2, gomcu.LEDOn); err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateLCDColour(0, gomcu.LCDRed); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	if d.LCDColours()[0] != gomcu.LCDWhite {
		t.Error("colour mirror changed although nothing was queued")
	}
}

func TestQueueFullQueuesNothing(t *testing.T) {
	d := NewDevice(newFakeTransport(), Options{QueueSize: 3})
	if err := d.SetLED(1, gomcu.LEDOn); err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateTimecode("ABC", 0, gomcu.RightToLeft); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("UpdateTimecode err = %v, want ErrQueueFull", err)
	}
	if n := len(d.tx); n != 1 {
		t.Fatalf("%d messages queued, want only the LED", n)
	}
	if err := d.UpdateLCDStrip(0, "Kick", "In 1"); err != nil {
		t.Fatalf("UpdateLCDStrip err = %v", err)
	}
	if err := d.UpdateLCDStrip(1, "Snare", "In 2"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("UpdateLCDStrip err = %v, want ErrQueueFull", err)
	}
	if n := len(d.tx); n != 3 {
		t.Errorf("%d messages queued, want 3", n)
	}
}

func lcdFrame(offset byte, text string) []byte {
	frame := []byte{0xF0, 0x00, 0x00, 0x66, 0x14, 0x12, offset}
	frame = append(frame, text...)
	return append(frame, 0xF7)
}

func TestLCDSegmentText(t *testing.T) {
	d, ft, _ := startDevice(t, Options{})
	tests := []struct {
		name string
		call func() error
		want [][]byte
	}{
		{
			"truncate",
			func() error { return d.UpdateLCDSegment(1, 0, "Abcdefghij", Truncate) },
			[][]byte{lcdFrame(7, "Abcdefg")},
		},
		{
			"centre",
			func() error { return d.UpdateLCDSegment(2, 1, "Vox", Truncate) },
			[][]byte{lcdFrame(0x38+14, "  Vox  ")},
		},
		{
			"wrap",
			func() error { return d.UpdateLCDSegment(0, 0, "Guitar Left", Wrap) },
			[][]byte{lcdFrame(0, "Guitar "), lcdFrame(0x38, " Left  ")},
		},
		{
			"abbreviate",
			func() error { return d.UpdateLCDSegment(3, 0, "Input 12", Abbreviate) },
			[][]byte{lcdFrame(21, " In 12 ")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				got := nextFrame(t, ft)
				if !bytes.Equal(got, want) {
					t.Errorf("frame = % X, want % X", []byte(got), want)
				}
				for _, b := range got[1 : len(got)-1] {
					if b > 0x7F {
						t.Errorf("status byte 0x%02X inside SysEx frame", b)
					}
				}
			}
		})
	}
}

func TestOutboundOrder(t *testing.T) {
	ft := newFakeTransport()
	d := NewDevice(ft, Options{HeartbeatInterval: time.Hour})
	if err := d.UpdateLCD("A", 0); err != nil {
		t.Fatal(err)
	}
	if err := d.SetVPotLED(1, gomcu.RingSingle, 3, false); err != nil {
		t.Fatal(err)
	}
	if err := d.ConfigLCDMeterMode(true); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	defer func() {
		d.Close()
		<-done
	}()

	want := [][]byte{
		{0xF0, 0x00, 0x00, 0x66, 0x14, 0x12, 0x00, 'A', 0xF7},
		{0xB0, 0x31, 0x03},
		{0xF0, 0x00, 0x00, 0x66, 0x14, 0x21, 0x01, 0xF7},
	}
	for i, w := range want {
		if got := nextFrame(t, ft); !bytes.Equal(got, w) {
			t.Errorf("frame %d = % X, want % X", i, []byte(got), w)
		}
	}
}

func TestNoteOnPairing(t *testing.T) {
	d, ft, _ := startDevice(t, Options{})
	if err := d.SetLED(3, gomcu.LEDOn); err != nil {
		t.Fatal(err)
	}
	if got := nextFrame(t, ft); !bytes.Equal(got, []byte{0x90, 0x03, 0x7F}) {
		t.Fatalf("first frame = % X", []byte(got))
	}
	if got := nextFrame(t, ft); !bytes.Equal(got, []byte{0x90, 0x03, 0x00}) {
		t.Fatalf("second frame = % X", []byte(got))
	}
}

func TestHeartbeat(t *testing.T) {
	ft := newFakeTransport()
	d := NewDevice(ft, Options{HeartbeatInterval: 10 * time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	defer func() {
		d.Close()
		<-done
	}()
	for i := 0; i < 3; i++ {
		select {
		case f := <-ft.sent:
			if !bytes.Equal(f, deviceQueryFrame) {
				t.Fatalf("frame = % X, want device query", []byte(f))
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no heartbeat")
		}
	}
}

func TestHandshake(t *testing.T) {
	d, ft, _ := startDevice(t, Options{})
	connected := make(chan msg.ConnectionState, 1)
	d.SetHandlers(Handlers{OnConnection: func(s msg.ConnectionState) { connected <- s }})

	ft.push([]byte{0xF0, 0x00, 0x00, 0x66, 0x14, 0x01, 'S', 'E', 'R', 'I', 'A', 'L', '1', 0x12, 0x34, 0x56, 0x78, 0xF7})
	want := []byte{0xF0, 0x00, 0x00, 0x66, 0x14, 0x02, 'S', 'E', 'R', 'I', 'A', 'L', '1', 0x58, 0x0F, 0x16, 0x4E, 0xF7}
	if got := nextFrame(t, ft); !bytes.Equal(got, want) {
		t.Fatalf("reply = % X, want % X", []byte(got), want)
	}
	if d.Connected() {
		t.Fatal("connected before confirmation")
	}

	ft.push([]byte{0xF0, 0x00, 0x00, 0x66, 0x14, 0x03, 'S', 'E', 'R', 'I', 'A', 'L', '1', 0xF7})
	select {
	case s := <-connected:
		if !s.Connected || s.Serial != "SERIAL1" {
			t.Errorf("state = %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no connection callback")
	}
	if !d.Connected() {
		t.Error("Connected() = false after confirmation")
	}

	ft.push([]byte{0xF0, 0x00, 0x00, 0x66, 0x14, 0x04, 'S', 'E', 'R', 'I', 'A', 'L', '1', 0xF7})
	select {
	case s := <-connected:
		if s.Connected {
			t.Error("still connected after connection error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no connection callback")
	}
}

func TestTouchCommit(t *testing.T) {
	d, ft, _ := startDevice(t, Options{})
	committed := make(chan msg.FaderState, 4)
	buttons := make(chan gomcu.ButtonPressEvent, 4)
	raw := make(chan gomcu.FaderMoveEvent, 8)
	d.SetHandlers(Handlers{
		OnManagedFader: func(s msg.FaderState) { committed <- s },
		OnRawFader:     func(e gomcu.FaderMoveEvent) { raw <- e },
		OnButton:       func(e gomcu.ButtonPressEvent) { buttons <- e },
	})

	ft.push(
		[]byte{0x90, 0x69, 0x7F},
		[]byte{0xE1, 500 & 0x7F, 500 >> 7},
		[]byte{0xE1, 900 & 0x7F, 900 >> 7},
		[]byte{0x90, 0x69, 0x00},
	)
	select {
	case s := <-committed:
		if s.Index != 1 || s.Latched != 900 || s.Touched {
			t.Errorf("committed = %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no fader commit")
	}
	want := []byte{0xE1, 900 & 0x7F, 900 >> 7}
	if got := nextFrame(t, ft); !bytes.Equal(got, want) {
		t.Errorf("commit frame = % X, want % X", []byte(got), want)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-raw:
		case <-time.After(2 * time.Second):
			t.Fatal("missing raw fader callback")
		}
	}
	for _, pressed := range []bool{true, false} {
		select {
		case e := <-buttons:
			if e.Index != 0x69 || e.Pressed != pressed {
				t.Errorf("button = %+v, want pressed %v", e, pressed)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("missing button callback")
		}
	}
	s, err := d.Fader(1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Raw != 900 || s.Latched != 900 {
		t.Errorf("fader state = %+v", s)
	}
}

func TestSetFaderCommits(t *testing.T) {
	d, ft, _ := startDevice(t, Options{})
	committed := make(chan msg.FaderState, 4)
	d.SetHandlers(Handlers{OnManagedFader: func(s msg.FaderState) { committed <- s }})
	if err := d.SetFader(8, 16383); err != nil {
		t.Fatal(err)
	}
	want := []byte{0xE8, 0x7F, 0x7F}
	if got := nextFrame(t, ft); !bytes.Equal(got, want) {
		t.Errorf("frame = % X, want % X", []byte(got), want)
	}
	select {
	case s := <-committed:
		if s.Index != 8 || s.Latched != 16383 {
			t.Errorf("committed = %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no fader commit")
	}
}

func TestTouchlessConfig(t *testing.T) {
	d, ft, _ := startDevice(t, Options{})
	if err := d.ConfigTouchless(true); err != nil {
		t.Fatal(err)
	}
	if got := nextFrame(t, ft); !bytes.Equal(got, []byte{0xF0, 0x00, 0x00, 0x66, 0x14, 0x0C, 0x01, 0xF7}) {
		t.Fatalf("frame = % X", []byte(got))
	}
	raw := make(chan struct{}, 1)
	d.SetHandlers(Handlers{OnRawFader: func(gomcu.FaderMoveEvent) { raw <- struct{}{} }})
	ft.push([]byte{0xE0, 0x10, 0x10})
	select {
	case <-raw:
	case <-time.After(2 * time.Second):
		t.Fatal("no raw fader callback")
	}
	s, _ := d.Fader(0)
	if !s.Touchless || s.Raw != 0 {
		t.Errorf("untouched fader in touchless mode = %+v", s)
	}
}

func TestControlCallbacks(t *testing.T) {
	d, ft, _ := startDevice(t, Options{})
	vpots := make(chan gomcu.VPotMoveEvent, 1)
	wheel := make(chan gomcu.ScrollWheelMoveEvent, 1)
	d.SetHandlers(Handlers{
		OnVPot:        func(e gomcu.VPotMoveEvent) { vpots <- e },
		OnScrollWheel: func(e gomcu.ScrollWheelMoveEvent) { wheel <- e },
	})
	ft.push([]byte{0xB0, 0x12, 0x42}, []byte{0xF0, 0x00, 0x00, 0x66, 0x14, 0x55, 0xF7}, []byte{0xB0, 0x3C, 0x01})
	select {
	case e := <-vpots:
		if e.Index != 2 || e.Delta != -2 {
			t.Errorf("vpot = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no vpot callback")
	}
	select {
	case e := <-wheel:
		if e.Delta != 1 {
			t.Errorf("wheel = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no wheel callback")
	}
}

func TestCloseEndsRun(t *testing.T) {
	ft := newFakeTransport()
	d := NewDevice(ft, Options{HeartbeatInterval: time.Hour})
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	time.Sleep(10 * time.Millisecond)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Run = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	if err := d.SetLED(1, gomcu.LEDOn); !errors.Is(err, ErrClosed) {
		t.Errorf("SetLED after Close = %v, want ErrClosed", err)
	}
	d.Close()
	if ft.closeCnt != 1 {
		t.Errorf("transport closed %d times", ft.closeCnt)
	}
}

func TestTransportFailure(t *testing.T) {
	ft := newFakeTransport()
	boom := errors.New("cable pulled")
	ft.sendErr = boom
	d := NewDevice(ft, Options{HeartbeatInterval: time.Hour})
	select {
	case err := <-runAsync(d):
		if !errors.Is(err, boom) {
			t.Errorf("Run = %v, want %v", err, boom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not fail")
	}
}

func TestContextCancel(t *testing.T) {
	d := NewDevice(newFakeTransport(), Options{HeartbeatInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func runAsync(d *Device) <-chan error {
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	return done
}

type recordingSurface struct {
	mu   sync.Mutex
	msgs []gomcu.Message
}

func (r *recordingSurface) Apply(m gomcu.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func TestSurfaceModelFed(t *testing.T) {
	rec := &recordingSurface{}
	d, ft, _ := startDevice(t, Options{Surface: rec})
	if err := d.SetLED(gomcu.Play, gomcu.LEDOn); err != nil {
		t.Fatal(err)
	}
	nextFrame(t, ft)
	nextFrame(t, ft)
	ft.push([]byte{0x90, 0x5E, 0x7F})
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec.mu.Lock()
		var led, button bool
		for _, m := range rec.msgs {
			switch m.(type) {
			case gomcu.SetLED:
				led = true
			case gomcu.ButtonPressEvent:
				button = true
			}
		}
		rec.mu.Unlock()
		if led && button {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("surface model did not see LED and button messages")
}
