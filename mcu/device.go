package mcu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"github.com/normen/mcu-host/gomcu"
	"github.com/normen/mcu-host/msg"
)

var (
	// ErrInvalidArgument is wrapped by every validation failure of a command.
	ErrInvalidArgument = errors.New("mcu: invalid argument")
	// ErrQueueFull is returned when the outbound queue cannot take a message.
	ErrQueueFull = errors.New("mcu: outbound queue full")
)

// defaults
const (
	DefaultFaders            = 9
	DefaultQueueSize         = 1024
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultPollInterval      = time.Millisecond
)

// SurfaceModel receives every decoded or transmitted message. It has no
// influence on the protocol.
type SurfaceModel interface {
	Apply(m gomcu.Message)
}

// Handlers are the optional event callbacks. A nil field means no callback.
// Callbacks run on the session goroutines without any lock held, so they may
// call back into the Device.
type Handlers struct {
	OnRawFader     func(gomcu.FaderMoveEvent)
	OnManagedFader func(msg.FaderState)
	OnButton       func(gomcu.ButtonPressEvent)
	OnVPot         func(gomcu.VPotMoveEvent)
	OnScrollWheel  func(gomcu.ScrollWheelMoveEvent)
	OnConnection   func(msg.ConnectionState)
}

type Options struct {
	// Faders is the number of motor faders including master.
	Faders int
	// TouchBase is the button index of the first fader touch sensor. The
	// following Faders-1 indices belong to the remaining faders.
	TouchBase         gomcu.Switch
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	QueueSize         int
	Logger            *zap.Logger
	Surface           SurfaceModel
}

func (o *Options) setDefaults() {
	if o.Faders <= 0 {
		o.Faders = DefaultFaders
	}
	if o.TouchBase == 0 {
		o.TouchBase = gomcu.Fader1
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Device is a session with one control surface.
type Device struct {
	opts      Options
	transport Transport
	log       *zap.Logger

	tx        chan gomcu.Message
	txMu      sync.Mutex
	txFreed   chan struct{}
	responses chan gomcu.Message
	commit    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	faders     []*ManagedFader
	lcdColours [gomcu.LCDSegments]byte
	touchless  bool
	connection msg.ConnectionState
	handlers   Handlers
}

// NewDevice creates a session on an open transport. Nothing is sent before Run.
func NewDevice(t Transport, opts Options) *Device {
	opts.setDefaults()
	d := &Device{
		opts:      opts,
		transport: t,
		log:       opts.Logger,
		tx:        make(chan gomcu.Message, opts.QueueSize),
		txFreed:   make(chan struct{}, 1),
		responses: make(chan gomcu.Message, opts.QueueSize),
		commit:    make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
	d.faders = make([]*ManagedFader, opts.Faders)
	for i := range d.faders {
		d.faders[i] = NewManagedFader(byte(i), d.commit)
	}
	for i := range d.lcdColours {
		d.lcdColours[i] = gomcu.LCDWhite
	}
	return d
}

// SetHandlers replaces the event callbacks.
func (d *Device) SetHandlers(h Handlers) {
	d.mu.Lock()
	d.handlers = h
	d.mu.Unlock()
}

// Run starts the session tasks and blocks until ctx ends, the device is
// closed or the transport fails. The returned error is the first task error.
func (d *Device) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	tasks := []struct {
		name string
		run  func(context.Context) error
	}{
		{"tx", d.txLoop},
		{"rx", d.rxLoop},
		{"response", d.responseLoop},
		{"fader commit", d.commitLoop},
		{"heartbeat", d.heartbeatLoop},
	}
	errs := make(chan error, len(tasks))
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil {
				d.log.Debug("task ended", zap.String("task", name), zap.Error(err))
				errs <- err
				cancel()
			}
		}(task.name, task.run)
	}
	wg.Wait()
	close(errs)
	if err, ok := <-errs; ok {
		return err
	}
	select {
	case <-d.closed:
		return ErrClosed
	default:
	}
	return ctx.Err()
}

// Close closes the transport and ends Run.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.closed)
		err = d.transport.Close()
	})
	return err
}

// Connected reports whether the device confirmed the handshake.
func (d *Device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connection.Connected
}

func (d *Device) Connection() msg.ConnectionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connection
}

// Fader returns a snapshot of one managed fader.
func (d *Device) Fader(index int) (msg.FaderState, error) {
	if err := d.checkFader(index); err != nil {
		return msg.FaderState{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faders[index].State(), nil
}

// Faders returns snapshots of all managed faders.
func (d *Device) Faders() []msg.FaderState {
	d.mu.Lock()
	defer d.mu.Unlock()
	states := make([]msg.FaderState, len(d.faders))
	for i, f := range d.faders {
		states[i] = f.State()
	}
	return states
}

func (d *Device) LCDColours() [gomcu.LCDSegments]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lcdColours
}

func (d *Device) Touchless() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touchless
}

// enqueue queues all messages or none of them. It never blocks, the caller
// gets ErrQueueFull instead.
func (d *Device) enqueue(msgs ...gomcu.Message) error {
	select {
	case <-d.closed:
		return ErrClosed
	default:
	}
	d.txMu.Lock()
	defer d.txMu.Unlock()
	if cap(d.tx)-len(d.tx) < len(msgs) {
		return ErrQueueFull
	}
	// only txLoop takes from the queue, so these sends cannot block
	for _, m := range msgs {
		d.tx <- m
	}
	return nil
}

// put blocks until the queue has room or ctx ends
func (d *Device) put(ctx context.Context, m gomcu.Message) error {
	for {
		d.txMu.Lock()
		select {
		case d.tx <- m:
			d.txMu.Unlock()
			return nil
		default:
		}
		d.txMu.Unlock()
		select {
		case <-d.txFreed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Device) callbacks() Handlers {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handlers
}

// Tasks

func (d *Device) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		if err := d.put(ctx, gomcu.DeviceQuery{}); err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (d *Device) txLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-d.tx:
			select {
			case d.txFreed <- struct{}{}:
			default:
			}
			if err := d.transmit(m); err != nil {
				return err
			}
		}
	}
}

func (d *Device) transmit(m gomcu.Message) error {
	frame, err := gomcu.Encode(m)
	if err != nil {
		d.log.DPanic("cannot encode message", zap.String("type", fmt.Sprintf("%T", m)), zap.Error(err))
		return nil
	}
	if err := d.transport.Send(frame); err != nil {
		return err
	}
	// a note on is always paired with its note off
	if frame[0] == gomcu.StatusNoteOn {
		if err := d.transport.Send(midi.Message{gomcu.StatusNoteOn, frame[1], 0x00}); err != nil {
			return err
		}
	}
	d.log.Debug("tx", zap.Stringer("frame", frame))
	if d.opts.Surface != nil {
		d.opts.Surface.Apply(m)
	}
	return nil
}

func (d *Device) rxLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for {
			frame, ok, err := d.transport.Poll()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			d.dispatch(frame)
		}
	}
}

func (d *Device) responseLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-d.responses:
			switch e := m.(type) {
			case gomcu.HostConnectionQuery:
				d.log.Info("connection query", zap.String("serial", e.Serial))
				if err := d.put(ctx, gomcu.NewHostConnectionReply(e)); err != nil {
					return nil
				}
			default:
				d.log.Warn("no response for message", zap.String("type", fmt.Sprintf("%T", m)))
			}
		}
	}
}

func (d *Device) commitLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.commit:
		}
		var states []msg.FaderState
		d.mu.Lock()
		for _, f := range d.faders {
			if f.Pending() {
				f.Clear()
				states = append(states, f.State())
			}
		}
		h := d.handlers
		d.mu.Unlock()
		for _, s := range states {
			if err := d.put(ctx, gomcu.FaderMoveEvent{Index: s.Index, Position: s.Latched}); err != nil {
				return nil
			}
			if h.OnManagedFader != nil {
				h.OnManagedFader(s)
			}
		}
	}
}

// dispatch classifies one inbound frame
func (d *Device) dispatch(frame midi.Message) {
	m, err := gomcu.Decode(frame)
	if err != nil {
		d.log.Debug("dropping frame", zap.Stringer("frame", frame), zap.Error(err))
		return
	}
	d.log.Debug("rx", zap.Stringer("frame", frame))
	if d.opts.Surface != nil {
		d.opts.Surface.Apply(m)
	}
	h := d.callbacks()
	switch e := m.(type) {
	case gomcu.FaderMoveEvent:
		if int(e.Index) < len(d.faders) {
			d.mu.Lock()
			d.faders[e.Index].Update(e.Position)
			d.mu.Unlock()
		}
		if h.OnRawFader != nil {
			h.OnRawFader(e)
		}
	case gomcu.ButtonPressEvent:
		if i := int(e.Index) - int(d.opts.TouchBase); i >= 0 && i < len(d.faders) {
			d.mu.Lock()
			d.faders[i].Touch(e.Pressed)
			d.mu.Unlock()
		}
		if h.OnButton != nil {
			h.OnButton(e)
		}
	case gomcu.VPotMoveEvent:
		if h.OnVPot != nil {
			h.OnVPot(e)
		}
	case gomcu.ScrollWheelMoveEvent:
		if h.OnScrollWheel != nil {
			h.OnScrollWheel(e)
		}
	default:
		if m.ResponseRequired() {
			select {
			case d.responses <- m:
			default:
				d.log.Warn("response queue full, dropping message", zap.String("type", fmt.Sprintf("%T", m)))
			}
			return
		}
		d.updateConnection(m, h)
	}
}

func (d *Device) updateConnection(m gomcu.Message, h Handlers) {
	d.mu.Lock()
	switch e := m.(type) {
	case gomcu.HostConnectionConfirmation:
		d.connection.Connected = true
		d.connection.Serial = e.Serial
		d.log.Info("device connected", zap.String("serial", e.Serial))
	case gomcu.HostConnectionError:
		d.connection.Connected = false
		d.connection.Serial = e.Serial
		d.log.Warn("device rejected connection", zap.String("serial", e.Serial))
	case gomcu.FirmwareVersionResponse:
		d.connection.Firmware = e.Version
		d.log.Info("firmware version", zap.String("version", e.Version))
	default:
		d.mu.Unlock()
		return
	}
	state := d.connection
	d.mu.Unlock()
	if h.OnConnection != nil {
		h.OnConnection(state)
	}
}
