package led

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spiled/internal/channels"
	"github.com/coreman2200/funtimes-spiled/internal/pacing"
)

var (
	ErrNotOpen     = errors.New("device not open")
	ErrAlreadyOpen = errors.New("device already open")
)

// Config is fixed for the lifetime of a Device.
type Config struct {
	Name      string
	Output    string
	Type      Type
	Rate      physic.Frequency
	Interval  time.Duration
	Channels  []channels.Channel
	Debug     bool
	AllowSync bool
}

// Option customizes a Device.
type Option func(*Device)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(d *Device) { d.clock = c }
}

// WithLogger sets the parent logger; device and output fields are added.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// WithFrameHook calls fn after every successful transfer. The frame is only
// valid for the duration of the call.
func WithFrameHook(fn func(device string, frame []byte)) Option {
	return func(d *Device) { d.onFrame = fn }
}

// Device drives one LED strip on one bus. Setup, WriteOutput and Close must
// be called from a single goroutine; Sync and Status are safe from any.
type Device struct {
	cfg     Config
	proto   Protocol
	source  Source
	open    Opener
	clock   clockwork.Clock
	gate    *pacing.Gate
	log     zerolog.Logger
	onFrame func(string, []byte)

	bus    Bus
	buf    []byte
	values []float64

	isOpen   atomic.Bool
	frames   atomic.Uint64
	failures atomic.Uint64
}

func New(cfg Config, src Source, open Opener, opts ...Option) (*Device, error) {
	proto, err := cfg.Type.Protocol()
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("device %s: no channel source", cfg.Name)
	}
	if open == nil {
		return nil, fmt.Errorf("device %s: no bus opener", cfg.Name)
	}

	d := &Device{
		cfg:    cfg,
		proto:  proto,
		source: src,
		open:   open,
		clock:  clockwork.NewRealClock(),
		log:    log.Logger,
	}
	for _, o := range opts {
		o(d)
	}
	d.log = d.log.With().Str("device", cfg.Name).Str("output", cfg.Output).Logger()
	d.gate = pacing.New(d.clock, cfg.Interval)
	return d, nil
}

func (d *Device) Name() string { return d.cfg.Name }
func (d *Device) Config() Config { return d.cfg }
func (d *Device) Protocol() Protocol { return d.proto }

// Setup opens the bus, allocates the frame buffer and turns every LED off.
// On failure nothing is left open or allocated.
func (d *Device) Setup(ctx context.Context) error {
	if d.bus != nil {
		return ErrAlreadyOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.gate.Reset()

	bus, err := d.open(d.cfg.Output, d.cfg.Rate)
	if err != nil {
		setupFailures.WithLabelValues(d.cfg.Name).Inc()
		d.log.Error().Err(err).Msg("unable to open device")
		return fmt.Errorf("%s: open %s: %w", d.cfg.Name, d.cfg.Output, err)
	}

	n := len(d.cfg.Channels)
	d.bus = bus
	d.buf = make([]byte, d.proto.FrameSize(n))
	d.values = make([]float64, n)
	d.proto.Blank(d.buf, n)

	if err := d.WriteBuffer(); err != nil {
		setupFailures.WithLabelValues(d.cfg.Name).Inc()
		d.release()
		return err
	}

	d.isOpen.Store(true)
	d.log.Info().
		Str("type", string(d.cfg.Type)).
		Stringer("rate", d.cfg.Rate).
		Dur("interval", d.cfg.Interval).
		Int("channels", n).
		Int("frame_bytes", len(d.buf)).
		Msg("device set up")
	return nil
}

// WriteOutput encodes the current channel values, transfers the frame and
// then waits for the next frame boundary. A failed transfer returns at once.
func (d *Device) WriteOutput(ctx context.Context) error {
	if d.bus == nil {
		return ErrNotOpen
	}

	now := d.clock.Now()
	d.source.FillChannels(d.values, d.cfg.Channels, now)
	d.proto.Encode(d.buf, d.values)

	if err := d.WriteBuffer(); err != nil {
		return err
	}
	return d.gate.Wait(ctx)
}

// WriteBuffer transfers the frame buffer as is.
func (d *Device) WriteBuffer() error {
	if d.bus == nil {
		return ErrNotOpen
	}

	start := d.clock.Now()
	if err := d.transfer(); err != nil {
		d.failures.Add(1)
		transferFailures.WithLabelValues(d.cfg.Name).Inc()
		d.log.Error().Err(err).Msg("transfer failed")
		return fmt.Errorf("%s: %s: %w", d.cfg.Name, d.cfg.Output, err)
	}

	if d.cfg.Debug {
		d.log.Debug().Hex("frame", d.buf).Msg("tx")
	}
	if d.onFrame != nil {
		d.onFrame(d.cfg.Name, d.buf)
	}

	d.frames.Add(1)
	framesWritten.WithLabelValues(d.cfg.Name).Inc()
	transferSeconds.WithLabelValues(d.cfg.Name).Observe(d.clock.Since(start).Seconds())
	return nil
}

func (d *Device) transfer() error {
	if err := d.bus.Tx(d.buf, nil); err != nil {
		return err
	}
	if delay := d.proto.SettleDelay(); delay > 0 {
		d.clock.Sleep(delay)
	}
	return nil
}

// Close turns the LEDs off, best effort, and releases the bus and buffer.
// It is safe to call at any time and more than once.
func (d *Device) Close() {
	if d.bus != nil {
		d.proto.Blank(d.buf, len(d.cfg.Channels))
		if err := d.transfer(); err != nil {
			d.log.Debug().Err(err).Msg("final off frame not written")
		}
	}
	d.release()
}

func (d *Device) release() {
	if d.bus != nil {
		if err := d.bus.Close(); err != nil {
			d.log.Debug().Err(err).Msg("close bus")
		}
		d.bus = nil
		d.log.Info().Msg("device closed")
	}
	d.isOpen.Store(false)
	d.buf = nil
	d.values = nil
}

// Sync wakes a pending frame wait so new values go out immediately.
func (d *Device) Sync() {
	if d.cfg.AllowSync {
		d.gate.Signal()
	}
}

// Status is a point-in-time summary of a device.
type Status struct {
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Output   string `json:"output"`
	Open     bool   `json:"open"`
	Frames   uint64 `json:"frames"`
	Failures uint64 `json:"failures"`
}

func (d *Device) Status() Status {
	return Status{
		Name:     d.cfg.Name,
		Type:     d.cfg.Type,
		Output:   d.cfg.Output,
		Open:     d.isOpen.Load(),
		Frames:   d.frames.Load(),
		Failures: d.failures.Load(),
	}
}
