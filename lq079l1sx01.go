package panel

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
)

// Settle delays from the LQ079L1SX01 power sequence.
const (
	lq079DVDDSettle      = 12 * time.Millisecond
	lq079VSPSettle       = 12 * time.Millisecond
	lq079VSNSettle       = 70 * time.Millisecond
	lq079ResetPulseMin   = 1 * time.Millisecond
	lq079ResetPulseMax   = 3 * time.Millisecond
	lq079ResetSettle     = 32 * time.Millisecond
	lq079SleepOutFrames  = 6
	lq079CommandSettle   = 20 * time.Millisecond
	lq079DisplayOnSettle = 150 * time.Millisecond
	lq079DisplayOffDelay = 100 * time.Millisecond
	lq079SleepInDelay    = 150 * time.Millisecond
)

// Fixed register values.
const (
	lq079Brightness         = 0xFF
	lq079AdaptiveBrightness = 0x01
	lq079ControlDisplay     = 0x01
)

// Config is the panel configuration.
type Config struct {
	// Reset pin, shared by both halves.
	Reset gpio.PinIO

	// VSP is the positive 5.5V analog supply (avdd_lcd_vsp_5v5).
	VSP Rail

	// VSN is the negative 5.5V analog supply (avdd_lcd_vsn_5v5).
	VSN Rail

	// DVDD is the 1.8V digital supply (dvdd_lcd_1v8), nil if it is not switchable.
	DVDD Rail

	// Backlight is optional.
	Backlight Backlight

	// SwapHalves drives the left half of the frame through link1.
	SwapHalves bool

	// Clock used for settle delays, the real clock if nil.
	Clock clockwork.Clock
}

type lq079l1sx01 struct {
	dsi       *Dispatcher
	reset     gpio.PinIO
	vsp       Rail
	vsn       Rail
	dvdd      Rail
	backlight Backlight
	mode      Mode
	state     State
	closed    bool
	clock     clockwork.Clock
	jitter    func() time.Duration
	log       zerolog.Logger
}

// LQ079L1SX01 is the Sharp LQ079L1SX01 7.9" 1536x2048 dual-link panel.
//
// Both links must be known: a nil link2 returns ErrNotPaired, which the caller treats as a
// request to retry once the second half of the panel has been discovered.
func LQ079L1SX01(link1, link2 Conn, config *Config) (Panel, error) {
	if link1 == nil || link2 == nil {
		return nil, ErrNotPaired
	}
	if config == nil {
		config = new(Config)
	}
	if config.Reset == nil || config.Reset == gpio.INVALID {
		return nil, ErrMissingReset
	}
	if config.VSP == nil {
		return nil, fmt.Errorf("%w: avdd_lcd_vsp_5v5", ErrMissingRail)
	}
	if config.VSN == nil {
		return nil, fmt.Errorf("%w: avdd_lcd_vsn_5v5", ErrMissingRail)
	}

	p := &lq079l1sx01{
		dsi:       NewDispatcher(link1, link2),
		reset:     config.Reset,
		vsp:       config.VSP,
		vsn:       config.VSN,
		dvdd:      config.DVDD,
		backlight: config.Backlight,
		mode:      DefaultMode,
		clock:     config.Clock,
		jitter:    resetJitter,
	}
	if p.dvdd == nil {
		p.dvdd = alwaysOn("dvdd_lcd_1v8")
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	p.dsi.SwapHalves(config.SwapHalves)
	p.log = logger().With().Str("panel", p.String()).Logger()
	p.log.Debug().Stringer("links", p.dsi).Msg("paired")

	return p, nil
}

func resetJitter() time.Duration {
	return lq079ResetPulseMin + rand.N(lq079ResetPulseMax-lq079ResetPulseMin+1)
}

func (p *lq079l1sx01) String() string {
	return fmt.Sprintf("Sharp LQ079L1SX01 %s", p.mode)
}

func (p *lq079l1sx01) Mode() Mode {
	return p.mode
}

func (p *lq079l1sx01) State() State {
	return p.state
}

func (p *lq079l1sx01) sleep(d time.Duration) {
	p.log.Trace().Dur("delay", d).Msg("settle")
	p.clock.Sleep(d)
}

func (p *lq079l1sx01) waitFrames(frames int) error {
	d, err := p.mode.FrameDelay(frames)
	if err != nil {
		return err
	}
	p.sleep(d)
	return nil
}

func (p *lq079l1sx01) enableRail(r Rail, settle time.Duration) error {
	if err := r.Enable(); err != nil {
		return &RailError{Rail: r.String(), Err: err}
	}
	p.log.Debug().Str("rail", r.String()).Msg("enabled")
	p.sleep(settle)
	return nil
}

// powerOff disables all rails, in reverse enable order.
func (p *lq079l1sx01) powerOff() {
	for _, r := range []Rail{p.vsn, p.vsp, p.dvdd} {
		if err := r.Disable(); err != nil {
			p.log.Warn().Err(err).Str("rail", r.String()).Msg("disable failed")
		}
	}
}

func (p *lq079l1sx01) setReset(level gpio.Level) {
	if err := p.reset.Out(level); err != nil {
		p.log.Warn().Err(err).Stringer("level", level).Msg("reset line write failed")
	}
}

// pulseReset resets the panel, unless the reset line is already released.
func (p *lq079l1sx01) pulseReset() {
	if p.reset.Read() == gpio.High {
		p.log.Debug().Msg("reset line high, skipping reset")
		return
	}
	p.setReset(gpio.High)
	p.sleep(p.jitter())
	p.setReset(gpio.Low)
	p.sleep(p.jitter())
	p.setReset(gpio.High)
	p.sleep(lq079ResetSettle)
}

func (p *lq079l1sx01) writeSettle(what string, cmd, value byte) error {
	if err := p.dsi.WriteControl(cmd, value); err != nil {
		return fmt.Errorf("panel: failed to write %s: %w", what, err)
	}
	p.sleep(lq079CommandSettle)
	return nil
}

func (p *lq079l1sx01) Prepare() (err error) {
	if p.closed {
		return ErrClosed
	}
	if p.state != Idle {
		return nil
	}

	defer func() {
		if err != nil {
			p.powerOff()
			p.log.Error().Err(err).Msg("prepare failed, powered off")
		}
	}()

	if err = p.enableRail(p.dvdd, lq079DVDDSettle); err != nil {
		return
	}
	if err = p.enableRail(p.vsp, lq079VSPSettle); err != nil {
		return
	}
	if err = p.enableRail(p.vsn, lq079VSNSettle); err != nil {
		return
	}

	p.pulseReset()

	if err = p.dsi.ApplySplitAddressing(p.mode); err != nil {
		return fmt.Errorf("panel: failed to set up symmetrical split: %w", err)
	}

	if err = p.dsi.ExitSleepMode(); err != nil {
		return fmt.Errorf("panel: failed to exit sleep mode: %w", err)
	}
	if err = p.waitFrames(lq079SleepOutFrames); err != nil {
		return
	}

	if err = p.dsi.SetPixelFormat(PixelFormat24Bit); err != nil {
		return fmt.Errorf("panel: failed to set pixel format: %w", err)
	}

	if err = p.writeSettle("display brightness", dcsWriteDisplayBright, lq079Brightness); err != nil {
		return
	}
	if err = p.writeSettle("adaptive brightness control", dcsWriteAdaptiveBrightC, lq079AdaptiveBrightness); err != nil {
		return
	}
	if err = p.writeSettle("control display", dcsWriteControlDisplay, lq079ControlDisplay); err != nil {
		return
	}

	if err = p.dsi.SetDisplayOn(); err != nil {
		return fmt.Errorf("panel: failed to set display on: %w", err)
	}
	p.sleep(lq079DisplayOnSettle)

	p.state = Prepared
	p.log.Info().Msg("prepared")
	return nil
}

func (p *lq079l1sx01) setBacklight(on bool) {
	if p.backlight == nil {
		return
	}
	p.backlight.SetPower(on)
	if err := p.backlight.Update(); err != nil {
		p.log.Warn().Err(err).Bool("on", on).Msg("backlight update failed")
	}
}

// Enable is a no-op while the panel is idle, so that a following Prepare still powers it up.
func (p *lq079l1sx01) Enable() error {
	if p.closed {
		return ErrClosed
	}
	switch p.state {
	case Enabled:
		return nil
	case Idle:
		p.log.Warn().Msg("enable called before prepare, ignored")
		return nil
	}

	p.setBacklight(true)
	p.state = Enabled
	p.log.Info().Msg("enabled")
	return nil
}

func (p *lq079l1sx01) Disable() error {
	if p.closed {
		return ErrClosed
	}
	if p.state != Enabled {
		return nil
	}

	p.setBacklight(false)
	p.state = Prepared
	p.log.Info().Msg("disabled")
	return nil
}

// Unprepare is best effort: command failures are logged and the rails are always disabled.
func (p *lq079l1sx01) Unprepare() error {
	if p.closed {
		return ErrClosed
	}
	if p.state == Idle {
		return nil
	}
	if p.state == Enabled {
		_ = p.Disable()
	}

	if err := p.dsi.SetDisplayOff(); err != nil {
		p.log.Warn().Err(err).Msg("display off failed")
	}
	p.sleep(lq079DisplayOffDelay)
	if err := p.dsi.EnterSleepMode(); err != nil {
		p.log.Warn().Err(err).Msg("enter sleep mode failed")
	}
	p.sleep(lq079SleepInDelay)

	p.powerOff()
	p.state = Idle
	p.log.Info().Msg("unprepared")
	return nil
}

func (p *lq079l1sx01) Shutdown() {
	if p.closed {
		return
	}
	p.setReset(gpio.Low)
	_ = p.Disable()
}

// Close disables the panel, closes the links and releases the rails. Rails stay in their current
// state; call Unprepare first to power the panel down. Closing a closed panel does nothing.
func (p *lq079l1sx01) Close() error {
	if p.closed {
		return nil
	}
	_ = p.Disable()
	p.closed = true

	errs := []error{p.dsi.Close()}
	for _, r := range []Rail{p.vsn, p.vsp, p.dvdd} {
		if c, ok := r.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
