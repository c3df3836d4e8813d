package panel

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/warthog618/gpiod"
	"periph.io/x/conn/v3/gpio"
)

// RailError is a power rail that failed to enable.
type RailError struct {
	Rail string
	Err  error
}

func (e *RailError) Error() string {
	return fmt.Sprintf("panel: failed to enable %s: %v", e.Rail, e.Err)
}

func (e *RailError) Unwrap() error {
	return e.Err
}

// Rail is a switchable power supply.
type Rail interface {
	String() string

	// Enable the supply.
	Enable() error

	// Disable the supply. Disabling a disabled supply is not an error.
	Disable() error
}

// alwaysOn is an unswitched supply.
type alwaysOn string

func (r alwaysOn) String() string { return string(r) }
func (alwaysOn) Enable() error    { return nil }
func (alwaysOn) Disable() error   { return nil }

// GPIORail is a supply behind a load switch or regulator enable pin.
type GPIORail struct {
	Name      string
	Pin       gpio.PinOut
	ActiveLow bool
}

func (r *GPIORail) String() string {
	return r.Name
}

func (r *GPIORail) Enable() error {
	return r.Pin.Out(gpio.Level(!r.ActiveLow))
}

func (r *GPIORail) Disable() error {
	return r.Pin.Out(gpio.Level(r.ActiveLow))
}

// LineRail is a supply enable line requested through the GPIO character device.
type LineRail struct {
	name      string
	chip      *gpiod.Chip
	line      *gpiod.Line
	activeLow bool
}

// OpenLineRail requests offset on the named gpiochip as an output, initially disabled.
func OpenLineRail(name, chip string, offset int, activeLow bool) (*LineRail, error) {
	c, err := gpiod.NewChip(chip, gpiod.WithConsumer("panel-"+name))
	if err != nil {
		return nil, fmt.Errorf("panel: open %s for %s failed: %w", chip, name, err)
	}

	r := &LineRail{
		name:      name,
		chip:      c,
		activeLow: activeLow,
	}
	if r.line, err = c.RequestLine(offset, gpiod.AsOutput(r.value(false))); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("panel: request %s line %d for %s failed: %w", chip, offset, name, err)
	}
	return r, nil
}

func (r *LineRail) value(on bool) int {
	if on != r.activeLow {
		return 1
	}
	return 0
}

func (r *LineRail) String() string {
	return r.name
}

func (r *LineRail) Enable() error {
	return r.line.SetValue(r.value(true))
}

func (r *LineRail) Disable() error {
	return r.line.SetValue(r.value(false))
}

// Close releases the line and the chip.
func (r *LineRail) Close() error {
	return errors.Join(r.line.Close(), r.chip.Close())
}

// Userspace consumer states, see Documentation/ABI/testing/sysfs-platform-regulator-userspace-consumer.
const (
	sysfsRailEnabled  = "enabled"
	sysfsRailDisabled = "disabled"
)

// SysfsRail is a regulator exposed through a reg-userspace-consumer device.
type SysfsRail struct {
	Name string
	Dir  string // Device directory holding the state attribute
	FS   afero.Fs
}

// NewSysfsRail for the userspace consumer device at dir.
func NewSysfsRail(name, dir string) *SysfsRail {
	return &SysfsRail{
		Name: name,
		Dir:  dir,
		FS:   afero.NewOsFs(),
	}
}

func (r *SysfsRail) String() string {
	return r.Name
}

func (r *SysfsRail) write(state string) error {
	return afero.WriteFile(r.FS, filepath.Join(r.Dir, "state"), []byte(state), 0o644)
}

func (r *SysfsRail) Enable() error {
	return r.write(sysfsRailEnabled)
}

func (r *SysfsRail) Disable() error {
	return r.write(sysfsRailDisabled)
}
