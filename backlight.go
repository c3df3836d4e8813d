package panel

import (
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"periph.io/x/conn/v3/gpio"
)

// Backlight is a backlight device with a power state.
type Backlight interface {
	// SetPower sets the requested power state without applying it.
	SetPower(on bool)

	// Update applies the requested state to the device.
	Update() error
}

// GPIOBacklight is a backlight switched by a GPIO pin.
type GPIOBacklight struct {
	Pin gpio.PinOut
	on  bool
}

func (b *GPIOBacklight) SetPower(on bool) {
	b.on = on
}

func (b *GPIOBacklight) Update() error {
	return b.Pin.Out(gpio.Level(b.on))
}

// Framebuffer blanking levels used by the backlight class bl_power attribute.
const (
	fbBlankUnblank   = 0
	fbBlankPowerdown = 4
)

// SysfsBacklight is a backlight class device, such as /sys/class/backlight/backlight.
type SysfsBacklight struct {
	Dir string
	FS  afero.Fs
	on  bool
}

// NewSysfsBacklight for the backlight class device directory dir.
func NewSysfsBacklight(dir string) *SysfsBacklight {
	return &SysfsBacklight{
		Dir: dir,
		FS:  afero.NewOsFs(),
	}
}

func (b *SysfsBacklight) SetPower(on bool) {
	b.on = on
}

func (b *SysfsBacklight) Update() error {
	power := fbBlankPowerdown
	if b.on {
		power = fbBlankUnblank
	}
	return afero.WriteFile(b.FS, filepath.Join(b.Dir, "bl_power"), []byte(strconv.Itoa(power)), 0o644)
}
