// Package config loads the YAML description of how a panel is wired to the host.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultSPISpeedHz = 8_000_000
	DefaultI2CAddr    = 0x45
)

// Bus types.
const (
	BusSPI = "spi"
	BusI2C = "i2c"
)

// Rail and backlight types.
const (
	TypeGPIO  = "gpio"
	TypeGPIOD = "gpiod"
	TypeSysfs = "sysfs"
	TypeNone  = "none"
)

var ErrAnalogRail = errors.New("config: analog rails (vsp, vsn) can not be of type none")

// Link is the command transport of one panel half.
type Link struct {
	// Bus is "spi" (DBI with a data/command pin) or "i2c" (command bridge).
	Bus string `yaml:"bus" validate:"required,oneof=spi i2c"`

	// Port is the SPI port or I²C bus name, empty for the first available.
	Port string `yaml:"port"`

	// DC is the data/command GPIO pin name, SPI only.
	DC string `yaml:"dc" validate:"required_if=Bus spi"`

	// CE is an optional chip enable GPIO pin name, SPI only.
	CE string `yaml:"ce"`

	SpeedHz uint32 `yaml:"speed_hz"`
	Mode    uint8  `yaml:"mode" validate:"lte=3"`

	// Addr is the I²C address of the bridge.
	Addr uint16 `yaml:"addr" validate:"lte=127"`
}

// Rail describes how a supply is switched.
type Rail struct {
	// Type is "gpio" (periph pin), "gpiod" (character device line), "sysfs" (userspace regulator
	// consumer) or "none" (always on).
	Type      string `yaml:"type" validate:"oneof=gpio gpiod sysfs none"`
	Pin       string `yaml:"pin" validate:"required_if=Type gpio"`
	Chip      string `yaml:"chip" validate:"required_if=Type gpiod"`
	Line      int    `yaml:"line" validate:"gte=0"`
	Path      string `yaml:"path" validate:"required_if=Type sysfs"`
	ActiveLow bool   `yaml:"active_low"`
}

// Backlight describes the optional backlight device.
type Backlight struct {
	Type string `yaml:"type" validate:"oneof=gpio sysfs none"`
	Pin  string `yaml:"pin" validate:"required_if=Type gpio"`
	Path string `yaml:"path" validate:"required_if=Type sysfs"`
}

// Config is the panel wiring.
type Config struct {
	Link1 Link `yaml:"link1"`
	Link2 Link `yaml:"link2"`

	// Reset is the reset GPIO pin name.
	Reset string `yaml:"reset" validate:"required"`

	VSP  Rail `yaml:"vsp"`
	VSN  Rail `yaml:"vsn"`
	DVDD Rail `yaml:"dvdd"`

	Backlight Backlight `yaml:"backlight"`

	// SwapHalves drives the left half of the frame through link1.
	SwapHalves bool `yaml:"swap_halves"`

	// LogFile enables a rotated log file next to the console output.
	LogFile string `yaml:"log_file"`

	Debug bool `yaml:"debug"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	for _, l := range []*Link{&c.Link1, &c.Link2} {
		switch l.Bus {
		case BusSPI:
			if l.SpeedHz == 0 {
				l.SpeedHz = DefaultSPISpeedHz
			}
		case BusI2C:
			if l.Addr == 0 {
				l.Addr = DefaultI2CAddr
			}
		}
	}
	for _, r := range []*Rail{&c.VSP, &c.VSN} {
		if r.Type == "" {
			r.Type = TypeGPIO
		}
	}
	if c.DVDD.Type == "" {
		c.DVDD.Type = TypeNone
	}
	if c.Backlight.Type == "" {
		c.Backlight.Type = TypeNone
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.VSP.Type == TypeNone || c.VSN.Type == TypeNone {
		return ErrAnalogRail
	}
	return nil
}

// Parse decodes, normalizes and validates a YAML configuration.
func Parse(b []byte) (*Config, error) {
	c := new(Config)
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the configuration at path from fs.
func Load(fs afero.Fs, path string) (*Config, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}
