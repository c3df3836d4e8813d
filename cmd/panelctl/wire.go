package main

import (
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/conn"
	"github.com/BeatGlow/panel/internal/config"
)

func pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %s not found", name)
	}
	return p, nil
}

func openLink(name string, c config.Link) (panel.Conn, error) {
	switch c.Bus {
	case config.BusSPI:
		dc, err := pin(c.DC)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		spiConfig := &panel.SPIConfig{
			Bus:     c.Port,
			Mode:    conn.SPIMode(c.Mode),
			SpeedHz: c.SpeedHz,
			DC:      dc,
		}
		if c.CE != "" {
			if spiConfig.CE, err = pin(c.CE); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		return panel.OpenSPI(spiConfig)
	case config.BusI2C:
		return panel.OpenI2C(&panel.I2CConfig{Bus: c.Port, Addr: c.Addr})
	default:
		return nil, fmt.Errorf("%s: unsupported bus type %q", name, c.Bus)
	}
}

func openRail(name string, c config.Rail) (panel.Rail, error) {
	switch c.Type {
	case config.TypeGPIO:
		p, err := pin(c.Pin)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		r := &panel.GPIORail{Name: name, Pin: p, ActiveLow: c.ActiveLow}
		// Start from a known, unpowered state.
		if err = r.Disable(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return r, nil
	case config.TypeGPIOD:
		return panel.OpenLineRail(name, c.Chip, c.Line, c.ActiveLow)
	case config.TypeSysfs:
		return panel.NewSysfsRail(name, c.Path), nil
	case config.TypeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%s: unsupported rail type %q", name, c.Type)
	}
}

func openBacklight(c config.Backlight) (panel.Backlight, error) {
	switch c.Type {
	case config.TypeGPIO:
		p, err := pin(c.Pin)
		if err != nil {
			return nil, fmt.Errorf("backlight: %w", err)
		}
		return &panel.GPIOBacklight{Pin: p}, nil
	case config.TypeSysfs:
		return panel.NewSysfsBacklight(c.Path), nil
	default:
		return nil, nil
	}
}

// closer collects resources to release when wiring fails half way.
type closer []io.Closer

func (c closer) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i].Close())
	}
	return errors.Join(errs...)
}

func open(conf *config.Config) (_ panel.Panel, err error) {
	var opened closer
	defer func() {
		if err != nil {
			_ = opened.Close()
		}
	}()

	link1, err := openLink(panel.Link1, conf.Link1)
	if err != nil {
		return nil, err
	}
	opened = append(opened, link1)
	link2, err := openLink(panel.Link2, conf.Link2)
	if err != nil {
		return nil, err
	}
	opened = append(opened, link2)

	reset, err := pin(conf.Reset)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	var rails [3]panel.Rail
	for i, r := range []struct {
		name string
		conf config.Rail
	}{
		{"avdd_lcd_vsp_5v5", conf.VSP},
		{"avdd_lcd_vsn_5v5", conf.VSN},
		{"dvdd_lcd_1v8", conf.DVDD},
	} {
		if rails[i], err = openRail(r.name, r.conf); err != nil {
			return nil, err
		}
		if c, ok := rails[i].(io.Closer); ok {
			opened = append(opened, c)
		}
	}

	backlight, err := openBacklight(conf.Backlight)
	if err != nil {
		return nil, err
	}

	return panel.LQ079L1SX01(link1, link2, &panel.Config{
		Reset:      reset,
		VSP:        rails[0],
		VSN:        rails[1],
		DVDD:       rails[2],
		Backlight:  backlight,
		SwapHalves: conf.SwapHalves,
	})
}
