package panel

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/panel/conn"
)

// Conn errors.
var (
	ErrDCPin = errors.New("panel: data/command (DC) GPIO pin is invalid")
)

// Conn is the command interface of one panel link.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Command sends a command byte with optional parameters.
	Command(byte, ...byte) error
}

// I2CConfig describes an I²C attached command bridge.
type I2CConfig struct {
	// Bus is the I²C bus name, empty to use the first available bus.
	Bus string

	// Addr is the I²C address.
	Addr uint16
}

var DefaultI2CConfig = I2CConfig{
	Addr: 0x45,
}

type i2cConn struct {
	*conn.I2C
}

// OpenI2C opens a link to a bridge that takes the command byte followed by its parameters in one
// I²C write.
func OpenI2C(config *I2CConfig) (Conn, error) {
	if config == nil {
		config = new(I2CConfig)
		*config = DefaultI2CConfig
	}
	if config.Addr == 0 {
		config.Addr = DefaultI2CConfig.Addr
	}

	c, err := conn.OpenI2C(config.Bus, config.Addr)
	if err != nil {
		return nil, err
	}

	return &i2cConn{I2C: c}, nil
}

func (c *i2cConn) Command(cmnd byte, params ...byte) (err error) {
	logger().Trace().Str("link", c.String()).Hex("cmd", []byte{cmnd}).Hex("params", params).Msg("write")
	_, err = c.I2C.Write(append([]byte{cmnd}, params...))
	return
}

// SPIConfig describes a MIPI DBI type C (option 3) link: 8-bit SPI with a data/command pin.
type SPIConfig struct {
	Bus       string
	Mode      conn.SPIMode
	SpeedHz   uint32
	DataLow   bool
	BatchSize uint
	DC        gpio.PinOut
	CE        gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Mode:      conn.SPIMode0,
	SpeedHz:   8_000_000,
	BatchSize: 4096,
}

// ValidSPISpeeds are common valid SPI bus speeds.
var ValidSPISpeeds = []uint32{
	500_000,
	1_000_000,
	2_000_000,
	4_000_000,
	8_000_000,
	16_000_000,
	20_000_000,
	24_000_000,
	32_000_000,
	40_000_000,
	48_000_000,
	50_000_000,
}

type writer interface {
	String() string
	Close() error
	Write([]byte) (int, error)
}

type spiConn struct {
	bus       writer
	dc        gpio.PinOut
	dcLevel   gpio.Level
	dcValid   bool
	cs        gpio.PinOut
	dataLow   bool
	batchSize uint
}

// OpenSPI opens a DBI link over SPI.
func OpenSPI(config *SPIConfig) (Conn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	if config.DC == nil || config.DC == gpio.INVALID {
		return nil, ErrDCPin
	}

	if config.SpeedHz == 0 {
		config.SpeedHz = DefaultSPIConfig.SpeedHz
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultSPIConfig.BatchSize
	}

	var valid bool
	for _, speed := range ValidSPISpeeds {
		if valid = speed == config.SpeedHz; valid {
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("panel: invalid SPI speed %dHz", config.SpeedHz)
	}

	c, err := conn.OpenSPI(config.Bus, physic.Frequency(config.SpeedHz)*physic.Hertz, config.Mode)
	if err != nil {
		return nil, err
	}

	batchSize := config.BatchSize
	if limit := c.MaxTxSize(); limit > 0 && uint(limit) < batchSize {
		batchSize = uint(limit)
	}

	return newSPIConn(c, config.DC, config.CE, config.DataLow, batchSize), nil
}

func newSPIConn(bus writer, dc, cs gpio.PinOut, dataLow bool, batchSize uint) *spiConn {
	return &spiConn{
		bus:       bus,
		dc:        dc,
		cs:        cs,
		dataLow:   dataLow,
		batchSize: batchSize,
	}
}

func (c *spiConn) String() string {
	return c.bus.String()
}

func (c *spiConn) Close() error {
	return c.bus.Close()
}

func (c *spiConn) updateDC(level gpio.Level) error {
	if !c.dcValid || c.dcLevel != level {
		if err := c.dc.Out(level); err != nil {
			return err
		}
		c.dcLevel = level
		c.dcValid = true
	}
	return nil
}

func (c *spiConn) updateCS(level gpio.Level) error {
	if c.cs == nil {
		return nil
	}
	return c.cs.Out(level)
}

func (c *spiConn) Command(cmnd byte, params ...byte) (err error) {
	logger().Trace().Str("link", c.String()).Hex("cmd", []byte{cmnd}).Hex("params", params).Msg("write")
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	defer func() {
		if csErr := c.updateCS(gpio.High); err == nil {
			err = csErr
		}
	}()
	if err = c.updateDC(gpio.Level(c.dataLow)); err != nil {
		return
	}
	if _, err = c.bus.Write([]byte{cmnd}); err != nil {
		return
	}
	if len(params) > 0 {
		if err = c.updateDC(gpio.Level(!c.dataLow)); err != nil {
			return
		}
		if err = c.writeChunked(params); err != nil {
			return
		}
	}
	return
}

func (c *spiConn) writeChunked(data []byte) (err error) {
	if c.batchSize == 0 || len(data) <= int(c.batchSize) {
		_, err = c.bus.Write(data)
		return
	}

	buffer := data
	for len(buffer) > 0 {
		n := min(len(buffer), int(c.batchSize))
		if _, err = c.bus.Write(buffer[:n]); err != nil {
			return
		}
		buffer = buffer[n:]
	}
	return
}
