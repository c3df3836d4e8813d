package conn

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// SPIMode is the clock polarity and phase of the bus.
type SPIMode = spi.Mode

// Supported modes.
const (
	SPIMode0 = spi.Mode0
	SPIMode1 = spi.Mode1
	SPIMode2 = spi.Mode2
	SPIMode3 = spi.Mode3
)

// SPI is an 8 bits per word SPI port connection.
type SPI struct {
	port  spi.PortCloser
	conn  spi.Conn
	name  string
	mode  SPIMode
	speed physic.Frequency
}

// OpenSPI opens the named SPI port, such as "SPI0.0" or "/dev/spidev0.0". An empty name opens the first
// available port.
func OpenSPI(name string, speed physic.Frequency, mode SPIMode) (*SPI, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}

	c, err := port.Connect(speed, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("conn: SPI connect %s at %s failed: %w", port, speed, err)
	}

	return &SPI{
		port:  port,
		conn:  c,
		name:  port.String(),
		mode:  mode,
		speed: speed,
	}, nil
}

func (c *SPI) Close() error {
	return c.port.Close()
}

func (c *SPI) String() string {
	return fmt.Sprintf("SPI %s mode=%d speed=%s", c.name, c.mode, c.speed)
}

func (c *SPI) Mode() SPIMode {
	return c.mode
}

func (c *SPI) MaxSpeed() physic.Frequency {
	return c.speed
}

// MaxTxSize is the largest transfer the port accepts, or 0 if unlimited.
func (c *SPI) MaxTxSize() int {
	if l, ok := c.conn.(conn.Limits); ok {
		return l.MaxTxSize()
	}
	return 0
}

func (c *SPI) Write(b []byte) (n int, err error) {
	if err = c.conn.Tx(b, nil); err != nil {
		return 0, err
	}
	return len(b), nil
}
