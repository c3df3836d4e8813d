package panel

// MIPI Display Command Set opcodes.
const (
	dcsNOP                  = 0x00
	dcsSoftReset            = 0x01
	dcsEnterSleepMode       = 0x10
	dcsExitSleepMode        = 0x11
	dcsSetDisplayOff        = 0x28
	dcsSetDisplayOn         = 0x29
	dcsSetColumnAddress     = 0x2A
	dcsSetPageAddress       = 0x2B
	dcsWriteMemoryStart     = 0x2C
	dcsSetPixelFormat       = 0x3A
	dcsWriteDisplayBright   = 0x51 // Write Display Brightness
	dcsWriteControlDisplay  = 0x53 // Write CTRL Display
	dcsWriteAdaptiveBrightC = 0x55 // Write Content Adaptive Brightness Control
)

// Pixel formats for dcsSetPixelFormat, DPI in bits 6:4 and DBI in bits 2:0.
const (
	PixelFormat16Bit byte = 0x55
	PixelFormat18Bit byte = 0x66
	PixelFormat24Bit byte = 0x77
)

// ExitSleepMode wakes the link's display module up.
func ExitSleepMode(c Conn) error {
	return c.Command(dcsExitSleepMode)
}

// EnterSleepMode puts the link's display module to sleep.
func EnterSleepMode(c Conn) error {
	return c.Command(dcsEnterSleepMode)
}

// SetDisplayOn starts showing frame memory contents.
func SetDisplayOn(c Conn) error {
	return c.Command(dcsSetDisplayOn)
}

// SetDisplayOff stops showing frame memory contents; the panel shows blank.
func SetDisplayOff(c Conn) error {
	return c.Command(dcsSetDisplayOff)
}

// SetPixelFormat sets the interface pixel format.
func SetPixelFormat(c Conn, format byte) error {
	return c.Command(dcsSetPixelFormat, format)
}

// SetColumnAddress sets the column window [start, end], inclusive.
func SetColumnAddress(c Conn, start, end uint16) error {
	return c.Command(dcsSetColumnAddress, byte(start>>8), byte(start), byte(end>>8), byte(end))
}

// SetPageAddress sets the page (row) window [start, end], inclusive.
func SetPageAddress(c Conn, start, end uint16) error {
	return c.Command(dcsSetPageAddress, byte(start>>8), byte(start), byte(end>>8), byte(end))
}

// WriteDCS sends an arbitrary DCS command with its payload.
func WriteDCS(c Conn, cmd byte, payload ...byte) error {
	return c.Command(cmd, payload...)
}
