package panel

import (
	"errors"
	"fmt"
)

// Link names, as the datasheet calls the two halves.
const (
	Link1 = "link1"
	Link2 = "link2"
)

// DispatchError is a failed command write to one link.
type DispatchError struct {
	Link    string
	Command byte
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("panel: %s command %#02x failed: %v", e.Link, e.Command, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// AddressingError is a failed column or page window write to one link.
type AddressingError struct {
	Link   string
	Window string // "column" or "page"
	Err    error
}

func (e *AddressingError) Error() string {
	return fmt.Sprintf("panel: %s failed to set %s address: %v", e.Link, e.Window, e.Err)
}

func (e *AddressingError) Unwrap() error {
	return e.Err
}

// Window is an inclusive address window in frame memory.
type Window struct {
	X0, X1 int // Columns
	Y0, Y1 int // Pages (rows)
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d]x[%d,%d]", w.X0, w.X1, w.Y0, w.Y1)
}

// Dx is the number of columns in the window.
func (w Window) Dx() int {
	return w.X1 - w.X0 + 1
}

// SplitWindows splits the mode's frame into a left and a right half of equal width. An odd
// HDisplay leaves the extra column in the right half.
func SplitWindows(mode Mode) (left, right Window) {
	half := mode.HDisplay / 2
	left = Window{X0: 0, X1: half - 1, Y0: 0, Y1: mode.VDisplay - 1}
	right = Window{X0: half, X1: mode.HDisplay - 1, Y0: 0, Y1: mode.VDisplay - 1}
	return
}

type link struct {
	name string
	c    Conn
}

// Dispatcher mirrors commands to both links of a dual-link panel.
//
// Writes go to the primary link first. The first failure is returned and nothing is rolled back,
// so after an error the two links may be in different states.
type Dispatcher struct {
	primary   link
	secondary link
	swap      bool
}

// NewDispatcher over the primary (DSI-LINK1) and secondary (DSI-LINK2) link.
func NewDispatcher(primary, secondary Conn) *Dispatcher {
	return &Dispatcher{
		primary:   link{name: Link1, c: primary},
		secondary: link{name: Link2, c: secondary},
	}
}

func (d *Dispatcher) String() string {
	return fmt.Sprintf("%s: %s, %s: %s", d.primary.name, d.primary.c, d.secondary.name, d.secondary.c)
}

// SwapHalves maps the left half of the frame to the primary link instead of the secondary.
func (d *Dispatcher) SwapHalves(swap bool) {
	d.swap = swap
}

func (d *Dispatcher) links() [2]link {
	return [2]link{d.primary, d.secondary}
}

func (d *Dispatcher) send(l link, cmd byte, payload ...byte) error {
	if err := l.c.Command(cmd, payload...); err != nil {
		return &DispatchError{Link: l.name, Command: cmd, Err: err}
	}
	return nil
}

// WriteControl sends cmd with its payload to the primary link, then to the secondary link.
func (d *Dispatcher) WriteControl(cmd byte, payload ...byte) error {
	for _, l := range d.links() {
		if err := d.send(l, cmd, payload...); err != nil {
			logger().Error().Err(err).Str("link", l.name).Hex("cmd", []byte{cmd}).Msg("write control failed")
			return err
		}
	}
	return nil
}

// ExitSleepMode on both links.
func (d *Dispatcher) ExitSleepMode() error {
	return d.WriteControl(dcsExitSleepMode)
}

// EnterSleepMode on both links.
func (d *Dispatcher) EnterSleepMode() error {
	return d.WriteControl(dcsEnterSleepMode)
}

// SetDisplayOn on both links.
func (d *Dispatcher) SetDisplayOn() error {
	return d.WriteControl(dcsSetDisplayOn)
}

// SetDisplayOff on both links.
func (d *Dispatcher) SetDisplayOff() error {
	return d.WriteControl(dcsSetDisplayOff)
}

// SetPixelFormat on both links.
func (d *Dispatcher) SetPixelFormat(format byte) error {
	return d.WriteControl(dcsSetPixelFormat, format)
}

// ApplySplitAddressing gives each link its half of the frame: the left half goes to the
// secondary link unless the halves are swapped.
func (d *Dispatcher) ApplySplitAddressing(mode Mode) error {
	left, right := d.secondary, d.primary
	if d.swap {
		left, right = right, left
	}
	return d.splitAddressing(left, right, mode)
}

func (d *Dispatcher) splitAddressing(left, right link, mode Mode) error {
	lw, rw := SplitWindows(mode)
	for _, half := range []struct {
		link
		Window
	}{{left, lw}, {right, rw}} {
		if err := d.setWindow(half.link, half.Window); err != nil {
			logger().Error().Err(err).Str("link", half.name).Stringer("window", half.Window).Msg("split addressing failed")
			return err
		}
		logger().Debug().Str("link", half.name).Stringer("window", half.Window).Msg("split addressing")
	}
	return nil
}

func (d *Dispatcher) setWindow(l link, w Window) error {
	if err := SetColumnAddress(l.c, uint16(w.X0), uint16(w.X1)); err != nil {
		return &AddressingError{Link: l.name, Window: "column", Err: err}
	}
	if err := SetPageAddress(l.c, uint16(w.Y0), uint16(w.Y1)); err != nil {
		return &AddressingError{Link: l.name, Window: "page", Err: err}
	}
	return nil
}

// Close both links.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, l := range d.links() {
		if err := l.c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("panel: %s close failed: %w", l.name, err))
		}
	}
	return errors.Join(errs...)
}
