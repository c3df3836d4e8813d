// Package panel contains drivers for dual-link command mode display panels.
//
// A dual-link panel is split into two halves, each with its own command interface. Every
// configuration command is mirrored to both halves, and the halves are powered and initialised
// in lock-step through the [Panel] life cycle: Prepare, Enable, Disable and Unprepare.
package panel

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger returns the package logger, derived from the global logger. Command writes are logged at
// trace level.
func logger() *zerolog.Logger {
	l := log.With().Str("component", "panel").Logger()
	return &l
}

// Errors
var (
	ErrPrecondition = errors.New("panel: precondition violated")
	ErrNotPaired    = errors.New("panel: secondary link not available, retry when paired")
	ErrMissingRail  = errors.New("panel: required power rail missing")
	ErrMissingReset = errors.New("panel: reset GPIO pin is invalid")
	ErrClosed       = errors.New("panel: closed")
)

// State of the panel life cycle.
type State uint8

// Supported states.
const (
	Idle     State = iota // Rails off
	Prepared              // Rails on, panel initialised and scanning out
	Enabled               // Prepared with the backlight path on
)

func (s State) String() string {
	switch s {
	case Prepared:
		return "prepared"
	case Enabled:
		return "enabled"
	default:
		return "idle"
	}
}

// Panel is a display panel driven through the standard panel life cycle.
//
// Implementations perform no internal locking: the caller must not invoke life cycle methods
// concurrently on the same panel.
type Panel interface {
	// Close disables the panel if it is enabled and closes the links and rails. The rails keep
	// their state. After Close the other life cycle methods return ErrClosed and Shutdown does
	// nothing.
	Close() error

	// Prepare powers the rails, resets and initialises the panel.
	Prepare() error

	// Enable turns the backlight path on. It is ignored while the panel is idle.
	Enable() error

	// Disable turns the backlight path off. The rails stay powered.
	Disable() error

	// Unprepare puts the panel to sleep and powers the rails down.
	Unprepare() error

	// Shutdown drives the reset line low and disables the panel, for system power off.
	Shutdown()

	// Mode returns the fixed timing mode of the panel.
	Mode() Mode

	// State is the current life cycle state.
	State() State
}
