package panel

import (
	"fmt"
	"time"
)

// Mode is a display timing mode.
//
//	             Active                 Front           Sync           Back
//	            Region                 Porch                          Porch
//	   <-----------------------><----------------><-------------><-------------->
//	     //////////////////////|
//	    ////////////////////// |
//	   //////////////////////  |..................               ................
//	                                              _______________
//	   <----- [HV]Display ----->
//	   <------------- [HV]SyncStart ------------>
//	   <--------------------- [HV]SyncEnd --------------------->
//	   <-------------------------------- [HV]Total ----------------------------->
type Mode struct {
	Clock       int // Pixel clock in kHz
	HDisplay    int
	HSyncStart  int
	HSyncEnd    int
	HTotal      int
	VDisplay    int
	VSyncStart  int
	VSyncEnd    int
	VTotal      int
	RefreshRate int // Vertical refresh in Hz, derived from the timings if zero
	WidthMM     int // Physical width
	HeightMM    int // Physical height
}

// DefaultMode is the only mode of the Sharp LQ079L1SX01.
var DefaultMode = Mode{
	Clock:       214825,
	HDisplay:    1536,
	HSyncStart:  1536 + 136,
	HSyncEnd:    1536 + 136 + 28,
	HTotal:      1536 + 136 + 28 + 28,
	VDisplay:    2048,
	VSyncStart:  2048 + 14,
	VSyncEnd:    2048 + 14 + 2,
	VTotal:      2048 + 14 + 2 + 8,
	RefreshRate: 60,
	WidthMM:     120,
	HeightMM:    160,
}

// VRefresh is the vertical refresh rate in Hz.
func (m Mode) VRefresh() int {
	if m.RefreshRate > 0 {
		return m.RefreshRate
	}
	total := m.HTotal * m.VTotal
	if total <= 0 {
		return 0
	}
	// Round to nearest.
	return (m.Clock*1000 + total/2) / total
}

// Name is the mode name, "<width>x<height>".
func (m Mode) Name() string {
	return fmt.Sprintf("%dx%d", m.HDisplay, m.VDisplay)
}

func (m Mode) String() string {
	return fmt.Sprintf("%s@%d", m.Name(), m.VRefresh())
}

// FrameDelay is how long to wait for frames refresh periods.
//
// The delay is computed in whole milliseconds as 1000 / (refresh / frames), so the result is
// truncated the same way at every step. Asking for zero frames, or for more frames than the
// panel refreshes per second, is a programming error and returns ErrPrecondition.
func (m Mode) FrameDelay(frames int) (time.Duration, error) {
	refresh := m.VRefresh()
	if frames <= 0 || frames > refresh {
		return 0, fmt.Errorf("%w: wait for %d frames at %dHz", ErrPrecondition, frames, refresh)
	}
	return time.Duration(1000/(refresh/frames)) * time.Millisecond, nil
}
