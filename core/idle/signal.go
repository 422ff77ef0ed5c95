package idle

import (
	"fmt"
	"strings"
)

// Signal is a kind of user activity that renews the idle deadline.
type Signal string

const (
	SignalMouseMove  Signal = "mousemove"
	SignalKeyDown    Signal = "keydown"
	SignalScroll     Signal = "scroll"
	SignalTouchStart Signal = "touchstart"
)

// Signals lists the activity signals pages listen for.
func Signals() []Signal {
	return []Signal{SignalMouseMove, SignalKeyDown, SignalScroll, SignalTouchStart}
}

// ParseSignal validates a signal name sent by a page. Pointer movement is
// reported as mouse movement.
func ParseSignal(s string) (Signal, error) {
	switch sig := Signal(strings.ToLower(strings.TrimSpace(s))); sig {
	case SignalMouseMove, SignalKeyDown, SignalScroll, SignalTouchStart:
		return sig, nil
	case "pointermove":
		return SignalMouseMove, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSignal, s)
}

func (s Signal) String() string {
	return string(s)
}
