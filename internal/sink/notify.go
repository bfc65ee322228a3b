package sink

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// notify is a package-level var to allow test injection.
var notify = func(title, message string, withSound bool) error {
	if withSound {
		return beeep.Alert(title, message, "")
	}
	return beeep.Notify(title, message, "")
}

// DesktopNotifier raises native desktop notifications through beeep.
type DesktopNotifier struct{}

// NewDesktopNotifier returns a DesktopNotifier.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{}
}

// Notify shows a notification. withSound asks the OS for its alert sound.
func (n *DesktopNotifier) Notify(title, message string, withSound bool) error {
	if err := notify(title, message, withSound); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}
