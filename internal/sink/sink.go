// Package sink holds the side-effect adapters of the dispatcher: audio
// playback through OS commands and desktop notifications.
package sink

import "errors"

// ErrNoPlayer is returned when no supported audio command is installed.
var ErrNoPlayer = errors.New("no audio player found")

// AudioSink hands a sound file to the OS. Play returns once the OS has
// accepted the request, not when playback ends.
type AudioSink interface {
	Play(path string, volume float64) error
}

// NotificationSink raises a desktop notification. Failures are reported
// but callers treat them as best effort.
type NotificationSink interface {
	Notify(title, message string, withSound bool) error
}

// Noop discards every request. It serves headless runs and tests.
type Noop struct{}

// Play does nothing.
func (Noop) Play(string, float64) error { return nil }

// Notify does nothing.
func (Noop) Notify(string, string, bool) error { return nil }
