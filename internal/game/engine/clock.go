package engine

import "time"

// Clock supplies the current time. The engine takes a Clock so the serving
// window, expiry, and daily-cap checks are testable without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock { return systemClock{} }
