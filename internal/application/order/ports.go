package order

import "time"

type IDGenerator interface {
	NewID() string
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
