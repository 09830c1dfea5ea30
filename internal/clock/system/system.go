// Package system provides a real clock implementation.
package system

import "time"

// Clock implements news.Clock using time.Now. Cluster timestamps and article
// fetch times flow through this seam so tests can substitute a fixed clock.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
