package chrono

import (
	"fmt"
	"time"
)

type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl reads the wall clock in a fixed location, so that calendar
// arithmetic never depends on the host's local timezone.
type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl(timezone string) (StandardImpl, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return StandardImpl{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant, for tests.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}

func (f FixedImpl) Location() *time.Location {
	return f.At.Location()
}
