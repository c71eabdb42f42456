package commute

import "time"

// Clock abstracts time.Now so eligibility and composition logic can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock in the process-local zone.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ZoneClock reports the current time in a fixed location. Eligibility is
// minute-of-day based, so the clock must tick in the same zone the
// triggers are scheduled in.
type ZoneClock struct {
	Loc *time.Location
}

func (c ZoneClock) Now() time.Time {
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}
