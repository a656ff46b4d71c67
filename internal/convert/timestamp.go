package convert

import (
	"errors"
	"fmt"
	"time"
)

// sourceLayout is the Gymrun export's combined date+time format.
const sourceLayout = "02.01.2006 15:04:05"

// ErrUnparseableTimestamp marks rows whose Date/Time fields cannot be parsed.
// Such rows are dropped from the conversion, not fatal.
var ErrUnparseableTimestamp = errors.New("unparseable timestamp")

// AmbiguousTimeError is a local time that occurs twice because the clock was
// set back. Guessing an offset would shift session boundaries, so the whole
// run aborts instead.
type AmbiguousTimeError struct {
	Value string
}

func (e *AmbiguousTimeError) Error() string {
	return fmt.Sprintf("ambiguous local time %q: falls in a repeated hour of a DST changeover", e.Value)
}

// NonExistentTimeError is a local time skipped by a spring-forward transition.
type NonExistentTimeError struct {
	Value string
}

func (e *NonExistentTimeError) Error() string {
	return fmt.Sprintf("non-existent local time %q: falls in an hour skipped by a DST changeover", e.Value)
}

// NormalizeTimestamp parses a Gymrun Date and Time pair as a wall-clock time
// in loc and returns the corresponding UTC instant.
//
// Parse failures return ErrUnparseableTimestamp (wrapped). Wall times made
// ambiguous or non-existent by a DST transition return AmbiguousTimeError or
// NonExistentTimeError; callers are expected to abort on those.
func NormalizeTimestamp(date, clock string, loc *time.Location) (time.Time, error) {
	value := date + " " + clock
	naive, err := time.Parse(sourceLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTimestamp, value)
	}

	local := time.Date(naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), 0, loc)

	// time.Date normalizes skipped wall times to a neighboring hour, so a
	// changed wall clock means the input time never occurred in loc.
	if !sameWallClock(local, naive) {
		return time.Time{}, &NonExistentTimeError{Value: value}
	}

	// A repeated (fall-back) wall time has a second instant one transition
	// step away with the identical wall clock.
	if sameWallClock(local.Add(-time.Hour), local) || sameWallClock(local.Add(time.Hour), local) {
		return time.Time{}, &AmbiguousTimeError{Value: value}
	}

	return local.UTC(), nil
}

func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}
