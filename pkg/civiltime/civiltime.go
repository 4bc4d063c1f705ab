// Package civiltime converts between absolute instants and civil wall-clock
// fields in arbitrary IANA timezones. It carries no timezone data of its own:
// all zone knowledge comes from the host via time.LoadLocation (with the
// embedded tzdata fallback compiled in for bare hosts).
//
// Weekdays are never taken from a localized time directly. They are recomputed
// from the civil fields through a UTC-proxy instant, which keeps the result
// deterministic regardless of how the host renders the zone.
package civiltime

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/maypok86/otter/v2"
)

// CivilDate is a calendar date with no time-of-day or zone attached.
type CivilDate struct {
	Year  int
	Month int
	Day   int
}

// CivilFields is the civil representation of an instant in some timezone.
// Weekday is 0-6 with Sunday = 0.
type CivilFields struct {
	Year    int
	Month   int
	Day     int
	Hour    int
	Minute  int
	Second  int
	Weekday int
}

// ProxyUTC reinterprets the civil fields as if they were UTC fields and
// returns that instant. It is the basis for both weekday derivation and
// offset computation.
func (f CivilFields) ProxyUTC() time.Time {
	return time.Date(f.Year, time.Month(f.Month), f.Day, f.Hour, f.Minute, f.Second, 0, time.UTC)
}

// Date returns just the calendar-date portion of the fields.
func (f CivilFields) Date() CivilDate {
	return CivilDate{Year: f.Year, Month: f.Month, Day: f.Day}
}

// scanWindowMinutes bounds the local-midnight search to ±36 hours around the
// naive UTC guess. No real zone is further than 26 hours from UTC; the slack
// covers double DST and historical oddities.
const scanWindowMinutes = 36 * 60

type cacheKey struct {
	unixNano int64
	tzID     string
}

// Converter performs instant-to-civil conversions with a bounded memo cache.
// The same (instant, zone) pair is converted many times per render pass, so
// the cache pays for itself immediately; correctness never depends on it.
type Converter struct {
	cache *otter.Cache[cacheKey, CivilFields]
}

// New returns a Converter with a bounded conversion cache.
func New() *Converter {
	cache := otter.Must(&otter.Options[cacheKey, CivilFields]{
		MaximumSize:     50_000,
		InitialCapacity: 4_096,
	})
	return &Converter{cache: cache}
}

// FieldsAt returns the civil fields of instant as observed in the zone tzID.
func (c *Converter) FieldsAt(instant time.Time, tzID string) (CivilFields, error) {
	key := cacheKey{unixNano: instant.UnixNano(), tzID: tzID}
	if f, ok := c.cache.GetIfPresent(key); ok {
		return f, nil
	}

	loc, err := time.LoadLocation(tzID)
	if err != nil {
		return CivilFields{}, fmt.Errorf("loading zone %q: %w", tzID, err)
	}

	lt := instant.In(loc)
	f := CivilFields{
		Year:   lt.Year(),
		Month:  int(lt.Month()),
		Day:    lt.Day(),
		Hour:   lt.Hour(),
		Minute: lt.Minute(),
		Second: lt.Second(),
	}
	f.Weekday = int(f.ProxyUTC().Weekday())

	c.cache.Set(key, f)
	return f, nil
}

// OffsetMinutes returns the wall-clock-minus-UTC offset of tzID at instant,
// in minutes. East of UTC is positive.
func (c *Converter) OffsetMinutes(instant time.Time, tzID string) (int, error) {
	f, err := c.FieldsAt(instant, tzID)
	if err != nil {
		return 0, err
	}
	return int(f.ProxyUTC().Sub(instant.Truncate(time.Second)) / time.Minute), nil
}

// OffsetLabel renders the offset of tzID at instant as "UTC±HH:MM", sign
// always shown. An unknown zone degrades to "UTC+00:00".
func (c *Converter) OffsetLabel(instant time.Time, tzID string) string {
	off, err := c.OffsetMinutes(instant, tzID)
	if err != nil {
		off = 0
	}
	sign := "+"
	if off < 0 {
		sign = "-"
		off = -off
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, off/60, off%60)
}

// LocalMidnight returns the UTC instant whose civil fields in tzID are
// exactly date at 00:00:00.
//
// Single-shot offset correction can land on the wrong civil day around DST
// edges and in 30/45-minute-offset zones, so the instant is found by probing
// outward from the naive UTC-midnight guess at one-minute resolution. The
// first exact match is therefore the one nearest the guess, with the earlier
// instant winning a tie, which also fixes which of a fall-back's repeated
// local midnights is chosen. If the window is exhausted (no such civil time
// exists in the zone), the offset-subtraction approximation is returned
// instead of an error.
func (c *Converter) LocalMidnight(date CivilDate, tzID string) (time.Time, error) {
	if _, err := time.LoadLocation(tzID); err != nil {
		return time.Time{}, fmt.Errorf("loading zone %q: %w", tzID, err)
	}

	guess := time.Date(date.Year, time.Month(date.Month), date.Day, 0, 0, 0, 0, time.UTC)
	want := CivilFields{
		Year:    date.Year,
		Month:   date.Month,
		Day:     date.Day,
		Weekday: int(guess.Weekday()),
	}

	for step := 0; step <= scanWindowMinutes; step++ {
		if step == 0 {
			if f, err := c.FieldsAt(guess, tzID); err == nil && f == want {
				return guess, nil
			}
			continue
		}
		earlier := guess.Add(-time.Duration(step) * time.Minute)
		if f, err := c.FieldsAt(earlier, tzID); err == nil && f == want {
			return earlier, nil
		}
		later := guess.Add(time.Duration(step) * time.Minute)
		if f, err := c.FieldsAt(later, tzID); err == nil && f == want {
			return later, nil
		}
	}

	// Pathological gap: local midnight never occurs on this date (the zone
	// skipped it). Approximate by subtracting the offset at the guess.
	off, err := c.OffsetMinutes(guess, tzID)
	if err != nil {
		return time.Time{}, err
	}
	return guess.Add(-time.Duration(off) * time.Minute), nil
}
