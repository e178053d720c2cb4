package window

import (
	"fmt"
	"strings"
	"time"
)

// Unit is a period unit understood by the window calculator.
type Unit int

const (
	Hours Unit = iota
	Days
	Weeks
	Months
)

var unitNames = [...]string{"HOURS", "DAYS", "WEEKS", "MONTHS"}

func (u Unit) String() string {
	if u < Hours || u > Months {
		return "UNKNOWN"
	}
	return unitNames[u]
}

// Lower returns the lowercase unit name used in rejection messages.
func (u Unit) Lower() string {
	return strings.ToLower(u.String())
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	return u >= Hours && u <= Months
}

// Parse returns the unit for a case-insensitive name such as "HOURS".
func Parse(name string) (Unit, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range unitNames {
		if n == name {
			return Unit(i), true
		}
	}
	return 0, false
}

// MaxYears bounds the span of a single period. Longer hour spans would
// overflow time.Duration.
const MaxYears = 200

// MaxPeriod returns the largest periodTime accepted for unit.
func MaxPeriod(unit Unit) int64 {
	switch unit {
	case Hours:
		return MaxYears * 366 * 24
	case Days:
		return MaxYears * 366
	case Weeks:
		return MaxYears * 366 / 7
	case Months:
		return MaxYears * 12
	default:
		return 0
	}
}

// EndOfWindow returns the instant at which the window that started at
// lastRequest closes.
func EndOfWindow(lastRequest, periodTime int64, unit Unit) int64 {
	return add(time.UnixMilli(lastRequest).UTC(), periodTime, unit).UnixMilli()
}

// EndOfPeriod returns the reset instant reported for the period containing
// now. Periods are not aligned to a calendar grid: the result is always one
// full period after now.
func EndOfPeriod(now, periodTime int64, unit Unit) int64 {
	return EndOfWindow(now, periodTime, unit)
}

// add saturates n at MaxPeriod so the result never wraps into the past.
func add(t time.Time, n int64, unit Unit) time.Time {
	if limit := MaxPeriod(unit); n > limit {
		n = limit
	}
	switch unit {
	case Hours:
		return t.Add(time.Duration(n) * time.Hour)
	case Days:
		return t.AddDate(0, 0, int(n))
	case Weeks:
		return t.AddDate(0, 0, int(n)*7)
	case Months:
		return addMonths(t, int(n))
	default:
		return t
	}
}

// addMonths differs from time.AddDate, which normalizes overflowing days into
// the following month.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	total := int(month) - 1 + n
	year += total / 12
	total %= 12
	if total < 0 {
		total += 12
		year--
	}
	target := time.Month(total + 1)

	if last := daysIn(year, target); day > last {
		day = last
	}
	return time.Date(year, target, day, hour, minute, sec, t.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MarshalText encodes the unit as its upper-case name.
func (u Unit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("unknown period unit %d", int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText accepts the unit name in any case.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("unknown period unit %q", string(text))
	}
	*u = parsed
	return nil
}
