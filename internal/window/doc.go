// Package window converts a timestamp, a period length and a period unit into
// fixed-window boundaries.
//
// All timestamps are epoch milliseconds. Arithmetic is performed in UTC so the
// result does not depend on the host time zone.
//
// # Calendar semantics
//
//   - HOURS adds fixed 60-minute hours.
//   - DAYS and WEEKS add calendar days.
//   - MONTHS adds calendar months and clamps the day-of-month to the length of
//     the target month (Jan 31 + 1 month = Feb 28, or Feb 29 in leap years).
//
// # What this package must NOT do
//
//   - Read the wall clock. Callers pass "now" explicitly.
//   - Depend on any other package of this module.
package window
