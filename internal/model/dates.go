package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// At combines a civil date with a "15:04" clock time.  An empty clock
// means midnight.
func At(date time.Time, clock string) (time.Time, error) {
	date = DateOf(date)
	if clock == "" {
		return date, nil
	}
	h, m, ok := strings.Cut(clock, ":")
	if !ok {
		return time.Time{}, fmt.Errorf("invalid clock time %q", clock)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return time.Time{}, fmt.Errorf("invalid clock time %q", clock)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return time.Time{}, fmt.Errorf("invalid clock time %q", clock)
	}
	return date.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute), nil
}

// Stay is a half-open hotel interval [CheckIn, CheckOut).  The guest leaves
// on CheckOut, so a stay ending on day N and one starting on day N do not
// overlap.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewStay normalises both ends to civil dates.
func NewStay(checkIn, checkOut time.Time) Stay {
	return Stay{CheckIn: DateOf(checkIn), CheckOut: DateOf(checkOut)}
}

// Valid reports whether the stay covers at least one night.
func (s Stay) Valid() bool { return s.CheckOut.After(s.CheckIn) }

// Nights returns every night of the stay in order.
func (s Stay) Nights() []time.Time {
	var out []time.Time
	for d := s.CheckIn; d.Before(s.CheckOut); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Overlaps applies the half-open interval test.
func (s Stay) Overlaps(start, end time.Time) bool {
	return DateOf(start).Before(s.CheckOut) && DateOf(end).After(s.CheckIn)
}
