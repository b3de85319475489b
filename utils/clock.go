package utils

import "time"

// Clock renders timestamps in the restaurant's configured timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// NewFixedClock always reports t; handy in tests.
func NewFixedClock(loc *time.Location, t time.Time) *Clock {
	c := NewClock(loc)
	c.now = func() time.Time { return t }
	return c
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// Format returns RFC 3339 with the location's UTC offset.
func (c *Clock) Format(t time.Time) string {
	return t.In(c.loc).Format(time.RFC3339)
}

func (c *Clock) FormatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := c.Format(*t)
	return &s
}

// DayStart is midnight of t's calendar day in the configured location.
func (c *Clock) DayStart(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}
