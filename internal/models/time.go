package models

import (
	"fmt"
	"strings"
	"time"
)

// Wire formats for timestamps. Event payloads use the second-precision
// format, request payloads the millisecond one.
const (
	DateTimeLayout      = "2006-01-02 15:04:05"
	DateTimeMilliLayout = "2006-01-02T15:04:05.000"
)

// DateTime marshals as "yyyy-MM-dd HH:mm:ss".
type DateTime time.Time

func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Time(d).Format(DateTimeLayout))), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = DateTime(time.Time{})
		return nil
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return fmt.Errorf("invalid datetime %q: %w", s, err)
	}
	*d = DateTime(t)
	return nil
}

func (d DateTime) Time() time.Time {
	return time.Time(d)
}

// DateTimeMilli marshals as "yyyy-MM-ddTHH:mm:ss.SSS".
type DateTimeMilli time.Time

func (d DateTimeMilli) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Time(d).Format(DateTimeMilliLayout))), nil
}

func (d *DateTimeMilli) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = DateTimeMilli(time.Time{})
		return nil
	}
	t, err := time.Parse(DateTimeMilliLayout, s)
	if err != nil {
		return fmt.Errorf("invalid datetime %q: %w", s, err)
	}
	*d = DateTimeMilli(t)
	return nil
}
