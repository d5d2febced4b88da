// Package format renders amounts and dates for display and parses date input.
package format

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// InputLayout is the minute-precision layout used by date input fields.
const InputLayout = "2006-01-02T15:04"

// DefaultTruncateLength is the display width used when none is given.
const DefaultTruncateLength = 50

var ErrInvalidDate = errors.New("invalid date")

var inputLayouts = []string{
	InputLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatCurrency renders minor units as Chilean pesos: 15000 -> "$15.000".
// The whole int64 range is exact, math.MinInt64 included.
func FormatCurrency(amount int64) string {
	digits := humanize.Comma(amount)

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	}
	return sign + "$" + strings.ReplaceAll(digits, ",", ".")
}

// FormatDate renders t as a long Spanish date with time, e.g.
// "1 de enero de 2024, 10:00". The zero time renders as "".
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(location(loc))
	return fmt.Sprintf("%d de %s de %d, %02d:%02d",
		t.Day(), months[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// FormatDateForInput renders t as yyyy-MM-ddTHH:mm in loc.
func FormatDateForInput(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(location(loc)).Format(InputLayout)
}

// CurrentDateTime returns now formatted for a date input.
func CurrentDateTime(now time.Time, loc *time.Location) string {
	return FormatDateForInput(now, loc)
}

// ParseDateInput parses a date input value. Zone-less values are read in loc.
func ParseDateInput(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, location(loc)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Truncate shortens s to max runes followed by "...".
func Truncate(s string, max int) string {
	if s == "" {
		return ""
	}
	if max <= 0 {
		max = DefaultTruncateLength
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
