package hyperfs

import (
	"fmt"
	"time"
)

// DateEpoch is the first year a Date can represent.
const DateEpoch = 2024

// Date is the packed 16-bit date used by the header and by entries:
//  Bits 0–4: Day of month, valid value range 1–31 inclusive.
//  Bits 5–8: Month of year, 0 = January, valid value range 0–11 inclusive.
//  Bits 9–15: Count of years from 2024, valid value range 0–127 inclusive
//  (2024–2151).
type Date uint16

// PackDate converts t into a Date. Years outside of the representable range are clamped.
func PackDate(t time.Time) Date {
	year := t.Year() - DateEpoch
	if year < 0 {
		year = 0
	} else if year > 0x7F {
		year = 0x7F
	}

	return Date(uint16(year)<<9 | uint16(t.Month()-1)<<5 | uint16(t.Day()))
}

// Year returns the full year, e.g. 2024.
func (d Date) Year() int {
	return DateEpoch + int(d>>9&0x7F)
}

// Month returns the month of the year.
func (d Date) Month() time.Month {
	return time.Month(d>>5&0xF) + 1
}

// Day returns the day of the month.
func (d Date) Day() int {
	return int(d & 0x1F)
}

// Time returns the date as a time.Time at 00:00:00 UTC.
//
// As day 0 is invalid, time.Time{} is returned in that case so that
// time.Time.IsZero() can be used to detect it.
// Note that a month bigger than 12 is unspecified and is carried into the next year.
func (d Date) Time() time.Time {
	if d.Day() == 0 {
		return time.Time{}
	}

	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), int(d.Month()), d.Day())
}
