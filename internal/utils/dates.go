package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}
	return 31
}

// BusinessDate is the station-date of t: its calendar date in loc.
func BusinessDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// AddDays shifts a yyyy-mm-dd date by n calendar days.
func AddDays(date string, n int) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n).Format(DateLayout), nil
}
