package plantday

import "time"

// Date is a civil calendar date in the plant timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the civil date from a localized time.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD, the calendar-file key format.
func (d Date) String() string {
	return d.time().Format("2006-01-02")
}

// AddDays returns the date n calendar days later (negative n goes back).
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

// Next returns the following calendar date.
func (d Date) Next() Date { return d.AddDays(1) }

// Weekday returns the civil weekday of the date.
func (d Date) Weekday() time.Weekday {
	return d.time().Weekday()
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
