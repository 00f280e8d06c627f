package urlcodec

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var monthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Month is a calendar month. Month is zero-based: January is 0.
type Month struct {
	Year  int
	Month int
}

// NewMonth returns the Month for year and m.
func NewMonth(year int, m time.Month) Month {
	return Month{Year: year, Month: int(m) - 1}
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return NewMonth(t.Year(), t.Month())
}

// ParseMonth parses the YYYY-MM form.
func ParseMonth(s string) (Month, error) {
	m := monthPattern.FindStringSubmatch(s)
	if m == nil {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	year, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm < 1 || mm > 12 {
		return Month{}, fmt.Errorf("invalid month %q: month out of range", s)
	}
	return Month{Year: year, Month: mm - 1}, nil
}

// String returns the YYYY-MM form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month+1)
}

// Time returns midnight UTC on the first day of the month.
func (m Month) Time() time.Time {
	return time.Date(m.Year, time.Month(m.Month+1), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns m shifted by n months.
func (m Month) AddMonths(n int) Month {
	return MonthOf(m.Time().AddDate(0, n, 0))
}

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
