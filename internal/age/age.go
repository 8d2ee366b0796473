// Package age computes how many days an item has waited, under one of three
// calendar models.
package age

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrConflictingStrategies is returned by Select when more than one
// non-default strategy is requested.
var ErrConflictingStrategies = errors.New("weekday and business-day ageing are mutually exclusive")

// Strategy is a calendar model.
type Strategy string

const (
	Calendar Strategy = "calendar"
	Weekday  Strategy = "weekday"
	Business Strategy = "business"
)

// Label is the human readable name of the unit a strategy counts.
func (s Strategy) Label() string {
	switch s {
	case Weekday:
		return "week days"
	case Business:
		return "business days"
	default:
		return "calendar days"
	}
}

// ParseStrategy parses a configured strategy name. Empty means Calendar.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", Calendar:
		return Calendar, nil
	case Weekday:
		return Weekday, nil
	case Business:
		return Business, nil
	}
	return "", fmt.Errorf("unknown age model %q", name)
}

// Select turns the two command line switches into a strategy, falling back
// to def when neither is set.
func Select(weekday, business bool, def Strategy) (Strategy, error) {
	switch {
	case weekday && business:
		return "", ErrConflictingStrategies
	case weekday:
		return Weekday, nil
	case business:
		return Business, nil
	}
	return def, nil
}

// Holidays is an immutable set of excluded dates. The zero value is empty.
type Holidays struct {
	days map[civil]struct{}
}

// NewHolidays builds a holiday set from dates. Only the calendar date of
// each value is kept.
func NewHolidays(dates ...time.Time) Holidays {
	days := make(map[civil]struct{}, len(dates))
	for _, d := range dates {
		days[civilOf(d)] = struct{}{}
	}
	return Holidays{days: days}
}

// Contains reports whether the calendar date of t is a holiday.
func (h Holidays) Contains(t time.Time) bool {
	_, ok := h.days[civilOf(t)]
	return ok
}

// Len returns the number of holidays.
func (h Holidays) Len() int {
	return len(h.days)
}

// LoadHolidays reads a holiday calendar file. A missing file is an empty
// calendar.
func LoadHolidays(path string) (Holidays, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Holidays{}, nil
		}
		return Holidays{}, fmt.Errorf("opening holiday calendar: %w", err)
	}
	defer f.Close()

	h, err := ParseHolidays(f)
	if err != nil {
		return Holidays{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return h, nil
}

// ParseHolidays parses one YYYY-MM-DD date per line. Anything after the date
// is a description. Blank lines and lines starting with # are ignored.
func ParseHolidays(r io.Reader) (Holidays, error) {
	var dates []time.Time
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		field := strings.Fields(line)[0]
		d, err := time.Parse(time.DateOnly, field)
		if err != nil {
			return Holidays{}, fmt.Errorf("line %d: invalid date %q", lineNo, field)
		}
		dates = append(dates, d)
	}
	if err := scanner.Err(); err != nil {
		return Holidays{}, err
	}
	return NewHolidays(dates...), nil
}

// Calculator computes ages under one strategy.
type Calculator struct {
	strategy Strategy
	holidays Holidays
}

// NewCalculator returns a calculator. Holidays are only consulted by the
// Business strategy.
func NewCalculator(strategy Strategy, holidays Holidays) *Calculator {
	return &Calculator{strategy: strategy, holidays: holidays}
}

// Strategy returns the calculator's strategy.
func (c *Calculator) Strategy() Strategy {
	return c.strategy
}

// Age returns the number of counted days in (ref, now]. Both instants are
// reduced to calendar dates in now's location first. A reference after now
// yields the negated count, so it is never positive.
func (c *Calculator) Age(ref, now time.Time) int {
	from := civilOf(ref.In(now.Location()))
	to := civilOf(now)

	sign := 1
	if to.before(from) {
		from, to = to, from
		sign = -1
	}

	if c.strategy == Calendar || c.strategy == "" {
		return sign * from.daysUntil(to)
	}

	n := 0
	for d := from.next(); !to.before(d); d = d.next() {
		if c.counts(d) {
			n++
		}
	}
	return sign * n
}

func (c *Calculator) counts(d civil) bool {
	wd := d.weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if c.strategy == Business {
		if _, ok := c.holidays.days[d]; ok {
			return false
		}
	}
	return true
}

// civil is a calendar date without time or location.
type civil struct {
	year  int
	month time.Month
	day   int
}

func civilOf(t time.Time) civil {
	y, m, d := t.Date()
	return civil{year: y, month: m, day: d}
}

func (c civil) time() time.Time {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, time.UTC)
}

func (c civil) next() civil {
	return civilOf(c.time().AddDate(0, 0, 1))
}

func (c civil) before(o civil) bool {
	return c.time().Before(o.time())
}

func (c civil) weekday() time.Weekday {
	return c.time().Weekday()
}

func (c civil) daysUntil(o civil) int {
	return int(o.time().Sub(c.time()).Hours() / 24)
}
