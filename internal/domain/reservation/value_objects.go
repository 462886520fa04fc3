package reservation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	ErrInvalidDay       = errors.New("day must be formatted as YYYY-MM-DD")
	ErrInvalidClockTime = errors.New("time must be formatted as HH:MM")
	ErrEmptyTimeSlot    = errors.New("start time must be before end time")
)

var clockTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Day is a calendar date in the venue's local zone, kept as a YYYY-MM-DD
// string so that ordering stays byte-for-byte compatible with the stored form.
type Day string

func NewDay(s string) (Day, error) {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", ErrInvalidDay
	}
	return Day(s), nil
}

func DayOf(t time.Time) Day {
	return Day(t.Format("2006-01-02"))
}

func (d Day) String() string {
	return string(d)
}

func (d Day) Before(other Day) bool {
	return string(d) < string(other)
}

// ClockTime is a zero-padded 24-hour HH:MM wall-clock string. The fixed-width
// format makes lexicographic comparison equivalent to temporal comparison.
type ClockTime string

func NewClockTime(s string) (ClockTime, error) {
	if !clockTimeRegex.MatchString(s) {
		return "", ErrInvalidClockTime
	}
	return ClockTime(s), nil
}

func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime(t.Format("15:04"))
}

func (c ClockTime) String() string {
	return string(c)
}

func (c ClockTime) Before(other ClockTime) bool {
	return string(c) < string(other)
}

func (c ClockTime) Hour() int {
	h, _ := strconv.Atoi(string(c)[:2])
	return h
}

type TimeSlot struct {
	day   Day
	start ClockTime
	end   ClockTime
}

func NewTimeSlot(day Day, start, end ClockTime) (TimeSlot, error) {
	if !start.Before(end) {
		return TimeSlot{}, ErrEmptyTimeSlot
	}
	return TimeSlot{day: day, start: start, end: end}, nil
}

func (ts TimeSlot) Day() Day         { return ts.day }
func (ts TimeSlot) Start() ClockTime { return ts.start }
func (ts TimeSlot) End() ClockTime   { return ts.end }

// Overlaps reports whether two half-open [start,end) slots on the same day
// collide: s1 < e2 AND e1 > s2.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	if ts.day != other.day {
		return false
	}
	return ts.start.Before(other.end) && other.start.Before(ts.end)
}

// WholeHours is the billable hour count: end hour minus start hour, minutes
// dropped. Fractional hours are deliberately not billed.
func (ts TimeSlot) WholeHours() int {
	h := ts.end.Hour() - ts.start.Hour()
	if h < 0 {
		return 0
	}
	return h
}

// ElapsedAt reports whether the slot's window has fully passed at the given
// (day, wall-clock) moment. The end minute itself is still inside the
// window: a slot ending 12:00 is elapsed from 12:01.
func (ts TimeSlot) ElapsedAt(day Day, now ClockTime) bool {
	if ts.day.Before(day) {
		return true
	}
	return ts.day == day && ts.end.Before(now)
}

func (ts TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", ts.day, ts.start, ts.end)
}

type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) IsNegative() bool {
	return m.cents < 0
}

// ApplyPercent subtracts percent% and returns the discounted amount together
// with the amount taken off.
func (m Money) ApplyPercent(percent int) (Money, Money) {
	off := m.cents * int64(percent) / 100
	return Money{cents: m.cents - off}, Money{cents: off}
}

type Note struct {
	value string
}

func NewNote(value string) Note {
	return Note{value: value}
}

func (n Note) String() string {
	return n.value
}

func (n Note) IsEmpty() bool {
	return n.value == ""
}
