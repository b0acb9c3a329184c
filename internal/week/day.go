package week

import (
	"fmt"
	"strings"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
)

// Weekday is one of the seven canonical day names, numbered from Monday = 0.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Weekdays lists every weekday in Monday-first order.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// ParseWeekday converts a case-insensitive day name.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range weekdayNames {
		if n == name {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: day_of_week %q must be one of %s",
		model.ErrInvalidTemplate, s, strings.Join(weekdayNames[:], ", "))
}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// StartDay is the weekday a logical week begins on.
type StartDay int

const (
	StartMonday StartDay = iota
	StartSunday
	StartSaturday
)

// ParseStartDay converts "monday", "sunday" or "saturday" (any case).
func ParseStartDay(s string) (StartDay, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monday":
		return StartMonday, nil
	case "sunday":
		return StartSunday, nil
	case "saturday":
		return StartSaturday, nil
	}
	return 0, fmt.Errorf("%w: week start %q must be monday, sunday or saturday",
		model.ErrInvalidConfiguration, s)
}

// Valid reports whether d is one of the three supported conventions.
func (d StartDay) Valid() bool {
	return d >= StartMonday && d <= StartSaturday
}

// Weekday returns the first weekday of a week under this convention.
func (d StartDay) Weekday() Weekday {
	switch d {
	case StartSunday:
		return Sunday
	case StartSaturday:
		return Saturday
	}
	return Monday
}

// Offset is the number of days from the ISO Monday to the start weekday.
func (d StartDay) Offset() int {
	return int(d.Weekday())
}

func (d StartDay) String() string {
	if !d.Valid() {
		return fmt.Sprintf("StartDay(%d)", int(d))
	}
	return d.Weekday().String()
}
