package week

import (
	"fmt"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
)

// ListNamePrefix is prepended to the zero-padded week number.
const ListNamePrefix = "Todo w"

// MaxWeek is the highest ISO week number a year can have.
const MaxWeek = 53

// Target is a week number together with the reference date whose ISO year
// the number belongs to.
type Target struct {
	Number    int
	Reference time.Time
}

// ValidateNumber checks that n is a usable week number.
func ValidateNumber(n int) error {
	if n < 1 || n > MaxWeek {
		return fmt.Errorf("%w: week %d must be between 1 and %d", model.ErrInvalidConfiguration, n, MaxWeek)
	}
	return nil
}

// ListName is the canonical name of the list holding week n.
func ListName(n int) string {
	return fmt.Sprintf("%s%02d", ListNamePrefix, n)
}

// WeekStart returns midnight of the first day of week n under the start
// convention. Week 1 is anchored on the Monday of the ISO week holding
// January 4th of now's ISO year; Sunday and Saturday conventions shift that
// anchor forward by six and five days respectively.
func WeekStart(n int, start StartDay, now time.Time) time.Time {
	isoYear, _ := now.ISOWeek()
	jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, now.Location())
	week1Monday := jan4.AddDate(0, 0, -mondayIndex(jan4))
	return week1Monday.AddDate(0, 0, start.Offset()+7*(n-1))
}

// CurrentWeek returns the week holding now. Under the Monday convention this
// is the ISO week. Under Sunday and Saturday a week takes the number of the
// ISO week whose Monday follows its start day, so a date falling on the start
// weekday or later already counts toward the next ISO number.
func CurrentWeek(start StartDay, now time.Time) Target {
	ref := now
	if start != StartMonday && mondayIndex(now) >= start.Offset() {
		ref = now.AddDate(0, 0, 7-start.Offset())
	}
	_, n := ref.ISOWeek()
	return Target{Number: n, Reference: ref}
}

// CurrentWeekNumber is CurrentWeek without the reference date.
func CurrentWeekNumber(start StartDay, now time.Time) int {
	return CurrentWeek(start, now).Number
}

// NextWeek returns the week after the one holding now.
func NextWeek(start StartDay, now time.Time) Target {
	return CurrentWeek(start, now.AddDate(0, 0, 7))
}

// NextWeekNumber is NextWeek without the reference date.
func NextWeekNumber(start StartDay, now time.Time) int {
	return NextWeek(start, now).Number
}

// DayOffset is the zero-based position of w counting forward from the
// convention's start weekday: with a Saturday start, Saturday is 0 and
// Friday is 6.
func DayOffset(w Weekday, start StartDay) int {
	return (int(w) - start.Offset() + 7) % 7
}

// DueDate places (weekday, hour, minute) inside week n.
func DueDate(n int, start StartDay, w Weekday, hour, minute int, now time.Time) time.Time {
	day := WeekStart(n, start, now).AddDate(0, 0, DayOffset(w, start))
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// mondayIndex maps t's weekday onto the Monday = 0 scheme.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
