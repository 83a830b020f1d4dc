package liturgy

import (
	"fmt"
	"time"
)

// Celebration is one liturgical observance as reported by the calendar API.
// Title is a pointer so a missing field can be told apart from an empty one.
type Celebration struct {
	Title   *string `json:"title,omitempty"`
	Colour  string  `json:"colour,omitempty"`
	Rank    string  `json:"rank,omitempty"`
	RankNum float64 `json:"rank_num,omitempty"`
}

// TitleOr returns the celebration title, or fallback when the source omitted it.
func (c Celebration) TitleOr(fallback string) string {
	if c.Title == nil {
		return fallback
	}
	return *c.Title
}

// DayEntry is the per-day value of a month response.
type DayEntry struct {
	Celebrations []Celebration `json:"celebrations"`
}

// Titles returns the celebration titles in source order.
func (d DayEntry) Titles() []string {
	titles := make([]string, 0, len(d.Celebrations))
	for _, c := range d.Celebrations {
		titles = append(titles, c.TitleOr(UnknownTitle))
	}
	return titles
}

// MonthCalendar maps day-of-month to the celebrations the source reports for it.
// Days the source does not report are absent.
type MonthCalendar map[int]DayEntry

// Day returns the CelebrationDay for the given date. Missing days yield no titles.
func (m MonthCalendar) Day(year, month, day int) CelebrationDay {
	return CelebrationDay{
		Date:   time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC),
		Titles: m[day].Titles(),
	}
}

// CelebrationDay is one calendar day's feast information.
type CelebrationDay struct {
	Date   time.Time
	Titles []string
}

// Key returns the date in YYYY-MM-DD form.
func (c CelebrationDay) Key() string {
	return c.Date.Format(DateLayout)
}

// formatDate formats a date as YYYY-MM-DD
func formatDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
