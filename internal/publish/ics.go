package publish

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/beekhof/saints-calendar/internal/liturgy"
)

const icsProductID = "-//Saints Calendar//EN"

// ErrNoCelebrations is returned by EncodeICS when no day of the month has a
// celebration. Nothing is written in that case.
var ErrNoCelebrations = errors.New("no celebrations to export")

// EncodeICS writes the month's celebrations as an iCalendar document with one
// all-day event per day. Days without celebrations are left out.
func EncodeICS(w io.Writer, year, month int, country string, calendar liturgy.MonthCalendar) error {
	days := celebrationDays(year, month, calendar)
	if len(days) == 0 {
		return ErrNoCelebrations
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	cal.Props.SetText("X-WR-CALNAME", fmt.Sprintf("Liturgical Calendar %04d-%02d (%s)", year, month, country))
	cal.Props.SetText("CALSCALE", "GREGORIAN")

	stamp := time.Now().UTC()
	for _, day := range days {
		cal.Children = append(cal.Children, dayToVEvent(day, country, stamp))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode iCalendar: %w", err)
	}
	return nil
}

// DecodeICS reads celebration days back from an iCalendar document produced by
// EncodeICS. Events without a usable DTSTART are skipped.
func DecodeICS(r io.Reader) ([]liturgy.CelebrationDay, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to parse iCalendar: %w", err)
	}

	var days []liturgy.CelebrationDay
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}

		dtstart := comp.Props.Get(ical.PropDateTimeStart)
		if dtstart == nil {
			continue
		}
		date, err := dtstart.DateTime(time.UTC)
		if err != nil {
			continue
		}

		day := liturgy.CelebrationDay{
			Date: time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC),
		}
		if desc := comp.Props.Get(ical.PropDescription); desc != nil {
			if text, err := desc.Text(); err == nil && text != "" {
				day.Titles = strings.Split(text, "\n")
			}
		}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days, nil
}

// dayToVEvent converts a celebration day to an all-day VEVENT.
func dayToVEvent(day liturgy.CelebrationDay, country string, stamp time.Time) *ical.Component {
	vevent := ical.NewComponent(ical.CompEvent)
	vevent.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%s@saints-calendar", day.Key(), country))
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	dtstart := ical.NewProp(ical.PropDateTimeStart)
	dtstart.SetDate(day.Date)
	vevent.Props.Set(dtstart)

	dtend := ical.NewProp(ical.PropDateTimeEnd)
	dtend.SetDate(day.Date.AddDate(0, 0, 1))
	vevent.Props.Set(dtend)

	vevent.Props.SetText(ical.PropSummary, strings.Join(day.Titles, ", "))
	vevent.Props.SetText(ical.PropDescription, strings.Join(day.Titles, "\n"))
	vevent.Props.SetText("TRANSP", "TRANSPARENT")

	return vevent
}

// celebrationDays lists the days of the month that have celebrations, in order.
func celebrationDays(year, month int, calendar liturgy.MonthCalendar) []liturgy.CelebrationDay {
	numbers := make([]int, 0, len(calendar))
	for n := range calendar {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	days := make([]liturgy.CelebrationDay, 0, len(numbers))
	for _, n := range numbers {
		day := calendar.Day(year, month, n)
		if len(day.Titles) == 0 {
			continue
		}
		days = append(days, day)
	}
	return days
}
