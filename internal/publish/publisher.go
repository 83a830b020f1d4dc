package publish

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/calendar/v3"

	"github.com/beekhof/saints-calendar/internal/liturgy"
)

// keyProperty is the private extended property that ties a published event
// to its date and national calendar, so re-publishing updates in place.
const keyProperty = "celebrationKey"

// Result counts what a publish run changed.
type Result struct {
	Inserted int
	Updated  int
	Deleted  int
}

// Publisher pushes a month of celebrations into a destination calendar.
type Publisher struct {
	client       CalendarClient
	calendarName string
	colorID      string
	verbose      bool
}

// NewPublisher creates a new Publisher instance.
func NewPublisher(client CalendarClient, calendarName, colorID string, verbose bool) *Publisher {
	return &Publisher{
		client:       client,
		calendarName: calendarName,
		colorID:      colorID,
		verbose:      verbose,
	}
}

// PublishMonth writes one all-day event per celebration day of the month.
// Existing events with the same key are updated and extra copies removed.
func (p *Publisher) PublishMonth(ctx context.Context, year, month int, country string, cal liturgy.MonthCalendar) (Result, error) {
	var result Result

	calendarID, err := p.client.FindOrCreateCalendarByName(ctx, p.calendarName, p.colorID)
	if err != nil {
		return result, fmt.Errorf("failed to find or create calendar: %w", err)
	}

	for _, day := range celebrationDays(year, month, cal) {
		key := celebrationKey(day, country)
		event := celebrationEvent(day, key)

		existing, err := p.client.FindEventsByKey(ctx, calendarID, key)
		if err != nil {
			return result, err
		}

		if len(existing) == 0 {
			if err := p.client.InsertEvent(ctx, calendarID, event); err != nil {
				return result, fmt.Errorf("%s: %w", key, err)
			}
			result.Inserted++
			p.debugf("Inserted %s: %s", key, event.Summary)
			continue
		}

		event.Id = existing[0].Id
		if err := p.client.UpdateEvent(ctx, calendarID, event.Id, event); err != nil {
			return result, fmt.Errorf("%s: %w", key, err)
		}
		result.Updated++
		p.debugf("Updated %s: %s", key, event.Summary)

		for _, dup := range existing[1:] {
			log.Printf("Warning: removing duplicate event %s for %s", dup.Id, key)
			if err := p.client.DeleteEvent(ctx, calendarID, dup.Id); err != nil {
				return result, fmt.Errorf("%s: %w", key, err)
			}
			result.Deleted++
		}
	}

	return result, nil
}

func (p *Publisher) debugf(format string, args ...any) {
	if p.verbose {
		log.Printf("DEBUG: "+format, args...)
	}
}

func celebrationKey(day liturgy.CelebrationDay, country string) string {
	return day.Key() + "/" + country
}

// celebrationEvent converts a celebration day to an all-day, non-blocking event.
func celebrationEvent(day liturgy.CelebrationDay, key string) *calendar.Event {
	return &calendar.Event{
		Summary:      strings.Join(day.Titles, ", "),
		Description:  strings.Join(day.Titles, "\n"),
		Start:        &calendar.EventDateTime{Date: day.Key()},
		End:          &calendar.EventDateTime{Date: day.Date.AddDate(0, 0, 1).Format(liturgy.DateLayout)},
		Transparency: "transparent",
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{keyProperty: key},
		},
	}
}
