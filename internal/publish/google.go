package publish

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarClient is the subset of calendar operations the publisher needs.
type CalendarClient interface {
	FindOrCreateCalendarByName(ctx context.Context, name, colorID string) (string, error)
	FindEventsByKey(ctx context.Context, calendarID, key string) ([]*calendar.Event, error)
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) error
	UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// GoogleClient is a wrapper around the Google Calendar API service.
type GoogleClient struct {
	service *calendar.Service
}

// NewGoogleClient creates a Google Calendar API client using the provided HTTP client.
// Extra options (e.g. option.WithEndpoint) are passed to the service.
func NewGoogleClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*GoogleClient, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleClient{service: service}, nil
}

// FindOrCreateCalendarByName finds an existing calendar by name or creates a new one.
// Returns the calendar ID.
func (c *GoogleClient) FindOrCreateCalendarByName(ctx context.Context, name, colorID string) (string, error) {
	calendarList, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("Google: failed to list calendars: %w", err)
	}

	for _, cal := range calendarList.Items {
		if cal.Summary == name {
			return cal.Id, nil
		}
	}

	created, err := c.service.Calendars.Insert(&calendar.Calendar{
		Summary:     name,
		Description: "Liturgical celebrations published by saintscal",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar: %w", err)
	}

	if colorID != "" {
		_, err = c.service.CalendarList.Patch(created.Id, &calendar.CalendarListEntry{
			ColorId: colorID,
		}).Context(ctx).Do()
		if err != nil {
			// Colour is cosmetic.
			log.Printf("Warning: failed to set calendar color: %v", err)
		}
	}

	return created.Id, nil
}

// FindEventsByKey finds events carrying the given celebrationKey private property.
func (c *GoogleClient) FindEventsByKey(ctx context.Context, calendarID, key string) ([]*calendar.Event, error) {
	eventsList, err := c.service.Events.List(calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", keyProperty, key)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to find events by key: %w", err)
	}

	return eventsList.Items, nil
}

// InsertEvent inserts a new event into a calendar without notifying anyone.
func (c *GoogleClient) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) error {
	_, err := c.service.Events.Insert(calendarID, event).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// UpdateEvent updates an existing event in a calendar.
func (c *GoogleClient) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) error {
	_, err := c.service.Events.Update(calendarID, eventID, event).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return nil
}

// DeleteEvent deletes an event from a calendar.
func (c *GoogleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.service.Events.Delete(calendarID, eventID).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}
