package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/beekhof/saints-calendar/internal/liturgy"
)

// fakeGoogleCalendar serves the handful of Calendar API v3 endpoints GoogleClient uses.
type fakeGoogleCalendar struct {
	mu          sync.Mutex
	calendars   []*calendar.CalendarListEntry
	events      map[string]*calendar.Event
	nextID      int
	colorPatch  string
	sendUpdates []string
}

func newFakeGoogleCalendar(t *testing.T, existing ...*calendar.CalendarListEntry) (*fakeGoogleCalendar, *GoogleClient) {
	t.Helper()
	fake := &fakeGoogleCalendar{calendars: existing, events: make(map[string]*calendar.Event)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewGoogleClient(context.Background(), server.Client(), option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewGoogleClient() returned an error: %v", err)
	}
	return fake, client
}

func (f *fakeGoogleCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/users/me/calendarList"):
		json.NewEncoder(w).Encode(&calendar.CalendarList{Items: f.calendars})

	case r.Method == http.MethodPatch && strings.Contains(path, "/users/me/calendarList/"):
		var entry calendar.CalendarListEntry
		json.NewDecoder(r.Body).Decode(&entry)
		f.colorPatch = entry.ColorId
		json.NewEncoder(w).Encode(&entry)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/calendars"):
		var cal calendar.Calendar
		json.NewDecoder(r.Body).Decode(&cal)
		cal.Id = "created-calendar"
		f.calendars = append(f.calendars, &calendar.CalendarListEntry{Id: cal.Id, Summary: cal.Summary})
		json.NewEncoder(w).Encode(&cal)

	case r.Method == http.MethodGet && strings.HasSuffix(path, "/events"):
		want := r.URL.Query().Get("privateExtendedProperty")
		var items []*calendar.Event
		for _, e := range f.events {
			if e.ExtendedProperties != nil && keyProperty+"="+e.ExtendedProperties.Private[keyProperty] == want {
				items = append(items, e)
			}
		}
		json.NewEncoder(w).Encode(&calendar.Events{Items: items})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/events"):
		var event calendar.Event
		json.NewDecoder(r.Body).Decode(&event)
		f.nextID++
		event.Id = fmt.Sprintf("event-%d", f.nextID)
		f.events[event.Id] = &event
		f.sendUpdates = append(f.sendUpdates, r.URL.Query().Get("sendUpdates"))
		json.NewEncoder(w).Encode(&event)

	case r.Method == http.MethodPut && strings.Contains(path, "/events/"):
		var event calendar.Event
		json.NewDecoder(r.Body).Decode(&event)
		event.Id = path[strings.LastIndex(path, "/")+1:]
		f.events[event.Id] = &event
		f.sendUpdates = append(f.sendUpdates, r.URL.Query().Get("sendUpdates"))
		json.NewEncoder(w).Encode(&event)

	case r.Method == http.MethodDelete && strings.Contains(path, "/events/"):
		delete(f.events, path[strings.LastIndex(path, "/")+1:])
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func TestGoogleClient_FindExistingCalendar(t *testing.T) {
	_, client := newFakeGoogleCalendar(t, &calendar.CalendarListEntry{Id: "saints-id", Summary: "Saints Calendar"})

	id, err := client.FindOrCreateCalendarByName(context.Background(), "Saints Calendar", "9")
	if err != nil {
		t.Fatalf("FindOrCreateCalendarByName() returned an error: %v", err)
	}
	if id != "saints-id" {
		t.Errorf("Expected saints-id, got %s", id)
	}
}

func TestGoogleClient_CreateCalendarSetsColor(t *testing.T) {
	fake, client := newFakeGoogleCalendar(t)

	id, err := client.FindOrCreateCalendarByName(context.Background(), "Saints Calendar", "9")
	if err != nil {
		t.Fatalf("FindOrCreateCalendarByName() returned an error: %v", err)
	}
	if id != "created-calendar" {
		t.Errorf("Expected created-calendar, got %s", id)
	}
	if fake.colorPatch != "9" {
		t.Errorf("Expected color 9 to be set, got %q", fake.colorPatch)
	}
}

func TestGoogleClient_PublishMonthIsIdempotent(t *testing.T) {
	fake, client := newFakeGoogleCalendar(t, &calendar.CalendarListEntry{Id: "saints-id", Summary: "Saints Calendar"})
	publisher := NewPublisher(client, "Saints Calendar", "9", false)
	cal := liturgy.MonthCalendar{
		25: titled("Nativity of the Lord"),
		26: titled("Saint Stephen, the first martyr"),
	}

	result, err := publisher.PublishMonth(context.Background(), 2024, 12, "default", cal)
	if err != nil {
		t.Fatalf("PublishMonth() returned an error: %v", err)
	}
	if result.Inserted != 2 {
		t.Errorf("Expected 2 inserts, got %+v", result)
	}

	result, err = publisher.PublishMonth(context.Background(), 2024, 12, "default", cal)
	if err != nil {
		t.Fatalf("PublishMonth() returned an error: %v", err)
	}
	if result.Inserted != 0 || result.Updated != 2 {
		t.Errorf("Expected 2 updates on re-publish, got %+v", result)
	}
	if len(fake.events) != 2 {
		t.Errorf("Expected 2 events stored, got %d", len(fake.events))
	}
	for _, mode := range fake.sendUpdates {
		if mode != "none" {
			t.Errorf("Expected sendUpdates=none, got %q", mode)
		}
	}
}
