package publish

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/beekhof/saints-calendar/internal/liturgy"
)

func titled(titles ...string) liturgy.DayEntry {
	entry := liturgy.DayEntry{}
	for i := range titles {
		entry.Celebrations = append(entry.Celebrations, liturgy.Celebration{Title: &titles[i]})
	}
	return entry
}

func TestEncodeICS_RoundTrip(t *testing.T) {
	cal := liturgy.MonthCalendar{
		25: titled("Nativity of the Lord"),
		26: titled("Saint Stephen, the first martyr"),
		8:  titled("Immaculate Conception", "Second Sunday of Advent"),
		2:  {},
	}

	var buf bytes.Buffer
	if err := EncodeICS(&buf, 2024, 12, "default", cal); err != nil {
		t.Fatalf("EncodeICS() returned an error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "PRODID:" + icsProductID, "DTSTART;VALUE=DATE:20241225", "UID:2024-12-25-default@saints-calendar"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected ICS output to contain %q", want)
		}
	}
	if strings.Contains(out, "20241202") {
		t.Error("Days without celebrations should not be exported")
	}

	days, err := DecodeICS(strings.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeICS() returned an error: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(days))
	}

	expected := []struct {
		key    string
		titles []string
	}{
		{"2024-12-08", []string{"Immaculate Conception", "Second Sunday of Advent"}},
		{"2024-12-25", []string{"Nativity of the Lord"}},
		{"2024-12-26", []string{"Saint Stephen, the first martyr"}},
	}
	for i, want := range expected {
		if days[i].Key() != want.key {
			t.Errorf("day %d: expected %s, got %s", i, want.key, days[i].Key())
		}
		if !reflect.DeepEqual(days[i].Titles, want.titles) {
			t.Errorf("day %d: expected titles %v, got %v", i, want.titles, days[i].Titles)
		}
	}
}

func TestEncodeICS_EmptyMonth(t *testing.T) {
	months := map[string]liturgy.MonthCalendar{
		"no days":   {},
		"no titles": {3: {}, 4: {}},
	}

	for name, cal := range months {
		var buf bytes.Buffer
		err := EncodeICS(&buf, 2025, 2, "US", cal)
		if !errors.Is(err, ErrNoCelebrations) {
			t.Errorf("%s: expected ErrNoCelebrations, got %v", name, err)
		}
		if buf.Len() != 0 {
			t.Errorf("%s: expected nothing written, got %q", name, buf.String())
		}
	}
}

func TestDecodeICS_Invalid(t *testing.T) {
	if _, err := DecodeICS(strings.NewReader("not a calendar")); err == nil {
		t.Error("DecodeICS() should fail on invalid input")
	}
}
