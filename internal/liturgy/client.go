package liturgy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const (
	// ErrorTitle is returned as the only title when a day lookup fails.
	ErrorTitle = "Error fetching data"
	// UnknownTitle stands in for a celebration the source sent without a title.
	UnknownTitle = "Unknown"
	// DateLayout is the canonical date form used for table rows and note keys.
	DateLayout = "2006-01-02"

	meditationText = "Trust in God's providence today. Reflect on the life of the saint commemorated and offer your day to Christ."
)

// Client fetches celebrations from the liturgical calendar API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new calendar API client rooted at baseURL.
// A nil httpClient uses http.DefaultClient, so only transport defaults apply.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// DayURL builds {base}/{language}/calendars/{country}/{year}/{MM}/{DD}.
func (c *Client) DayURL(year, month, day int, country, language string) string {
	return fmt.Sprintf("%s/%s/calendars/%s/%d/%02d/%02d", c.baseURL, language, country, year, month, day)
}

// MonthURL builds {base}/{language}/calendars/{country}/{year}/{MM}.
func (c *Client) MonthURL(year, month int, country, language string) string {
	return fmt.Sprintf("%s/%s/calendars/%s/%d/%02d", c.baseURL, language, country, year, month)
}

// ICSExportURL returns the link to the source's ICS export for a whole year.
// The document is never fetched by this package.
func (c *Client) ICSExportURL(year int, country, language string) string {
	return fmt.Sprintf("%s/%s/calendars/%s/%d?format=ics", c.baseURL, language, country, year)
}

// FetchDay returns the celebration titles for one day, in source order.
// Failures never reach the caller: a transport error or non-2xx response
// yields a single ErrorTitle entry.
func (c *Client) FetchDay(ctx context.Context, year, month, day int, country, language string) []string {
	var payload struct {
		Celebrations []Celebration `json:"celebrations"`
	}
	if err := c.getJSON(ctx, c.DayURL(year, month, day, country, language), &payload); err != nil {
		log.Printf("Warning: failed to fetch celebrations for %s: %v", formatDate(year, month, day), err)
		return []string{ErrorTitle}
	}

	return DayEntry{Celebrations: payload.Celebrations}.Titles()
}

// FetchMonth returns the source's day -> celebrations structure for a month.
// Unlike FetchDay, a failed lookup yields an empty calendar and no marker.
func (c *Client) FetchMonth(ctx context.Context, year, month int, country, language string) MonthCalendar {
	var payload struct {
		Calendar map[string]DayEntry `json:"calendar"`
	}
	if err := c.getJSON(ctx, c.MonthURL(year, month, country, language), &payload); err != nil {
		log.Printf("Warning: failed to fetch calendar for %04d-%02d: %v", year, month, err)
		return MonthCalendar{}
	}

	calendar := make(MonthCalendar, len(payload.Calendar))
	for key, entry := range payload.Calendar {
		day, err := strconv.Atoi(key)
		if err != nil {
			log.Printf("Warning: skipping non-numeric day %q in calendar response", key)
			continue
		}
		calendar[day] = entry
	}
	return calendar
}

// FetchMeditation returns the reflection for a date. The text is currently
// fixed and does not depend on dateStr.
func FetchMeditation(dateStr string) string {
	return meditationText
}

// Row is one line of the month table.
type Row struct {
	Date        string
	Celebration string
}

// MonthRows flattens a month calendar into table rows ordered by day.
func MonthRows(year, month int, calendar MonthCalendar) []Row {
	days := make([]int, 0, len(calendar))
	for day := range calendar {
		days = append(days, day)
	}
	sort.Ints(days)

	rows := make([]Row, 0, len(days))
	for _, day := range days {
		rows = append(rows, Row{
			Date:        formatDate(year, month, day),
			Celebration: strings.Join(calendar[day].Titles(), ", "),
		})
	}
	return rows
}

// getJSON performs a single GET and decodes a 2xx body into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
