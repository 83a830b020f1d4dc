package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/beekhof/saints-calendar/internal/auth"
	"github.com/beekhof/saints-calendar/internal/config"
	"github.com/beekhof/saints-calendar/internal/liturgy"
	"github.com/beekhof/saints-calendar/internal/notes"
	"github.com/beekhof/saints-calendar/internal/publish"
)

const separator = "---"

// options are the choices made for one run of the tool.
type options struct {
	selection     config.Selection
	date          time.Time
	note          *string // nil leaves the stored note alone
	save          bool
	icsOut        string
	publishGoogle bool
	verbose       bool

	// newCalendarClient is swapped out by tests to avoid the OAuth flow.
	newCalendarClient func(ctx context.Context, cfg config.Config) (publish.CalendarClient, error)
}

// run performs one full pass: month table, selected day, meditation, note, export link.
func run(ctx context.Context, cfg config.Config, opts options, out io.Writer) error {
	if err := config.ValidateSelection(opts.selection); err != nil {
		return err
	}
	sel := opts.selection
	client := liturgy.NewClient(cfg.BaseURL, nil)

	fmt.Fprintf(out, "Liturgical Calendar for %s %d\n\n", time.Month(sel.Month), sel.Year)
	monthCal := client.FetchMonth(ctx, sel.Year, sel.Month, sel.Country, sel.Language)
	writeMonthTable(out, liturgy.MonthRows(sel.Year, sel.Month, monthCal))

	fmt.Fprintln(out, separator)
	fmt.Fprintf(out, "Feast(s) on %s\n", opts.date.Format("January 02"))
	for _, title := range client.FetchDay(ctx, opts.date.Year(), int(opts.date.Month()), opts.date.Day(), sel.Country, sel.Language) {
		fmt.Fprintf(out, "- %s\n", title)
	}

	key := notes.DateKey(opts.date)
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, "Daily Catholic Meditation")
	fmt.Fprintf(out, "> %s\n", liturgy.FetchMeditation(key))

	store := notes.NewStore(cfg.NotesPath)
	noteData, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load notes: %w", err)
	}
	if opts.note != nil {
		noteData = notes.Set(noteData, key, *opts.note)
	}

	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, "Personal Notes")
	if text := notes.Get(noteData, key); text != "" {
		fmt.Fprintln(out, text)
	} else {
		fmt.Fprintln(out, "(no note)")
	}
	if opts.save {
		if err := store.Save(noteData); err != nil {
			return fmt.Errorf("failed to save notes: %w", err)
		}
		fmt.Fprintln(out, "Note saved successfully.")
	} else if opts.note != nil {
		log.Printf("Warning: note for %s was not saved (use --save)", key)
	}

	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, "Export Liturgical Calendar")
	fmt.Fprintf(out, "Download ICS for %d - %s: %s\n", sel.Year, strings.ToUpper(sel.Country), client.ICSExportURL(sel.Year, sel.Country, sel.Language))

	if opts.icsOut != "" {
		written, err := writeICSFile(opts.icsOut, sel, monthCal)
		if err != nil {
			return err
		}
		if written {
			fmt.Fprintf(out, "Wrote %s\n", opts.icsOut)
		} else {
			fmt.Fprintf(out, "No celebrations to export, %s not written\n", opts.icsOut)
		}
	}

	if opts.publishGoogle {
		newClient := opts.newCalendarClient
		if newClient == nil {
			newClient = newGoogleCalendarClient
		}
		calClient, err := newClient(ctx, cfg)
		if err != nil {
			return err
		}
		result, err := publish.NewPublisher(calClient, cfg.CalendarName, cfg.CalendarColorID, opts.verbose).
			PublishMonth(ctx, sel.Year, sel.Month, sel.Country, monthCal)
		if err != nil {
			return fmt.Errorf("failed to publish to Google Calendar: %w", err)
		}
		fmt.Fprintf(out, "Published to %q: %d inserted, %d updated, %d duplicates removed\n",
			cfg.CalendarName, result.Inserted, result.Updated, result.Deleted)
	}

	return nil
}

func writeMonthTable(out io.Writer, rows []liturgy.Row) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tCelebration")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.Date, row.Celebration)
	}
	tw.Flush()
}

// writeICSFile exports the month to path. An empty month is not an error:
// nothing is written and false is returned.
func writeICSFile(path string, sel config.Selection, monthCal liturgy.MonthCalendar) (bool, error) {
	var buf bytes.Buffer
	err := publish.EncodeICS(&buf, sel.Year, sel.Month, sel.Country, monthCal)
	if errors.Is(err, publish.ErrNoCelebrations) {
		log.Printf("Warning: no celebrations for %04d-%02d, skipping ICS export", sel.Year, sel.Month)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// newGoogleCalendarClient authorizes against Google and returns a calendar client.
func newGoogleCalendarClient(ctx context.Context, cfg config.Config) (publish.CalendarClient, error) {
	if cfg.GoogleCredentialsPath == "" {
		return nil, fmt.Errorf("google_credentials_path must be provided via --google-credentials-path flag, GOOGLE_CREDENTIALS_PATH environment variable, or config file")
	}
	clientID, clientSecret, err := config.LoadGoogleCredentials(cfg.GoogleCredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}

	httpClient, err := auth.GetAuthenticatedClient(ctx, auth.GoogleOAuthConfig(clientID, clientSecret), auth.NewFileTokenStore(cfg.TokenPath))
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate Google account: %w", err)
	}

	client, err := publish.NewGoogleClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// readNote reads a note from in. The prompt is only shown on a terminal.
func readNote(in io.Reader, prompt io.Writer, interactive bool) (string, error) {
	if interactive {
		fmt.Fprintln(prompt, "Write your reflection or notes (finish with Ctrl-D):")
	}
	data, err := io.ReadAll(bufio.NewReader(in))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
