package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/beekhof/saints-calendar/internal/config"
)

func printHelp() {
	fmt.Fprintf(os.Stderr, `Saints Calendar

Shows the liturgical calendar for a month, the celebrations of a selected day,
a short meditation and your personal note for that day. Celebrations come from
the inadiutorium calendar API; notes are kept in a local JSON file.

USAGE:
    %s [OPTIONS]

OPTIONS:
    -h, --help                    Show this help message and exit
    -v, --verbose                 Enable verbose output (show DEBUG logs)
    --config FILE                 Path to JSON config file (optional)
    --year YEAR                   Year of the month view, 2000-2100 (default: current year)
    --month MONTH                 Month of the month view, 1-12 (default: current month)
    --country NAME                National calendar: default, US, PL, IT, FR
                                  (overrides config file and SAINTSCAL_COUNTRY env var)
    --lang CODE                   Language: en, la, it, fr
                                  (overrides config file and SAINTSCAL_LANGUAGE env var)
    --date YYYY-MM-DD             Day to show celebrations and the note for (default: today)
    --note TEXT                   Replace the note for --date with TEXT
    --edit                        Read the note for --date from standard input
    --save                        Save the edited note to the notes file
    --notes-path PATH             Notes file (overrides config file and SAINTSCAL_NOTES_PATH env var)
    --base-url URL                Calendar API root (overrides config file and SAINTSCAL_BASE_URL env var)
    --ics-out FILE                Write the month's celebrations to FILE as iCalendar
    --publish-google              Publish the month's celebrations to a Google calendar
    --google-credentials-path PATH Path to Google OAuth credentials JSON file
                                  (overrides config file and GOOGLE_CREDENTIALS_PATH env var)
    --token-path PATH             Where to keep the Google OAuth token
                                  (overrides config file and SAINTSCAL_TOKEN_PATH env var)

CONFIGURATION PRECEDENCE (highest to lowest):
    1. Command-line flags
    2. Environment variables (a .env file in the working directory is loaded first)
    3. Config file (--config)
    4. Defaults

CONFIG FILE:
    {
      "base_url": "https://calapi.inadiutorium.cz/api/v0",
      "default_country": "default",
      "default_language": "en",
      "notes_path": "notes.json",
      "google_credentials_path": "/path/to/credentials.json",
      "token_path": "/path/to/google_token.json",
      "calendar_name": "Saints Calendar",
      "calendar_color_id": "9"
    }

EXAMPLES:
    # Show December 2024 and the celebrations of Christmas Day
    %s --year 2024 --month 12 --date 2024-12-25

    # Save a note for a day
    %s --date 2024-12-25 --note "Reflected on humility" --save

    # Export the Polish calendar for May 2025 in Latin
    %s --year 2025 --month 5 --country PL --lang la --ics-out may.ics

`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	today := time.Now()

	helpFlag := flag.Bool("help", false, "Show help message")
	helpFlagShort := flag.Bool("h", false, "Show help message (shorthand)")
	verboseFlag := flag.Bool("verbose", false, "Enable verbose output (show DEBUG logs)")
	verboseFlagShort := flag.Bool("v", false, "Enable verbose output (shorthand)")
	configFile := flag.String("config", "", "Path to JSON config file (optional)")
	year := flag.Int("year", today.Year(), "Year of the month view")
	month := flag.Int("month", int(today.Month()), "Month of the month view")
	country := flag.String("country", "", "National calendar (default, US, PL, IT, FR)")
	lang := flag.String("lang", "", "Language (en, la, it, fr)")
	dateFlag := flag.String("date", today.Format("2006-01-02"), "Selected day (YYYY-MM-DD)")
	noteFlag := flag.String("note", "", "Replace the note for --date")
	editFlag := flag.Bool("edit", false, "Read the note for --date from standard input")
	saveFlag := flag.Bool("save", false, "Save the note for --date")
	notesPath := flag.String("notes-path", "", "Notes file")
	baseURL := flag.String("base-url", "", "Calendar API root")
	icsOut := flag.String("ics-out", "", "Write the month as iCalendar to this file")
	publishGoogle := flag.Bool("publish-google", false, "Publish the month to Google Calendar")
	googleCredentialsPath := flag.String("google-credentials-path", "", "Path to Google OAuth credentials JSON file")
	tokenPath := flag.String("token-path", "", "Path to store the Google OAuth token")
	flag.Parse()

	if *helpFlag || *helpFlagShort {
		printHelp()
		os.Exit(0)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("Warning: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile, config.Overrides{
		BaseURL:               *baseURL,
		Country:               *country,
		Language:              *lang,
		NotesPath:             *notesPath,
		GoogleCredentialsPath: *googleCredentialsPath,
		TokenPath:             *tokenPath,
	})
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	selectedDate, err := time.Parse("2006-01-02", *dateFlag)
	if err != nil {
		log.Fatalf("Invalid --date %q: expected YYYY-MM-DD", *dateFlag)
	}

	opts := options{
		selection: config.Selection{
			Year:     *year,
			Month:    *month,
			Country:  cfg.DefaultCountry,
			Language: cfg.DefaultLanguage,
		},
		date:          selectedDate,
		save:          *saveFlag,
		icsOut:        *icsOut,
		publishGoogle: *publishGoogle,
		verbose:       *verboseFlag || *verboseFlagShort,
	}

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "note" {
			opts.note = noteFlag
		}
	})
	if *editFlag {
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		text, err := readNote(os.Stdin, os.Stderr, interactive)
		if err != nil {
			log.Fatalf("Failed to read note: %v", err)
		}
		opts.note = &text
	}

	if err := run(context.Background(), cfg, opts, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
