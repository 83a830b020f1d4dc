package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL         = "https://calapi.inadiutorium.cz/api/v0"
	DefaultCountry         = "default"
	DefaultLanguage        = "en"
	DefaultNotesPath       = "notes.json"
	DefaultTokenPath       = "google_token.json"
	DefaultCalendarName    = "Saints Calendar"
	DefaultCalendarColorID = "9"

	MinYear = 2000
	MaxYear = 2100
)

// Countries lists the national calendars offered for selection. "default" means
// no national overlay on top of the universal calendar.
var Countries = []string{"default", "US", "PL", "IT", "FR"}

// Languages lists the language codes passed through to the calendar API.
var Languages = []string{"en", "la", "it", "fr"}

// GoogleCredentials represents the structure of Google OAuth credentials JSON file.
type GoogleCredentials struct {
	Installed struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"installed"`
	Web struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"web"`
}

// LoadGoogleCredentials loads Google OAuth credentials from a JSON file.
func LoadGoogleCredentials(path string) (clientID, clientSecret string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds GoogleCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", "", fmt.Errorf("failed to parse credentials file: %w", err)
	}

	// Try "installed" first (for desktop apps), then "web"
	if creds.Installed.ClientID != "" {
		return creds.Installed.ClientID, creds.Installed.ClientSecret, nil
	}
	if creds.Web.ClientID != "" {
		return creds.Web.ClientID, creds.Web.ClientSecret, nil
	}

	return "", "", fmt.Errorf("no client_id found in credentials file (expected 'installed' or 'web' section)")
}

// Config holds the settings shared by the calendar fetcher and the note store.
// It is built once by LoadConfig and passed by value afterwards.
type Config struct {
	BaseURL         string `json:"base_url,omitempty"`
	DefaultCountry  string `json:"default_country,omitempty"`
	DefaultLanguage string `json:"default_language,omitempty"`
	NotesPath       string `json:"notes_path,omitempty"`

	// Google Calendar publishing (optional)
	GoogleCredentialsPath string `json:"google_credentials_path,omitempty"`
	TokenPath             string `json:"token_path,omitempty"`
	CalendarName          string `json:"calendar_name,omitempty"`
	CalendarColorID       string `json:"calendar_color_id,omitempty"`
}

// envConfig holds raw environment values. Empty values leave the file config untouched.
type envConfig struct {
	BaseURL               string `env:"SAINTSCAL_BASE_URL"`
	Country               string `env:"SAINTSCAL_COUNTRY"`
	Language              string `env:"SAINTSCAL_LANGUAGE"`
	NotesPath             string `env:"SAINTSCAL_NOTES_PATH"`
	GoogleCredentialsPath string `env:"GOOGLE_CREDENTIALS_PATH"`
	TokenPath             string `env:"SAINTSCAL_TOKEN_PATH"`
	CalendarName          string `env:"SAINTSCAL_CALENDAR_NAME"`
	CalendarColorID       string `env:"SAINTSCAL_CALENDAR_COLOR_ID"`
}

// Overrides carries values given on the command line. Empty fields are ignored.
type Overrides struct {
	BaseURL               string
	Country               string
	Language              string
	NotesPath             string
	GoogleCredentialsPath string
	TokenPath             string
}

// LoadConfigFromFile loads configuration from a JSON file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadDotEnv loads a .env file into the process environment if one exists.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration with the following precedence (highest to lowest):
// 1. Command-line flags
// 2. Environment variables
// 3. Config file
// 4. Defaults
func LoadConfig(configFile string, flags Overrides) (Config, error) {
	var config Config

	// Step 1: Load from config file if provided
	if configFile != "" {
		fileConfig, err := LoadConfigFromFile(configFile)
		if err != nil {
			return Config{}, err
		}
		config = *fileConfig
	}

	// Step 2: Override with environment variables
	var fromEnv envConfig
	if err := env.Parse(&fromEnv); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	override(&config.BaseURL, fromEnv.BaseURL)
	override(&config.DefaultCountry, fromEnv.Country)
	override(&config.DefaultLanguage, fromEnv.Language)
	override(&config.NotesPath, fromEnv.NotesPath)
	override(&config.GoogleCredentialsPath, fromEnv.GoogleCredentialsPath)
	override(&config.TokenPath, fromEnv.TokenPath)
	override(&config.CalendarName, fromEnv.CalendarName)
	override(&config.CalendarColorID, fromEnv.CalendarColorID)

	// Step 3: Override with command-line flags (highest priority)
	override(&config.BaseURL, flags.BaseURL)
	override(&config.DefaultCountry, flags.Country)
	override(&config.DefaultLanguage, flags.Language)
	override(&config.NotesPath, flags.NotesPath)
	override(&config.GoogleCredentialsPath, flags.GoogleCredentialsPath)
	override(&config.TokenPath, flags.TokenPath)

	// Step 4: Apply defaults and validate
	defaultTo(&config.BaseURL, DefaultBaseURL)
	defaultTo(&config.DefaultCountry, DefaultCountry)
	defaultTo(&config.DefaultLanguage, DefaultLanguage)
	defaultTo(&config.NotesPath, DefaultNotesPath)
	defaultTo(&config.TokenPath, DefaultTokenPath)
	defaultTo(&config.CalendarName, DefaultCalendarName)
	defaultTo(&config.CalendarColorID, DefaultCalendarColorID)

	if !slices.Contains(Countries, config.DefaultCountry) {
		return Config{}, fmt.Errorf("default_country must be one of %v, got '%s'", Countries, config.DefaultCountry)
	}
	if !slices.Contains(Languages, config.DefaultLanguage) {
		return Config{}, fmt.Errorf("default_language must be one of %v, got '%s'", Languages, config.DefaultLanguage)
	}

	return config, nil
}

// Selection is one set of user choices driving a single pass of the tool.
type Selection struct {
	Year     int
	Month    int
	Country  string
	Language string
}

// ValidateSelection applies the same bounds the selectors enforce.
func ValidateSelection(s Selection) error {
	if s.Year < MinYear || s.Year > MaxYear {
		return fmt.Errorf("year must be between %d and %d, got %d", MinYear, MaxYear, s.Year)
	}
	if s.Month < 1 || s.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", s.Month)
	}
	if !slices.Contains(Countries, s.Country) {
		return fmt.Errorf("national calendar must be one of %v, got '%s'", Countries, s.Country)
	}
	if !slices.Contains(Languages, s.Language) {
		return fmt.Errorf("language must be one of %v, got '%s'", Languages, s.Language)
	}
	return nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func defaultTo(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
