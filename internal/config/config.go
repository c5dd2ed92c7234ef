package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port          string
	HTTPRateLimit int // requests per minute per client IP

	// Logging
	LogLevel string

	// Ledger storage
	DataBackend    string
	SQLiteDBPath   string
	MemorySeedFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// WhatsApp gateway
	WhatsAppAPIURL        string
	WhatsAppAPIKey        string
	WhatsAppSession       string
	WhatsAppCountryCode   string
	WhatsAppTypingMin     time.Duration
	WhatsAppTypingMax     time.Duration
	WhatsAppPauseMin      time.Duration
	WhatsAppPauseMax      time.Duration
	WhatsAppRatePerMinute int

	// Report scheduling
	ReportCheckInterval time.Duration
	ReportHour          int
	ReportTimezone      string
	OrgNameTTL          time.Duration

	// Google Sheets report archive (optional)
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8081"),
		HTTPRateLimit: getEnvInt("HTTP_RATE_LIMIT", 60),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DataBackend:    getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/madrassa.db"),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "madrassa"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_delivery"),

		WhatsAppAPIURL:        getEnv("WHATSAPP_API_URL", "http://130.107.48.143:3000"),
		WhatsAppAPIKey:        getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppSession:       getEnv("WHATSAPP_SESSION", "default"),
		WhatsAppCountryCode:   getEnv("WHATSAPP_COUNTRY_CODE", "92"),
		WhatsAppTypingMin:     getEnvDuration("WHATSAPP_TYPING_MIN", 2*time.Second),
		WhatsAppTypingMax:     getEnvDuration("WHATSAPP_TYPING_MAX", 4*time.Second),
		WhatsAppPauseMin:      getEnvDuration("WHATSAPP_PAUSE_MIN", time.Second),
		WhatsAppPauseMax:      getEnvDuration("WHATSAPP_PAUSE_MAX", 2*time.Second),
		WhatsAppRatePerMinute: getEnvInt("WHATSAPP_RATE_PER_MINUTE", 20),

		ReportCheckInterval: getEnvDuration("REPORT_CHECK_INTERVAL", time.Minute),
		ReportHour:          getEnvInt("REPORT_HOUR", 20),
		ReportTimezone:      getEnv("REPORT_TIMEZONE", "UTC"),
		OrgNameTTL:          getEnvDuration("ORG_NAME_TTL", 10*time.Minute),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Reports"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

// Location resolves ReportTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ArchiveEnabled reports whether the Sheets archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.HTTPRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid HTTP rate limit %d: must be at least 1", c.HTTPRateLimit))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if parsedURL, err := url.Parse(c.WhatsAppAPIURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid WhatsApp API URL '%s': must be an http(s) URL", c.WhatsAppAPIURL))
	}
	if c.WhatsAppCountryCode == "" || strings.Trim(c.WhatsAppCountryCode, "0123456789") != "" {
		errors = append(errors, fmt.Sprintf("invalid WhatsApp country code '%s': must be digits", c.WhatsAppCountryCode))
	}
	if c.WhatsAppTypingMin < 0 || c.WhatsAppTypingMax < c.WhatsAppTypingMin {
		errors = append(errors, fmt.Sprintf("invalid typing delay range %v..%v", c.WhatsAppTypingMin, c.WhatsAppTypingMax))
	}
	if c.WhatsAppPauseMin < 0 || c.WhatsAppPauseMax < c.WhatsAppPauseMin {
		errors = append(errors, fmt.Sprintf("invalid pause range %v..%v", c.WhatsAppPauseMin, c.WhatsAppPauseMax))
	}
	if c.WhatsAppRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid WhatsApp rate %d: must be at least 1 per minute", c.WhatsAppRatePerMinute))
	}

	if c.ReportCheckInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid report check interval %v: must be at least 1 second", c.ReportCheckInterval))
	} else if c.ReportCheckInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid report check interval %v: must be at most 1 hour", c.ReportCheckInterval))
	}
	if c.ReportHour < 0 || c.ReportHour > 23 {
		errors = append(errors, fmt.Sprintf("invalid report hour %d: must be between 0 and 23", c.ReportHour))
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report timezone '%s': %v", c.ReportTimezone, err))
	}
	if c.OrgNameTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid org name TTL %v: must be positive", c.OrgNameTTL))
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		hasFile := c.GoogleCredentialsFile != ""
		if !hasFile && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for the report archive")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
