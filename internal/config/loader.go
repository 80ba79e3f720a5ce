package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/sheetnotify/internal/core"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// FromEnv reads configuration from environment variables without validating it.
// Callers that apply overrides (such as CLI flags) call Validate afterwards.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Source validation
	if c.Sheets.SpreadsheetID == "" && c.Sheets.XLSXPath == "" {
		errs = append(errs, "SPREADSHEET_ID is required (or set XLSX_PATH to use a local workbook)")
	}

	// Column validation
	cols := map[string]bool{}
	for _, col := range []struct{ env, value string }{
		{"COLUMN_NAME", c.Columns.Name},
		{"COLUMN_EMAIL", c.Columns.Recipient},
		{"COLUMN_STATUS", c.Columns.Status},
	} {
		if strings.TrimSpace(col.value) == "" {
			errs = append(errs, col.env+" must not be empty")
			continue
		}
		if cols[col.value] {
			errs = append(errs, fmt.Sprintf("%s (%q) duplicates another column", col.env, col.value))
		}
		cols[col.value] = true
	}

	// Mail validation
	if !c.Mail.DryRun {
		if c.Mail.Username == "" {
			errs = append(errs, "MAIL_USER (or EMAIL_USER) is required unless MAIL_DRY_RUN is true")
		}
		if strings.TrimSpace(c.Mail.Password) == "" {
			errs = append(errs, "MAIL_PASSWORD (or EMAIL_PASS) is required unless MAIL_DRY_RUN is true")
		}
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		errs = append(errs, fmt.Sprintf("MAIL_PORT (%d) must be 1-65535", c.Mail.Port))
	}
	if c.Mail.RatePerSecond < 0 {
		errs = append(errs, "MAIL_RATE_PER_SEC must be non-negative")
	}

	// Run validation
	if c.Run.Timeout <= 0 {
		errs = append(errs, "RUN_TIMEOUT must be positive")
	}
	if c.Run.ReadTimeout <= 0 || c.Run.SendTimeout <= 0 || c.Run.WriteTimeout <= 0 {
		errs = append(errs, "RUN_READ_TIMEOUT, RUN_SEND_TIMEOUT and RUN_WRITE_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.Run.Marker) == "" {
		errs = append(errs, "RUN_MARKER must not be blank")
	}

	// Schedule validation
	if err := core.ValidateSchedule(c.Schedule.Core()); err != nil {
		errs = append(errs, fmt.Sprintf("SCHEDULE_CRON/SCHEDULE_TIMEZONE: %v", err))
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.ExecuteLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_EXECUTE must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	if c.Sheets.UsesXLSX() {
		b.WriteString(fmt.Sprintf("Sheets: {XLSXPath: %q, SheetName: %q}, ", c.Sheets.XLSXPath, c.Sheets.SheetName))
	} else {
		b.WriteString(fmt.Sprintf("Sheets: {SpreadsheetID: %q, SheetName: %q, Span: %q}, ",
			c.Sheets.SpreadsheetID, c.Sheets.SheetName, c.Sheets.Span))
	}
	b.WriteString(fmt.Sprintf("Mail: {Host: %q, Port: %d, Username: %q, Password: %s, DryRun: %v}, ",
		c.Mail.Host, c.Mail.Port, c.Mail.Username, mask(c.Mail.Password), c.Mail.DryRun))
	b.WriteString(fmt.Sprintf("Run: {Timeout: %s, LockWait: %s, Marker: %q}, ",
		c.Run.Timeout, c.Run.LockWait, c.Run.Marker))
	b.WriteString(fmt.Sprintf("Schedule: {Cron: %q}, ", c.Schedule.Cron))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(secret string) string {
	if secret == "" {
		return "[EMPTY]"
	}
	return "[MASKED]"
}
