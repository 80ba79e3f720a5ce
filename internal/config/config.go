// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/sheetnotify/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Sheets   SheetsConfig
	Columns  ColumnsConfig
	Mail     MailConfig
	Run      RunConfig
	Schedule ScheduleConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3000)
	// PORT is accepted for platforms that inject it.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, execute
	// responses are written after the run finishes)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for read-only requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SheetsConfig selects the contact table.
type SheetsConfig struct {
	// CredentialsFile is the service account key used for Google Sheets
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	// SpreadsheetID identifies the Google spreadsheet
	SpreadsheetID string `env:"SPREADSHEET_ID"`

	// SheetName is the tab to use (default: first sheet)
	SheetName string `env:"SHEET_NAME"`

	// Span is the column span read from the sheet (default: A:Z)
	Span string `env:"SHEET_SPAN" default:"A:Z"`

	// XLSXPath switches the source to a local workbook instead of Google Sheets
	XLSXPath string `env:"XLSX_PATH"`
}

// ColumnsConfig names the required header cells.
type ColumnsConfig struct {
	Name      string `env:"COLUMN_NAME" default:"姓名"`
	Recipient string `env:"COLUMN_EMAIL" default:"Email"`
	Status    string `env:"COLUMN_STATUS" default:"是否自動回覆"`
}

// MailConfig holds SMTP and message settings.
type MailConfig struct {
	// Host is the SMTP server (default: smtp.gmail.com)
	Host string `env:"MAIL_HOST" default:"smtp.gmail.com"`

	// Port is the SMTP submission port (default: 587)
	Port int `env:"MAIL_PORT" default:"587"`

	// Username is the SMTP login and default sender address
	Username string `env:"MAIL_USER" envAlt:"EMAIL_USER"`

	// Password is the SMTP password; whitespace is stripped before use
	Password string `env:"MAIL_PASSWORD" envAlt:"EMAIL_PASS"`

	// From overrides the sender address (default: Username)
	From string `env:"MAIL_FROM"`

	// FromName is the display name of the sender
	FromName string `env:"MAIL_FROM_NAME"`

	// RatePerSecond caps outgoing messages; 0 disables the cap (default: 1)
	RatePerSecond float64 `env:"MAIL_RATE_PER_SEC" default:"1"`

	// Timeout bounds connecting to the SMTP server (default: 20s)
	Timeout time.Duration `env:"MAIL_TIMEOUT" default:"20s"`

	// Subject is the subject template (default: built-in greeting)
	Subject string `env:"MAIL_SUBJECT"`

	// BodyFile is a text/template file for the plain-text body
	BodyFile string `env:"MAIL_BODY_FILE"`

	// HTMLFile is an html/template file for an optional HTML alternative
	HTMLFile string `env:"MAIL_HTML_FILE"`

	// DryRun logs messages instead of sending them (default: false)
	DryRun bool `env:"MAIL_DRY_RUN" default:"false"`
}

// RunConfig bounds a reconciliation run.
type RunConfig struct {
	// Timeout is the maximum duration of a whole run (default: 10m)
	Timeout time.Duration `env:"RUN_TIMEOUT" default:"10m"`

	// LockWait is how long a trigger waits for an active run; negative rejects immediately (default: 5s)
	LockWait time.Duration `env:"RUN_LOCK_WAIT" default:"5s"`

	// ReadTimeout bounds reading the table (default: 30s)
	ReadTimeout time.Duration `env:"RUN_READ_TIMEOUT" default:"30s"`

	// SendTimeout bounds one notification (default: 30s)
	SendTimeout time.Duration `env:"RUN_SEND_TIMEOUT" default:"30s"`

	// WriteTimeout bounds one marker write (default: 15s)
	WriteTimeout time.Duration `env:"RUN_WRITE_TIMEOUT" default:"15s"`

	// Marker is written to the status cell after a send (default: Y)
	Marker string `env:"RUN_MARKER" default:"Y"`
}

// ScheduleConfig enables periodic runs.
type ScheduleConfig struct {
	// Cron is a cron expression or descriptor such as @hourly (default: disabled)
	Cron string `env:"SCHEDULE_CRON"`

	// Timezone is an IANA zone for the schedule (default: local)
	Timezone string `env:"SCHEDULE_TIMEZONE"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ExecuteLimit is requests per minute for the execute endpoint (default: 6)
	ExecuteLimit int `env:"RATE_LIMIT_EXECUTE" default:"6"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the execute endpoint (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// UsesXLSX reports whether the contact table is a local workbook.
func (c *SheetsConfig) UsesXLSX() bool {
	return c.XLSXPath != ""
}

// Required returns the header names the processor looks for.
func (c *ColumnsConfig) Required() core.RequiredColumns {
	return core.RequiredColumns{
		Name:      c.Name,
		Recipient: c.Recipient,
		Status:    c.Status,
	}
}

// Core returns the scheduler settings.
func (c *ScheduleConfig) Core() core.ScheduleConfig {
	return core.ScheduleConfig{Spec: c.Cron, Timezone: c.Timezone}
}
