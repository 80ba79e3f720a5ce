package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolateEnv blanks every variable the loader reads so the host
// environment cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	var walk func(reflect.Type)
	walk = func(typ reflect.Type) {
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type)
				continue
			}
			for _, tag := range []string{"env", "envAlt"} {
				if name := f.Tag.Get(tag); name != "" {
					t.Setenv(name, "")
				}
			}
		}
	}
	walk(reflect.TypeOf(Config{}))
}

// setMinimal sets the variables a gsheets deployment needs.
func setMinimal(t *testing.T) {
	t.Helper()
	isolateEnv(t)
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("MAIL_USER", "shop@example.com")
	t.Setenv("MAIL_PASSWORD", "abcd efgh ijkl mnop")
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 3000, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Sheets:  SheetsConfig{SpreadsheetID: "sheet-123", Span: "A:Z"},
		Columns: ColumnsConfig{Name: "姓名", Recipient: "Email", Status: "是否自動回覆"},
		Mail:    MailConfig{Port: 587, Username: "shop@example.com", Password: "secret"},
		Run: RunConfig{
			Timeout:      time.Minute,
			ReadTimeout:  time.Second,
			SendTimeout:  time.Second,
			WriteTimeout: time.Second,
			Marker:       "Y",
		},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ExecuteLimit: 6},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	setMinimal(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
	if cfg.Sheets.Span != "A:Z" {
		t.Errorf("Sheets.Span = %q, want %q", cfg.Sheets.Span, "A:Z")
	}
	if got := cfg.Columns.Required(); got.Name != "姓名" || got.Recipient != "Email" || got.Status != "是否自動回覆" {
		t.Errorf("Columns.Required() = %+v, want default headers", got)
	}
	if cfg.Mail.Host != "smtp.gmail.com" || cfg.Mail.Port != 587 {
		t.Errorf("Mail = %s:%d, want smtp.gmail.com:587", cfg.Mail.Host, cfg.Mail.Port)
	}
	if cfg.Mail.RatePerSecond != 1 {
		t.Errorf("Mail.RatePerSecond = %v, want 1", cfg.Mail.RatePerSecond)
	}
	if cfg.Run.Timeout != 10*time.Minute {
		t.Errorf("Run.Timeout = %v, want %v", cfg.Run.Timeout, 10*time.Minute)
	}
	if cfg.Run.LockWait != 5*time.Second {
		t.Errorf("Run.LockWait = %v, want %v", cfg.Run.LockWait, 5*time.Second)
	}
	if cfg.Run.Marker != "Y" {
		t.Errorf("Run.Marker = %q, want %q", cfg.Run.Marker, "Y")
	}
	if cfg.Schedule.Cron != "" {
		t.Errorf("Schedule.Cron = %q, want disabled", cfg.Schedule.Cron)
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 100)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	setMinimal(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAIL_RATE_PER_SEC", "0.5")
	t.Setenv("RUN_LOCK_WAIT", "-1s")
	t.Setenv("SCHEDULE_CRON", "@hourly")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Mail.RatePerSecond != 0.5 {
		t.Errorf("Mail.RatePerSecond = %v, want 0.5", cfg.Mail.RatePerSecond)
	}
	if cfg.Run.LockWait != -time.Second {
		t.Errorf("Run.LockWait = %v, want -1s", cfg.Run.LockWait)
	}
	if got := cfg.Schedule.Core(); got.Spec != "@hourly" {
		t.Errorf("Schedule.Core().Spec = %q, want @hourly", got.Spec)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("EMAIL_USER", "legacy@example.com")
	t.Setenv("EMAIL_PASS", "legacy-pass")
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mail.Username != "legacy@example.com" {
		t.Errorf("Mail.Username = %q, want %q", cfg.Mail.Username, "legacy@example.com")
	}
	if cfg.Mail.Password != "legacy-pass" {
		t.Errorf("Mail.Password = %q, want %q", cfg.Mail.Password, "legacy-pass")
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8081)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	isolateEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing source and mail credentials")
	}
	for _, want := range []string{"SPREADSHEET_ID", "MAIL_USER", "MAIL_PASSWORD"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestLoad_XLSXDryRun(t *testing.T) {
	isolateEnv(t)
	t.Setenv("XLSX_PATH", "contacts.xlsx")
	t.Setenv("MAIL_DRY_RUN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Sheets.UsesXLSX() {
		t.Error("Sheets.UsesXLSX() = false, want true")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	setMinimal(t)
	t.Setenv("RUN_TIMEOUT", "ten minutes")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RUN_TIMEOUT") {
		t.Errorf("Load() error = %v, want RUN_TIMEOUT parse error", err)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	setMinimal(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"no source", func(c *Config) { c.Sheets.SpreadsheetID = "" }, "SPREADSHEET_ID"},
		{"blank column", func(c *Config) { c.Columns.Status = " " }, "COLUMN_STATUS"},
		{"duplicate column", func(c *Config) { c.Columns.Status = "Email" }, "COLUMN_STATUS"},
		{"missing password", func(c *Config) { c.Mail.Password = "  " }, "MAIL_PASSWORD"},
		{"dry run skips credentials", func(c *Config) {
			c.Mail.DryRun = true
			c.Mail.Username, c.Mail.Password = "", ""
		}, ""},
		{"negative mail rate", func(c *Config) { c.Mail.RatePerSecond = -1 }, "MAIL_RATE_PER_SEC"},
		{"zero run timeout", func(c *Config) { c.Run.Timeout = 0 }, "RUN_TIMEOUT"},
		{"blank marker", func(c *Config) { c.Run.Marker = "" }, "RUN_MARKER"},
		{"bad cron", func(c *Config) { c.Schedule.Cron = "whenever" }, "SCHEDULE_CRON"},
		{"api key required", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.Password = "hunter2-app-password"
	cfg.Security.APIKeys = []string{"key-do-not-print"}

	str := cfg.String()
	if strings.Contains(str, "hunter2") || strings.Contains(str, "key-do-not-print") {
		t.Errorf("String() leaks a secret: %s", str)
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
