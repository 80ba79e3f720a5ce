// Package app wires configuration into a ready-to-run Service. Both the
// HTTP server and the CLI build their dependencies here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/sheetnotify/internal/config"
	"github.com/JonMunkholm/sheetnotify/internal/core"
	"github.com/JonMunkholm/sheetnotify/internal/metrics"
	"github.com/JonMunkholm/sheetnotify/internal/notify"
	"github.com/JonMunkholm/sheetnotify/internal/notify/email"
	"github.com/JonMunkholm/sheetnotify/internal/source/gsheets"
	"github.com/JonMunkholm/sheetnotify/internal/source/xlsx"
)

// App holds the long-lived collaborators for one process.
type App struct {
	Config  *config.Config
	Service *core.Service
	Metrics *metrics.Metrics
	Source  core.TableSource
	Sender  core.Sender
}

// New builds the source, sender, metrics and service described by cfg.
// The source and sender are created once and reused by every run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	source, err := newSource(ctx, &cfg.Sheets)
	if err != nil {
		return nil, err
	}

	tmpl, err := loadTemplate(&cfg.Mail)
	if err != nil {
		return nil, err
	}

	sender, err := newSender(&cfg.Mail, tmpl, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	processor := core.NewProcessor(source, sender,
		core.WithColumns(cfg.Columns.Required()),
		core.WithMarker(cfg.Run.Marker),
		core.WithTimeouts(cfg.Run.ReadTimeout, cfg.Run.SendTimeout, cfg.Run.WriteTimeout),
		core.WithObserver(m),
		core.WithLogger(logger),
	)
	service := core.NewService(processor, core.ServiceConfig{
		RunTimeout: cfg.Run.Timeout,
		RunWait:    cfg.Run.LockWait,
	})

	return &App{
		Config:  cfg,
		Service: service,
		Metrics: m,
		Source:  source,
		Sender:  sender,
	}, nil
}

func newSource(ctx context.Context, cfg *config.SheetsConfig) (core.TableSource, error) {
	if cfg.UsesXLSX() {
		if _, err := os.Stat(cfg.XLSXPath); err != nil {
			return nil, fmt.Errorf("xlsx source: %w", err)
		}
		return xlsx.New(cfg.XLSXPath, cfg.SheetName), nil
	}

	src, err := gsheets.New(ctx, gsheets.Config{
		CredentialsFile: cfg.CredentialsFile,
		SpreadsheetID:   cfg.SpreadsheetID,
		SheetName:       cfg.SheetName,
		Span:            cfg.Span,
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

func newSender(cfg *config.MailConfig, tmpl *notify.Template, logger *slog.Logger) (core.Sender, error) {
	if cfg.DryRun {
		return notify.NewDryRun(tmpl, logger), nil
	}

	s, err := email.New(email.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		Username:      cfg.Username,
		Password:      cfg.Password,
		From:          cfg.From,
		FromName:      cfg.FromName,
		RatePerSecond: cfg.RatePerSecond,
		Timeout:       cfg.Timeout,
	}, tmpl)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// loadTemplate reads the optional body files and parses the message template.
func loadTemplate(cfg *config.MailConfig) (*notify.Template, error) {
	body, err := readOptional(cfg.BodyFile)
	if err != nil {
		return nil, err
	}
	html, err := readOptional(cfg.HTMLFile)
	if err != nil {
		return nil, err
	}

	tmpl, err := notify.NewTemplate(cfg.Subject, body, html)
	if err != nil {
		return nil, fmt.Errorf("mail template: %w", err)
	}
	return tmpl, nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", path, err)
	}
	return string(b), nil
}
