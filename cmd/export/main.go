// Command export writes the approval export to a file or stdout without
// starting the server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ceassist/internal/bootstrap"
	"ceassist/internal/config"
	"ceassist/internal/export"
	"ceassist/internal/models"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

func main() {
	format := flag.StringP("format", "f", "json", "export format: json or csv")
	out := flag.StringP("out", "o", "", "output file (default stdout)")
	flag.Parse()

	cfg := config.Load()
	logger := cfg.SetupLogger()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *format, *out); err != nil {
		logger.Error().Err(err).Msg("Export failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, format, out string) error {
	write, err := writerFor(format)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	records, err := app.Service.GenerateExport(ctx)
	if err != nil {
		return err
	}

	if out == "" {
		return write(os.Stdout, records)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := write(f, records); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info().Str("path", out).Int("records", len(records)).Msg("Export written")
	return nil
}

func writerFor(format string) (func(io.Writer, []models.ExportRecord) error, error) {
	switch format {
	case "json":
		return export.WriteJSON, nil
	case "csv":
		return export.WriteCSV, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json or csv)", format)
	}
}
