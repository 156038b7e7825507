// ecom-dashboard serves an interactive sales dashboard over an e-commerce
// transactions CSV, and can print or export the same filtered views offline.
//
// Usage:
//
//	ecom-dashboard [--data data.csv] serve
//	ecom-dashboard summary --country France --start 2011-01-01 --format text
//	ecom-dashboard export --out filtered_data.xlsx --country Germany
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"ecom-dashboard/internal/config"
	"ecom-dashboard/internal/export"
	"ecom-dashboard/internal/handlers"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/server"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/ui/templates"
)

var version = "1.0.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "ecom-dashboard",
		Usage:   "E-commerce sales analytics dashboard",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the transactions CSV",
				EnvVars: []string{"CSV_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the dashboard over HTTP",
				Action: runServe,
			},
			{
				Name:   "summary",
				Usage:  "Print the aggregates for a filter",
				Flags:  append(filterFlags(), formatFlag()),
				Action: runSummary,
			},
			{
				Name:  "export",
				Usage: "Write the filtered rows to a .csv or .xlsx file",
				Flags: append(filterFlags(), &cli.StringFlag{
					Name:     "out",
					Aliases:  []string{"o"},
					Usage:    "Output file; the extension picks the format",
					Required: true,
				}),
				Action: runExport,
			},
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "country",
			Aliases: []string{"c"},
			Usage:   "Country to include; repeat for several. None means all",
		},
		&cli.StringFlag{
			Name:  "start",
			Usage: "First invoice day, YYYY-MM-DD",
		},
		&cli.StringFlag{
			Name:  "end",
			Usage: "Last invoice day, YYYY-MM-DD",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format (text, json)",
	}
}

// setup loads configuration with command-line overrides and builds the logger.
func setup(c *cli.Context, logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("data") {
		cfg.Data.CSVFile = c.String("data")
	}
	if c.IsSet("log-level") {
		cfg.Logger.Level = c.String("log-level")
	}

	logger := observability.NewLogger(cfg.Logger, logOut)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func loadAnalytics(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*services.Analytics, error) {
	analytics := services.NewAnalytics(logger, metrics)

	ctx, cancel := context.WithTimeout(ctx, cfg.Data.LoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromCSV(ctx, cfg.Data.CSVFile); err != nil {
		return nil, err
	}
	logger.Info("CSV data loaded successfully",
		"file", cfg.Data.CSVFile,
		"duration", time.Since(start),
	)
	return analytics, nil
}

func runServe(c *cli.Context) error {
	cfg, logger, err := setup(c, os.Stdout)
	if err != nil {
		return err
	}

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"csv_file", cfg.Data.CSVFile,
	)

	tracing, err := observability.NewTracing(cfg.Telemetry, os.Stderr, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	analytics, err := loadAnalytics(c.Context, cfg, logger, metrics)
	if err != nil {
		return err
	}

	srv := server.NewServer(analytics, logger, metrics, cfg.Security)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook("tracing", tracing.Shutdown)
	gracefulServer.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

// snapshotFor loads the dataset and computes the filter given on the command line.
func snapshotFor(c *cli.Context) (*services.Analytics, *services.Snapshot, error) {
	cfg, logger, err := setup(c, os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	f, err := handlers.ParseFilter(url.Values{
		"country": c.StringSlice("country"),
		"start":   nonEmpty(c.String("start")),
		"end":     nonEmpty(c.String("end")),
	})
	if err != nil {
		return nil, nil, err
	}

	analytics, err := loadAnalytics(c.Context, cfg, logger, nil)
	if err != nil {
		return nil, nil, err
	}

	snap, err := analytics.Compute(c.Context, f)
	if err != nil {
		return nil, nil, err
	}
	return analytics, snap, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func runSummary(c *cli.Context) error {
	format := c.String("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q: use text or json", format)
	}

	analytics, snap, err := snapshotFor(c)
	if err != nil {
		return err
	}
	kpis, err := analytics.KPIs()
	if err != nil {
		return err
	}

	out := c.App.Writer
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"kpis":    kpis,
			"summary": snap,
		})
	}
	return writeSummary(out, kpis, snap)
}

func runExport(c *cli.Context) error {
	path := c.String("out")
	format, err := export.FormatFromPath(path)
	if err != nil {
		return err
	}

	_, snap, err := snapshotFor(c)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(file, snap.View, format); err != nil {
		file.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "wrote %s rows to %s\n", templates.FormatInt(int64(snap.Rows)), path)
	return nil
}
