package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"stopfrisk/config"
	"stopfrisk/models"
	"stopfrisk/scraper/download"
	"stopfrisk/scraper/nyclu"
	"stopfrisk/services"
	"stopfrisk/storage"
	"stopfrisk/utils"
)

func main() {
	logger := utils.NewLogger()
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(logger *utils.Logger) error {
	cfg := config.Load()
	pcfg, err := config.LoadPipeline(cfg.PipelinePath)
	if err != nil {
		return err
	}

	logger.Info("=== Stop-and-frisk report starting ===")
	logger.Info("Config: page %s | %d population sources | %d crime sources | concurrency %d",
		cfg.PageURL, len(cfg.PopulationPaths), len(cfg.CrimePaths), cfg.MaxConcurrency)

	if len(cfg.PopulationPaths) != len(pcfg.Population.Sources) {
		return fmt.Errorf("%d population files given, pipeline declares %d sources",
			len(cfg.PopulationPaths), len(pcfg.Population.Sources))
	}
	if len(cfg.CrimePaths) > len(pcfg.Crime) {
		return fmt.Errorf("%d crime files given, pipeline declares %d tables",
			len(cfg.CrimePaths), len(pcfg.Crime))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := download.New(time.Duration(cfg.FetchTimeoutS)*time.Second, cfg.MaxRetries, logger)

	lines, err := fetchPage(ctx, cfg, client, logger)
	if err != nil {
		return fmt.Errorf("stops page: %w", err)
	}

	inputs, err := fetchTables(ctx, cfg, pcfg, client, logger)
	if err != nil {
		return err
	}
	inputs.PageLines = lines

	pipeline, err := services.NewPipeline(pcfg, logger)
	if err != nil {
		return err
	}
	report, err := pipeline.Run(inputs)
	if err != nil {
		return err
	}

	services.NewPrinter().Print(os.Stdout, report)

	if cfg.CSVExportDir != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVExportDir)
		if err != nil {
			return err
		}
		export(logger, "CSV", csvWriter, report)
	}

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			export(logger, "PostgreSQL", pgWriter, report)
		}
	}

	logger.Info("Done: %d years, %d shared categories, %d diagnostics",
		len(report.Stops.Rows), len(report.Shares), len(report.Diagnostics))
	return nil
}

// fetchPage renders remote pages in the browser; a local file is read directly.
func fetchPage(ctx context.Context, cfg *config.Config, client *download.Client, logger *utils.Logger) ([]string, error) {
	if download.IsRemote(cfg.PageURL) {
		return nyclu.New(cfg, logger).FetchLines(ctx)
	}
	data, err := client.Fetch(ctx, cfg.PageURL)
	if err != nil {
		return nil, err
	}
	return nyclu.SplitLines(string(data)), nil
}

// fetchTables downloads and parses every CSV source through the worker pool.
func fetchTables(ctx context.Context, cfg *config.Config, pcfg *config.Pipeline, client *download.Client, logger *utils.Logger) (services.Inputs, error) {
	pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs)

	population := make([]models.WideTable, len(cfg.PopulationPaths))
	for i, path := range cfg.PopulationPaths {
		i, path := i, path
		opts := csvOptions(pcfg.Population.Sources[i])
		pool.Submit(func() error {
			t, err := fetchCSV(ctx, client, path, opts)
			population[i] = t
			return err
		})
	}

	crime := make([]models.WideTable, len(cfg.CrimePaths))
	for i, path := range cfg.CrimePaths {
		i, path := i, path
		opts := csvOptions(pcfg.Crime[i].CSV)
		pool.Submit(func() error {
			t, err := fetchCSV(ctx, client, path, opts)
			crime[i] = t
			return err
		})
	}

	if errs := pool.Wait(); len(errs) > 0 {
		for _, err := range errs {
			logger.Error("Source fetch failed: %v", err)
		}
		return services.Inputs{}, fmt.Errorf("%d of %d sources failed", len(errs), len(population)+len(crime))
	}

	inputs := services.Inputs{Population: population, Crime: make(map[string]models.WideTable, len(crime))}
	for i, t := range crime {
		inputs.Crime[pcfg.Crime[i].Name] = t
	}
	return inputs, nil
}

func fetchCSV(ctx context.Context, client *download.Client, location string, opts storage.CSVOptions) (models.WideTable, error) {
	data, err := client.Fetch(ctx, location)
	if err != nil {
		return models.WideTable{}, err
	}
	t, err := storage.ReadCSV(bytes.NewReader(data), opts)
	if err != nil {
		return models.WideTable{}, fmt.Errorf("%s: %w", location, err)
	}
	return t, nil
}

func csvOptions(c config.CSVConfig) storage.CSVOptions {
	return storage.CSVOptions{
		SkipRows:          c.SkipRows,
		HeaderRow:         c.HeaderRow,
		Rename:            c.Rename,
		DropColumns:       c.DropColumns,
		DropTrailingEmpty: c.DropTrailingEmpty,
	}
}

func export(logger *utils.Logger, name string, w storage.ReportWriter, r *models.Report) {
	defer w.Close()
	if err := w.WriteReport(r); err != nil {
		logger.Error("%s export failed: %v", name, err)
		return
	}
	logger.Info("Report exported to %s", name)
}
