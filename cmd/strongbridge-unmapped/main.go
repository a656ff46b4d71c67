// Command strongbridge-unmapped lists the rows of a Gymrun export whose
// exercise names have no mapping entry yet, so the mapping table can be
// completed before converting.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/claude/strongbridge/internal/config"
	"github.com/claude/strongbridge/internal/mapping"
	"github.com/claude/strongbridge/internal/report"
	"github.com/claude/strongbridge/internal/runlog"
	"github.com/claude/strongbridge/internal/table"
	"github.com/claude/strongbridge/internal/unmapped"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	inputPath := flag.String("input", "", "Gymrun export CSV (overrides config)")
	mappingPath := flag.String("mapping", "", "exercise name mapping YAML (overrides config)")
	outputPath := flag.String("output", "", "unmapped rows output CSV (overrides config)")
	noHistory := flag.Bool("no-history", false, "do not record this run in the history database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := loadConfig(log, *configPath)
	if *inputPath != "" {
		cfg.Input = *inputPath
	}
	if *mappingPath != "" {
		cfg.Mapping = *mappingPath
	}
	if *outputPath != "" {
		cfg.UnmappedOutput = *outputPath
	}

	m := loadMapping(log, cfg.Mapping)

	ctx := context.Background()
	history, runID := beginRun(ctx, log, cfg, *noHistory)

	rows, names, runErr := extract(log, cfg, m)

	if history != nil {
		status, errMsg := "success", ""
		if runErr != nil {
			status, errMsg = "error", runErr.Error()
		}
		if err := history.Finish(ctx, runID, status, rows, 0, rows, 0, errMsg); err != nil {
			log.Warn("could not record run finish", "error", err)
		}
		history.Close()
	}

	if runErr != nil {
		log.Error("extraction aborted", "error", runErr)
		os.Exit(1)
	}

	if report.Interactive() && len(names) > 0 {
		nameRows := make([][]string, 0, len(names))
		for _, n := range names {
			nameRows = append(nameRows, []string{n})
		}
		fmt.Println(report.RenderTable([]string{"Unmapped exercise"}, nameRows))
	}
	log.Info("extraction complete",
		"unmapped_rows", rows,
		"unique_unmapped_exercises", len(names),
		"output", cfg.UnmappedOutput,
	)
}

// extract loads the export, filters it against the mapping, and writes the
// remainder. Returns the kept row count and the distinct unmapped names.
func extract(log *slog.Logger, cfg *config.Config, m mapping.Table) (int, []string, error) {
	src, err := table.Load(cfg.Input)
	if err != nil {
		return 0, nil, err
	}
	log.Info("loaded input", "rows", len(src.Rows), "mapping_entries", len(m))

	out, names, err := unmapped.Extract(src, m)
	if err != nil {
		return 0, nil, err
	}

	if err := out.Save(cfg.UnmappedOutput); err != nil {
		return len(out.Rows), names, err
	}
	return len(out.Rows), names, nil
}

func loadConfig(log *slog.Logger, path string) *config.Config {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg
	}
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("config file not found, using defaults", "path", path)
		return config.Default()
	}
	log.Error("failed to load config", "error", err)
	os.Exit(1)
	return nil
}

func loadMapping(log *slog.Logger, path string) mapping.Table {
	m, err := mapping.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("mapping file not found, every exercise will be reported as unmapped", "path", path)
		return mapping.Empty()
	}
	if err != nil {
		log.Error("failed to load exercise mappings", "error", err)
		os.Exit(1)
	}
	return m
}

func beginRun(ctx context.Context, log *slog.Logger, cfg *config.Config, noHistory bool) (*runlog.DB, string) {
	if cfg.History.Disabled || noHistory {
		return nil, ""
	}
	history, err := runlog.Open(cfg.History.Dir)
	if err != nil {
		log.Warn("run history unavailable", "error", err)
		return nil, ""
	}
	id, err := history.Begin(ctx, "unmapped", cfg.Input, cfg.UnmappedOutput)
	if err != nil {
		log.Warn("could not record run start", "error", err)
		history.Close()
		return nil, ""
	}
	return history, id
}
