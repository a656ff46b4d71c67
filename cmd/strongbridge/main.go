// Command strongbridge converts a Gymrun CSV export into the Strong app's
// import format.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/claude/strongbridge/internal/config"
	"github.com/claude/strongbridge/internal/convert"
	"github.com/claude/strongbridge/internal/mapping"
	"github.com/claude/strongbridge/internal/report"
	"github.com/claude/strongbridge/internal/runlog"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	inputPath := flag.String("input", "", "Gymrun export CSV (overrides config)")
	schemaPath := flag.String("schema", "", "Strong example CSV providing the target header (overrides config)")
	outputPath := flag.String("output", "", "converted output CSV (overrides config)")
	mappingPath := flag.String("mapping", "", "exercise name mapping YAML (overrides config)")
	timezone := flag.String("timezone", "", "IANA timezone of the export's wall-clock times (overrides config)")
	noHistory := flag.Bool("no-history", false, "do not record this run in the history database")
	showHistory := flag.Bool("history", false, "list recent runs and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := loadConfig(log, *configPath)
	if *inputPath != "" {
		cfg.Input = *inputPath
	}
	if *schemaPath != "" {
		cfg.Schema = *schemaPath
	}
	if *outputPath != "" {
		cfg.Output = *outputPath
	}
	if *mappingPath != "" {
		cfg.Mapping = *mappingPath
	}
	if *timezone != "" {
		cfg.Timezone = *timezone
	}

	if *showHistory {
		listHistory(log, cfg)
		return
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("unknown timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	m := loadMapping(log, cfg.Mapping)

	ctx := context.Background()
	history, runID := beginRun(ctx, log, cfg, *noHistory, "convert", cfg.Output)

	conv := &convert.Converter{
		InputPath:  cfg.Input,
		SchemaPath: cfg.Schema,
		OutputPath: cfg.Output,
		Mapping:    m,
		Location:   loc,
		Log:        log,
	}
	res, runErr := conv.Run()

	finishRun(ctx, log, history, runID, runErr, res.RowsLoaded, res.RowsDropped, res.RowsConverted, res.Sessions)

	if runErr != nil {
		log.Error("conversion aborted", "error", runErr)
		os.Exit(1)
	}

	printSummary(log, res)
}

// loadConfig falls back to defaults when the config file does not exist, so
// the converter works with flags alone.
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

// loadMapping tolerates a missing mapping file: exercise names then pass
// through unchanged, which the log makes visible.
func loadMapping(log *slog.Logger, path string) mapping.Table {
	m, err := mapping.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("mapping file not found, continuing with an empty mapping", "path", path)
		return mapping.Empty()
	}
	if err != nil {
		log.Error("failed to load exercise mappings", "error", err)
		os.Exit(1)
	}
	log.Info("loaded exercise mappings", "entries", len(m))
	return m
}

// beginRun opens the run history and records the run start. History failures
// are bookkeeping problems, not conversion problems: they log a warning and
// the run continues without history.
func beginRun(ctx context.Context, log *slog.Logger, cfg *config.Config, noHistory bool, tool, output string) (*runlog.DB, string) {
	if cfg.History.Disabled || noHistory {
		return nil, ""
	}
	history, err := runlog.Open(cfg.History.Dir)
	if err != nil {
		log.Warn("run history unavailable", "error", err)
		return nil, ""
	}
	id, err := history.Begin(ctx, tool, cfg.Input, output)
	if err != nil {
		log.Warn("could not record run start", "error", err)
		history.Close()
		return nil, ""
	}
	return history, id
}

func finishRun(ctx context.Context, log *slog.Logger, history *runlog.DB, id string, runErr error, loaded, dropped, written, sessions int) {
	if history == nil {
		return
	}
	defer history.Close()

	status, errMsg := "success", ""
	if runErr != nil {
		status, errMsg = "error", runErr.Error()
	}
	if err := history.Finish(ctx, id, status, loaded, dropped, written, sessions, errMsg); err != nil {
		log.Warn("could not record run finish", "error", err)
	}
}

func printSummary(log *slog.Logger, res *convert.Result) {
	if report.Interactive() {
		fmt.Println(report.RenderTable(
			[]string{"Metric", "Value"},
			[][]string{
				{"Rows loaded", strconv.Itoa(res.RowsLoaded)},
				{"Rows dropped", strconv.Itoa(res.RowsDropped)},
				{"Rows converted", strconv.Itoa(res.RowsConverted)},
				{"Workout sessions", strconv.Itoa(res.Sessions)},
				{"Mappings applied", strconv.Itoa(res.MappingsApplied)},
				{"Warnings", strconv.Itoa(len(res.Warnings))},
			},
		))
		return
	}
	log.Info("conversion stats",
		"rows_loaded", res.RowsLoaded,
		"rows_dropped", res.RowsDropped,
		"rows_converted", res.RowsConverted,
		"sessions", res.Sessions,
		"mappings_applied", res.MappingsApplied,
		"warnings", len(res.Warnings),
	)
}

func listHistory(log *slog.Logger, cfg *config.Config) {
	history, err := runlog.Open(cfg.History.Dir)
	if err != nil {
		log.Error("run history unavailable", "error", err)
		os.Exit(1)
	}
	defer history.Close()

	runs, err := history.Recent(context.Background(), 20)
	if err != nil {
		log.Error("failed to read run history", "error", err)
		os.Exit(1)
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Tool,
			r.Status,
			strconv.Itoa(r.RowsWritten),
			strconv.Itoa(r.Sessions),
			r.OutputPath,
		})
	}
	fmt.Println(report.RenderTable(
		[]string{"Started (UTC)", "Tool", "Status", "Rows", "Sessions", "Output"}, rows))
}
