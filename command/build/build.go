package cmdbuild

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"arr-rollup/connectors/config"
	ccsv "arr-rollup/connectors/csv"
	"arr-rollup/domain/outline"
)

// Run executes the build subcommand: aggregate the revenue CSV and write the
// flattened outline to a local CSV, without touching the remote sheet. Useful
// for checking what a push would produce.
func Run(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "path to config.yml (default $CONFIG_PATH or ./config.yml)")
	csvPath := fs.String("csv", "", "input CSV path (overrides config)")
	outPath := fs.String("out", "data/outline.csv", "output CSV path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config.yml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *csvPath != "" {
		cfg.Input.CSVPath = *csvPath
	}

	records, err := ccsv.ReadRecords(cfg.Input.CSVPath)
	if err != nil {
		slog.Error("phase.read.error", "csv", cfg.Input.CSVPath, "error", err)
		return err
	}
	tree, err := outline.Aggregate(records)
	if err != nil {
		slog.Error("phase.aggregate.error", "error", err)
		return err
	}
	if collisions := tree.CrossLevelCollisions(); len(collisions) > 0 {
		slog.Warn("phase.aggregate.name.collisions", "names", collisions)
	}
	rows := tree.Flatten()
	if err := ccsv.WriteOutline(*outPath, rows); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "build.done rows=%d out=%s\n", len(rows), *outPath)
	return nil
}
