package cmdpush

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"arr-rollup/connectors/config"
	ccsv "arr-rollup/connectors/csv"
	"arr-rollup/connectors/smartsheet"
	"arr-rollup/domain/outline"
)

// Run executes the push subcommand: read the revenue CSV, aggregate by
// location, and rebuild the remote sheet as an indented outline. Flags:
// -config, -csv, -sheet.
func Run(args []string) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "path to config.yml (default $CONFIG_PATH or ./config.yml)")
	csvPath := fs.String("csv", "", "input CSV path (overrides config)")
	sheetName := fs.String("sheet", "", "target sheet name (overrides config)")
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
	if *sheetName != "" {
		cfg.Smartsheet.SheetName = *sheetName
	}
	if cfg.Token == "" {
		fmt.Fprintln(os.Stderr, "A Smartsheet token is required: set SMARTSHEET_TOKEN or provide the token file.")
		slog.Error("push.validation.error", "reason", "missing token", "tokenFile", cfg.Smartsheet.TokenFile)
		return fmt.Errorf("missing Smartsheet token")
	}

	log := slog.With("run", uuid.NewString())
	log.Info("push.start", "csv", cfg.Input.CSVPath, "sheet", cfg.Smartsheet.SheetName)

	records, err := ccsv.ReadRecords(cfg.Input.CSVPath)
	if err != nil {
		log.Error("phase.read.error", "csv", cfg.Input.CSVPath, "error", err)
		return err
	}
	tree, err := outline.Aggregate(records)
	if err != nil {
		log.Error("phase.aggregate.error", "error", err)
		return err
	}
	rows := tree.Flatten()
	nc, ns, ncity := tree.Len()
	log.Info("phase.aggregate.done", "records", len(records), "countries", nc, "states", ns, "cities", ncity)

	// Parent links are computed from row identity, but anyone reading the sheet
	// back by bare names will hit these.
	if collisions := tree.CrossLevelCollisions(); len(collisions) > 0 {
		log.Warn("phase.aggregate.name.collisions", "names", collisions)
	}

	ctx := context.Background()
	client := smartsheet.New(ctx, cfg.Smartsheet.BaseURL, cfg.Token)
	sync := smartsheet.NewSync(client, smartsheet.SyncOptions{
		LocationColumn:  cfg.Columns.Location,
		ARRColumn:       cfg.Columns.ARR,
		DeleteBatchSize: cfg.Smartsheet.DeleteBatchSize,
		UpdateBatchSize: cfg.Smartsheet.UpdateBatchSize,
	})
	if err := sync.Run(ctx, cfg.Smartsheet.SheetName, rows); err != nil {
		log.Error("push.error", "error", err)
		return err
	}
	log.Info("push.done", "rows", len(rows))
	return nil
}
