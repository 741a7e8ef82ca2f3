package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdbuild "arr-rollup/command/build"
	cmdpush "arr-rollup/command/push"
	cmdweb "arr-rollup/command/web"
)

// ARR-per-location rollup for Smartsheet.
// Usage:
//   SMARTSHEET_TOKEN=xxx go run . push [-config config.yml] [-csv data/data.csv] [-sheet NAME]
// Notes:
// - push rebuilds the target sheet from scratch: wipe existing rows, create
//   the aggregated country/state/city outline, indent children under their
//   parents, sort by the location column.
// - build writes the same outline to a local CSV without remote calls.
// - web serves the built CSVs as JSON for quick inspection.

func main() {
	args := os.Args
	// Initialize slog logger (text to stderr, INFO level)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		switch sub {
		case "push":
			if err := cmdpush.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "build":
			if err := cmdbuild.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "web":
			if err := cmdweb.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: arr-rollup push [-config <file>] [-csv <file>] [-sheet <name>] | build [-csv <file>] [-out <file>] | web [-addr :8080] [-data ./data]\nENV: SMARTSHEET_TOKEN for the API token, CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}
