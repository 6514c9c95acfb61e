package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/ogloszenia/opportunity-board/internal/app"
	"github.com/ogloszenia/opportunity-board/internal/config"
	"github.com/ogloszenia/opportunity-board/internal/ingest"
)

func main() {
	cliApp := &cli.App{
		Name:      "bulk_import",
		Usage:     "Submit a YAML or JSON list of opportunities through the ingestion pipeline",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of concurrent submissions",
				Value:   max(1, runtime.NumCPU()/2),
			},
		},
		Action: importCommand,
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one input file", 2)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.SetupLogger(cfg.LogLevel)

	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	items, err := ingest.DecodeSubmissions(f)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		logger.Info("nothing to import")
		return nil
	}

	components, err := app.Build(c.Context, cfg)
	if err != nil {
		return err
	}
	defer components.Close()

	results, err := components.Ingest().SubmitAll(c.Context, items, c.Int("workers"))
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			logger.Error("submission rejected", "index", res.Index, "error", res.Err)
			continue
		}
		logger.Info("submission stored", "index", res.Index, "id", res.ID)
	}

	logger.Info("import finished", "total", len(results), "stored", len(results)-failed, "failed", failed)
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d submissions failed", failed, len(results)), 1)
	}
	return nil
}
