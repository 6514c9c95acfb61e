package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/ogloszenia/opportunity-board/internal/app"
	"github.com/ogloszenia/opportunity-board/internal/audit"
	"github.com/ogloszenia/opportunity-board/internal/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "verify_store",
		Usage: "Report stored records with unparseable dates or values outside the vocabulary",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "details", Usage: "Print one row per finding"},
		},
		Action: verifyCommand,
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("verify failed", "error", err)
		os.Exit(1)
	}
}

func verifyCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app.SetupLogger(cfg.LogLevel)

	components, err := app.Build(c.Context, cfg)
	if err != nil {
		return err
	}
	defer components.Close()

	records, err := components.Store.GetAll(c.Context)
	if err != nil {
		return err
	}
	report := audit.Check(records, components.Vocabulary)

	fmt.Printf("Total records: %d\n", report.Total)
	fmt.Printf("With unparseable dates: %d\n", report.BadDates)
	fmt.Printf("With values outside the vocabulary: %d\n", report.OffVocabulary)
	fmt.Printf("With markup in the description: %d\n", report.Markup)

	if c.Bool("details") && !report.Clean() {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Field", "Problem"})
		for _, f := range report.Findings {
			t.AppendRow(table.Row{f.ID, f.Field, f.Detail})
		}
		t.Render()
	}

	if !report.Clean() {
		return cli.Exit("", 1)
	}
	return nil
}
