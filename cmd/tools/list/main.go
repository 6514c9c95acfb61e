package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/ogloszenia/opportunity-board/internal/app"
	"github.com/ogloszenia/opportunity-board/internal/config"
	"github.com/ogloszenia/opportunity-board/internal/filter"
	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/search"
)

func main() {
	cliApp := &cli.App{
		Name:  "list",
		Usage: "Query the opportunity store and print the matches as a table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Usage: "Free text; switches on semantic search"},
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "location"},
			&cli.StringFlag{Name: "tags"},
			&cli.StringFlag{Name: "form"},
			&cli.StringFlag{Name: "workload"},
			&cli.StringFlag{Name: "start-from", Usage: "YYYY-MM-DD or DD:MM:YYYY"},
			&cli.StringFlag{Name: "start-to"},
			&cli.StringFlag{Name: "end-from"},
			&cli.StringFlag{Name: "end-to"},
		},
		Action: listCommand,
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("list failed", "error", err)
		os.Exit(1)
	}
}

func listCommand(c *cli.Context) error {
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

	res, err := components.Search().Run(c.Context, search.Request{
		Text: c.String("text"),
		Criteria: filter.Criteria{
			Title:     c.String("title"),
			Location:  c.String("location"),
			Tags:      c.String("tags"),
			Form:      c.String("form"),
			Workload:  c.String("workload"),
			StartFrom: filter.ParseBound(c.String("start-from")),
			StartTo:   filter.ParseBound(c.String("start-to")),
			EndFrom:   filter.ParseBound(c.String("end-from")),
			EndTo:     filter.ParseBound(c.String("end-to")),
		},
	})
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Title", "Location", "Start", "End", "Tags", "Distance"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: 40},
		{Name: "Tags", WidthMax: 40},
		{Name: "Distance", Align: text.AlignRight},
	})

	for _, m := range res.Results {
		distance := ""
		if m.Distance != nil {
			distance = fmt.Sprintf("%.4f", *m.Distance)
		}
		t.AppendRow(table.Row{
			m.ID,
			m.Metadata[models.MetaTitle],
			m.Metadata[models.MetaLocation],
			m.Metadata[models.MetaStartDate],
			m.Metadata[models.MetaEndDate],
			m.Metadata[models.MetaTags],
			distance,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Count", res.Count})
	t.Render()
	return nil
}
