package commands

import (
	"os"
	"strconv"
	"strings"

	"ao3kit/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(seriesCmd)
}

var seriesCmd = &cobra.Command{
	Use:   "series <id>",
	Short: "Shows a series and its works.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := createClient(ctx)
		defer client.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			serviceutil.Fatal("invalid series id", err)
		}
		series := client.GetSeries(id)

		name, err := series.Name(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch series", err)
		}
		creators, _ := series.Creators(ctx)
		stats, _ := series.Stats(ctx)
		updated, _ := series.DateUpdated(ctx)

		names := make([]string, len(creators))
		for i, c := range creators {
			names[i] = c.Name
		}
		complete := "No"
		if stats.Complete {
			complete = "Yes"
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Name", name})
		t.AppendRow(table.Row{"Creators", strings.Join(names, ", ")})
		t.AppendRow(table.Row{"Words", stats.Words})
		t.AppendRow(table.Row{"Works", stats.Works})
		t.AppendRow(table.Row{"Complete", complete})
		t.AppendRow(table.Row{"Updated", updated.Format("2006-01-02")})
		t.SetStyle(table.StyleRounded)
		t.Render()

		works, err := series.Works(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch series works", err)
		}

		wt := table.NewWriter()
		wt.SetOutputMirror(os.Stdout)
		wt.AppendHeader(table.Row{"ID", "Title", "Words"})
		for _, w := range works {
			title, _ := w.Title(ctx)
			words, _ := w.WordCount(ctx)
			wt.AppendRow(table.Row{w.ID(), title, words})
		}
		wt.SetStyle(table.StyleRounded)
		wt.Render()
	},
}
