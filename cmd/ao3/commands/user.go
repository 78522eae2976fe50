package commands

import (
	"os"
	"strings"

	"ao3kit/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var userWorks *bool

func init() {
	userWorks = userCmd.Flags().Bool("works", false, "List the first page of the user's works.")
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:   "user <username>",
	Short: "Shows a user's profile.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := createClient(ctx)
		defer client.Close()

		user := client.GetUser(args[0])
		counts, err := user.Counts(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch user", err)
		}
		pseuds, _ := user.Pseuds(ctx)
		joined, _ := user.DateJoined(ctx)
		bio, _ := user.Bio(ctx)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Username", user.Username()})
		t.AppendRow(table.Row{"Pseuds", strings.Join(pseuds, ", ")})
		t.AppendRow(table.Row{"Joined", joined.Format("2006-01-02")})
		t.AppendRow(table.Row{"Works", counts.Works})
		t.AppendRow(table.Row{"Series", counts.Series})
		t.AppendRow(table.Row{"Bookmarks", counts.Bookmarks})
		t.AppendRow(table.Row{"Bio", bio})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if !*userWorks {
			return
		}
		works, err := user.Works(ctx, 1)
		if err != nil {
			serviceutil.Fatal("failed to fetch user works", err)
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
