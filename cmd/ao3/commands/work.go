package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"ao3kit/lib/ao3"
	"ao3kit/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	workChapters *bool
	workDownload *string
	workOut      *string
)

func init() {
	workChapters = workCmd.Flags().Bool("chapters", false, "List the work's chapters.")
	workDownload = workCmd.Flags().String("download", "", "Download the work in the given format (azw3, epub, mobi, pdf, html).")
	workOut = workCmd.Flags().String("out", "", "Output path for --download. Defaults to <id>.<format>.")
	rootCmd.AddCommand(workCmd)
}

// resolveWork accepts either a bare numeric id or a pasted archive url.
func resolveWork(client *ao3.Client, arg string) (*ao3.Work, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return client.GetWork(id), nil
	}
	return client.GetWorkFromURL(arg)
}

var workCmd = &cobra.Command{
	Use:   "work <id|url>",
	Short: "Shows a work's metadata.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := createClient(ctx)
		defer client.Close()

		work, err := resolveWork(client, args[0])
		if err != nil {
			serviceutil.Fatal("failed to resolve work", err)
		}

		if *workDownload != "" {
			downloadWork(cmd, work)
			return
		}

		title, err := work.Title(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch work", err)
		}
		authors, _ := work.Authors(ctx)
		_, ratingName, _ := work.Rating(ctx)
		fandoms, _ := work.Fandoms(ctx)
		language, _ := work.Language(ctx)
		words, _ := work.WordCount(ctx)
		current, expected, _ := work.ChapterCounts(ctx)
		stats, _ := work.Stats(ctx)
		updated, _ := work.DateUpdated(ctx)
		summary, _ := work.Summary(ctx)

		names := make([]string, len(authors))
		for i, a := range authors {
			names[i] = a.Name
		}
		chapters := strconv.Itoa(current) + "/?"
		if expected >= 0 {
			chapters = fmt.Sprintf("%d/%d", current, expected)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Title", title})
		t.AppendRow(table.Row{"Authors", strings.Join(names, ", ")})
		t.AppendRow(table.Row{"Rating", ratingName})
		t.AppendRow(table.Row{"Fandoms", strings.Join(fandoms, ", ")})
		t.AppendRow(table.Row{"Language", language.String()})
		t.AppendRow(table.Row{"Words", words})
		t.AppendRow(table.Row{"Chapters", chapters})
		t.AppendRow(table.Row{"Kudos", stats.Kudos})
		t.AppendRow(table.Row{"Bookmarks", stats.Bookmarks})
		t.AppendRow(table.Row{"Hits", stats.Hits})
		t.AppendRow(table.Row{"Updated", updated.Format("2006-01-02")})
		t.AppendRow(table.Row{"Summary", summary})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if *workChapters {
			listChapters(cmd, work)
		}
	},
}

func listChapters(cmd *cobra.Command, work *ao3.Work) {
	ctx := cmd.Context()
	chapters, err := work.Chapters(ctx)
	if err != nil {
		serviceutil.Fatal("failed to fetch chapters", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Title"})
	for _, c := range chapters {
		title, err := c.Title(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch chapter title", err)
		}
		t.AppendRow(table.Row{c.Number(), title})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func downloadWork(cmd *cobra.Command, work *ao3.Work) {
	format := ao3.DownloadFormat(strings.ToLower(*workDownload))
	body, err := work.Download(cmd.Context(), format)
	if err != nil {
		serviceutil.Fatal("failed to download work", err)
	}

	out := *workOut
	if out == "" {
		out = fmt.Sprintf("%d.%s", work.ID(), format)
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		serviceutil.Fatal("failed to write download", err)
	}
	fmt.Println(out)
}
