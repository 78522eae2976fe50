package commands

import (
	"os"

	"ao3kit/lib/ao3"
	"ao3kit/lib/ao3/enums"
	"ao3kit/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchQuery    *string
	searchTitle    *string
	searchAuthor   *string
	searchFandom   *string
	searchLanguage *string
	searchComplete *bool
	searchWords    *string
	searchSort     *string
	searchLimit    *int

	tagName *string
	tagType *string
)

func init() {
	searchQuery = worksCmd.Flags().String("query", "", "Free text query.")
	searchTitle = worksCmd.Flags().String("title", "", "Filter by title.")
	searchAuthor = worksCmd.Flags().String("author", "", "Filter by creator.")
	searchFandom = worksCmd.Flags().String("fandom", "", "Filter by fandom name.")
	searchLanguage = worksCmd.Flags().String("language", "", "Filter by language code, e.g. en.")
	searchComplete = worksCmd.Flags().Bool("complete", false, "Only completed works.")
	searchWords = worksCmd.Flags().String("words", "", "Word count range, e.g. 1000-50000 or >10000.")
	searchSort = worksCmd.Flags().String("sort", "", "Sort column, e.g. kudos_count.")
	searchLimit = worksCmd.Flags().Int("limit", 20, "Maximum number of results to print.")

	tagName = tagsCmd.Flags().String("name", "", "Tag name to search for.")
	tagType = tagsCmd.Flags().String("type", "", "Tag type: Fandom, Character, Relationship or Freeform.")

	searchCmd.AddCommand(worksCmd)
	searchCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Searches the archive.",
}

var worksCmd = &cobra.Command{
	Use:   "works",
	Short: "Searches for works.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := createClient(ctx)
		defer client.Close()

		opts := ao3.WorkSearchOptions{
			Query:      *searchQuery,
			Title:      *searchTitle,
			Author:     *searchAuthor,
			Fandoms:    *searchFandom,
			Language:   enums.Language(*searchLanguage),
			WordCount:  ao3.ParseRange(*searchWords),
			SortColumn: *searchSort,
		}
		if *searchComplete {
			opts.Complete = ao3.TristateTrue
		}

		results, err := client.SearchWorks(opts)
		if err != nil {
			serviceutil.Fatal("invalid search options", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Title", "Words", "Kudos"})
		printed := 0
		for printed < *searchLimit && results.Next(ctx) {
			work := results.Current()
			title, _ := work.Title(ctx)
			words, _ := work.WordCount(ctx)
			stats, _ := work.Stats(ctx)
			t.AppendRow(table.Row{work.ID(), title, words, stats.Kudos})
			printed++
		}
		if err := results.Err(); err != nil {
			serviceutil.Fatal("search failed", err)
		}
		t.AppendFooter(table.Row{"", "total", results.Total(), ""})
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Searches for tags.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := createClient(ctx)
		defer client.Close()

		results, err := client.SearchTags(ao3.TagSearchOptions{
			Name: *tagName,
			Type: ao3.TagType(*tagType),
		})
		if err != nil {
			serviceutil.Fatal("invalid search options", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Type", "Name", "Uses"})
		for results.Next(ctx) {
			tag := results.Current()
			t.AppendRow(table.Row{tag.Type, tag.Name, tag.Count})
		}
		if err := results.Err(); err != nil {
			serviceutil.Fatal("search failed", err)
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
