package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Bitlatte/devblog/internal/catalog"
	"github.com/Bitlatte/devblog/internal/filter"
	"github.com/Bitlatte/devblog/internal/model"
)

var postsQuery filter.Query

// postsCmd represents the posts command
var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Lists the posts as the listing page would show them",
	Long: `The posts command prints the featured posts followed by the regular
posts left after applying --search and --category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(appConfig)
		if err != nil {
			return err
		}
		return printPosts(cmd.OutOrStdout(), cat, postsQuery)
	},
}

func printPosts(w io.Writer, cat catalog.Repository, q filter.Query) error {
	featured, regular := catalog.Partition(cat.Posts())
	matched := q.Apply(regular)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tID\tDATE\tCATEGORIES\tTITLE")
	row := func(section string, p model.Post) {
		date := "-"
		if !p.Date.IsZero() {
			date = p.Date.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", section, p.ID, date, strings.Join(p.Categories, ","), p.Title)
	}
	for _, p := range featured {
		row("featured", p)
	}
	for _, p := range matched {
		row("regular", p)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(matched) == 0 {
		fmt.Fprintln(w, "no regular posts match the current filters")
	}
	return nil
}

func init() {
	postsCmd.Flags().StringVar(&postsQuery.Term, "search", "", "search term matched against title and excerpt")
	postsCmd.Flags().StringVar(&postsQuery.Category, "category", "", "category id")
	rootCmd.AddCommand(postsCmd)
}
