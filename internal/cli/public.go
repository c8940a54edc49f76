package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/archive-console/internal/listing"
	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/theme"
)

func newPublicCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "public",
		Short: "Browse the public side of the blog",
	}
	cmd.AddCommand(newPublicListCmd(opts), newPublicReadCmd(opts))
	return cmd
}

func newPublicListCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published posts",
		Long: `List published posts one page at a time, asking before each further page.
With --limit, pages are fetched without asking until that many posts are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			pager := listing.NewPager(a.api.ListPublicPosts, a.cfg.API.PublicPageSize)

			if limit > 0 {
				if err := pager.FetchUntil(ctx, limit); err != nil {
					return fmt.Errorf("failed to list posts: %w", err)
				}
				items := pager.Items()
				if len(items) > limit {
					items = items[:limit]
				}
				printPublic(out, items)
				return nil
			}

			p := newPrompter(cmd.InOrStdin(), out)
			shown := 0
			for {
				if _, err := pager.FetchNext(ctx); err != nil {
					return fmt.Errorf("failed to list posts: %w", err)
				}
				items := pager.Items()
				printPublic(out, items[shown:])
				shown = len(items)

				if !pager.HasNextPage() {
					if shown == 0 {
						fmt.Fprintln(out, theme.Muted.Render("Nothing published yet."))
					}
					return nil
				}
				if !p.Confirm("Load more?", true) {
					return nil
				}
			}
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "fetch pages until this many posts are listed")
	return cmd
}

func printPublic(w io.Writer, posts []model.Post) {
	for _, p := range posts {
		fmt.Fprintf(w, "  %s  %s\n", theme.Title.Render(p.Title), theme.Muted.Render(p.CreatedAt.Format(dateLayout)))
		if p.Summary != "" {
			fmt.Fprintf(w, "    %s\n", p.Summary)
		}
		if p.HTMLAssetID != nil {
			fmt.Fprintf(w, "    %s\n", theme.Muted.Render("read: archivectl public read "+string(*p.HTMLAssetID)))
		}
	}
}

func newPublicReadCmd(opts *rootOptions) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "read ASSET_ID",
		Short: "Fetch the exported page of a post",
		Long: `Fetch the exported HTML page of a post. A <base> tag pointing at the asset is added so
relative links resolve when the page is opened locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			html, err := a.api.FetchAssetHTML(cmd.Context(), model.AssetID(args[0]))
			if err != nil {
				return fmt.Errorf("failed to fetch page: %w", err)
			}
			if outFile == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), html)
				return err
			}
			if err := os.WriteFile(outFile, []byte(html), 0644); err != nil {
				return fmt.Errorf("failed to write page: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", theme.Success.Render("✓"), outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the page to this file instead of stdout")
	return cmd
}
