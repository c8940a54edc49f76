package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/archive-console/internal/cache"
	"github.com/debemdeboas/archive-console/internal/editor"
	"github.com/debemdeboas/archive-console/internal/listing"
	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/mutation"
	"github.com/debemdeboas/archive-console/internal/render"
	"github.com/debemdeboas/archive-console/internal/theme"
)

func newPostsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage posts",
	}
	cmd.AddCommand(
		newPostsListCmd(opts),
		newMutationCmd(opts, "toggle", "Flip a post between draft and published", (*mutation.Coordinator).ToggleStatus),
		newMutationCmd(opts, "delete", "Move a post to the trash", (*mutation.Coordinator).SoftDelete),
		newMutationCmd(opts, "restore", "Bring a post back from the trash", (*mutation.Coordinator).Restore),
		newPurgeCmd(opts),
		newPostsNewCmd(opts),
		newPostsShowCmd(opts),
		newEditCmd(opts, false),
		newEditCmd(opts, true),
		newImportCmd(opts),
	)
	return cmd
}

func newPostsListCmd(opts *rootOptions) *cobra.Command {
	var showDeleted bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx, err := a.authorize(cmd.Context())
			if err != nil {
				return err
			}

			key := cache.ListKey{ShowDeleted: showDeleted}
			a.coord.SetShowDeleted(showDeleted)
			posts, stale, err := a.loadList(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to list posts: %w", err)
			}
			printView(cmd.OutOrStdout(), listing.Derive(posts, showDeleted), a.coord.Pending(), stale)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showDeleted, "deleted", false, "include deleted posts")
	return cmd
}

type mutationFunc func(c *mutation.Coordinator, ctx context.Context, id model.PostID) error

func newMutationCmd(opts *rootOptions, use, short string, run mutationFunc) *cobra.Command {
	// Deleted posts only show up in the list with deleted posts.
	showDeleted := use == "restore"
	cmd := &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx, err := a.authorize(cmd.Context())
			if err != nil {
				return err
			}
			id := model.PostID(args[0])

			key := cache.ListKey{ShowDeleted: showDeleted}
			a.coord.SetShowDeleted(showDeleted)
			if _, _, err := a.loadList(ctx, key); err != nil {
				return fmt.Errorf("failed to load posts: %w", err)
			}

			if err := run(a.coord, ctx, id); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if posts, ok := a.lists.Get(key); ok {
				for _, p := range posts {
					if p.ID == id {
						fmt.Fprintf(out, "%s %s  %s\n", theme.Success.Render("✓"), theme.Title.Render(p.Title), theme.StatusBadge(p, false))
						return nil
					}
				}
			}
			fmt.Fprintf(out, "%s %s %s\n", theme.Success.Render("✓"), use, id)
			return nil
		},
	}
	if use != "restore" {
		cmd.Flags().BoolVar(&showDeleted, "deleted", false, "operate on the list that includes deleted posts")
	}
	return cmd
}

func newPurgeCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge ID",
		Short: "Delete a post for good",
		Long:  "Delete a post for good. This cannot be undone; you are asked to confirm unless --yes is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx, err := a.authorize(cmd.Context())
			if err != nil {
				return err
			}
			id := model.PostID(args[0])

			key := cache.ListKey{ShowDeleted: true}
			a.coord.SetShowDeleted(true)
			if _, _, err := a.loadList(ctx, key); err != nil {
				a.log.Warn().Err(err).Msg("Could not load posts, confirming by id")
			}

			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			confirmer := mutation.ConfirmFunc(func(_ context.Context, post model.Post) bool {
				if yes {
					return true
				}
				name := string(post.ID)
				if post.Title != "" {
					name = fmt.Sprintf("%q (%s)", post.Title, post.ID)
				}
				return p.Confirm(fmt.Sprintf("Permanently delete %s? This cannot be undone.", name), false)
			})

			if err := a.coord.PermanentDelete(ctx, id, confirmer); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s post %s deleted permanently\n", theme.Success.Render("✓"), id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newPostsNewCmd(opts *rootOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty draft and print how to edit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx, err := a.authorize(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.coord.Create(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if quiet {
				fmt.Fprintln(out, id)
				return nil
			}
			fmt.Fprintf(out, "%s created post %s\n", theme.Success.Render("✓"), id)
			fmt.Fprintf(out, "  %s\n", theme.Muted.Render(editHint(id)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the new id")
	return cmd
}

func editHint(id model.PostID) string {
	return fmt.Sprintf("next: archivectl posts edit %s --title TITLE --content FILE", id)
}

func newPostsShowCmd(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx, err := a.authorize(cmd.Context())
			if err != nil {
				return err
			}
			post, err := a.posts.Prefetch(ctx, model.PostID(args[0]), a.api.GetPost)
			if err != nil {
				return fmt.Errorf("failed to load post: %w", err)
			}

			out := cmd.OutOrStdout()
			if raw {
				return render.HighlightTerminal(out, post.Raw, "html", a.cfg.Editor.HighlightTheme)
			}
			var cover string
			if post.CoverAssetID != nil {
				cover = a.api.AssetURL(*post.CoverAssetID)
			}
			printPost(out, *post, cover)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the highlighted raw HTML")
	return cmd
}

type formFlags struct {
	title   string
	slug    string
	tags    string
	summary string
	caption string
	content string
	cover   string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "post title")
	cmd.Flags().StringVar(&f.slug, "slug", "", "url slug (derived from the title when empty)")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma separated tags")
	cmd.Flags().StringVar(&f.summary, "summary", "", "short summary")
	cmd.Flags().StringVar(&f.caption, "caption", "", "cover caption")
	cmd.Flags().StringVar(&f.content, "content", "", "HTML or markdown file with the post content")
	cmd.Flags().StringVar(&f.cover, "cover", "", "cover image file")
}

// apply overlays the flags that were set on form.
func (f *formFlags) apply(cmd *cobra.Command, form *editor.Form) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		form.Title = f.title
	}
	if changed("slug") {
		form.Slug = f.slug
	}
	if changed("tags") {
		form.TagsText = f.tags
	}
	if changed("summary") {
		form.Summary = f.summary
	}
	if changed("caption") {
		form.CoverCaption = f.caption
	}
	if f.content != "" {
		data, err := os.ReadFile(f.content)
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		form.Content = data
		form.ContentName = filepath.Base(f.content)
	}
	if f.cover != "" {
		data, err := os.ReadFile(f.cover)
		if err != nil {
			return fmt.Errorf("failed to read cover: %w", err)
		}
		ctype := mime.TypeByExtension(filepath.Ext(f.cover))
		if ctype == "" {
			ctype = http.DetectContentType(data)
		}
		form.Cover = &editor.CoverFile{
			Filename:    filepath.Base(f.cover),
			ContentType: ctype,
			Data:        data,
		}
	}
	return nil
}

func newEditCmd(opts *rootOptions, publish bool) *cobra.Command {
	flags := &formFlags{}
	use, short := "edit ID", "Save a post as a draft"
	if publish {
		use, short = "publish ID", "Save a post and export its page"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Fields not given as flags keep their stored value. Markdown content (.md) is rendered to HTML
and its front matter fills the fields that are still empty.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx, err := a.authorize(cmd.Context())
			if err != nil {
				return err
			}
			id := model.PostID(args[0])

			post, err := a.posts.Prefetch(ctx, id, a.api.GetPost)
			if err != nil {
				return fmt.Errorf("failed to load post: %w", err)
			}
			form := editor.FormFromPost(*post)
			if err := flags.apply(cmd, &form); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !publish {
				res, err := a.editor.Save(ctx, id, form)
				if err != nil {
					return err
				}
				a.lists.InvalidateAll()
				warnCover(out, res.CoverErr)
				fmt.Fprintf(out, "%s saved draft %s\n", theme.Success.Render("✓"), theme.Title.Render(res.Update.Slug))
				return nil
			}

			res, err := a.editor.Publish(ctx, id, form)
			if err != nil {
				return err
			}
			a.lists.InvalidateAll()
			warnCover(out, res.CoverErr)
			if res.MirrorErr != nil {
				fmt.Fprintf(out, "%s mirror upload failed: %v\n", theme.Failure.Render("!"), res.MirrorErr)
			}
			if res.EventErr != nil {
				fmt.Fprintf(out, "%s publish event failed: %v\n", theme.Failure.Render("!"), res.EventErr)
			}
			link := res.HTMLAsset.Link
			if link == "" {
				link = a.api.AssetURL(res.HTMLAsset.ID)
			}
			fmt.Fprintf(out, "%s published %s\n  %s\n", theme.Success.Render("✓"), theme.Title.Render(res.Update.Slug), theme.Output.Render(link))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func warnCover(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintf(out, "%s cover upload failed, kept the previous cover: %v\n", theme.Failure.Render("!"), err)
	}
}
