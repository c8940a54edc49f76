package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/archive-console/internal/editor"
	"github.com/debemdeboas/archive-console/internal/theme"
	"github.com/debemdeboas/archive-console/internal/util"
)

// importTitle is the title typed into the form for a markdown source. It stays empty when the
// front matter carries one, and falls back to the file name otherwise.
func importTitle(name string, content []byte) string {
	if fm, err := util.GetFrontMatter(content); err == nil && fm.TitleData != nil && strings.TrimSpace(fm.Title) != "" {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Create one post per markdown file in DIR",
		Long: `Create one post per .md file in DIR. The title comes from the front matter, or from the
file name when there is none. Files that fail are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx, err := a.authorize(cmd.Context())
			if err != nil {
				return err
			}
			dir := args[0]
			files, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", dir, err)
			}

			out := cmd.OutOrStdout()
			var imported, failed int
			for _, file := range files {
				if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
					continue
				}
				l := a.log.With().Str("file", file.Name()).Logger()

				content, err := os.ReadFile(filepath.Join(dir, file.Name()))
				if err != nil {
					l.Error().Err(err).Msg("Failed to read file")
					failed++
					continue
				}

				id, err := a.coord.Create(ctx)
				if err != nil {
					return err
				}
				form := editor.Form{
					Title:       importTitle(file.Name(), content),
					Content:     content,
					ContentName: file.Name(),
				}
				if publish {
					_, err = a.editor.Publish(ctx, id, form)
				} else {
					_, err = a.editor.Save(ctx, id, form)
				}
				if err != nil {
					l.Error().Err(err).Str("post_id", string(id)).Msg("Failed to import file")
					fmt.Fprintf(out, "%s %s: %v\n", theme.Failure.Render("✗"), file.Name(), err)
					failed++
					continue
				}
				imported++
				fmt.Fprintf(out, "%s %s → %s\n", theme.Success.Render("✓"), file.Name(), id)
			}

			fmt.Fprintln(out, theme.Muted.Render(fmt.Sprintf("%d imported, %d failed", imported, failed)))
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed to import", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "export each page right away")
	return cmd
}
