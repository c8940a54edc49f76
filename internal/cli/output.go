package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/debemdeboas/archive-console/internal/cache"
	"github.com/debemdeboas/archive-console/internal/listing"
	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/theme"
)

const dateLayout = "2006-01-02"

func postLine(w io.Writer, p model.Post, pending *cache.PendingSet) {
	isPending := pending != nil && pending.Has(p.ID)
	title := p.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		theme.Muted.Render(string(p.ID)),
		theme.Title.Render(title),
		theme.StatusBadge(p, isPending),
		theme.Muted.Render(p.CreatedAt.Format(dateLayout)),
	)
}

func printView(w io.Writer, v listing.View, pending *cache.PendingSet, stale bool) {
	if stale {
		fmt.Fprintln(w, theme.Failure.Render("offline: showing the last saved list"))
	}
	if v.Latest == nil {
		fmt.Fprintln(w, theme.Muted.Render("No posts yet."))
	} else {
		fmt.Fprintln(w, theme.Heading.Render("Latest"))
		postLine(w, *v.Latest, pending)
		if len(v.Older) > 0 {
			fmt.Fprintln(w, theme.Heading.Render("Older posts"))
			for _, p := range v.Older {
				postLine(w, p, pending)
			}
		}
	}
	if v.DeletedCount > 0 {
		fmt.Fprintln(w, theme.Muted.Render(fmt.Sprintf("%d deleted", v.DeletedCount)))
	}
}

func printPost(w io.Writer, p model.Post, coverURL string) {
	fmt.Fprintln(w, theme.Heading.Render(p.Title))
	field := func(name, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "%s %s\n", theme.Prompt.Render(name+":"), value)
	}
	field("id", string(p.ID))
	field("slug", p.Slug)
	field("status", theme.StatusBadge(p, false))
	field("tags", strings.Join(p.Tags, ", "))
	field("summary", p.Summary)
	if !p.CreatedAt.IsZero() {
		field("created", p.CreatedAt.Format(dateLayout))
	}
	if p.UpdatedAt != nil {
		field("updated", p.UpdatedAt.Format(dateLayout))
	}
	field("cover", coverURL)
	field("caption", p.CoverCaption)
	field("raw", fmt.Sprintf("%d bytes", len(p.Raw)))
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// Confirm asks question and reads one answer line. An empty answer or end of input picks
// def.
func (p *prompter) Confirm(question string, def bool) bool {
	hint := "[y/N]:"
	if def {
		hint = "[Y/n]:"
	}
	fmt.Fprintf(p.out, "%s %s ", theme.Prompt.Render(question), theme.Muted.Render(hint))

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return def
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	return def
}
