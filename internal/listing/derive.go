// Package listing derives the dashboard views from a cached post list and pages through the
// public listing.
package listing

import "github.com/debemdeboas/archive-console/internal/model"

// View is what the dashboard renders for one list. Order is the server's; nothing is
// re-sorted here.
type View struct {
	Visible      []model.Post
	Latest       *model.Post
	Older        []model.Post
	DeletedCount int
}

// Derive filters posts for display. DeletedCount counts the whole list whatever showDeleted
// says.
func Derive(posts []model.Post, showDeleted bool) View {
	v := View{Visible: make([]model.Post, 0, len(posts))}
	for _, p := range posts {
		if p.IsDeleted {
			v.DeletedCount++
		}
		if showDeleted || !p.IsDeleted {
			v.Visible = append(v.Visible, p)
		}
	}

	if len(v.Visible) > 0 {
		latest := v.Visible[0]
		v.Latest = &latest
		v.Older = v.Visible[1:]
	} else {
		v.Older = []model.Post{}
	}
	return v
}
