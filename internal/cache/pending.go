package cache

import (
	"slices"

	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/notify"
)

const PendingTopic = "pending"

// PendingSet tracks the posts that have a mutation in flight so views can disable their
// actions. There is no global lock: every id is marked on its own.
type PendingSet struct {
	ids *Cache[model.PostID, struct{}]
	hub *notify.Hub
}

func NewPendingSet(hub *notify.Hub) *PendingSet {
	return &PendingSet{
		ids: NewCache[model.PostID, struct{}](),
		hub: hub,
	}
}

func (p *PendingSet) Add(id model.PostID) {
	p.ids.Set(id, struct{}{})
	p.hub.Broadcast(PendingTopic, "add:"+string(id))
}

func (p *PendingSet) Remove(id model.PostID) {
	p.ids.Delete(id)
	p.hub.Broadcast(PendingTopic, "remove:"+string(id))
}

func (p *PendingSet) Has(id model.PostID) bool {
	_, ok := p.ids.Get(id)
	return ok
}

// IDs returns the pending ids in sorted order.
func (p *PendingSet) IDs() []model.PostID {
	ids := p.ids.Keys()
	slices.Sort(ids)
	return ids
}
