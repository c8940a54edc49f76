package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/debemdeboas/archive-console/internal/model"
)

const DefaultPageSize = 10

var ErrPageSuperseded = errors.New("page fetch superseded by reset")

// PageFetcher loads one page of the public listing.
type PageFetcher func(ctx context.Context, limit, skip int) ([]model.Post, error)

// Pager walks an offset-paginated listing. Page n is requested with skip = n*limit. The
// listing ends with the first page shorter than limit.
type Pager struct {
	fetch PageFetcher
	limit int

	mu       sync.Mutex
	pages    [][]model.Post
	hasNext  bool
	fetching bool

	// Bumped by Reset. A page only lands when its fetch started in the current generation.
	generation uint64
	cancel     context.CancelFunc
}

func NewPager(fetch PageFetcher, limit int) *Pager {
	if limit < 1 {
		limit = DefaultPageSize
	}
	return &Pager{fetch: fetch, limit: limit, hasNext: true}
}

func (p *Pager) Limit() int {
	return p.limit
}

func (p *Pager) HasNextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNext
}

func (p *Pager) IsFetching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetching
}

func (p *Pager) Pages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// Items returns every fetched post, pages flattened in fetch order.
func (p *Pager) Items() []model.Post {
	p.mu.Lock()
	defer p.mu.Unlock()

	var n int
	for _, page := range p.pages {
		n += len(page)
	}
	items := make([]model.Post, 0, n)
	for _, page := range p.pages {
		items = append(items, page...)
	}
	return items
}

// FetchNext loads the next page. It returns false without fetching when a fetch is already
// running or the last page has been seen. A page whose fetch was overtaken by Reset is
// dropped and ErrPageSuperseded is returned.
func (p *Pager) FetchNext(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.fetching || !p.hasNext {
		p.mu.Unlock()
		return false, nil
	}
	p.fetching = true
	skip := len(p.pages) * p.limit
	gen := p.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	defer cancel()

	page, err := p.fetch(fetchCtx, p.limit, skip)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		return false, ErrPageSuperseded
	}
	p.fetching = false
	p.cancel = nil
	if err != nil {
		return false, err
	}
	if page == nil {
		page = []model.Post{}
	}
	p.pages = append(p.pages, page)
	p.hasNext = len(page) >= p.limit
	return true, nil
}

// FetchUntil keeps fetching until at least n items are loaded or the listing ends.
func (p *Pager) FetchUntil(ctx context.Context, n int) error {
	for {
		p.mu.Lock()
		var have int
		for _, page := range p.pages {
			have += len(page)
		}
		done := have >= n || !p.hasNext
		p.mu.Unlock()
		if done {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		fetched, err := p.FetchNext(ctx)
		if err != nil {
			return err
		}
		if !fetched {
			return nil
		}
	}
}

// Reset drops every page so the next fetch starts at skip 0. A fetch still running is
// cancelled and its page discarded.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.pages = nil
	p.hasNext = true
	p.fetching = false
}
