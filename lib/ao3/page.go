package ao3

import (
	"context"
	"sync"
)

// LoadState tracks how much of an entity's backing page has been
// materialized.
type LoadState int

const (
	// StateUnloaded means only the identifier is known.
	StateUnloaded LoadState = iota
	// StatePartial means the entity was built from a listing blurb and
	// carries the blurb's subset of fields.
	StatePartial
	// StateLoaded means the full page was fetched and parsed.
	StateLoaded
)

func (s LoadState) String() string {
	switch s {
	case StatePartial:
		return "partial"
	case StateLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// page is the guarded, memoizing load machine every entity embeds.
//
// The mutex gives the at-most-one-in-flight-load guarantee: concurrent
// first accesses on one instance queue behind the same fetch instead of
// issuing duplicates. Fields are only ever swapped wholesale on a
// successful load, so a failed or cancelled fetch leaves the previous
// state fully intact and a later access retries.
type page[F any] struct {
	mu     sync.Mutex
	state  LoadState
	token  string
	fields F

	// load fetches the full backing page and parses every field plus the
	// page's authenticity token. Set once at construction.
	load func(ctx context.Context) (F, string, error)
}

// State reports the current load state.
func (p *page[F]) State() LoadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// setPartial seeds the blurb-derived subset of fields.
func (p *page[F]) setPartial(fields F, token string) {
	p.mu.Lock()
	p.fields = fields
	p.token = token
	p.state = StatePartial
	p.mu.Unlock()
}

// access runs read over the cached fields, first performing a full load
// when the current state does not cover the requested attribute. One
// load fills every field, not just the one requested.
func (p *page[F]) access(ctx context.Context, min LoadState, entity string, read func(*F)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state < min {
		fields, token, err := p.load(ctx)
		if err != nil {
			return &UnloadedError{Entity: entity, Cause: err}
		}
		p.fields = fields
		p.token = token
		p.state = StateLoaded
	}

	read(&p.fields)
	return nil
}

// Refresh forces a full re-fetch regardless of the current state. The
// cached fields are replaced only when the fetch and parse succeed.
func (p *page[F]) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fields, token, err := p.load(ctx)
	if err != nil {
		return err
	}
	p.fields = fields
	p.token = token
	p.state = StateLoaded
	return nil
}

// pageToken returns the authenticity token scraped from the entity's
// page, if it has one.
func (p *page[F]) pageToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}
