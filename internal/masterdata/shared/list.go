package shared

import (
	"context"
	"iter"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	internalShared "github.com/contractor-desk/contractor-desk/internal/shared"
)

// List owns the canonical collection of one entity type and its derived view.
// State changes only after the backend confirms a call; nothing is applied
// speculatively, so failures need no rollback.
type List[R Record[R, D], D any] struct {
	client EntityClient[R, D]
	group  singleflight.Group

	mu       sync.RWMutex
	records  []R
	filters  Filters
	loadedAt time.Time
	deleting map[string]struct{}
}

// NewList returns an empty, unloaded List backed by client.
func NewList[R Record[R, D], D any](client EntityClient[R, D]) *List[R, D] {
	return &List[R, D]{
		client:   client,
		filters:  Filters{Category: CategoryAll},
		deleting: make(map[string]struct{}),
	}
}

// Refresh replaces the canonical collection with the backend's. Concurrent
// callers share one request, which outlives the cancellation of whichever
// caller started it; the HTTP client timeout still bounds it.
func (l *List[R, D]) Refresh(ctx context.Context) error {
	detached := context.WithoutCancel(ctx)
	_, err, _ := l.group.Do("refresh", func() (any, error) {
		records, err := l.client.List(detached)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.records = slices.Clone(records)
		l.loadedAt = time.Now()
		l.mu.Unlock()
		return nil, nil
	})
	return err
}

// Loaded reports whether Refresh has succeeded at least once.
func (l *List[R, D]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.loadedAt.IsZero()
}

// LoadedAt returns the time of the last successful refresh.
func (l *List[R, D]) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

// SetFilters replaces the search term and category filter.
func (l *List[R, D]) SetFilters(f Filters) {
	l.mu.Lock()
	l.filters = f.Normalize()
	l.mu.Unlock()
}

// SetSearch replaces the search term.
func (l *List[R, D]) SetSearch(term string) {
	l.mu.Lock()
	l.filters.Search = term
	l.mu.Unlock()
}

// SetCategory replaces the category filter; "" means CategoryAll.
func (l *List[R, D]) SetCategory(category string) {
	l.mu.Lock()
	l.filters = Filters{Search: l.filters.Search, Category: category}.Normalize()
	l.mu.Unlock()
}

// Filters returns the current view inputs.
func (l *List[R, D]) Filters() Filters {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filters
}

// FilteredView yields, in canonical order, the records passing both the search
// and the category gate. Every iteration reads the state current at its start.
func (l *List[R, D]) FilteredView() iter.Seq[R] {
	return func(yield func(R) bool) {
		l.mu.RLock()
		records := slices.Clone(l.records)
		m := newMatcher(l.filters)
		l.mu.RUnlock()
		for _, r := range records {
			if !m.match(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Records returns a copy of the canonical collection.
func (l *List[R, D]) Records() []R {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.records)
}

// Counts returns the filtered and total sizes.
func (l *List[R, D]) Counts() (shown, total int) {
	for range l.FilteredView() {
		shown++
	}
	l.mu.RLock()
	total = len(l.records)
	l.mu.RUnlock()
	return shown, total
}

// Categories lists distinct non-empty category values, sorted.
func (l *List[R, D]) Categories() []string {
	l.mu.RLock()
	seen := make(map[string]struct{}, len(l.records))
	for _, r := range l.records {
		if c := r.FilterCategory(); c != "" {
			seen[c] = struct{}{}
		}
	}
	l.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Find returns the record with the given id.
func (l *List[R, D]) Find(id string) (R, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(id); i >= 0 {
		return l.records[i], true
	}
	var zero R
	return zero, false
}

// ApplyCreate appends a backend-confirmed record. Ids are trusted as given.
func (l *List[R, D]) ApplyCreate(r R) {
	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()
}

// ApplyUpdate replaces every record with the given id, keeping that id even
// when r omits or alters it. Unknown ids are ignored.
func (l *List[R, D]) ApplyUpdate(id string, r R) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].Key() == id {
			l.records[i] = r.WithKey(id)
		}
	}
}

// ApplyDelete removes every record with the given id, so repeating it is a
// no-op. Unknown ids are ignored.
func (l *List[R, D]) ApplyDelete(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = slices.DeleteFunc(l.records, func(r R) bool { return r.Key() == id })
}

// Create stores draft on the backend and appends the returned record.
func (l *List[R, D]) Create(ctx context.Context, draft D) (R, error) {
	created, err := l.client.Create(ctx, draft)
	if err != nil {
		var zero R
		return zero, err
	}
	l.ApplyCreate(created)
	return created, nil
}

// Update stores draft for id on the backend and reconciles the response.
func (l *List[R, D]) Update(ctx context.Context, id string, draft D) (R, error) {
	updated, err := l.client.Update(ctx, id, draft)
	if err != nil {
		var zero R
		return zero, err
	}
	updated = updated.WithKey(id)
	l.ApplyUpdate(id, updated)
	return updated, nil
}

// Delete removes id on the backend, then locally. A second delete of the same
// id while the first is in flight gets ErrBusy.
func (l *List[R, D]) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	if _, busy := l.deleting[id]; busy {
		l.mu.Unlock()
		return internalShared.ErrBusy
	}
	l.deleting[id] = struct{}{}
	l.mu.Unlock()

	err := l.client.Delete(ctx, id)

	l.mu.Lock()
	delete(l.deleting, id)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	l.ApplyDelete(id)
	return nil
}

// indexOf requires l.mu.
func (l *List[R, D]) indexOf(id string) int {
	return slices.IndexFunc(l.records, func(r R) bool { return r.Key() == id })
}
