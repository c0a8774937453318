package cleaner

import (
	"context"
	"testing"
	"time"

	"github.com/EINDEX/plex-cleaner/internal/domain"
	"github.com/EINDEX/plex-cleaner/internal/rating"
)

// fakeServer fakes one viewer's view of the library plus the owner-side
// fetch and delete operations.
type fakeServer struct {
	items   map[string]domain.Item // by key; FetchItem source
	watched map[string][]string    // rawType -> keys returned by SearchWatched
	deleted []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		items:   make(map[string]domain.Item),
		watched: make(map[string][]string),
	}
}

// add registers an item and lists it under its raw type's watched search.
func (f *fakeServer) add(item domain.Item) {
	f.items[item.Key] = item
	f.watched[item.RawType] = append(f.watched[item.RawType], item.Key)
}

func (f *fakeServer) SearchWatched(_ context.Context, rawType string) ([]domain.Item, error) {
	var items []domain.Item
	for _, key := range f.watched[rawType] {
		items = append(items, f.items[key])
	}
	return items, nil
}

func (f *fakeServer) FetchItem(_ context.Context, key string) (*domain.Item, error) {
	item, ok := f.items[key]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (f *fakeServer) DeleteItem(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

// fakeSink collects journaled decisions.
type fakeSink struct {
	entries []string
}

func (s *fakeSink) Record(rec *domain.WatchRecord, dec domain.Decision, deleted bool, note string) error {
	s.entries = append(s.entries, rec.Key+":"+dec.Verdict.String())
	return nil
}

func newTestAggregator(t *testing.T, owner *fakeServer) *Aggregator {
	t.Helper()
	resolver := rating.NewResolver(owner, rating.NewCache(), nil)
	return NewAggregator(resolver, nil)
}

func newTestEngine(t *testing.T, owner *fakeServer, viewerCount int, now time.Time) *Engine {
	t.Helper()
	resolver := rating.NewResolver(owner, rating.NewCache(), nil)
	e := NewEngine(DefaultRules(), resolver, viewerCount, nil)
	e.now = func() time.Time { return now }
	return e
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}
