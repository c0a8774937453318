package cleaner

import (
	"context"
	"testing"
	"time"

	"github.com/EINDEX/plex-cleaner/internal/domain"
	"github.com/EINDEX/plex-cleaner/internal/rating"
)

var runNow = time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

// newTestRunner wires a runner over the given viewer fakes with the owner
// serving fetches and deletes.
func newTestRunner(t *testing.T, owner *fakeServer, viewers []*fakeServer, opts Options, sink DecisionSink) *Runner {
	t.Helper()

	resolver := rating.NewResolver(owner, rating.NewCache(), nil)
	agg := NewAggregator(resolver, nil)
	engine := NewEngine(DefaultRules(), resolver, len(viewers), nil)
	engine.now = func() time.Time { return runNow }

	browsers := make([]domain.LibraryBrowser, len(viewers))
	for i, v := range viewers {
		browsers[i] = v
	}
	return NewRunner(browsers, owner, agg, engine, sink, opts, nil)
}

func TestRunDeletesExpiredVideo(t *testing.T) {
	owner := newFakeServer()
	owner.add(domain.Item{Key: "m1", RawType: "movie", Title: "Old Movie", UserRating: 5, Watched: true, LastViewedAt: daysAgo(runNow, 20)})

	runner := newTestRunner(t, owner, []*fakeServer{owner}, Options{}, nil)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(owner.deleted) != 1 || owner.deleted[0] != "m1" {
		t.Errorf("deleted = %v, want exactly [m1]", owner.deleted)
	}
	if summary.Deleted != 1 {
		t.Errorf("summary.Deleted = %d, want 1", summary.Deleted)
	}
}

func TestRunNeverDeletesKeptOrDeferred(t *testing.T) {
	owner := newFakeServer()
	owner.add(domain.Item{Key: "fresh", RawType: "movie", Title: "Fresh", Watched: true, LastViewedAt: daysAgo(runNow, 2)})
	owner.add(domain.Item{Key: "loved", RawType: "movie", Title: "Loved", UserRating: 10, Watched: true, LastViewedAt: daysAgo(runNow, 60)})

	runner := newTestRunner(t, owner, []*fakeServer{owner}, Options{}, nil)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(owner.deleted) != 0 {
		t.Errorf("deleted = %v, want none", owner.deleted)
	}
	if summary.Deferred != 1 || summary.Kept != 1 {
		t.Errorf("summary = deferred %d / kept %d, want 1 / 1", summary.Deferred, summary.Kept)
	}
}

func TestRunDryRunSuppressesDeletes(t *testing.T) {
	owner := newFakeServer()
	owner.add(domain.Item{Key: "m1", RawType: "movie", Title: "Old Movie", Watched: true, LastViewedAt: daysAgo(runNow, 20)})

	runner := newTestRunner(t, owner, []*fakeServer{owner}, Options{DryRun: true}, nil)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(owner.deleted) != 0 {
		t.Errorf("dry run deleted %v", owner.deleted)
	}
	if summary.Held != 1 {
		t.Errorf("summary.Held = %d, want 1", summary.Held)
	}
}

func TestRunProtectedTitleIsHeld(t *testing.T) {
	owner := newFakeServer()
	owner.add(domain.Item{Key: "m1", RawType: "movie", Title: "Blade Runner 2049", Watched: true, LastViewedAt: daysAgo(runNow, 20)})
	owner.add(domain.Item{Key: "m2", RawType: "movie", Title: "Forgettable Sequel", Watched: true, LastViewedAt: daysAgo(runNow, 20)})

	runner := newTestRunner(t, owner, []*fakeServer{owner}, Options{
		Protected: []string{"blade runner"},
	}, nil)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(owner.deleted) != 1 || owner.deleted[0] != "m2" {
		t.Errorf("deleted = %v, want exactly [m2]", owner.deleted)
	}
	if summary.Held != 1 || summary.Deleted != 1 {
		t.Errorf("summary = held %d / deleted %d, want 1 / 1", summary.Held, summary.Deleted)
	}
}

func TestRunJournalsEveryDecision(t *testing.T) {
	owner := newFakeServer()
	owner.add(domain.Item{Key: "m1", RawType: "movie", Title: "Old", Watched: true, LastViewedAt: daysAgo(runNow, 20)})
	owner.add(domain.Item{Key: "m2", RawType: "movie", Title: "Fresh", Watched: true, LastViewedAt: daysAgo(runNow, 1)})

	sink := &fakeSink{}
	runner := newTestRunner(t, owner, []*fakeServer{owner}, Options{}, sink)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.entries) != 2 {
		t.Errorf("journaled %d decisions, want 2: %v", len(sink.entries), sink.entries)
	}
}

func TestRunAggregatesAcrossViewers(t *testing.T) {
	// Two viewers watched the same movie; the count must reach the all
	// viewers threshold, and a delete still happens via the any-watched
	// window.
	owner := newFakeServer()
	owner.add(domain.Item{Key: "m1", RawType: "movie", Title: "Shared", Watched: true, LastViewedAt: daysAgo(runNow, 20)})

	viewer := newFakeServer()
	viewer.add(domain.Item{Key: "m1", RawType: "movie", Title: "Shared", Watched: true, LastViewedAt: daysAgo(runNow, 18)})

	sink := &fakeSink{}
	runner := newTestRunner(t, owner, []*fakeServer{viewer, owner}, Options{}, sink)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Deleted != 1 {
		t.Errorf("summary.Deleted = %d, want 1", summary.Deleted)
	}
	if len(summary.Outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1 record", len(summary.Outcomes))
	}
	if got := summary.Outcomes[0].Record.WatchedCount; got != 2 {
		t.Errorf("WatchedCount = %d, want 2", got)
	}
}
