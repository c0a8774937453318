package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/EINDEX/plex-cleaner/internal/domain"
)

// DecisionSink receives every decision for audit purposes. A nil sink
// disables journaling.
type DecisionSink interface {
	Record(rec *domain.WatchRecord, dec domain.Decision, deleted bool, note string) error
}

// Options tune one cleaning pass.
type Options struct {
	LibraryTypes []string // raw types to aggregate, e.g. episode, movie, track
	Protected    []string // title patterns that must never be deleted
	DryRun       bool     // evaluate and report, but never delete
}

// DefaultLibraryTypes are the raw types a pass covers unless configured
// otherwise.
func DefaultLibraryTypes() []string {
	return []string{"episode", "movie", "track"}
}

// Outcome is the applied result of one record's decision.
type Outcome struct {
	Record   *domain.WatchRecord
	Decision domain.Decision
	Deleted  bool
	Note     string // why a delete verdict was not acted on
}

// Summary tallies one full pass.
type Summary struct {
	Outcomes []Outcome
	Deleted  int
	Kept     int
	Deferred int
	Warned   int
	Held     int // delete verdicts suppressed by dry-run or protection
}

// Runner sequences one full pass: aggregate every viewer's engaged items
// across every configured library type, then decide and act on every
// record. The record table and the rating cache live exactly as long as
// one Run call.
type Runner struct {
	viewers []domain.LibraryBrowser
	deleter domain.ItemDeleter
	agg     *Aggregator
	engine  *Engine
	sink    DecisionSink
	opts    Options
	logger  *slog.Logger
}

// NewRunner wires a runner. viewers must contain one connection per
// authorized viewer; deleter acts against the owner's connection.
func NewRunner(viewers []domain.LibraryBrowser, deleter domain.ItemDeleter, agg *Aggregator, engine *Engine, sink DecisionSink, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.LibraryTypes) == 0 {
		opts.LibraryTypes = DefaultLibraryTypes()
	}
	return &Runner{
		viewers: viewers,
		deleter: deleter,
		agg:     agg,
		engine:  engine,
		sink:    sink,
		opts:    opts,
		logger:  logger,
	}
}

// Run executes one sequential pass. Aggregation completes for all viewers
// and library types before any decision runs; the first unrecovered
// failure aborts the pass, and deletes already issued stand.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	table := make(map[string]*domain.WatchRecord)

	for i, viewer := range r.viewers {
		for _, rawType := range r.opts.LibraryTypes {
			if err := r.agg.Aggregate(ctx, viewer, rawType, table); err != nil {
				return nil, fmt.Errorf("viewer %d: %w", i, err)
			}
		}
	}

	r.logger.Info("aggregation complete", "records", len(table), "viewers", len(r.viewers))

	summary := &Summary{}
	for _, rec := range sortedRecords(table) {
		dec, err := r.engine.Decide(ctx, rec)
		if err != nil {
			return nil, err
		}

		outcome, err := r.apply(ctx, rec, dec)
		if err != nil {
			return nil, err
		}

		summary.add(outcome)

		if r.sink != nil {
			if err := r.sink.Record(rec, dec, outcome.Deleted, outcome.Note); err != nil {
				r.logger.Warn("journal write failed", "key", rec.Key, "error", err)
			}
		}
	}

	return summary, nil
}

// apply acts on a decision. Delete verdicts are suppressed for protected
// titles and in dry-run mode; everything else only logs.
func (r *Runner) apply(ctx context.Context, rec *domain.WatchRecord, dec domain.Decision) (Outcome, error) {
	outcome := Outcome{Record: rec, Decision: dec}

	switch dec.Verdict {
	case domain.VerdictDelete:
		if r.isProtected(rec.Title) {
			outcome.Note = "protected title"
			r.logger.Info("holding protected title", "key", rec.Key, "title", rec.Title, "reason", dec.Reason)
			return outcome, nil
		}
		if r.opts.DryRun {
			outcome.Note = "dry run"
			r.logger.Info("would delete", "key", rec.Key, "title", rec.Title, "reason", dec.Reason)
			return outcome, nil
		}
		if err := r.deleter.DeleteItem(ctx, rec.Key); err != nil {
			return outcome, fmt.Errorf("deleting %s: %w", rec.Key, err)
		}
		outcome.Deleted = true
		r.logger.Info("deleted", "key", rec.Key, "title", rec.Title, "reason", dec.Reason)

	case domain.VerdictDefer:
		r.logger.Info("deferred", "key", rec.Key, "title", rec.Title, "reason", dec.Reason, "eta", dec.ETA)

	case domain.VerdictWarn:
		r.logger.Warn("no action", "key", rec.Key, "title", rec.Title, "reason", dec.Reason)

	default:
		r.logger.Debug("kept", "key", rec.Key, "title", rec.Title, "reason", dec.Reason)
	}

	return outcome, nil
}

// isProtected reports whether the title matches any configured protection
// pattern. Matching is fuzzy and case-insensitive so a pattern like
// "blade runner" covers "Blade Runner 2049".
func (r *Runner) isProtected(title string) bool {
	for _, pattern := range r.opts.Protected {
		if fuzzy.MatchNormalizedFold(pattern, title) {
			return true
		}
	}
	return false
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Decision.Verdict {
	case domain.VerdictDelete:
		if o.Deleted {
			s.Deleted++
		} else {
			s.Held++
		}
	case domain.VerdictDefer:
		s.Deferred++
	case domain.VerdictWarn:
		s.Warned++
	default:
		s.Kept++
	}
}

// sortedRecords returns the table's records in stable key order so runs
// over the same library act and report deterministically.
func sortedRecords(table map[string]*domain.WatchRecord) []*domain.WatchRecord {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	recs := make([]*domain.WatchRecord, 0, len(keys))
	for _, k := range keys {
		recs = append(recs, table[k])
	}
	return recs
}
