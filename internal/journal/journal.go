// Package journal persists an append-only audit trail of every decision a
// run makes. The journal is write-only from the cleaner's point of view:
// no rule ever reads it back, so decisions stay a function of a single
// run's aggregation.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/EINDEX/plex-cleaner/internal/domain"
)

var bucketRuns = []byte("runs")

// Entry is one journaled decision.
type Entry struct {
	Key     string     `json:"key"`
	Title   string     `json:"title"`
	Kind    string     `json:"kind"`
	Verdict string     `json:"verdict"`
	Reason  string     `json:"reason"`
	ETA     *time.Time `json:"eta,omitempty"`
	Deleted bool       `json:"deleted"`
	Note    string     `json:"note,omitempty"`
	At      time.Time  `json:"at"`
}

// Journal implements cleaner.DecisionSink on top of BoltDB. Each run
// writes into its own nested bucket named by the run's start time.
type Journal struct {
	db  *bolt.DB
	run []byte
}

// Open opens (or creates) the journal database at path and starts a new
// run bucket.
func Open(path string, startedAt time.Time) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal db: %w", err)
	}

	run := []byte(startedAt.UTC().Format(time.RFC3339))
	err = db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(bucketRuns)
		if err != nil {
			return err
		}
		_, err = root.CreateBucketIfNotExists(run)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db, run: run}, nil
}

// Record journals one decision under the current run.
func (j *Journal) Record(rec *domain.WatchRecord, dec domain.Decision, deleted bool, note string) error {
	entry := Entry{
		Key:     rec.Key,
		Title:   rec.Title,
		Kind:    rec.Kind.String(),
		Verdict: dec.Verdict.String(),
		Reason:  dec.Reason,
		ETA:     dec.ETA,
		Deleted: deleted,
		Note:    note,
		At:      time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		run := tx.Bucket(bucketRuns).Bucket(j.run)
		if run == nil {
			return fmt.Errorf("run bucket %s missing", j.run)
		}
		return run.Put([]byte(rec.Key), data)
	})
}

// Runs lists every recorded run start time, oldest first.
func (j *Journal) Runs() ([]string, error) {
	var runs []string
	err := j.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketRuns)
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(name []byte) error {
			runs = append(runs, string(name))
			return nil
		})
	})
	return runs, err
}

// Entries returns every journaled decision of the given run.
func (j *Journal) Entries(run string) ([]Entry, error) {
	var entries []Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketRuns)
		if root == nil {
			return nil
		}
		b := root.Bucket([]byte(run))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	return entries, err
}

func (j *Journal) Close() error {
	return j.db.Close()
}
