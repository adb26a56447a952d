package engine

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sudorandom/edge-globe/pkg/sources"
	"github.com/sudorandom/edge-globe/pkg/utils"
)

// snapshotKey is the single key the current snapshot lives under.
var snapshotKey = []byte("snapshot/current")

// SnapshotRange is one persisted feed row. The per-range hash lets the
// next session diff feeds without comparing full rows.
type SnapshotRange struct {
	CIDR    string `json:"cidr"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Hash    string `json:"hash"`
}

// Snapshot is the durable record of one feed fetch: the whole-feed
// content hash, the parsed ranges, and when it was taken.
type Snapshot struct {
	Hash      string          `json:"hash"`
	Ranges    []SnapshotRange `json:"ranges"`
	Timestamp int64           `json:"timestamp"` // epoch millis
}

func NewSnapshot(hash string, records []sources.RangeRecord, now time.Time) *Snapshot {
	ranges := make([]SnapshotRange, len(records))
	for i, rec := range records {
		ranges[i] = SnapshotRange{
			CIDR:    rec.CIDR,
			City:    rec.City,
			Country: rec.Country,
			Hash:    rangeHash(rec),
		}
	}
	return &Snapshot{Hash: hash, Ranges: ranges, Timestamp: now.UnixMilli()}
}

func rangeHash(rec sources.RangeRecord) string {
	return utils.ContentHash(rec.CIDR + "-" + rec.City)
}

// Records converts the persisted ranges back to feed records.
func (s *Snapshot) Records() []sources.RangeRecord {
	records := make([]sources.RangeRecord, len(s.Ranges))
	for i, r := range s.Ranges {
		records[i] = sources.RangeRecord{CIDR: r.CIDR, City: r.City, Country: r.Country}
	}
	return records
}

// FreshAt reports whether the snapshot was taken on the same UTC
// calendar day as now. The staleness budget is "less than one day" by
// date boundary, not by elapsed hours, matching the feed's daily
// publishing cadence.
func (s *Snapshot) FreshAt(now time.Time) bool {
	taken := time.UnixMilli(s.Timestamp).UTC()
	return utcDay(taken) == utcDay(now.UTC())
}

func utcDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SnapshotStore persists snapshots in a badger database so a restart
// within the staleness budget skips the network entirely.
type SnapshotStore struct {
	db *badger.DB
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

func (st *SnapshotStore) Close() error {
	return st.db.Close()
}

func (st *SnapshotStore) Save(s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return st.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, data)
	})
}

// Load returns the stored snapshot, or nil when none has been saved.
func (st *SnapshotStore) Load() (*Snapshot, error) {
	var data []byte
	err := st.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
