// Package dataset holds the working set of purchase records and swaps it
// wholesale when a new source file is loaded.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/emplacamentos/pkg/catalog"
	"github.com/hazyhaar/emplacamentos/pkg/client"
	"github.com/hazyhaar/emplacamentos/pkg/record"
	"github.com/hazyhaar/emplacamentos/pkg/sheet"
)

// ErrNoDataset is returned when no source has been loaded successfully.
var ErrNoDataset = errors.New("no dataset available")

// Source identifies the file a snapshot was built from.
type Source struct {
	Path     string `json:"path,omitempty"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Identity is the string compared to decide whether a source changed.
func (s Source) Identity() string {
	return fmt.Sprintf("%s:%d:%s", s.Name, s.Size, s.Checksum)
}

// Snapshot is an immutable, fully normalized dataset.
type Snapshot struct {
	ID       uuid.UUID
	Source   Source
	LoadedAt time.Time
	Records  []record.Record
	Stats    record.Stats
	Index    *client.Index
}

// Filtered returns the records that pass f.
func (s *Snapshot) Filtered(f record.Filter) []record.Record {
	return f.Apply(s.Records)
}

// Recorder persists the outcome of each load.
type Recorder interface {
	RecordLoad(catalog.Entry) error
	RecordFailure(path, name string, err error) error
}

// Store holds the current snapshot. Readers get the snapshot pointer and never
// observe a partially loaded dataset.
type Store struct {
	mu     sync.RWMutex
	snap   *Snapshot
	schema *record.Schema
	logger *slog.Logger
	rec    Recorder
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder records every load outcome in r.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.rec = r }
}

// WithClock overrides the time source used for LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store. A nil schema means record.DefaultSchema.
func NewStore(schema *record.Schema, logger *slog.Logger, opts ...Option) *Store {
	if schema == nil {
		schema = record.DefaultSchema()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{schema: schema, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the loaded snapshot or ErrNoDataset.
func (s *Store) Current() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNoDataset
	}
	return s.snap, nil
}

// Clear drops the current snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}

// LoadFile loads path unless the current snapshot already came from a file
// with the same identity. changed reports whether a new snapshot was built.
func (s *Store) LoadFile(path string, force bool) (snap *Snapshot, changed bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("load %s: %w", path, err)
		s.fail(path, filepath.Base(path), err)
		return nil, false, err
	}
	src := newSource(path, filepath.Base(path), data)

	if !force {
		if cur, _ := s.Current(); cur != nil && cur.Source.Identity() == src.Identity() {
			return cur, false, nil
		}
	}
	snap, err = s.load(src, data)
	return snap, err == nil, err
}

// LoadBytes builds a snapshot from an uploaded file. name selects the parser.
func (s *Store) LoadBytes(name string, data []byte) (*Snapshot, error) {
	return s.load(newSource("", name, data), data)
}

func newSource(path, name string, data []byte) Source {
	sum := sha256.Sum256(data)
	return Source{Path: path, Name: name, Size: int64(len(data)), Checksum: hex.EncodeToString(sum[:])}
}

// load parses and swaps in a new snapshot. On any failure the current
// snapshot is dropped.
func (s *Store) load(src Source, data []byte) (*Snapshot, error) {
	table, err := sheet.Read(src.Name, bytes.NewReader(data), s.schema.Format)
	if err == nil {
		var res *record.Result
		res, err = record.Normalize(table, s.schema)
		if err == nil {
			return s.swap(src, res), nil
		}
	}
	err = fmt.Errorf("load %s: %w", src.Name, err)
	s.fail(src.Path, src.Name, err)
	return nil, err
}

func (s *Store) swap(src Source, res *record.Result) *Snapshot {
	snap := &Snapshot{
		ID:       uuid.New(),
		Source:   src,
		LoadedAt: s.now(),
		Records:  res.Records,
		Stats:    res.Stats,
		Index:    client.NewIndex(res.Records),
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		"source", src.Name,
		"snapshot", snap.ID.String(),
		"records", res.Stats.Valid,
		"dropped", res.Stats.Dropped(),
		"clients", snap.Index.Len(),
	)
	if s.rec != nil {
		id := snap.ID.String()
		if err := s.rec.RecordLoad(catalog.Entry{
			Path:        catalogKey(src.Path, src.Name),
			Name:        src.Name,
			Size:        src.Size,
			Checksum:    src.Checksum,
			SnapshotID:  &id,
			ValidRows:   res.Stats.Valid,
			DroppedRows: res.Stats.Dropped(),
		}); err != nil {
			s.logger.Warn("catalog update failed", "source", src.Name, "error", err)
		}
	}
	return snap
}

func (s *Store) fail(path, name string, err error) {
	s.Clear()
	s.logger.Error("dataset load failed", "source", name, "error", err)
	if s.rec != nil {
		if rerr := s.rec.RecordFailure(catalogKey(path, name), name, err); rerr != nil {
			s.logger.Warn("catalog update failed", "source", name, "error", rerr)
		}
	}
}

// catalogKey keys uploads, which have no path, by their file name.
func catalogKey(path, name string) string {
	if path != "" {
		return path
	}
	return "upload:" + name
}
