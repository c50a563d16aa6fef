package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/antoniostano/vidranker/internal/observability"
)

// Store is the capped, most-recent-first content history.
//
// Storage failures never reach callers: reads degrade to an empty list and
// writes are logged and dropped.
type Store struct {
	backend Backend
	limit   int
	logger  *slog.Logger
	metrics *observability.Metrics

	// mu serializes read-modify-write cycles on the single stored list.
	mu       sync.Mutex
	now      func() time.Time
	lastTime time.Time
}

type Options struct {
	Limit   int
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

func NewStore(backend Backend, opts Options) *Store {
	if backend == nil {
		backend = NewInMemoryBackend()
	}
	if opts.Limit <= 0 || opts.Limit > DefaultLimit {
		opts.Limit = DefaultLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		backend: backend,
		limit:   opts.Limit,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Save stamps the draft with an ID and creation time, prepends it and trims
// the list to the limit. The stored record is returned even if persisting fails.
func (s *Store) Save(ctx context.Context, draft Draft) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := Record{
		ID:        newID(),
		Kind:      draft.Kind,
		Title:     draft.Title,
		SEO:       draft.SEO,
		Thumbnail: draft.Thumbnail,
		CreatedAt: s.nextTime(),
	}

	existing, err := s.load(ctx)
	if err != nil {
		// Writing now would replace the stored list with this record alone.
		s.logger.Warn("history save skipped, stored list unreadable", "error", err, "record_id", record.ID)
		s.metrics.ObserveHistoryError("save")
		return record
	}
	updated := make([]Record, 0, len(existing)+1)
	updated = append(updated, record)
	updated = append(updated, existing...)
	if len(updated) > s.limit {
		updated = updated[:s.limit]
	}
	s.persist(ctx, "save", updated)
	return record
}

// List returns all records, most recent first.
func (s *Store) List(ctx context.Context) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, _ := s.load(ctx)
	return records
}

// Get returns the record with the given id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	for _, r := range s.List(ctx) {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// Delete removes the record with the given id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return false
	}
	updated := make([]Record, 0, len(existing))
	for _, r := range existing {
		if r.ID != id {
			updated = append(updated, r)
		}
	}
	if len(updated) == len(existing) {
		return false
	}
	s.persist(ctx, "delete", updated)
	return true
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Remove(ctx); err != nil {
		s.logger.Warn("history clear failed", "error", err, "backend", s.backend.Mode())
		s.metrics.ObserveHistoryError("clear")
		return
	}
	s.metrics.SetHistoryRecords(0)
}

// Search filters by kind (empty matches all) and fuzzy-matches query against
// titles, keeping most-recent-first order.
func (s *Store) Search(ctx context.Context, query string, kind Kind) []Record {
	all := s.List(ctx)
	out := make([]Record, 0, len(all))
	for _, r := range all {
		if kind != "" && r.Kind != kind {
			continue
		}
		if query != "" && !fuzzy.MatchNormalizedFold(query, r.Title) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *Store) Stats(ctx context.Context) Stats {
	var st Stats
	for _, r := range s.List(ctx) {
		st.Total++
		switch r.Kind {
		case KindSEO:
			st.SEO++
		case KindThumbnail:
			st.Thumbnail++
		}
	}
	return st
}

func (s *Store) Mode() string { return s.backend.Mode() }

func (s *Store) Close() error { return s.backend.Close() }

// load reads the stored list. A backend failure is returned so writers can
// back off; undecodable data reads as an empty list.
func (s *Store) load(ctx context.Context) ([]Record, error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Warn("history read failed", "error", err, "backend", s.backend.Mode())
		s.metrics.ObserveHistoryError("read")
		return []Record{}, err
	}
	if len(data) == 0 {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("history data corrupt, treating as empty", "error", err)
		s.metrics.ObserveHistoryError("decode")
		return []Record{}, nil
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (s *Store) persist(ctx context.Context, op string, records []Record) {
	data, err := json.Marshal(records)
	if err == nil {
		err = s.backend.Store(ctx, data)
	}
	if err != nil {
		s.logger.Warn("history write failed", "op", op, "error", err, "backend", s.backend.Mode())
		s.metrics.ObserveHistoryError(op)
		return
	}
	s.metrics.SetHistoryRecords(len(records))
}

// nextTime keeps CreatedAt strictly increasing so list order and creation order agree.
func (s *Store) nextTime() time.Time {
	t := s.now()
	if !t.After(s.lastTime) {
		t = s.lastTime.Add(time.Microsecond)
	}
	s.lastTime = t
	return t
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
