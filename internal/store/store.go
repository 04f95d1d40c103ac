// Package store holds the in-memory collection of uploads for a session.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sheet-dashboard/backend/internal/models"
)

// EventType names a store mutation.
type EventType string

const (
	EventUploadCreated EventType = "upload:created"
	EventChartAppended EventType = "chart:appended"
)

// Event is published to observers after every mutation.
type Event struct {
	Type     EventType `json:"type"`
	UploadID string    `json:"uploadId"`
	ChartID  string    `json:"chartId,omitempty"`
	At       time.Time `json:"at"`
}

// Store is the single source of truth for uploads and their charts.
// Uploads are kept most-recent-first; charts only ever grow.
type Store struct {
	mu        sync.RWMutex
	uploads   []*models.Upload
	byID      map[string]*models.Upload
	observers map[int]chan Event
	nextObs   int
	closed    bool

	now   func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the identifier source for uploads and charts.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:      make(map[string]*models.Upload),
		observers: make(map[int]chan Event),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUpload adds a new upload in front of the collection and returns a snapshot of it.
func (s *Store) CreateUpload(filename string, rows []models.Row, columns []string) *models.Upload {
	u := &models.Upload{
		ID:         s.newID(),
		Filename:   filename,
		Rows:       rows,
		Columns:    append([]string(nil), columns...),
		UploadedAt: s.now(),
		Charts:     []models.Chart{},
	}

	s.mu.Lock()
	s.uploads = append([]*models.Upload{u}, s.uploads...)
	s.byID[u.ID] = u
	snap := snapshot(u)
	s.mu.Unlock()

	s.publish(Event{Type: EventUploadCreated, UploadID: u.ID, At: u.UploadedAt})
	return snap
}

// AppendChart attaches a freshly identified chart to the upload. It reports
// false and changes nothing when the id is unknown or either axis is not a
// column of the upload.
func (s *Store) AppendChart(uploadID string, cfg models.ChartConfig) (*models.Chart, bool) {
	s.mu.Lock()
	u, ok := s.byID[uploadID]
	if !ok || !u.HasColumn(cfg.XField) || !u.HasColumn(cfg.YField) {
		s.mu.Unlock()
		return nil, false
	}
	c := models.Chart{
		ID:        s.newID(),
		Kind:      cfg.Kind,
		XField:    cfg.XField,
		YField:    cfg.YField,
		Config:    cfg,
		CreatedAt: s.now(),
	}
	u.Charts = append(u.Charts, c)
	s.mu.Unlock()

	s.publish(Event{Type: EventChartAppended, UploadID: uploadID, ChartID: c.ID, At: c.CreatedAt})
	return &c, true
}

// GetUpload looks up an upload by id.
func (s *Store) GetUpload(id string) (*models.Upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return snapshot(u), true
}

// GetChart looks up one chart of an upload.
func (s *Store) GetChart(uploadID, chartID string) (*models.Chart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[uploadID]
	if !ok {
		return nil, false
	}
	for i := range u.Charts {
		if u.Charts[i].ID == chartID {
			c := u.Charts[i]
			return &c, true
		}
	}
	return nil, false
}

// ListUploads returns every upload, most recent first.
func (s *Store) ListUploads() []*models.Upload {
	return s.Recent(-1)
}

// Recent returns at most n uploads, most recent first. n < 0 means all.
func (s *Store) Recent(n int) []*models.Upload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n < 0 || n > len(s.uploads) {
		n = len(s.uploads)
	}
	list := make([]*models.Upload, 0, n)
	for _, u := range s.uploads[:n] {
		list = append(list, snapshot(u))
	}
	return list
}

// Stats totals files, charts and rows across the collection.
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := models.Stats{TotalFiles: len(s.uploads)}
	for _, u := range s.uploads {
		st.TotalCharts += len(u.Charts)
		st.TotalRows += len(u.Rows)
	}
	return st
}

// Len returns the number of uploads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uploads)
}

// Subscribe registers an observer. The returned func unsubscribes it.
// Slow observers miss events rather than block writers.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextObs
	s.nextObs++
	s.observers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			if c, ok := s.observers[id]; ok {
				delete(s.observers, id)
				close(c)
			}
			s.mu.Unlock()
		})
	}
}

// Close discards every upload and disconnects all observers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads = nil
	s.byID = make(map[string]*models.Upload)
	for id, ch := range s.observers {
		close(ch)
		delete(s.observers, id)
	}
	s.closed = true
}

func (s *Store) publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.observers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// snapshot copies the mutable parts of u so callers cannot reorder or
// shrink its charts. Rows are immutable after creation and are shared.
func snapshot(u *models.Upload) *models.Upload {
	cp := *u
	cp.Columns = append([]string(nil), u.Columns...)
	cp.Charts = append([]models.Chart{}, u.Charts...)
	return &cp
}
