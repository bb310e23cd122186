package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"jalaliflow/internal/config"
	"jalaliflow/internal/jalali"
	"jalaliflow/internal/model"
)

// FileStore keeps events in a single YAML file. Every call re-reads the
// file so several processes can share it for light use; writes go through
// a temp file and rename.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

type fileDoc struct {
	Events []model.RecurringEvent `yaml:"events"`
}

// NewFileStore returns a store backed by path. The file is created on the
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) load() (*fileDoc, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &fileDoc{}, nil
		}
		return nil, err
	}
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", s.path, err)
	}
	return &doc, nil
}

func (s *FileStore) save(doc *fileDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return config.WriteFileAtomic(s.path, data, ".jalaliflow-events-*.tmp")
}

func (s *FileStore) Create(_ context.Context, e *model.RecurringEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	for _, ex := range doc.Events {
		if ex.ID == e.ID {
			return fmt.Errorf("store: duplicate event id %s", e.ID)
		}
	}
	now := s.now().UTC().Truncate(time.Second)
	e.CreatedAt, e.UpdatedAt = now, now
	doc.Events = append(doc.Events, *e)
	return s.save(doc)
}

func (s *FileStore) Get(_ context.Context, id string) (*model.RecurringEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Events {
		if doc.Events[i].ID == id {
			e := doc.Events[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) List(_ context.Context) ([]model.RecurringEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	sortEvents(doc.Events)
	return doc.Events, nil
}

func (s *FileStore) Due(ctx context.Context, today string) ([]model.RecurringEvent, error) {
	if _, err := jalali.Parse(today); err != nil {
		return nil, err
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.RecurringEvent
	for _, e := range all {
		if e.NextRun <= today {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *FileStore) UpdateNextRun(_ context.Context, id, nextRun string) error {
	if _, err := jalali.Parse(nextRun); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Events {
		if doc.Events[i].ID == id {
			doc.Events[i].NextRun = nextRun
			doc.Events[i].UpdatedAt = s.now().UTC().Truncate(time.Second)
			return s.save(doc)
		}
	}
	return ErrNotFound
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Events {
		if doc.Events[i].ID == id {
			doc.Events = append(doc.Events[:i], doc.Events[i+1:]...)
			return s.save(doc)
		}
	}
	return ErrNotFound
}

func (s *FileStore) Close() error { return nil }
