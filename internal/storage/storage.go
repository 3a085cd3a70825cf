package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/eugenenazirov/settingsd/internal/binding"
	"github.com/eugenenazirov/settingsd/internal/schema"
)

var (
	// ErrInvalidSettings indicates options or bindings that violate the schema or binding syntax.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrUnknownOption indicates a path the schema does not define.
	ErrUnknownOption = errors.New("unknown option")
)

// Snapshot is a consistent, caller-owned view of the live settings.
type Snapshot struct {
	Revision  string
	UpdatedAt time.Time
	// Options holds the effective value of every option: the configured
	// value when there is one, the default otherwise.
	Options map[string]any
	// Configured holds only the values set by a document or at runtime.
	Configured map[string]any
	Bindings   map[string]string
}

// BindingEntries returns the bindings ordered by trigger.
func (s Snapshot) BindingEntries() []binding.Entry {
	return binding.SortedEntries(s.Bindings)
}

// Storage provides access to the settings the host runs with.
type Storage interface {
	Snapshot() Snapshot
	Apply(options map[string]any, bindings map[string]string) (Snapshot, error)
	Set(path string, value any) (Snapshot, error)
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStorage keeps settings in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	schema *schema.Schema
	now    func() time.Time

	mu         sync.RWMutex
	configured map[string]any
	bindings   map[string]string
	revision   string
	updatedAt  time.Time
}

// NewMemoryStorage initialises storage with the schema defaults and no bindings.
func NewMemoryStorage(s *schema.Schema, opts ...Option) *MemoryStorage {
	store := &MemoryStorage{
		schema:     s,
		now:        time.Now,
		configured: map[string]any{},
		bindings:   map[string]string{},
	}
	for _, opt := range opts {
		opt(store)
	}
	store.revision = uuid.NewString()
	store.updatedAt = store.now().UTC()
	return store
}

// Snapshot returns a defensive copy of the current settings.
func (s *MemoryStorage) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

// Apply validates and installs a complete set of configured options and
// bindings, replacing the previous ones. Nothing is changed if any entry is
// invalid.
func (s *MemoryStorage) Apply(options map[string]any, bindings map[string]string) (Snapshot, error) {
	configured := make(map[string]any, len(options))
	var errs error
	for path, value := range options {
		coerced, err := s.coerce(path, value)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		configured[path] = coerced
	}

	table := binding.NewTable()
	for trigger, command := range bindings {
		if _, err := table.Bind(trigger, command); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("binding %q: %w", trigger, err))
		}
	}
	if errs != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSettings, errs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configured = configured
	s.bindings = table.Map()
	s.bumpLocked()
	return s.snapshotLocked(), nil
}

// Set validates and stores a single option value.
func (s *MemoryStorage) Set(path string, value any) (Snapshot, error) {
	coerced, err := s.coerce(path, value)
	if err != nil {
		if errors.Is(err, ErrUnknownOption) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configured[path] = coerced
	s.bumpLocked()
	return s.snapshotLocked(), nil
}

func (s *MemoryStorage) coerce(path string, value any) (any, error) {
	opt, ok := s.schema.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, path)
	}
	coerced, err := opt.Coerce(value)
	if err != nil {
		return nil, fmt.Errorf("option %q: %w", path, err)
	}
	return coerced, nil
}

func (s *MemoryStorage) bumpLocked() {
	s.revision = uuid.NewString()
	s.updatedAt = s.now().UTC()
}

func (s *MemoryStorage) snapshotLocked() Snapshot {
	effective := make(map[string]any, s.schema.Len())
	for _, opt := range s.schema.Options() {
		effective[opt.Path] = schema.Clone(opt.Default)
	}
	configured := make(map[string]any, len(s.configured))
	for path, value := range s.configured {
		effective[path] = schema.Clone(value)
		configured[path] = schema.Clone(value)
	}
	bindings := make(map[string]string, len(s.bindings))
	for trigger, command := range s.bindings {
		bindings[trigger] = command
	}

	return Snapshot{
		Revision:   s.revision,
		UpdatedAt:  s.updatedAt,
		Options:    effective,
		Configured: configured,
		Bindings:   bindings,
	}
}
