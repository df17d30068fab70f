// Package memstore implements engine.Storage entirely in memory, loaded
// from a YAML fixture file keyed exactly as the storage port describes:
// a top-level mapping from "M<id>"/"P<id>"/"P<filter><id>"/"F<id>" keys to
// either a list of records (membership, permission) or a single record
// (filter). It backs local experimentation, CI, and the CLI's --memstore
// flag where a PostgreSQL instance isn't available.
package memstore

import (
	"fmt"
	"os"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/pthm/aegis/engine"
)

// fixture is the on-disk shape of a memstore YAML file: a flat map from
// storage key to either a record list or, for filter keys, a single
// record. Both are decoded into records at load time; DecodeRecords/
// DecodeFilter then apply the same tombstone-filtering rule pgstore's codec
// does.
type fixture map[string]rawEntry

type rawEntry struct {
	Records []engine.Record
	Filter  *engine.Record
}

func (r *rawEntry) UnmarshalJSON(data []byte) error {
	var list []engine.Record
	if err := yaml.Unmarshal(data, &list); err == nil {
		r.Records = list
		return nil
	}
	var single engine.Record
	if err := yaml.Unmarshal(data, &single); err != nil {
		return err
	}
	r.Filter = &single
	return nil
}

// Store is a thread-safe, in-memory engine.Storage backed by a fixed set
// of blobs. Unlike pgstore, it never errors on Get: a fixture either has a
// key or it doesn't.
type Store struct {
	mu      sync.RWMutex
	blobs   map[string][]engine.Record
	filters map[string]engine.Record
}

// New returns an empty Store; use Set/SetFilter to seed it directly, or
// Load to populate it from a fixture file.
func New() *Store {
	return &Store{blobs: make(map[string][]engine.Record), filters: make(map[string]engine.Record)}
}

// Load reads a YAML fixture file and returns a Store seeded from it.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memstore: reading fixture %s: %w", path, err)
	}

	var raw fixture
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("memstore: parsing fixture %s: %w", path, err)
	}

	s := New()
	for key, entry := range raw {
		switch {
		case entry.Filter != nil:
			s.filters[key] = *entry.Filter
		default:
			s.blobs[key] = entry.Records
		}
	}
	return s, nil
}

// Set records groups (memberships or permissions) directly under key,
// bypassing the YAML round trip. Useful for building fixtures in Go code.
func (s *Store) Set(key string, records []engine.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = records
}

// SetFilter records a filter entry directly under key.
func (s *Store) SetFilter(key string, filter engine.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[key] = filter
}

// Get implements engine.Storage. memstore never fails a Get; a key either
// resolves to a blob or it doesn't.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.blobs[key]; ok {
		return key, true, nil
	}
	if _, ok := s.filters[key]; ok {
		return key, true, nil
	}
	return "", false, nil
}

// Yield is a no-op: an in-memory lookup has nothing to cooperatively yield
// to.
func (s *Store) Yield() {}

// DecodeRecords implements engine.Storage. blob is the key Get returned it
// under, so this is a second map lookup rather than a real parse - the
// decode step exists to satisfy the Storage contract uniformly with
// byte-backed implementations like pgstore.
func (s *Store) DecodeRecords(blob string) []engine.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// A blob with no matching entry decodes to nil rather than surfacing an
	// error, for the same reason pgstore's decodeRecords does: the
	// Storage.DecodeRecords signature carries no error return.
	records, ok := s.blobs[blob]
	if !ok {
		return nil
	}
	live := make([]engine.Record, 0, len(records))
	for _, r := range records {
		if !r.IsDeleted {
			live = append(live, r)
		}
	}
	return live
}

// DecodeFilter implements engine.Storage.
func (s *Store) DecodeFilter(blob string) (engine.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.filters[blob]
	if !ok || f.IsDeleted {
		return engine.Record{}, false
	}
	return f, true
}
