package engine_test

import (
	"encoding/json"
	"fmt"

	"github.com/pthm/aegis/engine"
)

// memStorage is a minimal in-memory engine.Storage double for unit tests:
// membership, permission, and filter blobs are JSON-encoded []engine.Record
// (or a single engine.Record for filters) keyed exactly as production
// storage would key them.
type memStorage struct {
	blobs  map[string]string
	yields int
}

func newMemStorage() *memStorage {
	return &memStorage{blobs: make(map[string]string)}
}

func (m *memStorage) Get(key string) (string, bool, error) {
	blob, ok := m.blobs[key]
	return blob, ok, nil
}

func (m *memStorage) Yield() { m.yields++ }

func (m *memStorage) DecodeRecords(blob string) []engine.Record {
	var records []engine.Record
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		return nil
	}
	out := records[:0]
	for _, r := range records {
		if !r.IsDeleted {
			out = append(out, r)
		}
	}
	return out
}

func (m *memStorage) DecodeFilter(blob string) (engine.Record, bool) {
	if blob == "" {
		return engine.Record{}, false
	}
	var r engine.Record
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return engine.Record{}, false
	}
	return r, !r.IsDeleted
}

// setMembership records that subjectOrObjectID belongs to each of groups,
// each with the given access mask and marker.
func (m *memStorage) setMembership(id string, groups ...engine.Record) {
	m.setRecords(engine.MembershipPrefix+id, groups)
}

// setPermissions records the permission entries attached to groupID: each
// entry grants/denies access to the subject named by its Record.ID.
func (m *memStorage) setPermissions(groupID string, grants ...engine.Record) {
	m.setRecords(engine.PermissionPrefix+groupID, grants)
}

func (m *memStorage) setFilteredPermissions(groupID, filterValue string, grants ...engine.Record) {
	m.setRecords(engine.PermissionPrefix+filterValue+groupID, grants)
}

func (m *memStorage) setFilter(id string, filter engine.Record) {
	data, err := json.Marshal(filter)
	if err != nil {
		panic(err)
	}
	m.blobs[engine.FilterPrefix+id] = string(data)
}

func (m *memStorage) setRecords(key string, records []engine.Record) {
	data, err := json.Marshal(records)
	if err != nil {
		panic(err)
	}
	m.blobs[key] = string(data)
}

func rec(id string, access engine.AccessMask) engine.Record {
	return engine.Record{ID: id, Access: access}
}

func recMarked(id string, access engine.AccessMask, marker engine.Marker) engine.Record {
	return engine.Record{ID: id, Access: access, Marker: marker}
}

func mustAllow(access engine.AccessMask, want engine.AccessMask) error {
	if access != want {
		return fmt.Errorf("got access=%s, want %s", engine.PrettyString(access), engine.PrettyString(want))
	}
	return nil
}
