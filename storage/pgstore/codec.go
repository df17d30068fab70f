package pgstore

import (
	"sigs.k8s.io/yaml"

	"github.com/pthm/aegis/engine"
)

// decodeRecords parses a membership or permission blob - a YAML (a strict
// JSON superset) array of records - dropping any record marked deleted so
// the engine never has to reason about tombstones.
func decodeRecords(blob string) []engine.Record {
	if blob == "" {
		return nil
	}
	// A malformed blob decodes to nil rather than surfacing an error: the
	// Storage.DecodeRecords signature carries no error return, matching the
	// original, which ignores decode failures the same way.
	var records []engine.Record
	if err := yaml.Unmarshal([]byte(blob), &records); err != nil {
		return nil
	}
	live := records[:0]
	for _, r := range records {
		if !r.IsDeleted {
			live = append(live, r)
		}
	}
	return live
}

// decodeFilter parses a filter blob - a single YAML-encoded record - and
// reports false if the blob is empty or encodes a deleted record.
func decodeFilter(blob string) (engine.Record, bool) {
	if blob == "" {
		return engine.Record{}, false
	}
	var r engine.Record
	if err := yaml.Unmarshal([]byte(blob), &r); err != nil {
		return engine.Record{}, false
	}
	return r, !r.IsDeleted
}
