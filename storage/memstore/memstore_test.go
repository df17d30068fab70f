package memstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/aegis/engine"
	"github.com/pthm/aegis/storage/memstore"
)

func TestStoreSetAndGet(t *testing.T) {
	s := memstore.New()
	s.Set("Mdoc:1", []engine.Record{{ID: "grp:editors", Access: engine.FullAccess}})

	blob, ok, err := s.Get("Mdoc:1")
	require.NoError(t, err)
	require.True(t, ok)

	records := s.DecodeRecords(blob)
	require.Len(t, records, 1)
	assert.Equal(t, "grp:editors", records[0].ID)
}

func TestStoreMissingKey(t *testing.T) {
	s := memstore.New()
	_, ok, err := s.Get("Mdoc:unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreFiltersDeletedRecords(t *testing.T) {
	s := memstore.New()
	s.Set("Pdoc:1", []engine.Record{
		{ID: "user:alice", Access: engine.CanRead},
		{ID: "user:bob", Access: engine.CanRead, IsDeleted: true},
	})

	blob, ok, err := s.Get("Pdoc:1")
	require.NoError(t, err)
	require.True(t, ok)

	records := s.DecodeRecords(blob)
	require.Len(t, records, 1)
	assert.Equal(t, "user:alice", records[0].ID)
}

func TestStoreFilterEntry(t *testing.T) {
	s := memstore.New()
	s.SetFilter("Fdoc:1", engine.Record{ID: "flt:us", Access: engine.CanRead})

	blob, ok, err := s.Get("Fdoc:1")
	require.NoError(t, err)
	require.True(t, ok)

	f, found := s.DecodeFilter(blob)
	require.True(t, found)
	assert.Equal(t, "flt:us", f.ID)
}

func TestStoreDeletedFilterIsAbsent(t *testing.T) {
	s := memstore.New()
	s.SetFilter("Fdoc:1", engine.Record{ID: "flt:us", IsDeleted: true})

	blob, _, _ := s.Get("Fdoc:1")
	_, found := s.DecodeFilter(blob)
	assert.False(t, found)
}

func TestLoadFixtureFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	contents := `
Mdoc:1:
  - id: grp:editors
    access: 15
Pgrp:editors:
  - id: user:alice
    access: 2
Fdoc:1:
  id: flt:us
  access: 2
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	s, err := memstore.Load(path)
	require.NoError(t, err)

	blob, ok, err := s.Get("Mdoc:1")
	require.NoError(t, err)
	require.True(t, ok)
	records := s.DecodeRecords(blob)
	require.Len(t, records, 1)
	assert.Equal(t, "grp:editors", records[0].ID)

	fblob, ok, err := s.Get("Fdoc:1")
	require.NoError(t, err)
	require.True(t, ok)
	f, found := s.DecodeFilter(fblob)
	require.True(t, found)
	assert.Equal(t, "flt:us", f.ID)
}

func TestAuthorizeAgainstMemstoreFixture(t *testing.T) {
	s := memstore.New()
	s.Set("Mdoc:1", []engine.Record{{ID: "grp:editors", Access: engine.FullAccess}})
	s.Set("Pgrp:editors", []engine.Record{{ID: "user:alice", Access: engine.CanRead}})

	got, err := engine.Authorize(s, "doc:1", "user:alice", engine.CanRead, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.CanRead, got)
}
