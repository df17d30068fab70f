package engine_test

import (
	"testing"

	"github.com/pthm/aegis/engine"
)

func TestAuthorizeDirectPermission(t *testing.T) {
	storage := newMemStorage()
	storage.setPermissions("doc:1", rec("user:alice", engine.CanRead))

	got, err := engine.Authorize(storage, "doc:1", "user:alice", engine.CanRead, nil)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if err := mustAllow(got, engine.CanRead); err != nil {
		t.Fatal(err)
	}
}

func TestAuthorizeViaGroupMembership(t *testing.T) {
	storage := newMemStorage()
	storage.setMembership("doc:2", rec("grp:editors", engine.FullAccess))
	storage.setPermissions("grp:editors", rec("user:alice", engine.CanUpdate))

	got, err := engine.Authorize(storage, "doc:2", "user:alice", engine.CanUpdate, nil)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if err := mustAllow(got, engine.CanUpdate); err != nil {
		t.Fatal(err)
	}
}

func TestAuthorizeViaUniversalGroup(t *testing.T) {
	storage := newMemStorage()
	storage.setPermissions(engine.UniversalGroup, rec("user:alice", engine.CanRead))

	got, err := engine.Authorize(storage, "doc:anything", "user:alice", engine.CanRead, nil)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if err := mustAllow(got, engine.CanRead); err != nil {
		t.Fatal(err)
	}
}

func TestAuthorizeDenialOverridesGroupGrant(t *testing.T) {
	storage := newMemStorage()
	storage.setMembership("doc:5", rec("grp:writers", engine.FullAccess))
	// alice is granted read and update but update is simultaneously denied;
	// Effective() must fold the denial out before it can satisfy a request.
	storage.setPermissions("grp:writers", rec("user:alice", engine.CanRead|engine.CanUpdate|engine.CantUpdate))

	got, err := engine.Authorize(storage, "doc:5", "user:alice", engine.CanRead|engine.CanUpdate, nil)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if err := mustAllow(got, engine.CanRead); err != nil {
		t.Fatal(err)
	}
}

func TestAuthorizeSubjectClosureCycleTerminates(t *testing.T) {
	storage := newMemStorage()
	storage.setMembership("user:carol", rec("grp:a", engine.FullAccess))
	storage.setMembership("grp:a", rec("grp:b", engine.FullAccess))
	storage.setMembership("grp:b", rec("grp:a", engine.FullAccess))
	// doc:6 has no membership and nobody has granted carol anything.

	got, err := engine.Authorize(storage, "doc:6", "user:carol", engine.CanRead, nil)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if got != 0 {
		t.Fatalf("got access=%s on an ungranted object, want none", engine.PrettyString(got))
	}
}

func TestAuthorizeExclusiveRestrictionNeedsObjectSideConfirmation(t *testing.T) {
	storage := newMemStorage()
	// bob's membership reaches an exclusive-marked group, which requires the
	// object side to confirm the restriction before any grant stands.
	storage.setMembership("user:bob", recMarked("grp:restricted", engine.FullAccess, engine.MarkerExclusive))
	storage.setPermissions("doc:3", rec("user:bob", engine.CanRead))
	// doc:3 has no membership of its own, so the object traversal's
	// top-level "no membership" branch confirms the restriction.

	got, err := engine.Authorize(storage, "doc:3", "user:bob", engine.CanRead, nil)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if err := mustAllow(got, engine.CanRead); err != nil {
		t.Fatal(err)
	}
}

func TestAuthorizeFilterFallbackPass(t *testing.T) {
	storage := newMemStorage()
	storage.setMembership("doc:4", rec("grp:viewers", engine.FullAccess))
	storage.setFilter("doc:4", rec("flt:us", engine.FullAccess))
	// No unfiltered permission exists on grp:viewers; only the filter-tagged
	// entry grants alice anything, so the first (filtered-request) pass must
	// fail and the second (filter-tagged-lookup) pass must succeed.
	storage.setFilteredPermissions("grp:viewers", "flt:us", rec("user:alice", engine.CanRead))

	got, err := engine.Authorize(storage, "doc:4", "user:alice", engine.CanRead, nil)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if err := mustAllow(got, engine.CanRead); err != nil {
		t.Fatal(err)
	}
}

func TestAuthorizeDeniesWithoutAnyGrant(t *testing.T) {
	storage := newMemStorage()

	got, err := engine.Authorize(storage, "doc:unknown", "user:nobody", engine.CanRead, nil)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if got != 0 {
		t.Fatalf("got access=%s, want none", engine.PrettyString(got))
	}
}

func TestTraceAuthorizeCollectsDiagnostics(t *testing.T) {
	storage := newMemStorage()
	storage.setMembership("doc:2", rec("grp:editors", engine.FullAccess))
	storage.setPermissions("grp:editors", rec("user:alice", engine.CanUpdate))

	got, trace, err := engine.TraceAuthorize(storage, "doc:2", "user:alice", engine.CanUpdate)
	if err != nil {
		t.Fatalf("TraceAuthorize returned error: %v", err)
	}
	if err := mustAllow(got, engine.CanUpdate); err != nil {
		t.Fatal(err)
	}
	if trace.Info.Len() == 0 {
		t.Errorf("expected the info channel to collect narration")
	}
	if trace.Group.Len() == 0 {
		t.Errorf("expected the group channel to collect visited groups")
	}
	if trace.ACL.Len() == 0 {
		t.Errorf("expected the acl channel to collect the contributing permission")
	}
}
