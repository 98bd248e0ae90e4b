package instance

import (
	"testing"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/paths"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	layout := paths.New(t.TempDir())
	if err := layout.EnsureRootDirs(); err != nil {
		t.Fatal(err)
	}
	return NewStore(layout)
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	inst, err := s.Create("My Instance", "1.20.4", "1.20.4", "vanilla")
	if err != nil {
		t.Fatal(err)
	}
	if inst.State != StateReady {
		t.Fatalf("expected ready state, got %q", inst.State)
	}

	got, err := s.Get(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "My Instance" || got.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestCreateEnforcesNameUniqueness(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Create("Survival", "1.20.4", "1.20.4", "vanilla")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Create("Survival", "1.20.4", "1.20.4", "vanilla")
	if err != nil {
		t.Fatal(err)
	}
	if a.Name == b.Name {
		t.Fatalf("expected unique names, both got %q", a.Name)
	}
	if b.Name != "Survival (2)" {
		t.Fatalf("expected 'Survival (2)', got %q", b.Name)
	}
}

func TestGetUnknownInstanceReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("nonexistent")
	if !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected not_found error, got %v", err)
	}
}

func TestDeleteRemovesInstanceDirectory(t *testing.T) {
	s := newTestStore(t)
	inst, err := s.Create("Temp", "1.20.4", "1.20.4", "vanilla")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(inst.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(inst.ID); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected instance gone, got %v", err)
	}
}

func TestIsOnlyUserOfVersion(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Create("A", "1.20.4", "1.20.4", "vanilla")
	if err != nil {
		t.Fatal(err)
	}
	only, err := s.IsOnlyUserOfVersion(a.Version, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !only {
		t.Fatal("expected sole user when no other instance shares the version")
	}

	b, err := s.Create("B", "1.20.4", "1.20.4", "vanilla")
	if err != nil {
		t.Fatal(err)
	}
	only, err = s.IsOnlyUserOfVersion(a.Version, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if only {
		t.Fatalf("expected shared version after %q also uses it", b.Name)
	}
}

func TestTryLockRejectsConcurrentOperation(t *testing.T) {
	s := newTestStore(t)
	if err := s.TryLock("inst-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.TryLock("inst-1"); !errs.Is(err, errs.Busy) {
		t.Fatalf("expected busy error on second lock, got %v", err)
	}
	s.Unlock("inst-1")
	if err := s.TryLock("inst-1"); err != nil {
		t.Fatalf("expected lock to succeed after unlock, got %v", err)
	}
}

func TestGetRejectsNewerSchemaVersion(t *testing.T) {
	s := newTestStore(t)
	inst, err := s.Create("Future", "1.20.4", "1.20.4", "vanilla")
	if err != nil {
		t.Fatal(err)
	}
	inst.SchemaVersion = CurrentSchemaVersion + 1
	if err := s.persist(inst); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(inst.ID); !errs.Is(err, errs.SchemaTooNew) {
		t.Fatalf("expected schema_too_new error, got %v", err)
	}
}
