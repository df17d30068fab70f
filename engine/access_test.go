package engine_test

import (
	"testing"

	"github.com/pthm/aegis/engine"
)

func TestPrettyString(t *testing.T) {
	t.Run("individual positive rights", func(t *testing.T) {
		cases := map[engine.AccessMask]string{
			engine.CanCreate: "C ",
			engine.CanRead:   "R ",
			engine.CanUpdate: "U ",
			engine.CanDelete: "D ",
		}
		for access, want := range cases {
			if got := engine.PrettyString(access); got != want {
				t.Errorf("PrettyString(%d) = %q, want %q", access, got, want)
			}
		}
	})

	t.Run("combined rights", func(t *testing.T) {
		if got := engine.PrettyString(engine.CanRead | engine.CanUpdate); got != "R U " {
			t.Errorf("got %q, want %q", got, "R U ")
		}
		if got := engine.PrettyString(engine.FullAccess); got != "C R U D " {
			t.Errorf("got %q, want %q", got, "C R U D ")
		}
	})

	t.Run("denial bits", func(t *testing.T) {
		cases := map[engine.AccessMask]string{
			engine.CantCreate: "!C ",
			engine.CantRead:   "!R ",
			engine.CantUpdate: "!U ",
			engine.CantDelete: "!D ",
		}
		for access, want := range cases {
			if got := engine.PrettyString(access); got != want {
				t.Errorf("PrettyString(%d) = %q, want %q", access, got, want)
			}
		}
	})

	t.Run("zero access", func(t *testing.T) {
		if got := engine.PrettyString(0); got != "" {
			t.Errorf("got %q, want empty string", got)
		}
	})
}

func TestEffective(t *testing.T) {
	t.Run("pure positive mask passes through unchanged", func(t *testing.T) {
		if got := engine.Effective(engine.CanRead | engine.CanUpdate); got != engine.CanRead|engine.CanUpdate {
			t.Errorf("got %s, want %s", engine.PrettyString(got), engine.PrettyString(engine.CanRead|engine.CanUpdate))
		}
	})

	t.Run("denial suppresses the matching positive bit", func(t *testing.T) {
		mixed := engine.FullAccess | engine.CantRead
		got := engine.Effective(mixed)
		if got&engine.CanRead != 0 {
			t.Errorf("Effective(%s) still grants CanRead", engine.PrettyString(mixed))
		}
		if got&engine.CanCreate == 0 || got&engine.CanUpdate == 0 || got&engine.CanDelete == 0 {
			t.Errorf("Effective(%s) suppressed more than the denied bit: %s", engine.PrettyString(mixed), engine.PrettyString(got))
		}
	})

	t.Run("denial with no matching positive grant has nothing to suppress", func(t *testing.T) {
		got := engine.Effective(engine.CantRead)
		if got != 0 {
			t.Errorf("got %s, want no access", engine.PrettyString(got))
		}
	})
}

func TestAccessBuilder(t *testing.T) {
	t.Run("overlapping grants of the same right", func(t *testing.T) {
		b := engine.NewAccessBuilderWithAccess("subject", 0)

		b.AddRight('R')
		if b.Record.Access != engine.CanRead {
			t.Fatalf("after first AddRight('R'), access = %s", engine.PrettyString(b.Record.Access))
		}
		b.AddRight('R')
		b.AddRight('R')
		if got := b.RightCount('R'); got != 3 {
			t.Fatalf("RightCount('R') = %d, want 3", got)
		}

		if b.RemoveRight('R') {
			t.Fatalf("RemoveRight('R') reported full removal with 2 references left")
		}
		if b.RemoveRight('R') {
			t.Fatalf("RemoveRight('R') reported full removal with 1 reference left")
		}
		if !b.RemoveRight('R') {
			t.Fatalf("RemoveRight('R') should report full removal on the last reference")
		}
		if b.Record.Access&engine.CanRead != 0 {
			t.Fatalf("CanRead bit still set after every reference removed")
		}
		if b.HasRight('R') {
			t.Fatalf("HasRight('R') still true after every reference removed")
		}
	})

	t.Run("removing a right with no outstanding grants is a no-op", func(t *testing.T) {
		b := engine.NewAccessBuilderWithAccess("subject", 0)
		if b.RemoveRight('R') {
			t.Fatalf("RemoveRight on an ungranted right reported full removal")
		}
	})

	t.Run("unknown right letters are counted but never touch the mask", func(t *testing.T) {
		b := engine.NewAccessBuilderWithAccess("subject", 0)
		b.AddRight('X')
		if b.Record.Access != 0 {
			t.Fatalf("access mask changed for an unknown right: %s", engine.PrettyString(b.Record.Access))
		}
		if !b.HasRight('X') || b.RightCount('X') != 1 {
			t.Fatalf("unknown right was not counted")
		}
	})

	t.Run("default construction grants full access", func(t *testing.T) {
		b := engine.NewAccessBuilder("subject")
		if b.Record.Access != engine.FullAccess {
			t.Fatalf("NewAccessBuilder access = %s, want full access", engine.PrettyString(b.Record.Access))
		}
	})
}
