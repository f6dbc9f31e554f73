package logstore

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestDirStoreRoundTrip(t *testing.T) {
	s := NewDirStore(t.TempDir())
	ctx := context.Background()

	if err := s.Put(ctx, 1, "b.txt", []byte("second")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, 1, "a.txt", []byte("first")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, 2, "other.txt", []byte("elsewhere")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	names, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"a.txt", "b.txt"}; !reflect.DeepEqual(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}

	data, err := s.Fetch(ctx, 1, "a.txt")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("Fetch = %q, want %q", data, "first")
	}

	// Overwrite keeps a single file.
	if err := s.Put(ctx, 1, "a.txt", []byte("replaced")); err != nil {
		t.Fatalf("Put (overwrite): %v", err)
	}
	data, err = s.Fetch(ctx, 1, "a.txt")
	if err != nil {
		t.Fatalf("Fetch after overwrite: %v", err)
	}
	if string(data) != "replaced" {
		t.Errorf("Fetch after overwrite = %q", data)
	}
}

func TestDirStoreListUnknownTournament(t *testing.T) {
	s := NewDirStore(t.TempDir())
	names, err := s.List(context.Background(), 42)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if names != nil {
		t.Errorf("List for unknown tournament = %v, want nil", names)
	}
}

func TestDirStoreFetchMissing(t *testing.T) {
	s := NewDirStore(t.TempDir())
	_, err := s.Fetch(context.Background(), 1, "missing.txt")

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.TournamentID != 1 || notFound.Filename != "missing.txt" {
		t.Errorf("NotFoundError = %+v", notFound)
	}
}

func TestDirStoreRejectsPathEscape(t *testing.T) {
	s := NewDirStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "../escape.txt", "sub/dir.txt"} {
		if err := s.Put(ctx, 1, name, []byte("x")); err == nil {
			t.Errorf("Put(%q) accepted an unsafe filename", name)
		}
		if _, err := s.Fetch(ctx, 1, name); err == nil {
			t.Errorf("Fetch(%q) accepted an unsafe filename", name)
		}
	}
}
