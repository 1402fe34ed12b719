package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func TestInitIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "init.db"))
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestAddAndGetRelevant(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	facts := []string{
		"the founder prefers terse status updates",
		"the research team is blocked on the vendor API",
		"budget for the research team was raised to 500",
	}
	for _, f := range facts {
		if err := s.Add(ctx, f); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := s.GetRelevant(ctx, "research team budget", 2)
	if err != nil {
		t.Fatalf("GetRelevant: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d: %v", len(got), got)
	}
	for _, r := range got {
		if r == facts[0] {
			t.Errorf("unrelated fact about status updates ranked in top 2: %v", got)
		}
	}
}

func TestGetRelevant_NoMatches(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, "the sky is blue"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.GetRelevant(ctx, "xyzzy nonexistent keyword", 5)
	if err != nil {
		t.Fatalf("GetRelevant: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestGetRelevant_ZeroK(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, "some fact"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.GetRelevant(ctx, "some fact", 0)
	if err != nil {
		t.Fatalf("GetRelevant: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results for k=0, got %v", got)
	}
}

func TestConcurrentAdds_NoBusyError(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	const n = 20
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Add(ctx, "concurrent fact")
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent add failed: %v", err)
		}
	}

	got, err := s.GetRelevant(ctx, "concurrent fact", n)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != n {
		t.Errorf("expected %d facts stored, got %d", n, len(got))
	}
}
