package actions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/churnwatch/backend/internal/engine"
	"github.com/churnwatch/backend/internal/models"
)

var catalog = []models.RetentionAction{
	{ID: "fee-waiver-6mo", Name: "Fee waiver (6 months)"},
	{ID: "personal-callback", Name: "Personal callback"},
}

func TestApplyIsIdempotent(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	first, err := s.Apply(ctx, "c1", "fee-waiver-6mo", catalog)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	second, err := s.Apply(ctx, "c1", "fee-waiver-6mo", catalog)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if first != second {
		t.Fatalf("repeat apply changed the record: %+v vs %+v", first, second)
	}
	if first.ID == "" || first.AppliedAt.IsZero() {
		t.Fatalf("applied record missing id or timestamp: %+v", first)
	}
}

func TestApplyRejectsUnknownAction(t *testing.T) {
	s := New(nil)

	_, err := s.Apply(context.Background(), "c1", "yacht-giveaway", catalog)
	if !errors.Is(err, engine.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if _, ok := s.Get("c1", "yacht-giveaway"); ok {
		t.Fatal("rejected apply must not be stored")
	}
}

func TestApplyConcurrentWritersProduceOneRecord(t *testing.T) {
	var persisted int64
	s := New(func(ctx context.Context, a models.AppliedAction) error {
		atomic.AddInt64(&persisted, 1)
		return nil
	})

	const writers = 16
	results := make([]models.AppliedAction, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			applied, err := s.Apply(context.Background(), "c1", "personal-callback", catalog)
			if err != nil {
				t.Errorf("writer %d: %v", i, err)
				return
			}
			results[i] = applied
		}(i)
	}
	wg.Wait()

	for i := 1; i < writers; i++ {
		if results[i] != results[0] {
			t.Fatalf("writers saw different records: %+v vs %+v", results[0], results[i])
		}
	}
	if persisted != 1 {
		t.Fatalf("expected exactly one persist call, got %d", persisted)
	}
}

func TestApplyPersistFailureLeavesKeyUnapplied(t *testing.T) {
	persistErr := errors.New("connection reset")
	s := New(func(ctx context.Context, a models.AppliedAction) error {
		return persistErr
	})

	if _, err := s.Apply(context.Background(), "c1", "fee-waiver-6mo", catalog); !errors.Is(err, persistErr) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if _, ok := s.Get("c1", "fee-waiver-6mo"); ok {
		t.Fatal("failed persist must leave the key unapplied")
	}
}

func TestSeedAndListForCustomer(t *testing.T) {
	s := New(nil)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.Seed([]models.AppliedAction{
		{ID: "a2", CustomerID: "c1", ActionID: "personal-callback", AppliedAt: base.Add(time.Hour)},
		{ID: "a1", CustomerID: "c1", ActionID: "fee-waiver-6mo", AppliedAt: base},
		{ID: "a3", CustomerID: "c2", ActionID: "fee-waiver-6mo", AppliedAt: base},
	})

	got := s.ListForCustomer("c1")
	if len(got) != 2 {
		t.Fatalf("expected 2 applies for c1, got %d", len(got))
	}
	if got[0].ID != "a1" || got[1].ID != "a2" {
		t.Fatalf("applies not in apply order: %+v", got)
	}

	if applied, ok := s.Get("c2", "fee-waiver-6mo"); !ok || applied.ID != "a3" {
		t.Fatalf("seeded record not retrievable: %+v ok=%v", applied, ok)
	}
}

func TestClearDropsApplies(t *testing.T) {
	s := New(nil)
	if _, err := s.Apply(context.Background(), "c1", "fee-waiver-6mo", catalog); err != nil {
		t.Fatalf("apply: %v", err)
	}
	s.Clear()
	if _, ok := s.Get("c1", "fee-waiver-6mo"); ok {
		t.Fatal("Clear left a record behind")
	}
}
