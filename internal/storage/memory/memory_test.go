package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

func TestTradeEventStore_RecordAndQuery(t *testing.T) {
	s := NewTradeEventStore()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	events := []*domain.TradeEvent{
		{EventID: "e1", PositionID: "p1", Type: domain.TradeEventEntry, Timestamp: base},
		{EventID: "e2", PositionID: "p1", Type: domain.TradeEventExit, Timestamp: base.Add(time.Hour)},
		{EventID: "e3", PositionID: "p2", Type: domain.TradeEventEntry, Timestamp: base.Add(2 * time.Hour)},
	}
	for _, e := range events {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s) failed: %v", e.EventID, err)
		}
	}

	// Duplicate event id rejected.
	if err := s.Record(ctx, events[0]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("duplicate Record error = %v, want ErrDuplicateKey", err)
	}

	byPos, err := s.GetByPosition(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByPosition failed: %v", err)
	}
	if len(byPos) != 2 || byPos[0].EventID != "e1" || byPos[1].EventID != "e2" {
		t.Errorf("GetByPosition = %v, want [e1 e2] in time order", byPos)
	}

	inRange, err := s.GetByTimeRange(ctx, base.Add(30*time.Minute), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(inRange) != 2 {
		t.Errorf("GetByTimeRange returned %d events, want 2", len(inRange))
	}
}

func TestTradeEventStore_SameInstantLifecycleOrder(t *testing.T) {
	s := NewTradeEventStore()
	ctx := context.Background()
	ts := time.Unix(1_700_000_000, 0)

	// Entry and exit recorded within the same instant; hash-valued event IDs
	// must not decide the order.
	exit := &domain.TradeEvent{EventID: "aaa", PositionID: "p1", Type: domain.TradeEventExit, Timestamp: ts}
	entry := &domain.TradeEvent{EventID: "zzz", PositionID: "p1", Type: domain.TradeEventEntry, Timestamp: ts}
	if err := s.Record(ctx, exit); err != nil {
		t.Fatalf("Record(exit) failed: %v", err)
	}
	if err := s.Record(ctx, entry); err != nil {
		t.Fatalf("Record(entry) failed: %v", err)
	}

	events, err := s.GetByPosition(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByPosition failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("GetByPosition returned %d events, want 2", len(events))
	}
	if events[0].Type != domain.TradeEventEntry || events[1].Type != domain.TradeEventExit {
		t.Errorf("GetByPosition = [%s %s], want entry before exit", events[0].Type, events[1].Type)
	}
}

func TestTradeEventStore_InvalidInput(t *testing.T) {
	s := NewTradeEventStore()
	if err := s.Record(context.Background(), &domain.TradeEvent{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Record with empty id error = %v, want ErrInvalidInput", err)
	}
}

func TestPositionStore_InsertAndQuery(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	p1 := &domain.Position{ID: "p1", Mint: "mintA", Status: domain.PositionClosed, ClosedAt: base.Add(time.Hour)}
	p2 := &domain.Position{ID: "p2", Mint: "mintA", Status: domain.PositionClosed, ClosedAt: base}
	p3 := &domain.Position{ID: "p3", Mint: "mintB", Status: domain.PositionClosed, ClosedAt: base.Add(2 * time.Hour)}
	for _, p := range []*domain.Position{p1, p2, p3} {
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("Insert(%s) failed: %v", p.ID, err)
		}
	}

	if err := s.Insert(ctx, p1); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("duplicate Insert error = %v, want ErrDuplicateKey", err)
	}

	got, err := s.GetByID(ctx, "p2")
	if err != nil || got.ID != "p2" {
		t.Fatalf("GetByID = %v, %v", got, err)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID missing error = %v, want ErrNotFound", err)
	}

	byMint, err := s.GetByMint(ctx, "mintA")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(byMint) != 2 || byMint[0].ID != "p2" {
		t.Errorf("GetByMint = %v, want [p2 p1] in close-time order", byMint)
	}

	all, err := s.GetAll(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("GetAll = %d positions, %v; want 3", len(all), err)
	}
}

func TestPositionStore_CopiesOnReadAndWrite(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()

	p := &domain.Position{ID: "p1", Mint: "mintA", Status: domain.PositionClosed}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the caller's struct after insert must not affect the store.
	p.Mint = "changed"
	got, err := s.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Mint != "mintA" {
		t.Errorf("stored mint = %s, want mintA (store must copy)", got.Mint)
	}

	// Mutating the returned struct must not affect the store either.
	got.Mint = "changed-again"
	again, _ := s.GetByID(ctx, "p1")
	if again.Mint != "mintA" {
		t.Error("store returned a shared pointer")
	}
}

func TestSnapshotStore_InsertAndRange(t *testing.T) {
	s := NewSnapshotStore()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		err := s.Insert(ctx, &domain.MarketSnapshot{
			AvgVolume24hUSD: float64(i),
			CapturedAt:      base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := s.GetByTimeRange(ctx, base.Add(30*time.Minute), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(got))
	}
	if !got[0].CapturedAt.Before(got[1].CapturedAt) {
		t.Error("snapshots not in capture-time order")
	}
}
