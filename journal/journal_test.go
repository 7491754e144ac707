// Copyright (c) 2026 BVK Chaitanya

package journal

import (
	"context"
	"testing"
	"time"

	"github.com/bvk/balancebot/gobs"
	"github.com/bvkgo/kv/kvmemdb"
)

func TestJournalFills(t *testing.T) {
	ctx := context.Background()
	jnl := New(kvmemdb.New())

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		fill := &gobs.FillRecord{
			Time:  base.Add(time.Duration(i) * time.Minute),
			Price: 10507,
			Size:  2412677,
			Kind:  "bid",
		}
		if err := jnl.RecordFill(ctx, fill); err != nil {
			t.Fatal(err)
		}
	}

	var times []time.Time
	if err := jnl.ScanFills(ctx, func(v *gobs.FillRecord) error {
		times = append(times, v.Time)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(times) != 5 {
		t.Fatalf("wanted 5 fills, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			t.Fatalf("fills are not in time order: %v", times)
		}
	}

	if n, err := jnl.FillsSince(ctx, base.Add(3*time.Minute)); err != nil {
		t.Fatal(err)
	} else if n != 2 {
		t.Fatalf("wanted 2 fills since cutoff, got %d", n)
	}
}

func TestJournalBrackets(t *testing.T) {
	ctx := context.Background()
	jnl := New(kvmemdb.New())

	if last, err := jnl.LastBracket(ctx); err != nil {
		t.Fatal(err)
	} else if last != nil {
		t.Fatalf("wanted nil last bracket on an empty journal, got %+v", last)
	}

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, center := range []int64{10000, 10507, 9987} {
		bracket := &gobs.BracketRecord{
			Time:      base.Add(time.Duration(i) * time.Hour),
			Center:    center,
			BuyPrice:  center - 500,
			SellPrice: center + 500,
		}
		if err := jnl.RecordBracket(ctx, bracket); err != nil {
			t.Fatal(err)
		}
	}

	last, err := jnl.LastBracket(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Center != 9987 {
		t.Fatalf("wanted the most recent bracket with center 9987, got %+v", last)
	}

	var n int
	if err := jnl.ScanBrackets(ctx, func(v *gobs.BracketRecord) error {
		n++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("wanted 3 brackets, got %d", n)
	}
}
