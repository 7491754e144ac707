// Copyright (c) 2026 BVK Chaitanya

package ctxutil

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestCloseGroup(t *testing.T) {
	var cg CloseGroup

	var done atomic.Int32
	for i := 0; i < 50; i++ {
		cg.Go(func(ctx context.Context) {
			<-ctx.Done()
			done.Add(1)
		})
	}

	cg.Close()
	if v := done.Load(); v != 50 {
		t.Fatalf("wanted all 50 goroutines finished before Close returns, got %d", v)
	}

	// Closing again must not panic or block.
	cg.Close()
}
