package cache

import (
	"context"
	"testing"
	"time"
)

func TestNoopCache_AlwaysMisses(t *testing.T) {
	var c NoopCache
	ctx := context.Background()

	var dest string
	ok, err := c.Get(ctx, PrefixCNPJ, "14.200.166/0001-51", &dest)
	if ok || err != nil {
		t.Errorf("Get = (%v, %v), want (false, nil)", ok, err)
	}

	if err := c.Set(ctx, PrefixCNPJ, "14.200.166/0001-51", "value", time.Hour); err != nil {
		t.Errorf("Set returned %v, want nil", err)
	}

	exists, err := c.Exists(ctx, PrefixCNPJ, "14.200.166/0001-51")
	if exists || err != nil {
		t.Errorf("Exists = (%v, %v), want (false, nil)", exists, err)
	}

	if err := c.Invalidate(ctx, PrefixCNPJ, "x"); err != nil {
		t.Errorf("Invalidate returned %v, want nil", err)
	}
	if err := c.InvalidatePrefix(ctx, PrefixCNPJ); err != nil {
		t.Errorf("InvalidatePrefix returned %v, want nil", err)
	}

	ttl, err := c.TTLOf(ctx, PrefixCNPJ, "x")
	if ttl != 0 || err != nil {
		t.Errorf("TTLOf = (%v, %v), want (0, nil)", ttl, err)
	}

	if err := c.ClearAll(ctx); err != nil {
		t.Errorf("ClearAll returned %v, want nil", err)
	}

	if stats := c.Stats(); stats != (Stats{}) {
		t.Errorf("Stats = %+v, want zero value", stats)
	}
}
