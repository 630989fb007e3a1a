package cache

import (
	"testing"
	"time"
)

func newTestTwoLevel(t *testing.T, memSize int) *TwoLevelCache {
	t.Helper()
	c, err := NewTwoLevelCache(TwoLevelConfig{
		MemorySize: memSize,
		Dir:        t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewTwoLevelCache: %v", err)
	}
	return c
}

func TestTwoLevelL1Hit(t *testing.T) {
	c := newTestTwoLevel(t, 10)
	_ = c.Put(sampleResult("job-1"))

	if _, ok := c.Get("job-1"); !ok {
		t.Fatal("Get returned miss")
	}
	if got := c.Stats().L1.Hits; got != 1 {
		t.Errorf("L1 hits = %d, want 1", got)
	}
}

func TestTwoLevelPromotion(t *testing.T) {
	c := newTestTwoLevel(t, 5)
	results := sampleResults(10)
	for _, r := range results {
		_ = c.Put(r)
	}

	// L1 holds only the last five.
	if got := c.Stats().L1.Size; got != 5 {
		t.Fatalf("L1 size = %d, want 5", got)
	}

	// job-0 fell out of L1 but survives in L2; a get promotes it back.
	if _, ok := c.Get("job-0"); !ok {
		t.Fatal("expected L2 hit for job-0")
	}
	if _, ok := c.L1().Get("job-0"); !ok {
		t.Error("job-0 was not promoted into L1")
	}
}

func TestTwoLevelPromotionDisabled(t *testing.T) {
	promote := false
	c, err := NewTwoLevelCache(TwoLevelConfig{
		MemorySize:   5,
		Dir:          t.TempDir(),
		PromoteOnHit: &promote,
	})
	if err != nil {
		t.Fatalf("NewTwoLevelCache: %v", err)
	}

	for _, r := range sampleResults(10) {
		_ = c.Put(r)
	}
	if _, ok := c.Get("job-0"); !ok {
		t.Fatal("expected L2 hit for job-0")
	}
	if _, ok := c.L1().Get("job-0"); ok {
		t.Error("job-0 promoted despite PromoteOnHit=false")
	}
}

func TestTwoLevelWriteThrough(t *testing.T) {
	c := newTestTwoLevel(t, 10)
	_ = c.Put(sampleResult("job-1"))

	if _, ok := c.L1().Get("job-1"); !ok {
		t.Error("put did not reach L1")
	}
	if _, ok := c.L2().Get("job-1"); !ok {
		t.Error("put did not reach L2")
	}
}

func TestTwoLevelRemoveBoth(t *testing.T) {
	c := newTestTwoLevel(t, 10)
	_ = c.Put(sampleResult("job-1"))

	if !c.Remove("job-1") {
		t.Fatal("Remove returned false")
	}
	if _, ok := c.L1().Get("job-1"); ok {
		t.Error("key still in L1 after Remove")
	}
	if _, ok := c.L2().Get("job-1"); ok {
		t.Error("key still in L2 after Remove")
	}
}

func TestTwoLevelEvictExpiredPerTier(t *testing.T) {
	c, err := NewTwoLevelCache(TwoLevelConfig{
		MemorySize: 10,
		MemoryTTL:  time.Minute,
		Dir:        t.TempDir(),
		DiskTTL:    time.Minute,
	})
	if err != nil {
		t.Fatalf("NewTwoLevelCache: %v", err)
	}
	clock := time.Unix(1000, 0)
	c.L1().now = func() time.Time { return clock }
	c.L2().(*DiskCache).now = func() time.Time { return clock }

	for _, r := range sampleResults(5) {
		_ = c.Put(r)
	}
	clock = clock.Add(time.Minute)

	counts := c.EvictExpired()
	if counts.L1 != 5 {
		t.Errorf("L1 evicted = %d, want 5", counts.L1)
	}
	if counts.L2 != 5 {
		t.Errorf("L2 evicted = %d, want 5", counts.L2)
	}
}

func TestTwoLevelStatsNested(t *testing.T) {
	c := newTestTwoLevel(t, 10)
	_ = c.Put(sampleResult("job-1"))

	c.Get("job-1")    // L1 hit
	c.Get("job-miss") // miss in both tiers

	stats := c.Stats()
	if stats.L1.Hits != 1 {
		t.Errorf("L1 hits = %d, want 1", stats.L1.Hits)
	}
	if stats.L1.Misses != 1 || stats.L2.Misses != 1 {
		t.Errorf("misses = l1:%d l2:%d, want 1/1", stats.L1.Misses, stats.L2.Misses)
	}
}
