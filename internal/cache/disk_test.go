package cache

import (
	"os"
	"testing"
	"time"
)

func TestDiskCachePutGetJSON(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}

	r := sampleResult("job-1")
	if err := c.Put(r); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get("job-1")
	if !ok {
		t.Fatal("Get returned miss")
	}
	if got.JobID != r.JobID || got.Counts["11"] != r.Counts["11"] || got.Shots != r.Shots {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestDiskCachePutGetGob(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), GobCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}

	r := sampleResult("job-1")
	if err := c.Put(r); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := c.Get("job-1")
	if !ok {
		t.Fatal("Get returned miss")
	}
	if got.Counts["00"] != r.Counts["00"] {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestDiskCachePersistence(t *testing.T) {
	dir := t.TempDir()

	c1, err := NewDiskCache(dir, JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	if err := c1.Put(sampleResult("job-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A fresh instance over the same directory recovers the entry.
	c2, err := NewDiskCache(dir, JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	got, ok := c2.Get("job-1")
	if !ok {
		t.Fatal("entry not recovered across instances")
	}
	if got.Counts["00"] != 500 {
		t.Errorf("recovered wrong result: %+v", got)
	}
}

func TestDiskCacheTTLExpiry(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), JSONCodec{}, time.Minute)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	_ = c.Put(sampleResult("job-1"))
	if _, ok := c.Get("job-1"); !ok {
		t.Fatal("entry should be retrievable before TTL")
	}

	clock = clock.Add(time.Minute)
	if _, ok := c.Get("job-1"); ok {
		t.Error("entry should be expired after TTL")
	}
}

func TestDiskCacheEvictExpired(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), JSONCodec{}, time.Minute)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	for _, r := range sampleResults(3) {
		_ = c.Put(r)
	}

	clock = clock.Add(time.Minute)
	if n := c.EvictExpired(); n != 3 {
		t.Errorf("EvictExpired() = %d, want 3", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestDiskCacheCorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir, JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	_ = c.Put(sampleResult("job-1"))

	if err := os.WriteFile(c.payloadPath("job-1"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupting payload: %v", err)
	}

	if _, ok := c.Get("job-1"); ok {
		t.Error("corrupt payload should read as a miss")
	}
	// The corrupt entry is cleaned up, not resurfaced.
	if c.Size() != 0 {
		t.Errorf("Size() = %d after corrupt read, want 0", c.Size())
	}
}

func TestDiskCacheMissingPayloadIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir, JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	_ = c.Put(sampleResult("job-1"))

	if err := os.Remove(c.payloadPath("job-1")); err != nil {
		t.Fatalf("removing payload: %v", err)
	}

	if _, ok := c.Get("job-1"); ok {
		t.Error("missing payload should read as a miss")
	}
}

func TestDiskCacheRemove(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	_ = c.Put(sampleResult("job-1"))

	if !c.Remove("job-1") {
		t.Error("Remove returned false for present key")
	}
	if _, err := os.Stat(c.payloadPath("job-1")); !os.IsNotExist(err) {
		t.Error("payload file still exists after Remove")
	}
	if c.Remove("job-1") {
		t.Error("Remove returned true for absent key")
	}
}

func TestDiskCacheDiskUsage(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	for _, r := range sampleResults(5) {
		_ = c.Put(r)
	}

	if usage := c.DiskUsage(); usage <= 0 {
		t.Errorf("DiskUsage() = %d, want > 0", usage)
	}
	if c.Size() != 5 {
		t.Errorf("Size() = %d, want 5", c.Size())
	}
}

func TestDiskCacheClear(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	for _, r := range sampleResults(5) {
		_ = c.Put(r)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
	if usage := c.DiskUsage(); usage != 0 {
		t.Errorf("DiskUsage() = %d after Clear, want 0", usage)
	}
}

func TestDiskCacheRecoveredEntriesKeepTTL(t *testing.T) {
	dir := t.TempDir()
	clock := time.Unix(1000, 0)

	c1, err := NewDiskCache(dir, JSONCodec{}, time.Minute)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	c1.now = func() time.Time { return clock }
	_ = c1.Put(sampleResult("job-1"))

	c2, err := NewDiskCache(dir, JSONCodec{}, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	c2.now = func() time.Time { return clock.Add(2 * time.Minute) }

	// The entry was written with a 1m TTL; a fresh instance honors it.
	if _, ok := c2.Get("job-1"); ok {
		t.Error("recovered entry should honor its stored TTL")
	}
}
