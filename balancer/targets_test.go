package balancer_test

import (
	"sync"
	"testing"

	"github.com/skillsenselab/registry/balancer"
)

func TestTargetSet_FrontAndEvict(t *testing.T) {
	set := balancer.NewTargetSet()

	if _, ok := set.Front(); ok {
		t.Fatal("empty set must report no front")
	}

	set.Replace([]string{"a", "b", "c"})
	if got := set.Len(); got != 3 {
		t.Fatalf("expected 3 targets, got %d", got)
	}

	front, ok := set.Front()
	if !ok || front != "a" {
		t.Fatalf("expected front a, got %q", front)
	}

	set.Evict("a")
	front, ok = set.Front()
	if !ok || front != "b" {
		t.Fatalf("after eviction expected front b, got %q", front)
	}

	// Evicting an absent target is a no-op.
	set.Evict("zzz")
	if got := set.Len(); got != 2 {
		t.Fatalf("expected 2 targets, got %d", got)
	}
}

func TestTargetSet_ReplaceCopiesInput(t *testing.T) {
	set := balancer.NewTargetSet()
	input := []string{"a", "b"}
	set.Replace(input)
	input[0] = "mutated"

	snapshot := set.Snapshot()
	if snapshot[0] != "a" {
		t.Fatalf("set must not alias caller slice, got %+v", snapshot)
	}

	snapshot[1] = "mutated"
	if again := set.Snapshot(); again[1] != "b" {
		t.Fatalf("snapshot must not alias internal state, got %+v", again)
	}
}

func TestTargetSet_ConcurrentAccess(t *testing.T) {
	set := balancer.NewTargetSet()
	set.Replace([]string{"a", "b", "c", "d"})

	var wg sync.WaitGroup
	for _, target := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			set.Front()
			set.Evict(target)
			set.Len()
		}(target)
	}
	wg.Wait()

	if got := set.Len(); got != 0 {
		t.Fatalf("expected all targets evicted, got %d", got)
	}
}
