package balancer

import "sync"

// TargetSet is an ordered, mutable collection of replica base URLs. It is
// rebuilt from discovery and shrunk as targets are found unreachable. All
// access goes through the mutex so concurrent requests observe a consistent
// list.
type TargetSet struct {
	mu      sync.Mutex
	targets []string
}

// NewTargetSet creates an empty TargetSet.
func NewTargetSet() *TargetSet {
	return &TargetSet{}
}

// Replace swaps the whole list for the given targets, preserving their order.
func (s *TargetSet) Replace(targets []string) {
	fresh := make([]string, len(targets))
	copy(fresh, targets)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = fresh
}

// Front returns the current first target, or false when the set is empty.
func (s *TargetSet) Front() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.targets) == 0 {
		return "", false
	}
	return s.targets[0], true
}

// Evict removes the first occurrence of target from the set.
func (s *TargetSet) Evict(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.targets {
		if t == target {
			s.targets = append(s.targets[:i], s.targets[i+1:]...)
			return
		}
	}
}

// Len returns the number of targets currently in the set.
func (s *TargetSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Snapshot returns a copy of the current target list.
func (s *TargetSet) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.targets))
	copy(out, s.targets)
	return out
}
