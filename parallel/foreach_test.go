package parallel

import "sync/atomic"
import "testing"

func TestForEach(t *testing.T) {
	for _, limit := range []int{-1, 0, 1, 3, 1000} {
		var seen = make([]int32, 100)
		var calls atomic.Int32
		ForEach(len(seen), limit, func(i int) {
			atomic.AddInt32(&seen[i], 1)
			calls.Add(1)
		})
		if calls.Load() != 100 {
			t.Errorf("limit %d: %d calls", limit, calls.Load())
		}
		for i, v := range seen {
			if v != 1 {
				t.Errorf("limit %d: index %d visited %d times", limit, i, v)
			}
		}
	}
	ForEach(0, 4, func(int) { t.Error("body called for empty loop") })
}

func TestThreads(t *testing.T) {
	if Threads() < 1 {
		t.Errorf("Threads() = %d", Threads())
	}
	if Features() == "" {
		t.Error("empty feature list")
	}
}
