package parallel

import "sync"

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length. A limit of zero or
// less uses Threads() goroutines.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = Threads()
	}
	if length <= 0 {
		return // No iterations to perform
	}
	if limit > length {
		limit = length
	}

	var next int
	var mut sync.Mutex
	var wg sync.WaitGroup
	wg.Add(limit)

	for n := 0; n < limit; n++ {
		go func() {
			defer wg.Done()
			for {
				mut.Lock()
				i := next
				next++
				mut.Unlock()
				if i >= length {
					return
				}
				body(i)
			}
		}()
	}

	wg.Wait() // Wait for all goroutines to finish
}
