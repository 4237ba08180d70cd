package utils

import (
	"errors"
	"sync"
)

// ParallelTask is one independent unit of work.
type ParallelTask func() error

// RunParallelTasks runs every task concurrently, waits for all of them and
// returns their errors joined in task order (nil when all succeeded).
func RunParallelTasks(tasks ...ParallelTask) error {
	var wg sync.WaitGroup
	errs := make([]error, len(tasks))

	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(index int, t ParallelTask) {
			defer wg.Done()
			errs[index] = t()
		}(i, task)
	}

	wg.Wait()
	return errors.Join(errs...)
}
