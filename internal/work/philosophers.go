package work

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Strategy selects how dining philosophers acquire their forks.
type Strategy int

const (
	// Deadlock grabs the left fork, then the right. When every seat
	// reaches at once the waits form a cycle that never resolves.
	Deadlock Strategy = iota
	// GlobalOrder acquires the two forks in ascending index order,
	// which breaks the cycle.
	GlobalOrder
	// Waiter admits at most N-1 philosophers to the table at once.
	Waiter
)

// String returns the strategy name used by flags and transcripts.
func (s Strategy) String() string {
	switch s {
	case Deadlock:
		return "deadlock"
	case GlobalOrder:
		return "order"
	case Waiter:
		return "waiter"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a flag value to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "deadlock":
		return Deadlock, nil
	case "order":
		return GlobalOrder, nil
	case "waiter":
		return Waiter, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want deadlock, order, or waiter)", name)
	}
}

// TableReport is the outcome of one dining run.
type TableReport struct {
	Philosophers      int
	MealsTarget       int
	Meals             []int // meals eaten per philosopher
	Elapsed           time.Duration
	DeadlockSuspected bool
}

// TotalMeals returns the number of meals eaten across the table.
func (r TableReport) TotalMeals() int {
	total := 0
	for _, m := range r.Meals {
		total += m
	}
	return total
}

// Dine seats the given number of philosophers, each trying to eat meals
// times, using strategy s to acquire forks. A run that the context cuts
// off before every meal is eaten reports DeadlockSuspected; under the
// Deadlock strategy that is the expected outcome, under GlobalOrder and
// Waiter it only means the deadline was too tight.
func Dine(ctx context.Context, philosophers, meals int, s Strategy) (TableReport, error) {
	if philosophers < 2 {
		return TableReport{}, fmt.Errorf("need at least 2 philosophers, got %d", philosophers)
	}
	if meals < 1 {
		return TableReport{}, fmt.Errorf("need at least 1 meal, got %d", meals)
	}

	n := philosophers
	forks := make([]chan struct{}, n)
	for i := range forks {
		forks[i] = make(chan struct{}, 1)
		forks[i] <- struct{}{}
	}

	// The waiter admits n-1 eaters; the last seat stays empty.
	var seats chan struct{}
	if s == Waiter {
		seats = make(chan struct{}, n-1)
		for i := 0; i < n-1; i++ {
			seats <- struct{}{}
		}
	}

	eaten := make([]int, n)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(seat int) {
			defer wg.Done()

			left := seat
			right := (seat + 1) % n
			first, second := left, right
			if s == GlobalOrder && right < left {
				first, second = right, left
			}

			for m := 0; m < meals; m++ {
				runtime.Gosched() // think

				if s == Waiter {
					if !acquireToken(ctx, seats) {
						return
					}
				}
				if !acquireToken(ctx, forks[first]) {
					if s == Waiter {
						seats <- struct{}{}
					}
					return
				}
				runtime.Gosched() // reach for the other fork
				if !acquireToken(ctx, forks[second]) {
					forks[first] <- struct{}{}
					if s == Waiter {
						seats <- struct{}{}
					}
					return
				}

				eaten[seat]++

				forks[second] <- struct{}{}
				forks[first] <- struct{}{}
				if s == Waiter {
					seats <- struct{}{}
				}
			}
		}(i)
	}
	wg.Wait()

	report := TableReport{
		Philosophers: n,
		MealsTarget:  meals,
		Meals:        eaten,
		Elapsed:      time.Since(start),
	}
	report.DeadlockSuspected = ctx.Err() != nil && report.TotalMeals() < n*meals
	return report, nil
}

// acquireToken takes a token from ch, giving up when ctx is done.
func acquireToken(ctx context.Context, ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}
