package readmodel

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// fetchAll runs fn for every index in [0, n) on a bounded pool and returns the
// successful results in index order. Failed indexes are reported to onErr and skipped.
func fetchAll[T any](ctx context.Context, workers int, n uint64, fn func(ctx context.Context, i uint64) (T, error), onErr func(i uint64, err error)) ([]T, error) {
	if n == 0 {
		return []T{}, nil
	}
	results := make([]T, n)
	ok := make([]bool, n)
	if workers <= 0 {
		workers = 1
	}
	if uint64(workers) > n {
		workers = int(n)
	}

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
	)
	p, err := ants.NewPoolWithFunc(workers, func(i interface{}) {
		defer wg.Done()
		idx := i.(uint64)
		v, err := fn(ctx, idx)
		if err != nil {
			errMu.Lock()
			onErr(idx, err)
			errMu.Unlock()
			return
		}
		results[idx] = v
		ok[idx] = true
	}, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}
	defer p.Release()

	for i := uint64(0); i < n; i++ {
		wg.Add(1)
		if err := p.Invoke(i); err != nil {
			wg.Done()
			errMu.Lock()
			onErr(i, err)
			errMu.Unlock()
		}
	}
	wg.Wait()

	out := make([]T, 0, n)
	for i, v := range results {
		if ok[i] {
			out = append(out, v)
		}
	}
	return out, nil
}
