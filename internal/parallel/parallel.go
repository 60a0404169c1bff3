// Package parallel runs independent per-item layer work across goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution.
type Config struct {
	Enabled      bool // Whether work may run on more than one goroutine.
	NumWorkers   int  // Upper bound on concurrent goroutines.
	MinChunkSize int  // Minimum items before fanning out is worth it.
}

// DefaultConfig suits cheap items.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// PerItemConfig suits expensive items such as segmenting one image: every
// item may get its own goroutine.
func PerItemConfig() Config {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 1
	return cfg
}

func (c Config) parallel(n int) bool {
	return c.Enabled && c.NumWorkers > 1 && n >= 2*max(c.MinChunkSize, 1)
}

// ForErr executes f(i) for i in [0, n) and returns the error of the lowest
// failing index. Run sequentially, it stops at the first failure; run
// concurrently, every item runs.
func ForErr(n int, f func(i int) error, cfg Config) error {
	if !cfg.parallel(n) {
		for i := 0; i < n; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			errs[i] = f(i)
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
