package util

import "sync"

// Collector gathers results from concurrent batch-compile workers (cmd/excc's
// "-j N" parallel multi-file mode, SPEC_FULL §7.6) the way
// hhramberg-go-vslc/src/util/perror.go's perror type gathers worker errors:
// a channel-fed listener goroutine appends to a mutex-guarded buffer so
// callers never touch the slice while a worker might still be writing to
// it. Ported near enough to keep the same shape, generalized from `error`
// to `Result` since a batch compile needs to report which file a result
// belongs to, not just that something went wrong.
type Collector struct {
	listen chan Result
	stop   chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	results []Result
}

// Result is one file's outcome from a batch compile.
type Result struct {
	Path string
	Err  error
}

// defaultBufferSize is the fallback pre-allocated result buffer size.
const defaultBufferSize = 16

// NewCollector returns a Collector with n pre-allocated result slots and
// starts its listener goroutine. n <= 0 falls back to defaultBufferSize.
func NewCollector(n int) *Collector {
	if n < 1 {
		n = defaultBufferSize
	}
	c := &Collector{
		listen:  make(chan Result),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		results: make([]Result, 0, n),
	}
	go c.run()
	return c
}

func (c *Collector) run() {
	defer close(c.done)
	for {
		select {
		case r := <-c.listen:
			c.mu.Lock()
			c.results = append(c.results, r)
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// Report sends one file's result to the collector. Safe to call
// concurrently from any number of workers.
func (c *Collector) Report(path string, err error) {
	c.listen <- Result{Path: path, Err: err}
}

// Stop signals the listener goroutine to exit and waits for it to do so.
// Results must not be read until after Stop returns.
func (c *Collector) Stop() {
	close(c.stop)
	<-c.done
}

// Results returns every reported result in arrival order. Must be called
// after Stop.
func (c *Collector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// Failed reports whether any reported result carries a non-nil error.
func (c *Collector) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.results {
		if r.Err != nil {
			return true
		}
	}
	return false
}
