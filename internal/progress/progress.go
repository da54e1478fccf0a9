// Package progress carries coarse stage events out of the codec.
package progress

import (
	"sync"
	"sync/atomic"

	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("progress")

// Library logging stays at WARNING until the caller installs its own backend.
func init() { logging.SetLevel(logging.WARNING, "progress") }

// Observer receives stage names and work increments. Implementations must be
// safe for concurrent use; the codec calls them from batch workers.
type Observer interface {
	Stage(name string)
	Add(n int)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Stage(string) {}
func (Nop) Add(int)      {}

// Or returns o, or Nop when o is nil.
func Or(o Observer) Observer {
	if o == nil {
		return Nop{}
	}
	return o
}

// Counter counts stage events and increments with atomics and logs each
// stage at debug level.
type Counter struct {
	prefix string
	done   atomic.Int64
	total  atomic.Int64

	mu     sync.Mutex
	stages map[string]int
}

// NewCounter returns a Counter expecting total units of work.
func NewCounter(prefix string, total int) *Counter {
	c := &Counter{prefix: prefix, stages: make(map[string]int)}
	c.total.Store(int64(total))
	return c
}

func (c *Counter) Stage(name string) {
	c.mu.Lock()
	c.stages[name]++
	c.mu.Unlock()
	log.Debugf("%s: %s", c.prefix, name)
}

func (c *Counter) Add(n int) {
	done := c.done.Add(int64(n))
	if total := c.total.Load(); total > 0 {
		log.Debugf("%s: %d/%d", c.prefix, done, total)
	}
}

// Done returns the accumulated increments.
func (c *Counter) Done() int64 { return c.done.Load() }

// StageCount returns how many times a stage was entered.
func (c *Counter) StageCount(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stages[name]
}

// Scoped prefixes stage names with a file label and forwards to a shared
// observer, so per-file events stay attributable in a batch.
type Scoped struct {
	Label  string
	Parent Observer
}

func (s Scoped) Stage(name string) { Or(s.Parent).Stage(s.Label + ": " + name) }
func (s Scoped) Add(n int)         { Or(s.Parent).Add(n) }
