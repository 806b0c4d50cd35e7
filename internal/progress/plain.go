package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bluecraft-server/bcupdater/internal/update"
)

// DefaultInterval is the minimum time between two progress lines.
const DefaultInterval = 100 * time.Millisecond

// Plain writes one line per stage and throttled byte counts to w.
// It is safe for concurrent use.
type Plain struct {
	mu       sync.Mutex
	w        io.Writer
	interval time.Duration
	now      func() time.Time
	last     time.Time
	pending  bool
	done     int64
	total    int64
}

// NewPlain creates a line reporter writing to w
func NewPlain(w io.Writer) *Plain {
	return &Plain{
		w:        w,
		interval: DefaultInterval,
		now:      time.Now,
	}
}

// WithInterval sets the minimum time between progress lines
func (p *Plain) WithInterval(d time.Duration) *Plain {
	p.interval = d
	return p
}

func (p *Plain) Stage(s update.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
	fmt.Fprintf(p.w, "==> %s\n", s)
}

// Progress prints at most one line per interval. The last position is
// always printed before the next stage line.
func (p *Plain) Progress(done, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done, p.total = done, total
	p.pending = true

	now := p.now()
	if done != total && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	p.flushLocked()
}

func (p *Plain) Finish(res update.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
	if res.State == update.StateCompleted && res.Summary.Files > 0 {
		fmt.Fprintf(p.w, "    %d files installed\n", res.Summary.Files)
	}
	fmt.Fprintln(p.w, StatusLine(res))
}

// Notify prints a notice line.
func (p *Plain) Notify(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "--> %s\n", message)
}

func (p *Plain) flushLocked() {
	if !p.pending {
		return
	}
	p.pending = false
	fmt.Fprintf(p.w, "    %s\n", ByteCount(p.done, p.total))
}
