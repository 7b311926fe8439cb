package runner

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v2"
)

// Bar draws a terminal progress bar.
type Bar struct {
	w           io.Writer
	description string
	bar         *progressbar.ProgressBar
	total, done int
}

// NewBar returns a Bar writing to w.
func NewBar(w io.Writer, description string) *Bar {
	return &Bar{w: w, description: description}
}

func (b *Bar) Start(total int) {
	b.total = total
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(b.description),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func (b *Bar) Add(n int) {
	if b.bar != nil {
		b.done += n
		_ = b.bar.Add(n)
	}
}

// Finish completes the bar. An interrupted run keeps its last position.
func (b *Bar) Finish() {
	if b.bar != nil {
		if b.done >= b.total {
			_ = b.bar.Finish()
		}
		_, _ = io.WriteString(b.w, "\n")
	}
}

// Counter tracks progress in memory for callers that poll it.
type Counter struct {
	total atomic.Int64
	done  atomic.Int64
}

func (c *Counter) Start(total int) { c.total.Store(int64(total)) }
func (c *Counter) Add(n int)       { c.done.Add(int64(n)) }
func (c *Counter) Finish()         {}

// Snapshot returns the rows processed and the total.
func (c *Counter) Snapshot() (done, total int) {
	return int(c.done.Load()), int(c.total.Load())
}
