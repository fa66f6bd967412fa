package operations

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"
)

// ProgressTracker prints one numbered line per item a step processes.
// Increment may be called from the normalize workers concurrently.
type ProgressTracker struct {
	step  string
	total int
	out   io.Writer
	start time.Time

	mu   sync.Mutex
	done int
	last string
}

// NewProgressTracker creates a tracker for total items. A nil out tracks
// silently.
func NewProgressTracker(step string, total int, out io.Writer) *ProgressTracker {
	return &ProgressTracker{
		step:  step,
		total: total,
		out:   out,
		start: time.Now(),
	}
}

// Increment records one processed item and prints "[done/total] item",
// the counter padded to the width of total.
func (p *ProgressTracker) Increment(item string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.last = item
	if p.out != nil {
		width := len(strconv.Itoa(p.total))
		fmt.Fprintf(p.out, "  [%*d/%d] %s\n", width, p.done, p.total, item)
	}
}

// Done returns the processed and total item counts
func (p *ProgressTracker) Done() (done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.total
}

// Last returns the most recently processed item
func (p *ProgressTracker) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Complete reports whether every item has been processed
func (p *ProgressTracker) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done >= p.total
}

// Elapsed returns the time since the tracker was created
func (p *ProgressTracker) Elapsed() time.Duration {
	return time.Since(p.start)
}

// Summary returns e.g. "normalize: 3/3 in 0.2 seconds"
func (p *ProgressTracker) Summary() string {
	done, total := p.Done()
	return fmt.Sprintf("%s: %d/%d in %s", p.step, done, total, FormatElapsed(p.Elapsed()))
}

// FormatElapsed renders a duration the way progress banners show it
func FormatElapsed(elapsed time.Duration) string {
	switch {
	case elapsed < time.Minute:
		return fmt.Sprintf("%.1f seconds", elapsed.Seconds())
	case elapsed < time.Hour:
		return fmt.Sprintf("%.1f minutes", elapsed.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", elapsed.Hours())
	}
}
