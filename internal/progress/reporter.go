// Package progress renders a live one-line summary of the run by polling the
// status store on a fixed interval. Polling keeps the reporter decoupled from
// the workers: no signalling channel exists between them.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dharsanguruparan/RenameVault/internal/model"
	"github.com/dharsanguruparan/RenameVault/internal/store"
)

var (
	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	processingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	succeededStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Reporter polls the store and rewrites a single status line.
type Reporter struct {
	store    *store.Store
	out      io.Writer
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New builds a Reporter writing to out every interval.
func New(st *store.Store, out io.Writer, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Reporter{
		store:    st,
		out:      out,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop.
func (r *Reporter) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.render(false)
			}
		}
	}()
}

// Stop halts polling and prints a final snapshot on its own line.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		<-r.done
		r.render(true)
	})
}

func (r *Reporter) render(final bool) {
	tasks, err := r.store.ListAll()
	if err != nil {
		// The display is best-effort; the next tick may succeed.
		return
	}
	counts := map[model.Status]int{}
	for _, t := range tasks {
		counts[t.Status]++
	}

	parts := []string{
		pendingStyle.Render(fmt.Sprintf("%d waiting", counts[model.StatusPending]+counts[model.StatusQueued])),
		processingStyle.Render(fmt.Sprintf("%d processing", counts[model.StatusProcessing])),
		succeededStyle.Render(fmt.Sprintf("%d done", counts[model.StatusSucceeded])),
		failedStyle.Render(fmt.Sprintf("%d failed", counts[model.StatusFailed])),
	}
	line := fmt.Sprintf("\r%s / %d total", strings.Join(parts, " · "), len(tasks))
	if final {
		line += "\n"
	}
	fmt.Fprint(r.out, line)
}
