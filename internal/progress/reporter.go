// Package progress reports per-action migration events. Reporting is
// purely observational and never affects control flow.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Action identifies what just happened to one unit.
type Action string

const (
	ActionFetch      Action = "fetch"
	ActionCreate     Action = "create"
	ActionUpsert     Action = "upsert"
	ActionPublish    Action = "publish"
	ActionUnpublish  Action = "unpublish"
	ActionArchive    Action = "archive"
	ActionChangeStep Action = "changeWorkflowStep"
	ActionSkip       Action = "skip"
)

// Reporter writes one line per action and keeps per-action counts.
type Reporter struct {
	out      io.Writer
	quiet    bool
	decorate bool

	mu     sync.Mutex
	counts map[Action]int
}

// New creates a reporter writing to stdout. Quiet mode suppresses the
// per-action lines but still counts.
func New(quiet bool) *Reporter {
	return &Reporter{
		out:      os.Stdout,
		quiet:    quiet,
		decorate: isatty.IsTerminal(os.Stdout.Fd()),
		counts:   make(map[Action]int),
	}
}

// NewWriter creates a reporter writing to w. Used by tests.
func NewWriter(w io.Writer, quiet bool) *Reporter {
	return &Reporter{out: w, quiet: quiet, counts: make(map[Action]int)}
}

// Discard creates a reporter that counts but never writes.
func Discard() *Reporter {
	return &Reporter{out: io.Discard, quiet: true, counts: make(map[Action]int)}
}

// Report records one action against one unit.
func (r *Reporter) Report(action Action, entity, codename string) {
	r.mu.Lock()
	r.counts[action]++
	r.mu.Unlock()

	if r.quiet {
		return
	}
	if r.decorate {
		fmt.Fprintf(r.out, "  \033[36m%-18s\033[0m %s: %s\n", action, entity, codename)
		return
	}
	fmt.Fprintf(r.out, "  %-18s %s: %s\n", action, entity, codename)
}

// Count returns how many times an action was reported.
func (r *Reporter) Count(action Action) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[action]
}

// Summary renders the per-action counts in a stable order.
func (r *Reporter) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := []Action{
		ActionFetch, ActionCreate, ActionUpsert,
		ActionPublish, ActionUnpublish, ActionArchive, ActionChangeStep, ActionSkip,
	}
	out := ""
	for _, a := range order {
		if n := r.counts[a]; n > 0 {
			out += fmt.Sprintf("%s: %d\n", a, n)
		}
	}
	return out
}
