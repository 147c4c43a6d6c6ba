package fdsolve

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/solverforge/fdcdcl/internal/fd"
)

// StatsPrinter periodically reports search progress, generalising the
// teacher's unconditional printSearchStats (internal/sat/solver.go) into an
// opt-in component: embedding programs that don't want console output
// simply never construct one.
type StatsPrinter struct {
	out      io.Writer
	every    int64
	started  time.Time
	lastSeen int64
	header   bool
}

// NewStatsPrinter returns a printer writing to out every `every` conflicts.
func NewStatsPrinter(out io.Writer, every int64) *StatsPrinter {
	if every <= 0 {
		every = 1000
	}
	return &StatsPrinter{out: out, every: every, started: time.Now()}
}

// NewStdoutStatsPrinter is the common case: print to os.Stdout.
func NewStdoutStatsPrinter(every int64) *StatsPrinter {
	return NewStatsPrinter(os.Stdout, every)
}

func (p *StatsPrinter) maybePrint(d *fd.Solver) {
	if d.Conflicts-p.lastSeen < p.every {
		return
	}
	p.lastSeen = d.Conflicts
	if !p.header {
		fmt.Fprintf(p.out, "c %10s %10s %10s %10s\n", "conflicts", "restarts", "decisions", "time")
		p.header = true
	}
	fmt.Fprintf(p.out, "c %10d %10d %10d %10.2f\n", d.Conflicts, d.Restarts, d.Decisions, time.Since(p.started).Seconds())
}
