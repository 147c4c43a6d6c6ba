// Command fdsolve loads a DIMACS CNF instance and runs it through the
// finite-domain CDCL core, mirroring the teacher's root main.go (flag
// parsing, cpu/mem profiling, search-stats printing) retargeted at the
// public fdsolve package instead of internal/sat.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/solverforge/fdcdcl/fdsolve"
	"github.com/solverforge/fdcdcl/parsers"
)

var flagCPUProfile = flag.Bool(
	"cpuprof",
	false,
	"save pprof CPU profile in cpuprof",
)

var flagMemProfile = flag.Bool(
	"memprof",
	false,
	"save pprof memory profile in memprof",
)

var flagGzip = flag.Bool(
	"gzip",
	false,
	"the instance file is gzip-compressed",
)

var flagStatsEvery = flag.Int64(
	"stats-every",
	0,
	"print search statistics every N conflicts (0 disables)",
)

func parseConfig() (*config, error) {
	flag.Parse()

	if flag.NArg() == 0 || flag.Arg(0) == "" {
		return nil, fmt.Errorf("missing instance file")
	}
	return &config{
		instanceFile: flag.Arg(0),
		gzipped:      *flagGzip,
		memProfile:   *flagMemProfile,
		cpuProfile:   *flagCPUProfile,
		statsEvery:   *flagStatsEvery,
	}, nil
}

type config struct {
	instanceFile string
	gzipped      bool
	memProfile   bool
	cpuProfile   bool
	statsEvery   int64
}

func run(cfg *config) error {
	opts := fdsolve.DefaultOptions
	if cfg.statsEvery > 0 {
		opts.StatsPrinter = fdsolve.NewStdoutStatsPrinter(cfg.statsEvery)
	}
	s := fdsolve.NewSolver(opts)

	if err := parsers.LoadDIMACS(cfg.instanceFile, cfg.gzipped, s); err != nil {
		return fmt.Errorf("could not parse instance: %s", err)
	}

	fmt.Printf("c variables:  %d\n", s.NumVariables())

	t := time.Now()
	status := s.Solve()
	elapsed := time.Since(t)

	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())
	fmt.Printf("c conflicts:  %d (%.2f /sec)\n", s.Conflicts(), float64(s.Conflicts())/elapsed.Seconds())
	fmt.Printf("c restarts:   %d\n", s.Restarts())
	fmt.Printf("c status:     %s\n", statusString(status))

	return nil
}

func statusString(status fdsolve.Status) string {
	switch status {
	case fdsolve.StatusSatisfiable:
		return "SATISFIABLE"
	case fdsolve.StatusUnsatisfiable:
		return "UNSATISFIABLE"
	default:
		return "UNKNOWN"
	}
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
		return
	}
}
