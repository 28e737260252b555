// Command lvlopt optimizes a g2o pose graph.
//
//	lvlopt -input graph.g2o -output out.g2o -method lm -solver qr -v 1
//
// Solver options come from an optional YAML file (-config) and are then
// overridden by any flag given explicitly on the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/yaml"

	"github.com/katalvlaran/lvlopt/g2o"
	"github.com/katalvlaran/lvlopt/linear"
	"github.com/katalvlaran/lvlopt/loss"
	"github.com/katalvlaran/lvlopt/optimizer"
	"github.com/katalvlaran/lvlopt/problem"
)

var version = "dev"

type flags struct {
	input, output, config string
	method, solver        string
	edgeLoss              string
	maxIter, verbosity    int
	workers               int
	information, summary  bool
}

func parseFlags(args []string) (flags, map[string]bool, error) {
	var f flags
	fs := flag.NewFlagSet("lvlopt", flag.ContinueOnError)
	fs.StringVar(&f.input, "input", "", "g2o file to read (default stdin)")
	fs.StringVar(&f.output, "output", "", "g2o file to write the optimized vertices to (default stdout)")
	fs.StringVar(&f.config, "config", "", "YAML file with solver options")
	fs.StringVar(&f.method, "method", "lm", "gn | lm")
	fs.StringVar(&f.solver, "solver", "cholesky", "cholesky | qr")
	fs.StringVar(&f.edgeLoss, "loss", "huber:1", "robust loss on every edge, e.g. cauchy:0.5 or none")
	fs.IntVar(&f.maxIter, "max-iter", 100, "maximum iterations")
	fs.IntVar(&f.verbosity, "v", 0, "log verbosity (0 silent, 1 per iteration, 2 detail)")
	fs.IntVar(&f.workers, "workers", 0, "evaluation workers (0 = GOMAXPROCS)")
	fs.BoolVar(&f.information, "information", false, "weight edges by their information matrices")
	fs.BoolVar(&f.summary, "summary", false, "print the solve summary as YAML on stderr")
	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	return f, set, nil
}

// solverOptions layers explicit flags over the config file over defaults.
func solverOptions(f flags, set map[string]bool, log logr.Logger) ([]optimizer.Option, error) {
	base := optimizer.DefaultOptions()
	if f.config != "" {
		data, err := os.ReadFile(f.config)
		if err != nil {
			return nil, err
		}
		if base, err = optimizer.LoadOptions(data); err != nil {
			return nil, err
		}
	}
	opts := []optimizer.Option{optimizer.WithOptions(base), optimizer.WithLogger(log)}
	if set["solver"] {
		t, err := linear.ParseSolverType(f.solver)
		if err != nil {
			return nil, err
		}
		opts = append(opts, optimizer.WithLinearSolver(t))
	}
	if set["max-iter"] {
		opts = append(opts, optimizer.WithMaxIteration(f.maxIter))
	}
	if set["v"] {
		opts = append(opts, optimizer.WithVerbosity(f.verbosity))
	}
	if set["workers"] {
		opts = append(opts, optimizer.WithWorkers(f.workers))
	}

	return opts, nil
}

func newLogger(verbosity int) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	return cfg.Build()
}

func run(ctx context.Context, f flags, set map[string]bool, log logr.Logger, stdin io.Reader, stdout, stderr io.Writer) error {
	in := stdin
	if f.input != "" {
		file, err := os.Open(f.input)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}
	edgeLoss, err := loss.Parse(f.edgeLoss)
	if err != nil {
		return err
	}
	p, initial, err := g2o.Read(in,
		g2o.WithEdgeLoss(edgeLoss), g2o.WithInformation(f.information), g2o.WithLogger(log))
	if err != nil {
		return fmt.Errorf("read graph: %w", err)
	}
	log.Info("graph loaded", "variables", p.NumVariables(), "blocks", p.NumResidualBlocks(),
		"components", len(p.Components()))

	opts, err := solverOptions(f, set, log)
	if err != nil {
		return err
	}
	opt, err := optimizer.New(f.method)
	if err != nil {
		return err
	}
	res, err := opt.Optimize(ctx, p, initial, opts...)
	if err != nil {
		return err
	}
	log.Info("optimization finished", "status", res.Status.String(), "iterations", res.Iterations,
		"initialCost", res.InitialCost, "finalCost", res.FinalCost)

	if f.summary {
		data, err := yaml.Marshal(res.Summary)
		if err != nil {
			return err
		}
		if _, err := stderr.Write(data); err != nil {
			return err
		}
	}

	// Vertices that no edge touches keep their input values.
	out := problem.CloneValues(initial)
	for name, x := range res.Values {
		out[name] = x
	}
	w := stdout
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	return g2o.Write(w, out)
}

func main() {
	f, set, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	zl, err := newLogger(f.verbosity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	log := zapr.NewLogger(zl).WithName("lvlopt")
	log.V(1).Info("starting", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, set, log, os.Stdin, os.Stdout, os.Stderr); err != nil {
		log.Error(err, "lvlopt failed")
		stop()
		_ = zl.Sync()
		os.Exit(1)
	}
}
