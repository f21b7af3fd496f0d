// Command threadstress repeatedly exercises the threadsync primitives,
// exiting non-zero if any property fails.
//
// Usage:
//
//	threadstress [-config profile.yaml] [-iterations N] [-workers N] [-adds N] [-v]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/joeycumines/go-threadsync"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(`threadstress`, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String(`config`, ``, `path to a YAML stress profile`)
		iterations = fs.Int(`iterations`, 0, `flag-then-signal round trips, overrides the profile`)
		workers    = fs.Int(`workers`, 0, `concurrent adder threads, overrides the profile`)
		adds       = fs.Int(`adds`, 0, `increments per adder, overrides the profile`)
		verbose    = fs.Bool(`v`, false, `debug logging, overrides the profile`)
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case `iterations`:
			cfg.Iterations = *iterations
		case `workers`:
			cfg.Workers = *workers
		case `adds`:
			cfg.Adds = *adds
		case `v`:
			if *verbose {
				cfg.LogLevel = logiface.LevelDebug.String()
			}
		}
	})
	if err := cfg.validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	level, _ := parseLevel(cfg.LogLevel)
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(stdout)),
		stumpy.L.WithLevel(level),
	).Logger()

	threadsync.SetLogger(logger)
	defer threadsync.SetLogger(nil)

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug().Logf(format, args...)
	}))
	defer undo()
	if err != nil {
		logger.Warning().
			Err(err).
			Log(`failed to set GOMAXPROCS`)
	}

	var failed int
	selected := selectProperties(cfg.Properties)
	for _, p := range selected {
		start := time.Now()
		err := p.run(ctx, cfg, logger)
		elapsed := time.Since(start)
		if err != nil {
			failed++
			logger.Err().
				Str(`property`, p.name).
				Dur(`elapsed`, elapsed).
				Err(err).
				Log(`property failed`)
			continue
		}
		logger.Info().
			Str(`property`, p.name).
			Dur(`elapsed`, elapsed).
			Log(`property passed`)
	}

	if failed != 0 {
		fmt.Fprintf(stderr, "%d of %d properties failed\n", failed, len(selected))
		return 1
	}
	return 0
}
