// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/engine"
	"github.com/bvk/ladderbot/simex"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type Simulate struct {
	configPath string

	cycles     int
	mid        string
	volatility float64
	seed       uint64
}

func (c *Simulate) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fset.StringVar(&c.configPath, "config", "", "path to the yaml configuration file")
	fset.IntVar(&c.cycles, "cycles", 20, "number of cycles to run")
	fset.StringVar(&c.mid, "mid", "100", "initial mid price")
	fset.Float64Var(&c.volatility, "volatility", 0.5, "max percent change of the mid price per cycle")
	fset.Uint64Var(&c.seed, "seed", 1, "seed for the random price walk and the strategy decisions")
	return "simulate", fset, cli.CmdFunc(c.run)
}

func (c *Simulate) Purpose() string {
	return "Runs a pair against a simulated exchange"
}

func (c *Simulate) Description() string {
	return `

Command "simulate" runs the cycles of one pair from a configuration file
against an in-memory exchange. The mid price follows a random walk and orders
crossing it are filled. Volume trades are only recorded. A report line is
printed for every cycle.

    $ ladderbot simulate -config pairs.yaml -cycles 50 BTCUSDT

`
}

func (c *Simulate) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (pair name) argument: %w", os.ErrInvalid)
	}
	if len(c.configPath) == 0 {
		return fmt.Errorf("config file path is required: %w", os.ErrInvalid)
	}
	if c.cycles <= 0 || c.volatility < 0 {
		return fmt.Errorf("cycles must be positive and volatility cannot be negative: %w", os.ErrInvalid)
	}
	mid, err := decimal.NewFromString(c.mid)
	if err != nil || !mid.IsPositive() {
		return fmt.Errorf("invalid mid price %q: %w", c.mid, os.ErrInvalid)
	}

	cs, err := config.LoadFile(c.configPath)
	if err != nil {
		return err
	}
	index := slices.IndexFunc(cs, func(v *config.Config) bool { return v.Pair == args[0] })
	if index < 0 {
		return fmt.Errorf("pair %q is not in the configuration file: %w", args[0], os.ErrNotExist)
	}
	cfg := *cs[index]

	ex := simex.New(nil)
	ex.SetMid(cfg.Pair, mid)

	trades := new(simex.NoopExecutor)
	opts := &engine.Options{
		Executor:  trades,
		Simulator: trades,
		Rand:      rand.New(rand.NewPCG(c.seed, c.seed)),
	}
	e, err := engine.New(ctx, cfg.Pair, ex, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.Configure(ctx, cfg); err != nil {
		return err
	}

	walk := rand.New(rand.NewPCG(c.seed, ^c.seed))
	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "CYCLE\tMID\tPLACED\tCANCELLED\tREPRICED\tTRADES\tOPEN\tNOTES\n")
	for i := 0; i < c.cycles; i++ {
		report, err := e.RunCycle(ctx)
		if err != nil {
			return err
		}
		notes := report.Skipped
		if len(report.Failures) != 0 {
			notes = strings.Join(report.Failures, "; ")
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n", i, report.Mid.StringFixed(4), report.Placed, report.Cancelled, report.Repriced, report.Trades, len(ex.Open(cfg.Pair)), notes)

		change := (walk.Float64()*2 - 1) * c.volatility / 100
		mid = mid.Mul(decimal.NewFromFloat(1 + change))
		ex.SetMid(cfg.Pair, mid)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stdout := cli.Stdout(ctx)
	fmt.Fprintf(stdout, "\nfilled orders: %d\n", len(ex.Filled()))
	fmt.Fprintf(stdout, "volume trades: %d\n", len(trades.Trades()))
	return nil
}
