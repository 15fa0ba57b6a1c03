// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/ladder"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type Ladder struct {
	mid           string
	levelDistance string
	levelCount    int
	maxLevels     int
}

func (c *Ladder) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("ladder", flag.ContinueOnError)
	fset.StringVar(&c.mid, "mid", "", "mid price of the pair")
	fset.StringVar(&c.levelDistance, "level-distance", "", "distance between the levels in percent")
	fset.IntVar(&c.levelCount, "level-count", 3, "number of levels on each side")
	fset.IntVar(&c.maxLevels, "max-levels", 0, "upper bound on the level count (0 means no bound)")
	return "ladder", fset, cli.CmdFunc(c.run)
}

func (c *Ladder) Purpose() string {
	return "Prints the order ladder for a mid price"
}

func (c *Ladder) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments: %w", os.ErrInvalid)
	}
	mid, err := decimal.NewFromString(c.mid)
	if err != nil {
		return fmt.Errorf("could not parse mid price %q: %w", c.mid, err)
	}
	distance, err := decimal.NewFromString(c.levelDistance)
	if err != nil {
		return fmt.Errorf("could not parse level distance %q: %w", c.levelDistance, err)
	}

	buys, err := ladder.Generate(mid, exchange.Buy, distance, c.levelCount, c.maxLevels)
	if err != nil {
		return err
	}
	sells, err := ladder.Generate(mid, exchange.Sell, distance, c.levelCount, c.maxLevels)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "LEVEL\tBUY\tSELL\t\n")
	for i := range buys {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", i, buys[i].StringFixed(8), sells[i].StringFixed(8))
	}
	return tw.Flush()
}
