// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bvk/ladderbot/api"
	"github.com/bvk/ladderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Purpose() string {
	return "Prints the server process status and pair counts"
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments: %w", os.ErrInvalid)
	}
	resp, err := cmdutil.Post[api.ServerStatusResponse](ctx, &c.ClientFlags, api.ServerStatusPath, &api.ServerStatusRequest{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "Pid\t%d\n", resp.Pid)
	fmt.Fprintf(tw, "Started\t%s\n", resp.StartTime.Format(time.RFC3339))
	fmt.Fprintf(tw, "Uptime\t%s\n", resp.Uptime.Round(time.Second))
	fmt.Fprintf(tw, "Goroutines\t%d\n", resp.NumGoroutines)
	if resp.RSSBytes != 0 {
		fmt.Fprintf(tw, "RSS\t%.1fMiB\n", float64(resp.RSSBytes)/(1<<20))
	}
	fmt.Fprintf(tw, "CPU\t%.1f%%\n", resp.CPUPercent)
	fmt.Fprintf(tw, "Pairs\t%d (%d running)\n", resp.NumPairs, resp.NumRunning)
	return tw.Flush()
}
