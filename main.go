// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/ladderbot/subcmds"
	"github.com/bvk/ladderbot/subcmds/db"
	"github.com/bvk/ladderbot/subcmds/pair"
	"github.com/bvk/ladderbot/subcmds/setup"
	"github.com/visvasity/cli"
)

func main() {
	dbCmds := []cli.Command{
		new(db.Get),
		new(db.List),
		new(db.Delete),
		new(db.Backup),
		new(db.Restore),
	}

	pairCmds := []cli.Command{
		new(pair.Start),
		new(pair.Stop),
		new(pair.UpdateConfig),
		new(pair.Status),
		new(pair.List),
	}

	setupCmds := []cli.Command{
		new(setup.CoinEx),
		new(setup.Telegram),
		new(setup.EVM),
		new(setup.APIKey),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		new(subcmds.Ladder),
		new(subcmds.Simulate),
		cli.NewGroup("pair", "Control trading pairs on a running server", pairCmds...),
		cli.NewGroup("setup", "Configure exchange and notification credentials", setupCmds...),
		cli.NewGroup("db", "View/update database directly", dbCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
