// Copyright (c) 2026 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/balancebot/subcmds"
	"github.com/visvasity/cli"
)

func main() {
	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Sim),
		new(subcmds.Status),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
