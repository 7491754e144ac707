// Copyright (c) 2026 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/bvk/balancebot/balance"
	"github.com/bvk/balancebot/exchange"
	"github.com/bvk/balancebot/gobs"
	"github.com/bvk/balancebot/journal"
	"github.com/visvasity/cli"
)

type Status struct {
	ProductFlags

	dataDir string

	numFills int
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ProductFlags.SetFlags(fset)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.IntVar(&c.numFills, "num-fills", 10, "number of recent fills to print")
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) Purpose() string {
	return "Prints a summary of recorded fills and bracket placements"
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".balancebot")
	}

	calc, err := balance.New(c.BalanceOptions())
	if err != nil {
		return err
	}

	db, closer, err := openDatabase(c.dataDir)
	if err != nil {
		return err
	}
	defer closer()

	jnl := journal.New(db)

	var fills []*gobs.FillRecord
	if err := jnl.ScanFills(ctx, func(v *gobs.FillRecord) error {
		fills = append(fills, v)
		return nil
	}); err != nil {
		return err
	}

	lastDay, err := jnl.FillsSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}

	fmt.Printf("Num Fills: %d\n", len(fills))
	fmt.Printf("Fills in last 24h: %d\n", lastDay)

	last, err := jnl.LastBracket(ctx)
	if err != nil {
		return err
	}
	if last != nil {
		fmt.Println()
		fmt.Printf("Last bracket placed at: %s\n", last.Time.Format(time.RFC3339))
		fmt.Printf("Center: %s\n", calc.Quote(exchange.Price(last.Center)))
		fmt.Printf("Buy: %s at %s\n", calc.Base(exchange.Size(last.BuySize)), calc.Quote(exchange.Price(last.BuyPrice)))
		fmt.Printf("Sell: %s at %s\n", calc.Base(exchange.Size(last.SellSize)), calc.Quote(exchange.Price(last.SellPrice)))
	}

	if len(fills) > 0 && c.numFills > 0 {
		recent := fills
		if len(recent) > c.numFills {
			recent = recent[len(recent)-c.numFills:]
		}
		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "Time\tSide\tSize\tPrice\t\n")
		for _, f := range recent {
			side := "buy"
			if f.Kind == string(exchange.KindBid) {
				side = "sell"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", f.Time.Format(time.RFC3339), side, calc.Base(exchange.Size(f.Size)), calc.Quote(exchange.Price(f.Price)))
		}
		tw.Flush()
	}
	return nil
}
