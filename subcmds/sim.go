// Copyright (c) 2026 BVK Chaitanya

package subcmds

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bvk/balancebot/balance"
	"github.com/bvk/balancebot/engine"
	"github.com/bvk/balancebot/journal"
	"github.com/bvk/balancebot/paper"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type Sim struct {
	ProductFlags
	EngineFlags

	baseBalance  string
	quoteBalance string

	verbose bool
}

func (c *Sim) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("sim", flag.ContinueOnError)
	c.ProductFlags.SetFlags(fset)
	c.EngineFlags.SetFlags(fset)
	fset.StringVar(&c.baseBalance, "base-balance", "1", "starting base asset balance")
	fset.StringVar(&c.quoteBalance, "quote-balance", "10000", "starting quote asset balance")
	fset.BoolVar(&c.verbose, "verbose", false, "when true, every fill is printed")
	return "sim", fset, cli.CmdFunc(c.run)
}

func (c *Sim) Purpose() string {
	return "Replays a price history file through the rebalancer"
}

func (c *Sim) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (price history file) argument")
	}

	prices, err := c.readPrices(args[0])
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return fmt.Errorf("price history file %q has no prices", args[0])
	}

	calc, err := balance.New(c.BalanceOptions())
	if err != nil {
		return err
	}

	wallet, err := c.StartingWallet(c.baseBalance, c.quoteBalance)
	if err != nil {
		return err
	}
	trader, err := paper.New(wallet, c.PaperOptions())
	if err != nil {
		return err
	}

	eopts, err := c.EngineOptions()
	if err != nil {
		return err
	}
	jnl := journal.New(kvmemdb.New())
	eng, err := engine.New(trader, calc, jnl, eopts)
	if err != nil {
		return err
	}
	defer eng.Close()

	trader.Tick(c.TickPrice(prices[0]))
	if err := eng.Do(ctx, engine.ResumeAndPlace); err != nil {
		return err
	}

	var nfills int
	for _, p := range prices[1:] {
		fills := trader.Tick(c.TickPrice(p))
		for _, f := range fills {
			nfills++
			if c.verbose {
				fmt.Printf("%s %s at %s\n", f.Kind, calc.Base(f.Size), calc.Quote(f.Price))
			}
			if err := eng.OnTrade(ctx, f); err != nil {
				return err
			}
		}
		if err := eng.OnOwnsChanged(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("replayed %d prices with %d fills\n", len(prices), nfills)
	fmt.Print(formatStatus(eng.Status(), calc))
	return nil
}

// readPrices parses one price per line. Lines may be comma separated
// records, in which case the last field is the price. Empty lines and #
// comments are skipped.
func (c *Sim) readPrices(fpath string) ([]decimal.Decimal, error) {
	fp, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	var prices []decimal.Decimal
	scanner := bufio.NewScanner(fp)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		p, err := decimal.NewFromString(strings.TrimSpace(fields[len(fields)-1]))
		if err != nil {
			return nil, fmt.Errorf("could not parse price from line %q: %w", line, err)
		}
		prices = append(prices, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}
