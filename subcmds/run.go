// Copyright (c) 2026 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bvk/balancebot/balance"
	"github.com/bvk/balancebot/engine"
	"github.com/bvk/balancebot/exchange"
	"github.com/bvk/balancebot/feed"
	"github.com/bvk/balancebot/journal"
	"github.com/bvk/balancebot/paper"
	"github.com/bvk/balancebot/telegram"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
	"github.com/visvasity/sglog"
	"github.com/visvasity/topic"
	"golang.org/x/term"
)

type Run struct {
	ProductFlags
	EngineFlags

	dataDir     string
	secretsPath string

	feedURL string

	baseBalance  string
	quoteBalance string

	noKeys bool
	debug  bool
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ProductFlags.SetFlags(fset)
	c.EngineFlags.SetFlags(fset)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.StringVar(&c.feedURL, "feed-url", "", "websocket endpoint for the market-data feed")
	fset.StringVar(&c.baseBalance, "base-balance", "1", "starting base asset balance")
	fset.StringVar(&c.quoteBalance, "quote-balance", "10000", "starting quote asset balance")
	fset.BoolVar(&c.noKeys, "no-keys", false, "when true, keyboard input is not read for commands")
	fset.BoolVar(&c.debug, "debug", false, "when true, debug level messages are also logged")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs the rebalancer against a live price feed"
}

// request asks the event loop to run one engine command and report back.
type request struct {
	cmd engine.Command

	replyc chan *reply
}

type reply struct {
	text string
	err  error
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(c.feedURL) == 0 {
		return fmt.Errorf("feed endpoint url is required")
	}

	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".balancebot")
	}
	if err := os.MkdirAll(c.dataDir, 0700); err != nil {
		return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	logsDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logsDir, 0700); err != nil {
		return fmt.Errorf("could not create logs directory %q: %w", logsDir, err)
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs: []string{logsDir},
	})
	defer backend.Close()
	if c.debug {
		backend.SetLevel(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(backend.Handler()))

	lockPath := filepath.Join(dataDir, "balancebot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		return fmt.Errorf("could not get lock on file %q (is another instance running?): %w", lockPath, err)
	}
	defer flock.Unlock()

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets := new(Secrets)
	if _, serr := os.Stat(c.secretsPath); serr == nil {
		if secrets, err = SecretsFromFile(c.secretsPath); err != nil {
			return err
		}
		if err := secrets.Check(); err != nil {
			return err
		}
	}

	db, closer, err := openDatabase(dataDir)
	if err != nil {
		return err
	}
	defer closer()

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
	jnl := journal.New(db)
	eng, err := engine.New(trader, calc, jnl, eopts)
	if err != nil {
		return err
	}
	defer eng.Close()

	prices, err := feed.New(&feed.Options{URL: c.feedURL})
	if err != nil {
		return err
	}
	defer prices.Close()

	pricesr, err := prices.PriceUpdates()
	if err != nil {
		return err
	}
	defer pricesr.Close()

	tradesr, err := trader.TradeUpdates()
	if err != nil {
		return err
	}
	defer tradesr.Close()

	ownsr, err := trader.OwnsUpdates()
	if err != nil {
		return err
	}
	defer ownsr.Close()

	reqc := make(chan *request)

	var tgc *telegram.Client
	if secrets.Telegram != nil {
		tgc, err = telegram.New(ctx, db, secrets.Telegram)
		if err != nil {
			return err
		}
		defer tgc.Close()
		if err := c.addTelegramCommands(ctx, tgc, reqc); err != nil {
			return err
		}
	}

	if !c.noKeys && term.IsTerminal(int(os.Stdin.Fd())) {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("could not put terminal in raw mode: %w", err)
		}
		defer term.Restore(int(os.Stdin.Fd()), oldState)
		go c.goReadKeys(ctx, stop, reqc)
	}

	slog.Info("started the rebalancer", "feed", c.feedURL, "data-dir", dataDir)

	pricec, err := topic.ReceiveCh(pricesr)
	if err != nil {
		return err
	}
	tradec, err := topic.ReceiveCh(tradesr)
	if err != nil {
		return err
	}
	ownsc, err := topic.ReceiveCh(ownsr)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("rebalancer is shutting down")
			return nil

		case p, ok := <-pricec:
			if !ok {
				return fmt.Errorf("price feed channel was closed")
			}
			trader.Tick(c.TickPrice(p))

		case t, ok := <-tradec:
			if !ok {
				return fmt.Errorf("trade events channel was closed")
			}
			if err := eng.OnTrade(ctx, t); err != nil {
				slog.Error("could not handle trade event", "err", err)
			}
			c.notifyFill(ctx, tgc, calc, t)

		case _, ok := <-ownsc:
			if !ok {
				return fmt.Errorf("order events channel was closed")
			}
			if err := eng.OnOwnsChanged(ctx); err != nil {
				slog.Error("could not handle order book change", "err", err)
			}

		case r := <-reqc:
			v := &reply{err: eng.Do(ctx, r.cmd)}
			if r.cmd == engine.ShowStatus && v.err == nil {
				v.text = formatStatus(eng.Status(), calc)
			}
			r.replyc <- v
		}
	}
}

// enqueue hands a command to the event loop and waits for the outcome.
func enqueue(ctx context.Context, reqc chan<- *request, cmd engine.Command) (string, error) {
	r := &request{cmd: cmd, replyc: make(chan *reply, 1)}
	select {
	case <-ctx.Done():
		return "", context.Cause(ctx)
	case reqc <- r:
	}
	select {
	case <-ctx.Done():
		return "", context.Cause(ctx)
	case v := <-r.replyc:
		return v.text, v.err
	}
}

func (c *Run) addTelegramCommands(ctx context.Context, tgc *telegram.Client, reqc chan<- *request) error {
	cmds := []struct {
		name    string
		purpose string
		cmd     engine.Command
	}{
		{"status", "Prints the rebalancer status", engine.ShowStatus},
		{"pause", "Cancels rebalancing orders and halts", engine.Halt},
		{"resume", "Places a fresh bracket and resumes", engine.ResumeAndPlace},
		{"rebalance", "Rebalances immediately with a market order", engine.MarketRebalance},
		{"resubscribe", "Refreshes the exchange subscriptions", engine.Resubscribe},
	}
	for _, item := range cmds {
		handler := func(hctx context.Context, args []string) error {
			text, err := enqueue(hctx, reqc, item.cmd)
			if err != nil {
				return err
			}
			if len(text) == 0 {
				text = "done"
			}
			fmt.Fprint(cli.Stdout(hctx), text)
			return nil
		}
		if err := tgc.AddCommand(ctx, item.name, item.purpose, handler); err != nil {
			return err
		}
	}
	return nil
}

func (c *Run) notifyFill(ctx context.Context, tgc *telegram.Client, calc *balance.Calculator, t *exchange.Trade) {
	if tgc == nil || !t.Own {
		return
	}
	verb := "bought"
	if t.Kind == exchange.KindBid {
		verb = "sold"
	}
	msg := fmt.Sprintf("%s %s %s at %s", verb, calc.Base(t.Size), calc.BaseAsset(), calc.Quote(t.Price))
	if err := tgc.SendMessage(ctx, t.Time.Time, msg); err != nil {
		slog.Warn("could not send fill notification (ignored)", "err", err)
	}
}

// goReadKeys maps single keystrokes to engine commands. The terminal is
// expected to be in raw mode.
func (c *Run) goReadKeys(ctx context.Context, stop func(), reqc chan<- *request) {
	keymap := map[byte]engine.Command{
		'i': engine.ShowStatus,
		'c': engine.Halt,
		'p': engine.ResumeAndPlace,
		'u': engine.Resubscribe,
		'b': engine.MarketRebalance,
	}
	var buf [1]byte
	for ctx.Err() == nil {
		if _, err := os.Stdin.Read(buf[:]); err != nil {
			return
		}
		key := buf[0]
		if key == 'q' || key == 0x3 {
			stop()
			return
		}
		cmd, ok := keymap[key]
		if !ok {
			continue
		}
		if _, err := enqueue(ctx, reqc, cmd); err != nil {
			slog.Error("could not run keyboard command", "key", string(key), "err", err)
		}
	}
}

func formatStatus(s *engine.Status, calc *balance.Calculator) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "halted: %t\n", s.Halted)
	fmt.Fprintf(&sb, "mid price: %s\n", calc.Quote(s.Mid))
	fmt.Fprintf(&sb, "%s to balance: %s\n", calc.BaseAsset(), calc.Base(s.Delta))
	if s.BalancedPrice != 0 {
		fmt.Fprintf(&sb, "balanced price: %s\n", calc.Quote(s.BalancedPrice))
	}
	fmt.Fprintf(&sb, "open orders: %d pending orders: %d\n", s.Open, s.Pending)
	fmt.Fprintf(&sb, "%s balance: %s\n", calc.BaseAsset(), calc.Base(exchange.Size(s.Wallet[calc.BaseAsset()])))
	fmt.Fprintf(&sb, "%s balance: %s\n", calc.QuoteAsset(), calc.QuoteUnits(s.Wallet[calc.QuoteAsset()]))
	return sb.String()
}
