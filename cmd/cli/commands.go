package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amirasaad/fxconvert/infra/initializer"
	"github.com/amirasaad/fxconvert/pkg/app"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/fatih/color"
	"github.com/google/subcommands"
)

// appFactory builds the application a command runs against.
type appFactory func() (*app.App, error)

// Commands returns every CLI subcommand, writing results to out.
func Commands(newApp appFactory, out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&ratesCmd{newApp: newApp, out: out},
		&convertCmd{newApp: newApp, out: out},
		&statusCmd{newApp: newApp, out: out},
	}
}

func bootstrap() (*app.App, error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return nil, fmt.Errorf("failed to load application configuration: %w", err)
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	return app.New(deps, cfg), nil
}

var (
	header = color.New(color.FgCyan, color.Bold)
	accent = color.New(color.FgGreen, color.Bold)
	faint  = color.New(color.Faint)
	failed = color.New(color.FgRed)
)

// withApp runs fn against a fresh application and closes it afterwards.
func withApp(newApp appFactory, fn func(*app.App) error) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		failed.Fprintln(os.Stderr, err) //nolint:errcheck
		return subcommands.ExitFailure
	}
	defer a.Close() //nolint:errcheck
	if err := fn(a); err != nil {
		failed.Fprintln(os.Stderr, err) //nolint:errcheck
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// ---- rates ----

type ratesCmd struct {
	newApp appFactory
	out    io.Writer
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "print the current exchange rate table" }
func (*ratesCmd) Usage() string {
	return `fxconvert rates

  Prints every rate relative to the configured base currency, refreshing the
  local table first when it is stale and the network is reachable.
`
}
func (*ratesCmd) SetFlags(*flag.FlagSet) {}

func (c *ratesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(c.newApp, func(a *app.App) error {
		rates, err := a.ExchangeService.AcquireRates(ctx)
		if err != nil {
			return err
		}
		header.Fprintf(c.out, "%d rates against %s\n", len(rates), a.ExchangeService.BaseCurrency()) //nolint:errcheck
		for _, r := range rates {
			fmt.Fprintf(c.out, "%-6s %14.6f\n", r.Code, r.Rate)
		}
		return nil
	})
}

// ---- convert ----

type convertCmd struct {
	newApp appFactory
	out    io.Writer
	base   string
	amount float64
	strict bool
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "convert an amount into every known currency" }
func (*convertCmd) Usage() string {
	return `fxconvert convert [-base <code>] -amount <n> [-strict]

  Converts amount, given in base, into every currency of the rate table.
  Without -strict a base missing from the table is treated as the table's own
  base currency.
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", domain.DefaultBaseCurrency, "ISO 4217 code the amount is given in.")
	f.Float64Var(&c.amount, "amount", 1, "Amount to convert.")
	f.BoolVar(&c.strict, "strict", false, "Fail when base has no rate.")
}

func (c *convertCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	base := currency.Normalize(c.base)
	if len(base) != 3 {
		failed.Fprintf(os.Stderr, "%v: %q\n", domain.ErrInvalidCurrencyCode, c.base) //nolint:errcheck
		return subcommands.ExitUsageError
	}
	if c.amount < 0 {
		failed.Fprintln(os.Stderr, domain.ErrInvalidAmount) //nolint:errcheck
		return subcommands.ExitUsageError
	}

	return withApp(c.newApp, func(a *app.App) error {
		rates, err := a.ExchangeService.AcquireRates(ctx)
		if err != nil {
			return err
		}
		if currency.IsZeroRate(rates, base) {
			return fmt.Errorf("%w: %q has a zero rate", domain.ErrInvalidCurrencyCode, base)
		}
		var conversions []domain.Conversion
		if c.strict {
			if conversions, err = currency.ConvertStrict(rates, base, c.amount); err != nil {
				return err
			}
		} else {
			conversions = currency.Convert(rates, base, c.amount)
		}

		header.Fprintf(c.out, "%s in %d currencies\n", currency.Format(c.amount, base), len(conversions)) //nolint:errcheck
		for _, conv := range conversions {
			line := fmt.Sprintf("%-6s %s", conv.Code, currency.Format(conv.Amount, conv.Code))
			if conv.Code == base {
				accent.Fprintln(c.out, line) //nolint:errcheck
				continue
			}
			fmt.Fprintln(c.out, line)
		}
		return nil
	})
}

// ---- status ----

type statusCmd struct {
	newApp appFactory
	out    io.Writer
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show when rates were last fetched" }
func (*statusCmd) Usage() string {
	return `fxconvert status

  Prints the last successful fetch time and whether the table is fresh.
`
}
func (*statusCmd) SetFlags(*flag.FlagSet) {}

func (c *statusCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(c.newApp, func(a *app.App) error {
		st, err := a.ExchangeService.Status(ctx)
		if err != nil {
			return err
		}
		if st.LastFetchedAt.IsZero() {
			faint.Fprintln(c.out, "rates have never been fetched") //nolint:errcheck
			return nil
		}
		fmt.Fprintf(c.out, "last fetched: %s\n", st.LastFetchedAt.Format(time.RFC3339))
		fmt.Fprintf(c.out, "next refresh: %s\n", st.NextRefreshAt.Format(time.RFC3339))
		if st.Fresh {
			accent.Fprintln(c.out, "fresh") //nolint:errcheck
		} else {
			failed.Fprintln(c.out, "stale") //nolint:errcheck
		}
		return nil
	})
}
