package cli

import (
	"context"
	"flag"
	"time"

	"github.com/google/subcommands"

	"github.com/aristath/advisor/internal/di"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/utils"
)

type simulateCmd struct {
	app        *App
	symbols    string
	weights    string
	start      string
	end        string
	investment float64
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "simulate a buy-and-hold portfolio" }
func (*simulateCmd) Usage() string {
	return `advisor simulate -symbols AAPL,MSFT -weights 0.6,0.4 -start 2023-01-01 [-end <date>] [-investment n]

  Replays the weighted portfolio over the window and prints its metrics and value curve.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "comma separated symbols")
	f.StringVar(&c.weights, "weights", "", "comma separated weights, one per symbol, summing to 1")
	f.StringVar(&c.start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&c.end, "end", "", "end date (YYYY-MM-DD, defaults to today)")
	f.Float64Var(&c.investment, "investment", 0, "initial investment (defaults to the configured amount)")
}

func (c *simulateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	weights, err := parseFloats(c.weights)
	if err != nil {
		return c.app.fail(err)
	}
	start, end, err := parseWindow(c.start, c.end)
	if err != nil {
		return c.app.fail(err)
	}

	req := portfolio.SimulationRequest{
		Symbols:           utils.NormalizeSymbols(utils.ParseCSV(c.symbols)),
		Weights:           weights,
		StartDate:         start,
		EndDate:           end,
		InitialInvestment: c.investment,
	}
	return c.app.run(ctx, func(ctx context.Context, container *di.Container) (interface{}, error) {
		return container.PortfolioService.Simulate(ctx, req)
	})
}

type frontierCmd struct {
	app     *App
	symbols string
	start   string
	end     string
	n       int
}

func (*frontierCmd) Name() string { return "frontier" }
func (*frontierCmd) Synopsis() string {
	return "sample random portfolios and extract the efficient frontier"
}
func (*frontierCmd) Usage() string {
	return `advisor frontier -symbols AAPL,MSFT,GOOG -start 2023-01-01 [-end <date>] [-n 1000]

  Evaluates n random weightings and prints the samples, the frontier and the
  maximum Sharpe and minimum volatility portfolios.
`
}

func (c *frontierCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "comma separated symbols")
	f.StringVar(&c.start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&c.end, "end", "", "end date (YYYY-MM-DD, defaults to today)")
	f.IntVar(&c.n, "n", optimization.DefaultNumPortfolios, "number of random portfolios")
}

func (c *frontierCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := parseWindow(c.start, c.end)
	if err != nil {
		return c.app.fail(err)
	}
	symbols := utils.NormalizeSymbols(utils.ParseCSV(c.symbols))
	if len(symbols) == 0 {
		return c.app.fail(domain.InvalidRequest("at least one symbol is required"))
	}

	req := optimization.FrontierRequest{
		Symbols:       symbols,
		StartDate:     start,
		EndDate:       end,
		NumPortfolios: c.n,
	}
	return c.app.run(ctx, func(ctx context.Context, container *di.Container) (interface{}, error) {
		return container.FrontierGenerator.Create(ctx, req)
	})
}

type predictCmd struct {
	app        *App
	days       int
	confidence float64
}

func (*predictCmd) Name() string     { return "predict" }
func (*predictCmd) Synopsis() string { return "predict the price trend of one symbol" }
func (*predictCmd) Usage() string {
	return `advisor predict [-days 30] [-confidence 0.8] <symbol>

  Prints the trend direction, confidence, risk level and recommendation.
`
}

func (c *predictCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 30, "prediction horizon in days")
	f.Float64Var(&c.confidence, "confidence", 0.8, "requested confidence level, in (0, 1)")
}

func (c *predictCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbol, err := symbolArg(f)
	if err != nil {
		return c.app.fail(err)
	}
	return c.app.run(ctx, func(ctx context.Context, container *di.Container) (interface{}, error) {
		return container.Predictor.Predict(ctx, symbol, c.days, c.confidence)
	})
}

type indicatorsCmd struct {
	app   *App
	start string
	end   string
}

func (*indicatorsCmd) Name() string     { return "indicators" }
func (*indicatorsCmd) Synopsis() string { return "compute SMA, RSI and MACD series for one symbol" }
func (*indicatorsCmd) Usage() string {
	return `advisor indicators [-start <date>] [-end <date>] <symbol>

  Prints the aligned indicator series. The window defaults to the last year.
`
}

func (c *indicatorsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&c.end, "end", "", "end date (YYYY-MM-DD, defaults to today)")
}

func (c *indicatorsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbol, err := symbolArg(f)
	if err != nil {
		return c.app.fail(err)
	}
	start, err := utils.ParseOptionalDate("start", c.start)
	if err != nil {
		return c.app.fail(err)
	}
	end, err := utils.ParseOptionalDate("end", c.end)
	if err != nil {
		return c.app.fail(err)
	}
	return c.app.run(ctx, func(ctx context.Context, container *di.Container) (interface{}, error) {
		return container.TechnicalService.GetIndicators(ctx, symbol, start, end)
	})
}

type cleanupCmd struct {
	app *App
}

func (*cleanupCmd) Name() string     { return "cache-cleanup" }
func (*cleanupCmd) Synopsis() string { return "drop expired entries from the price cache" }
func (*cleanupCmd) Usage() string {
	return `advisor cache-cleanup

  Deletes expired price-history entries and prints the count per table.
`
}

func (*cleanupCmd) SetFlags(*flag.FlagSet) {}

func (c *cleanupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(ctx, func(ctx context.Context, container *di.Container) (interface{}, error) {
		deleted, err := container.CacheRepo.DeleteAllExpired(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"deleted": deleted, "finished_at": time.Now().UTC()}, nil
	})
}

// parseWindow parses a required start and an optional end date.
func parseWindow(rawStart, rawEnd string) (time.Time, *time.Time, error) {
	start, err := utils.ParseOptionalDate("start", rawStart)
	if err != nil {
		return time.Time{}, nil, err
	}
	if start == nil {
		return time.Time{}, nil, domain.InvalidRequest("start is required")
	}
	end, err := utils.ParseOptionalDate("end", rawEnd)
	if err != nil {
		return time.Time{}, nil, err
	}
	return *start, end, nil
}
