package optimization

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/evaluation/workers"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/utils"
	"github.com/aristath/advisor/pkg/formulas"
)

// Limits for frontier sampling.
const (
	DefaultNumPortfolios = 1000
	MaxNumPortfolios     = 100_000
)

// FrontierRequest asks for a Monte-Carlo frontier over symbols.
type FrontierRequest struct {
	Symbols       []string
	StartDate     time.Time
	EndDate       *time.Time // nil means today
	NumPortfolios int        // <= 0 yields an empty result
}

// Sample is one randomly weighted portfolio. Return is the annualized return.
type Sample struct {
	Weights     map[string]float64 `json:"weights"`
	Return      float64            `json:"return"`
	Volatility  float64            `json:"volatility"`
	SharpeRatio float64            `json:"sharpe_ratio"`
}

func newSample(symbols []string, weights []float64, m portfolio.Metrics) Sample {
	w := make(map[string]float64, len(symbols))
	for i, s := range symbols {
		w[s] = formulas.Finite(weights[i])
	}
	return Sample{
		Weights:     w,
		Return:      m.AnnualReturn,
		Volatility:  m.Volatility,
		SharpeRatio: m.SharpeRatio,
	}
}

// FrontierResult holds every sample and the Sharpe-monotone frontier.
type FrontierResult struct {
	Symbols       []string `json:"symbols"`
	TradingDays   int      `json:"trading_days"`
	Samples       []Sample `json:"samples"`
	Frontier      []Sample `json:"frontier"`
	MaxSharpe     *Sample  `json:"max_sharpe"`
	MinVolatility *Sample  `json:"min_volatility"`
	Warnings      []string `json:"warnings"`
}

func emptyFrontier() *FrontierResult {
	return &FrontierResult{
		Symbols:  []string{},
		Samples:  []Sample{},
		Frontier: []Sample{},
		Warnings: []string{},
	}
}

// FrontierGenerator samples random long-only portfolios and extracts an
// approximate efficient frontier.
type FrontierGenerator struct {
	fetcher    *portfolio.HistoryFetcher
	calculator *portfolio.MetricsCalculator
	pool       *workers.WorkerPool
	seed       uint64
	now        func() time.Time
	log        zerolog.Logger
}

// NewFrontierGenerator creates a generator. A zero seed draws a fresh seed
// per call; any other value makes every call reproducible.
func NewFrontierGenerator(
	fetcher *portfolio.HistoryFetcher,
	calculator *portfolio.MetricsCalculator,
	pool *workers.WorkerPool,
	seed uint64,
	log zerolog.Logger,
) *FrontierGenerator {
	return &FrontierGenerator{
		fetcher:    fetcher,
		calculator: calculator,
		pool:       pool,
		seed:       seed,
		now:        time.Now,
		log:        log.With().Str("component", "frontier_generator").Logger(),
	}
}

// Create runs the frontier search. See CreateWithProgress.
func (g *FrontierGenerator) Create(ctx context.Context, req FrontierRequest) (*FrontierResult, error) {
	return g.CreateWithProgress(ctx, req, nil)
}

// CreateWithProgress fetches and aligns the symbols once, evaluates
// NumPortfolios random weight vectors on the worker pool and extracts the
// frontier.
//
// Symbols whose history cannot be fetched are excluded with a warning;
// only when none remain is the call a DataUnavailable failure.
func (g *FrontierGenerator) CreateWithProgress(ctx context.Context, req FrontierRequest, progress workers.ProgressCallback) (*FrontierResult, error) {
	if req.NumPortfolios <= 0 {
		return emptyFrontier(), nil
	}
	if req.NumPortfolios > MaxNumPortfolios {
		return nil, domain.InvalidRequest("num_portfolios %d exceeds the limit of %d", req.NumPortfolios, MaxNumPortfolios)
	}
	if err := portfolio.ValidateSymbols(req.Symbols); err != nil {
		return nil, err
	}
	start, end, err := portfolio.ResolveWindow(req.StartDate, req.EndDate, g.now())
	if err != nil {
		return nil, err
	}

	defer utils.OperationTimer("efficient_frontier", g.log)()

	histories, failures := g.fetcher.FetchAll(ctx, req.Symbols, start, end)

	warnings := make([]string, 0, len(failures))
	for _, f := range failures {
		warnings = append(warnings, fmt.Sprintf("%s excluded: %v", f.Symbol, f.Err))
	}

	data := portfolio.AlignCloses(req.Symbols, histories)
	if len(data.Symbols) == 0 {
		return nil, domain.DataUnavailable("no price history for any of %d symbols", len(req.Symbols))
	}
	if len(data.Dates) == 0 {
		return nil, domain.DataUnavailable("price histories share no trading dates")
	}

	returns := data.ReturnMatrix()
	weightSets := g.drawWeights(len(data.Symbols), req.NumPortfolios)

	type evaluation struct {
		sample Sample
		err    error
	}
	evaluated := workers.EvaluateBatch(g.pool, weightSets, func(w []float64) evaluation {
		s, err := g.evaluate(returns, data.Symbols, w)
		return evaluation{sample: s, err: err}
	}, progress)

	samples := make([]Sample, len(evaluated))
	for i, e := range evaluated {
		if e.err != nil {
			return nil, fmt.Errorf("failed to evaluate sample %d: %w", i, e.err)
		}
		samples[i] = e.sample
	}

	result := &FrontierResult{
		Symbols:       data.Symbols,
		TradingDays:   len(data.Dates),
		Samples:       samples,
		Frontier:      ExtractFrontier(samples),
		MaxSharpe:     maxSharpe(samples),
		MinVolatility: minVolatility(samples),
		Warnings:      warnings,
	}

	g.log.Info().
		Strs("symbols", data.Symbols).
		Int("samples", len(samples)).
		Int("frontier", len(result.Frontier)).
		Int("excluded", len(failures)).
		Msg("Efficient frontier generated")

	return result, nil
}

// drawWeights draws count weight vectors of length n.
//
// Each weight is drawn independently from U[0,1) and the vector is divided
// by its sum. This is not uniform over the simplex: near-equal weights are
// over-represented and corner portfolios are rare.
func (g *FrontierGenerator) drawWeights(n, count int) [][]float64 {
	seed := g.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	out := make([][]float64, count)
	for i := range out {
		w := make([]float64, n)
		sum := 0.0
		for sum == 0 {
			for j := range w {
				w[j] = rng.Float64()
				sum += w[j]
			}
		}
		for j := range w {
			w[j] /= sum
		}
		out[i] = w
	}
	return out
}

func (g *FrontierGenerator) evaluate(returns *mat.Dense, symbols []string, weights []float64) (Sample, error) {
	series, err := portfolio.WeightedReturns(returns, weights)
	if err != nil {
		return Sample{}, err
	}
	return newSample(symbols, weights, g.calculator.Calculate(series)), nil
}

// ExtractFrontier walks samples in ascending order of return and keeps each
// one whose Sharpe ratio strictly exceeds every Sharpe ratio seen so far.
//
// This is a Sharpe-monotone heuristic, not Pareto dominance: a low-return,
// low-volatility portfolio is dropped when a lower-return sample already had
// a higher Sharpe ratio. Ties on return keep their sampling order.
func ExtractFrontier(samples []Sample) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Return < sorted[j].Return
	})

	frontier := make([]Sample, 0)
	best := math.Inf(-1)
	for _, s := range sorted {
		if s.SharpeRatio > best {
			frontier = append(frontier, s)
			best = s.SharpeRatio
		}
	}
	return frontier
}

func maxSharpe(samples []Sample) *Sample {
	if len(samples) == 0 {
		return nil
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s.SharpeRatio > best.SharpeRatio {
			best = s
		}
	}
	return &best
}

func minVolatility(samples []Sample) *Sample {
	if len(samples) == 0 {
		return nil
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s.Volatility < best.Volatility {
			best = s
		}
	}
	return &best
}
