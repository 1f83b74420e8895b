package di

import (
	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/evaluation/workers"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/prediction"
	"github.com/aristath/advisor/internal/modules/technical"
	"github.com/rs/zerolog"
)

// InitializeServices builds the provider chain and the analytics services.
// Every service is constructed once here and shared by pointer.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.YahooClient = yahoo.NewClient(cfg.YahooBaseURL, cfg.ProviderTimeout, log)
	container.CacheRepo = clientdata.NewRepository(container.CacheDB.Conn())
	container.Provider = clientdata.NewCachedProvider(container.YahooClient, container.CacheRepo, cfg.PriceCacheTTL, log)

	container.HistoryFetcher = portfolio.NewHistoryFetcher(container.Provider, cfg.ProviderTimeout, log)
	container.MetricsCalculator = portfolio.NewMetricsCalculator(cfg.RiskFreeRate, log)
	container.PortfolioService = portfolio.NewPortfolioService(
		container.HistoryFetcher,
		container.MetricsCalculator,
		cfg.DefaultInitialInvestment,
		log,
	)

	container.WorkerPool = workers.NewWorkerPool(cfg.FrontierWorkers)
	container.FrontierGenerator = optimization.NewFrontierGenerator(
		container.HistoryFetcher,
		container.MetricsCalculator,
		container.WorkerPool,
		uint64(cfg.FrontierSeed),
		log,
	)

	container.TechnicalEngine = technical.NewEngine()
	container.TechnicalService = technical.NewService(container.Provider, container.TechnicalEngine, cfg.ProviderTimeout, log)
	container.Predictor = prediction.NewPredictor(container.HistoryFetcher, container.TechnicalEngine, log)

	log.Info().
		Float64("risk_free_rate", cfg.RiskFreeRate).
		Int("frontier_workers", container.WorkerPool.Size()).
		Msg("Services initialized")
	return nil
}
