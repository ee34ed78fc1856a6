package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/labstack/echo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/cache"
	"github.com/bountyboard/bounty-backend/cfg"
	"github.com/bountyboard/bounty-backend/contract"
	"github.com/bountyboard/bounty-backend/metrics"
	"github.com/bountyboard/bounty-backend/readmodel"
)

const serverVersion = cfg.ServerVersion

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err.Error())
	}

	runtime.GOMAXPROCS(runtime.NumCPU())
	serviceCfg, err := cfg.New()
	if err != nil {
		panic(err.Error())
	}
	if err := setupSentry(serviceCfg); err != nil {
		panic(err)
	}
	defer sentry.Flush(2 * time.Second)

	logger, err := newLogger(serviceCfg)
	if err != nil {
		panic("cannot init logger")
	}
	logger = logger.With(zap.String("service_name", "watcher"))
	logger.Info("Start watcher", zap.Duration("interval", serviceCfg.RefreshInterval))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ethClient, err := ethclient.DialContext(ctx, serviceCfg.ChainRPCURL)
	if err != nil {
		logger.Panic("cannot dial chain rpc", zap.Error(err))
	}
	contractClient, err := contract.New(contract.Config{
		Address: serviceCfg.ContractAddress,
		Caller:  ethClient,
		Logger:  logger,
	})
	if err != nil {
		logger.Panic("cannot create contract client", zap.Error(err))
	}
	cacheClient, err := cache.New(cache.Config{
		Adapter:            cache.Adapter(serviceCfg.CacheEngine),
		URL:                serviceCfg.CacheURL,
		DB:                 serviceCfg.CacheDB,
		Password:           serviceCfg.CachePassword,
		DefaultExpiredTime: serviceCfg.CacheExpiredTime,
		Logger:             logger,
	})
	if err != nil {
		logger.Panic("cannot create cache client", zap.Error(err))
	}
	defer cacheClient.Close()

	metricsProvider := metrics.New()
	store := readmodel.New(readmodel.Config{
		Contract: contractClient,
		Cache:    cacheClient,
		Workers:  serviceCfg.FetchWorkers,
		Metrics:  metricsProvider,
		Logger:   logger,
	})
	w := newWatcher(store, cacheClient, metricsProvider, serviceCfg.ChainID, serviceCfg.ContractAddress, logger)

	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Panic("cannot create scheduler", zap.Error(err))
	}
	_, err = sched.NewJob(
		gocron.DurationJob(serviceCfg.RefreshInterval),
		gocron.NewTask(func() {
			_, _ = w.refresh(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		logger.Panic("cannot schedule refresh", zap.Error(err))
	}
	sched.Start()

	e := echo.New()
	e.HideBanner = true
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metricsProvider.Registry(), promhttp.HandlerOpts{})))
	go func() {
		if err := e.Start(serviceCfg.Port); err != nil {
			logger.Info("Metrics server stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()
	if err := sched.Shutdown(); err != nil {
		logger.Warn("cannot shutdown scheduler", zap.Error(err))
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = e.Shutdown(shutdownCtx)
	logger.Info("Stopped")
}
