package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/cache"
	"github.com/bountyboard/bounty-backend/cfg"
	"github.com/bountyboard/bounty-backend/contract"
	"github.com/bountyboard/bounty-backend/db"
	"github.com/bountyboard/bounty-backend/driver"
	s3 "github.com/bountyboard/bounty-backend/driver/aws"
	"github.com/bountyboard/bounty-backend/driver/ipfs"
	"github.com/bountyboard/bounty-backend/external"
	"github.com/bountyboard/bounty-backend/metrics"
	"github.com/bountyboard/bounty-backend/readmodel"
	"github.com/bountyboard/bounty-backend/server/api"
)

const serverVersion = cfg.ServerVersion

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err.Error())
	}

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
	logger = logger.With(zap.String("service_name", "api"))
	logger.Info("Start API server...", zap.String("port", serviceCfg.Port), zap.Uint64("chainId", serviceCfg.ChainID))

	defer func() {
		if err := recover(); err != nil {
			logger.Error("cannot recover", zap.Any("panic", err))
		}
		_ = logger.Sync()
	}()

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
		IsFlush:            serviceCfg.CacheIsFlush,
		DefaultExpiredTime: serviceCfg.CacheExpiredTime,
		Logger:             logger,
	})
	if err != nil {
		logger.Panic("cannot create cache client", zap.Error(err))
	}
	defer cacheClient.Close()

	dbClient, err := db.NewClient(db.Config{
		DbAdapter: db.Adapter(serviceCfg.StorageDriver),
		DbName:    serviceCfg.StorageDB,
		URL:       serviceCfg.StorageURI,
		MinConn:   serviceCfg.StorageMinConn,
		MaxConn:   serviceCfg.StorageMaxConn,
		FlushDB:   serviceCfg.StorageIsFlush,
		Logger:    logger,
	})
	if err != nil {
		logger.Panic("cannot create db client", zap.Error(err))
	}
	defer dbClient.Close(context.Background())

	blobStore, err := newBlobStore(ctx, serviceCfg, logger)
	if err != nil {
		logger.Panic("cannot create blob store", zap.Error(err))
	}

	llm, err := external.NewLLM(external.LLMConfig{
		APIKey:  serviceCfg.LLMAPIKey,
		BaseURL: serviceCfg.LLMBaseURL,
		Model:   serviceCfg.LLMModel,
		Logger:  logger,
	})
	if err != nil {
		logger.Panic("cannot create llm client", zap.Error(err))
	}

	metricsProvider := metrics.New()
	readModel := readmodel.New(readmodel.Config{
		Contract: contractClient,
		Cache:    cacheClient,
		Workers:  serviceCfg.FetchWorkers,
		Metrics:  metricsProvider,
		Logger:   logger,
	})
	analyzer := external.NewAnalyzer(external.AnalyzerConfig{
		LLM:    llm,
		Proofs: blobStore,
		Logger: logger,
	})

	srv := new(api.Server).
		SetSecret(serviceCfg.HttpRequestSecret).
		SetLogger(logger).
		SetReadModel(readModel).
		SetAnalyzer(analyzer).
		SetStorage(dbClient).
		SetCache(cacheClient).
		SetBlobStore(blobStore).
		SetMetrics(metricsProvider)

	e := api.NewEcho(srv)
	go func() {
		if err := api.Start(e, serviceCfg); err != nil {
			logger.Info("API server stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("cannot shutdown echo server", zap.Error(err))
	}
}

func newBlobStore(ctx context.Context, serviceCfg cfg.BountyConfig, logger *zap.Logger) (driver.BlobStore, error) {
	switch serviceCfg.BlobDriver {
	case cfg.BlobDriverS3:
		return s3.New(ctx, s3.Config{
			Endpoint:        serviceCfg.S3Endpoint,
			Region:          serviceCfg.S3Region,
			Bucket:          serviceCfg.S3Bucket,
			AccessKeyID:     serviceCfg.S3AccessKeyID,
			SecretAccessKey: serviceCfg.S3SecretAccessKey,
			GatewayURL:      serviceCfg.GatewayURL,
			Logger:          logger,
		})
	default:
		return ipfs.New(ipfs.Config{
			JWT:        serviceCfg.PinataJWT,
			APIKey:     serviceCfg.PinataAPIKey,
			APISecret:  serviceCfg.PinataAPISecret,
			APIURL:     serviceCfg.PinataAPIURL,
			GatewayURL: serviceCfg.GatewayURL,
			Logger:     logger,
		})
	}
}
