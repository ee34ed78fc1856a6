/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

// Package cfg
package cfg

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeDev        = "dev"
	ModeProduction = "prod"

	ServerVersion = "1.0.0"
)

const (
	BlobDriverIPFS = "ipfs"
	BlobDriverS3   = "s3"
)

var (
	ErrMissingContract = errors.New("missing contract address in config")
	ErrMissingRPC      = errors.New("missing chain RPC URL in config")
	ErrMissingChainID  = errors.New("missing chain id in config")
)

type BountyConfig struct {
	ServerMode        string
	Port              string
	HttpRequestSecret string

	LogLevel  string
	SentryDSN string

	DefaultAPITimeout time.Duration

	ChainRPCURL         string
	ChainID             uint64
	ChainName           string
	ChainCurrencySymbol string
	ChainExplorerURL    string
	ContractAddress     string
	WalletPrivateKey    string

	CacheEngine      string
	CacheURL         string
	CacheDB          int
	CachePassword    string
	CacheIsFlush     bool
	CacheExpiredTime time.Duration

	StorageDriver  string
	StorageURI     string
	StorageDB      string
	StorageMinConn int
	StorageMaxConn int
	StorageIsFlush bool

	BlobDriver      string
	PinataJWT       string
	PinataAPIKey    string
	PinataAPISecret string
	PinataAPIURL    string
	GatewayURL      string

	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	RefreshInterval     time.Duration
	FetchWorkers        int
	TxResetDelay        time.Duration
	ReceiptPollInterval time.Duration
}

func New() (BountyConfig, error) {
	apiDefaultTimeoutStr := os.Getenv("DEFAULT_API_TIMEOUT")
	apiDefaultTimeout, err := strconv.Atoi(apiDefaultTimeoutStr)
	if err != nil {
		apiDefaultTimeout = 30
	}

	chainRPCURL := os.Getenv("CHAIN_RPC_URL")
	if chainRPCURL == "" {
		return BountyConfig{}, ErrMissingRPC
	}
	chainIDStr := os.Getenv("CHAIN_ID")
	chainID, err := strconv.ParseUint(chainIDStr, 10, 64)
	if err != nil || chainID == 0 {
		return BountyConfig{}, ErrMissingChainID
	}
	contractAddress := strings.TrimSpace(os.Getenv("CONTRACT_ADDRESS"))
	if contractAddress == "" {
		return BountyConfig{}, ErrMissingContract
	}

	cacheDBStr := os.Getenv("CACHE_DB")
	cacheDB, err := strconv.Atoi(cacheDBStr)
	if err != nil {
		cacheDB = 0
	}

	cacheIsFlushStr := os.Getenv("CACHE_IS_FLUSH")
	cacheIsFlush, err := strconv.ParseBool(cacheIsFlushStr)
	if err != nil {
		cacheIsFlush = false
	}

	cacheExpiredTimeStr := os.Getenv("CACHE_EXPIRED_TIME")
	cacheExpiredTime, err := time.ParseDuration(cacheExpiredTimeStr)
	if err != nil {
		cacheExpiredTime = 30 * time.Second
	}

	storageMinConnStr := os.Getenv("STORAGE_MIN_CONN")
	storageMinConn, err := strconv.Atoi(storageMinConnStr)
	if err != nil {
		storageMinConn = 8
	}

	storageMaxConnStr := os.Getenv("STORAGE_MAX_CONN")
	storageMaxConn, err := strconv.Atoi(storageMaxConnStr)
	if err != nil {
		storageMaxConn = 32
	}

	storageIsFlushStr := os.Getenv("STORAGE_IS_FLUSH")
	storageIsFlush, err := strconv.ParseBool(storageIsFlushStr)
	if err != nil {
		storageIsFlush = false
	}

	refreshIntervalStr := os.Getenv("REFRESH_INTERVAL")
	refreshInterval, err := time.ParseDuration(refreshIntervalStr)
	if err != nil {
		refreshInterval = 30 * time.Second
	}

	fetchWorkersStr := os.Getenv("FETCH_WORKERS")
	fetchWorkers, err := strconv.Atoi(fetchWorkersStr)
	if err != nil {
		fetchWorkers = 8
	}

	txResetDelayStr := os.Getenv("TX_RESET_DELAY")
	txResetDelay, err := time.ParseDuration(txResetDelayStr)
	if err != nil {
		txResetDelay = 5 * time.Second
	}

	receiptPollIntervalStr := os.Getenv("RECEIPT_POLL_INTERVAL")
	receiptPollInterval, err := time.ParseDuration(receiptPollIntervalStr)
	if err != nil {
		receiptPollInterval = 2 * time.Second
	}

	cfg := BountyConfig{
		ServerMode:        getEnv("SERVER_MODE", ModeDev),
		Port:              getEnv("PORT", ":3000"),
		HttpRequestSecret: os.Getenv("HTTP_REQUEST_SECRET"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		DefaultAPITimeout: time.Duration(apiDefaultTimeout) * time.Second,

		ChainRPCURL:         chainRPCURL,
		ChainID:             chainID,
		ChainName:           getEnv("CHAIN_NAME", "Chain "+chainIDStr),
		ChainCurrencySymbol: getEnv("CHAIN_CURRENCY_SYMBOL", "ETH"),
		ChainExplorerURL:    os.Getenv("CHAIN_EXPLORER_URL"),
		ContractAddress:     contractAddress,
		WalletPrivateKey:    os.Getenv("WALLET_PRIVATE_KEY"),

		CacheEngine:      getEnv("CACHE_ENGINE", "redis"),
		CacheURL:         os.Getenv("CACHE_URI"),
		CacheDB:          cacheDB,
		CachePassword:    os.Getenv("CACHE_PASSWORD"),
		CacheIsFlush:     cacheIsFlush,
		CacheExpiredTime: cacheExpiredTime,

		StorageDriver:  getEnv("STORAGE_DRIVER", "mgo"),
		StorageURI:     os.Getenv("STORAGE_URI"),
		StorageDB:      getEnv("STORAGE_DB", "bountyBoard"),
		StorageMinConn: storageMinConn,
		StorageMaxConn: storageMaxConn,
		StorageIsFlush: storageIsFlush,

		BlobDriver:      getEnv("BLOB_DRIVER", BlobDriverIPFS),
		PinataJWT:       os.Getenv("PINATA_JWT"),
		PinataAPIKey:    os.Getenv("PINATA_API_KEY"),
		PinataAPISecret: os.Getenv("PINATA_API_SECRET"),
		PinataAPIURL:    os.Getenv("PINATA_API_URL"),
		GatewayURL:      os.Getenv("GATEWAY_URL"),

		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),

		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMModel:   os.Getenv("LLM_MODEL"),

		RefreshInterval:     refreshInterval,
		FetchWorkers:        fetchWorkers,
		TxResetDelay:        txResetDelay,
		ReceiptPollInterval: receiptPollInterval,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
