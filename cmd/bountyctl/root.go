package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/cache"
	"github.com/bountyboard/bounty-backend/cfg"
	"github.com/bountyboard/bounty-backend/contract"
	"github.com/bountyboard/bounty-backend/db"
	"github.com/bountyboard/bounty-backend/readmodel"
	"github.com/bountyboard/bounty-backend/txflow"
	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/utils"
	"github.com/bountyboard/bounty-backend/wallet"
)

const serverVersion = cfg.ServerVersion

// flagEnv maps persistent flags to the environment keys they override.
var flagEnv = map[string]string{
	"rpc":       "CHAIN_RPC_URL",
	"chain-id":  "CHAIN_ID",
	"contract":  "CONTRACT_ADDRESS",
	"key":       "WALLET_PRIVATE_KEY",
	"storage":   "STORAGE_URI",
	"log-level": "LOG_LEVEL",
}

var (
	envFile string
	timeout time.Duration

	rt *app
)

type app struct {
	cfg      cfg.BountyConfig
	lgr      *zap.Logger
	session  *wallet.Session
	store    *readmodel.Store
	tracker  *txflow.Tracker
	client   *client
	dbClient db.Client
	cache    cache.Client
	cancel   context.CancelFunc
}

var rootCmd = &cobra.Command{
	Use:           "bountyctl",
	Short:         "Operate the bounty board contract from a local key",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return err
		}
		var err error
		cmd.Flags().Visit(func(f *pflag.Flag) {
			if key, ok := flagEnv[f.Name]; ok && err == nil {
				err = os.Setenv(key, f.Value.String())
			}
		})
		if err != nil {
			return err
		}
		serviceCfg, err := cfg.New()
		if err != nil {
			return err
		}
		rt, err = newApp(serviceCfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt != nil {
			rt.close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to the environment file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up connecting the wallet after this long, 0 waits forever")
	rootCmd.PersistentFlags().String("rpc", "", "Chain JSON-RPC URL")
	rootCmd.PersistentFlags().String("chain-id", "", "Chain id the wallet must be on")
	rootCmd.PersistentFlags().String("contract", "", "Bounty board contract address")
	rootCmd.PersistentFlags().String("key", "", "Hex private key of the wallet")
	rootCmd.PersistentFlags().String("storage", "", "MongoDB URI for transaction records")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info or warn")
}

func newApp(serviceCfg cfg.BountyConfig) (*app, error) {
	if err := setupSentry(serviceCfg); err != nil {
		return nil, err
	}
	lgr, err := newLogger(serviceCfg)
	if err != nil {
		return nil, fmt.Errorf("cannot init logger: %w", err)
	}
	lgr = lgr.With(zap.String("service_name", "bountyctl"))

	ctx, cancel := context.WithCancel(context.Background())
	r := &app{cfg: serviceCfg, lgr: lgr, cancel: cancel}

	chain := wallet.ChainParams{
		ChainID:   serviceCfg.ChainID,
		ChainName: serviceCfg.ChainName,
		NativeCurrency: wallet.NativeCurrency{
			Name:     serviceCfg.ChainCurrencySymbol,
			Symbol:   serviceCfg.ChainCurrencySymbol,
			Decimals: utils.NativeDecimals,
		},
		RPCURLs: []string{serviceCfg.ChainRPCURL},
	}
	if serviceCfg.ChainExplorerURL != "" {
		chain.BlockExplorerURLs = []string{serviceCfg.ChainExplorerURL}
	}

	var provider wallet.Provider
	var receipts txflow.ReceiptSource
	var caller contract.Caller
	if serviceCfg.WalletPrivateKey != "" {
		local, err := wallet.NewLocalProvider(ctx, serviceCfg.WalletPrivateKey, wallet.DialEthClient, chain)
		if err != nil {
			r.close()
			return nil, err
		}
		provider, receipts, caller = local, local, local
	} else {
		backend, err := wallet.DialEthClient(ctx, serviceCfg.ChainRPCURL)
		if err != nil {
			r.close()
			return nil, err
		}
		receipts, caller = backend, backend
	}

	contractClient, err := contract.New(contract.Config{Address: serviceCfg.ContractAddress, Caller: caller, Logger: lgr})
	if err != nil {
		r.close()
		return nil, err
	}
	calls, err := contract.NewCalls(serviceCfg.ContractAddress)
	if err != nil {
		r.close()
		return nil, err
	}
	storeCfg := readmodel.Config{
		Contract: contractClient,
		Workers:  serviceCfg.FetchWorkers,
		Logger:   lgr,
	}
	// writes must invalidate the views the API serves
	if r.cache, err = openCache(serviceCfg, lgr); err != nil {
		lgr.Warn("Shared read model disabled, cannot connect cache", zap.Error(err))
	} else if r.cache != nil {
		storeCfg.Cache = r.cache
	}
	r.store = readmodel.New(storeCfg)

	r.session = wallet.NewSession(wallet.Config{Provider: provider, Chain: chain, Logger: lgr})
	r.session.OnReload(func() {
		if err := r.store.Invalidate(ctx); err != nil {
			lgr.Warn("Cannot invalidate read model", zap.Error(err))
		}
	})
	if provider != nil {
		go func() {
			_ = r.session.Run(ctx)
		}()
	}

	var recorder txflow.Recorder
	if serviceCfg.StorageURI != "" {
		r.dbClient, err = db.NewClient(db.Config{
			DbAdapter: db.Adapter(serviceCfg.StorageDriver),
			DbName:    serviceCfg.StorageDB,
			URL:       serviceCfg.StorageURI,
			MinConn:   1,
			MaxConn:   serviceCfg.StorageMaxConn,
			Logger:    lgr,
		})
		if err != nil {
			lgr.Warn("Transaction records disabled, cannot connect storage", zap.Error(err))
		} else {
			recorder = r.dbClient
		}
	}

	r.tracker = txflow.New(txflow.Config{
		Session:      r.session,
		Receipts:     receipts,
		Recorder:     recorder,
		ResetDelay:   serviceCfg.TxResetDelay,
		PollInterval: serviceCfg.ReceiptPollInterval,
		Logger:       lgr,
	})
	r.tracker.Subscribe(func(s types.TxStatus) {
		if s.State == types.TxIdle {
			return
		}
		line := fmt.Sprintf("[%s] %s", s.Operation, s.State)
		if s.Hash != "" {
			line += " " + s.Hash
		}
		if s.Message != "" {
			line += ": " + s.Message
		}
		fmt.Fprintln(os.Stderr, line)
	})

	r.client = &client{
		calls:    calls,
		reader:   r.store,
		tx:       r.tracker,
		decimals: utils.NativeDecimals,
		now:      time.Now,
		lgr:      lgr,
	}
	return r, nil
}

// openCache connects the redis cache shared with the API. It returns nil when none is configured.
func openCache(serviceCfg cfg.BountyConfig, lgr *zap.Logger) (cache.Client, error) {
	if serviceCfg.CacheURL == "" {
		return nil, nil
	}
	c, err := cache.New(cache.Config{
		Adapter:            cache.Adapter(serviceCfg.CacheEngine),
		URL:                serviceCfg.CacheURL,
		DB:                 serviceCfg.CacheDB,
		Password:           serviceCfg.CachePassword,
		DefaultExpiredTime: serviceCfg.CacheExpiredTime,
		Logger:             lgr,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// connect links the wallet. --timeout bounds only the connection; the returned context,
// which writes wait on, ends on SIGINT or SIGTERM.
func (r *app) connect(parent context.Context) (context.Context, context.CancelFunc, wallet.Snapshot, error) {
	return connectWithin(parent, timeout, r.session.Connect)
}

func connectWithin(parent context.Context, limit time.Duration, connect func(ctx context.Context) (wallet.Snapshot, error)) (context.Context, context.CancelFunc, wallet.Snapshot, error) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	connectCtx := ctx
	if limit > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}
	snap, err := connect(connectCtx)
	if err != nil {
		stop()
		return nil, nil, wallet.Snapshot{}, err
	}
	return ctx, stop, snap, nil
}

func (r *app) close() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.dbClient != nil {
		_ = r.dbClient.Close(context.Background())
	}
	if r.cache != nil {
		_ = r.cache.Close()
	}
	if r.lgr != nil {
		_ = r.lgr.Sync()
	}
	sentry.Flush(time.Second)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
