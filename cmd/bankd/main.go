// bankd is the bank ledger server daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/audit"
	"github.com/corebank/ledger/server"
	"github.com/corebank/ledger/store"
	"github.com/corebank/ledger/store/leveldb"
	"github.com/corebank/ledger/store/memory"
	"github.com/corebank/ledger/store/mongo"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bankd",
		Short: "bankd - the bank ledger server",
		Long: `bankd serves a bank ledger over TCP (newline-delimited JSON).

Settings may also come from environment variables prefixed with "BANKD_",
e.g. BANKD_ADDR=:9000 bankd. Flags take precedence.
`,
		DisableAutoGenTag: true,
		RunE:              run,
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Uint64("fee", 0, "flat fee charged on every transfer")
	flags.String("store", "memory", "store backend: memory, leveldb or mongo")
	flags.String("data-dir", "bankd-data", "database directory (leveldb backend)")
	flags.String("mongo-uri", "mongodb://127.0.0.1:27017", "connection URI (mongo backend)")
	flags.String("mongo-db", "bank", "database name (mongo backend)")
	flags.Duration("timeout", 30*time.Second, "per-request read/write deadline, 0 disables")
	flags.String("metrics-addr", "", "address for the Prometheus metrics endpoint, empty disables")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("BANKD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	logger := newLogger(viper.GetString("log-level"))
	slog.SetDefault(logger)

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	l := ledger.New(st,
		ledger.WithFee(viper.GetUint64("fee")),
		ledger.WithLogger(logger),
		ledger.WithHook(audit.New(logger)),
	)
	handle := ledger.NewHandle(l)

	metrics := server.NewMetrics()
	srv := server.New(handle, server.Options{
		Addr:    viper.GetString("addr"),
		Timeout: viper.GetDuration("timeout"),
		Logger:  logger,
		Metrics: metrics,
	})

	if addr := viper.GetString("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler())
		go func() {
			logger.Info("metrics endpoint listening", slog.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics endpoint failed", slog.Any("error", err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	switch backend := viper.GetString("store"); backend {
	case "memory":
		return memory.New(), nil
	case "leveldb":
		return leveldb.New(viper.GetString("data-dir"))
	case "mongo":
		return mongo.New(ctx, viper.GetString("mongo-uri"), viper.GetString("mongo-db"))
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}
