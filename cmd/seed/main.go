// Command seed posts fake bulk-create batches to the remote order API so a
// fresh environment has something to show on the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/infrastructure/orderapi"
	"github.com/orderdesk/backend/internal/seed"
	"go.uber.org/zap"
)

func main() {
	var (
		baseURL   string
		owners    string
		batches   int
		batchSize int
		days      int
		qps       float64
		seedValue uint64
		logLevel  string
	)

	flag.StringVar(&baseURL, "base-url", "", "Remote order API base URL (default: remote.base_url from config)")
	flag.StringVar(&owners, "owners", "", "Comma-separated owners (default: owners.names from config)")
	flag.IntVar(&batches, "batches", 10, "Number of bulk requests to send")
	flag.IntVar(&batchSize, "batch-size", 20, "Serial numbers per bulk request")
	flag.IntVar(&days, "days", 30, "Spread order dates over this many past days")
	flag.Float64Var(&qps, "qps", 2, "Bulk requests per second (0 = unpaced)")
	flag.Uint64Var(&seedValue, "seed", 0, "Random seed for repeatable data (0 = random)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if baseURL == "" {
		baseURL = cfg.Remote.BaseURL
	}
	ownerList := cfg.Owners.Names
	if owners != "" {
		ownerList = splitList(owners)
	}

	client, err := orderapi.NewClient(orderapi.Config{
		BaseURL:   baseURL,
		Timeout:   cfg.Remote.Timeout,
		UserAgent: cfg.Remote.UserAgent + " seed",
	}, log)
	if err != nil {
		log.Fatal("Failed to create order API client", zap.Error(err))
	}

	gen, err := seed.NewGenerator(seed.Config{
		Owners:    ownerList,
		Batches:   batches,
		BatchSize: batchSize,
		Days:      days,
		QPS:       qps,
		Seed:      seedValue,
	})
	if err != nil {
		log.Fatal("Invalid seed options", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Seeding orders",
		zap.String("remote", baseURL),
		zap.Strings("owners", ownerList),
		zap.Int("batches", batches),
		zap.Int("batch_size", batchSize),
	)
	sum, err := seed.NewRunner(gen, orderapi.NewOrderGateway(client), log).Run(ctx)
	log.Info("Seeding finished",
		zap.Int("batches", sum.Batches),
		zap.Int("created", sum.Created),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	if err != nil {
		log.Warn("Seeding interrupted", zap.Error(err))
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
