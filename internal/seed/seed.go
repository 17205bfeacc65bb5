// Package seed fills a remote order store with fake demo orders through the
// same bulk-create endpoint the dashboard uses.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/orderdesk/backend/internal/domain/order"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BulkCreator is the part of order.Gateway the seeder needs.
type BulkCreator interface {
	BulkCreate(ctx context.Context, req order.BulkCreateRequest) (order.BulkCreateResult, error)
}

// Config controls what gets generated.
type Config struct {
	Owners    []string
	Batches   int
	BatchSize int
	// Days is how far back order dates may go
	Days int
	// QPS paces bulk requests; zero means unpaced
	QPS float64
	// Seed makes the generated data repeatable; zero picks a random seed
	Seed uint64
}

// Generator produces bulk-create batches.
type Generator struct {
	faker *gofakeit.Faker
	cfg   Config
	now   func() time.Time
}

// NewGenerator validates cfg and creates a Generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if len(cfg.Owners) == 0 {
		return nil, fmt.Errorf("at least one owner is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Days <= 0 {
		cfg.Days = 30
	}
	return &Generator{faker: gofakeit.New(cfg.Seed), cfg: cfg, now: time.Now}, nil
}

// Serial returns a serial number shaped like a courier tracking code.
func (g *Generator) Serial() string {
	return strings.ToUpper(g.faker.LetterN(3)) + "-" + g.faker.DigitN(7)
}

// Batch builds one bulk-create request. Serials inside a batch are unique.
func (g *Generator) Batch() order.BulkCreateRequest {
	seen := make(map[string]struct{}, g.cfg.BatchSize)
	serials := make([]string, 0, g.cfg.BatchSize)
	for len(serials) < g.cfg.BatchSize {
		s := g.Serial()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		serials = append(serials, s)
	}

	end := g.now()
	start := end.AddDate(0, 0, -g.cfg.Days)
	statuses := order.AllStatuses()

	return order.BulkCreateRequest{
		SerialNumbers: serials,
		Owner:         g.cfg.Owners[g.faker.Number(0, len(g.cfg.Owners)-1)],
		OrderDate:     g.faker.DateRange(start, end).Format(order.DateLayout),
		Status:        statuses[g.faker.Number(0, len(statuses)-1)],
	}
}

// Summary totals a seeding run.
type Summary struct {
	Batches int
	Created int
	Skipped int
	Failed  int
}

// Runner posts generated batches to the remote store.
type Runner struct {
	gen     *Generator
	target  BulkCreator
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRunner creates a Runner. logger may be nil.
func NewRunner(gen *Generator, target BulkCreator, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if gen.cfg.QPS > 0 {
		limit = rate.Limit(gen.cfg.QPS)
	}
	return &Runner{gen: gen, target: target, limiter: rate.NewLimiter(limit, 1), logger: logger}
}

// Run sends cfg.Batches batches. A failed batch is logged and counted; the
// run continues. Run stops early only when ctx is done.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	for i := 0; i < r.gen.cfg.Batches; i++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return sum, err
		}
		req := r.gen.Batch()
		res, err := r.target.BulkCreate(ctx, req)
		sum.Batches++
		if err != nil {
			sum.Failed += len(req.SerialNumbers)
			r.logger.Warn("Seed batch failed",
				zap.Int("batch", i+1),
				zap.String("owner", req.Owner),
				zap.Error(err),
			)
			continue
		}
		sum.Created += res.Created
		sum.Skipped += res.Skipped
		r.logger.Debug("Seed batch sent",
			zap.Int("batch", i+1),
			zap.String("owner", req.Owner),
			zap.String("status", req.Status.String()),
			zap.Int("created", res.Created),
			zap.Int("skipped", res.Skipped),
		)
	}
	return sum, nil
}
