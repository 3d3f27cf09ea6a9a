package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/middleware"
	"github.com/MrEthical07/authbridge/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type loadtestOptions struct {
	requests    int
	concurrency int
	ops         int
	redisAddr   string
	prefix      string
}

func newLoadtestCmd() *cobra.Command {
	opts := loadtestOptions{}

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure bridge minting and session lookups against redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.requests, "requests", 20000, "bridged requests to send")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 64, "concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 50000, "session lookups to run")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address; miniredis when empty")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "ab-load", "session key prefix")
	return cmd
}

func runLoadtest(ctx context.Context, out io.Writer, opts loadtestOptions) error {
	if opts.requests <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
		return errors.New("requests, concurrency and ops must be > 0")
	}

	addr := opts.redisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	cfg := authbridge.DefaultConfig()
	cfg.Session.Store = authbridge.SessionStoreRedis
	cfg.Session.RedisPrefix = opts.prefix
	cfg.Audit.Enabled = false

	engine, err := authbridge.New().
		WithConfig(cfg).
		WithRedis(client).
		WithItemStore(repository.NewMemory()).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	bridgeStats, tokens, err := runBridgePhase(engine, opts.requests, opts.concurrency)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return errors.New("bridge minted no sessions")
	}
	validateStats := runValidatePhase(ctx, engine, tokens, opts.ops, opts.concurrency)

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "bridge", bridgeStats)
	printStats(out, "validate", validateStats)
	return nil
}

// runBridgePhase sends requests carrying the bridge secret through the
// middleware and collects the minted tokens.
func runBridgePhase(engine *authbridge.Engine, requests, concurrency int) (phaseStats, []string, error) {
	verifier, err := engine.BridgeVerifier()
	if err != nil {
		return phaseStats{}, nil, err
	}
	secret := engine.Config().Bridge.Secret

	var (
		mu     sync.Mutex
		tokens = make([]string, 0, requests)
	)
	handler := middleware.Bridge(verifier, engine)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens = append(tokens, r.Header.Get("Authorization"))
		mu.Unlock()
	}))

	stats := runPhase(requests, concurrency, func(_ *rand.Rand, _ int) error {
		r := httptest.NewRequest(http.MethodGet, "/api/graphql", nil)
		r.Header.Set("Authorization", secret)
		handler.ServeHTTP(httptest.NewRecorder(), r)
		if r.Header.Get("Authorization") == secret {
			return authbridge.ErrSessionCreationFailed
		}
		return nil
	})

	valid := tokens[:0]
	for _, tok := range tokens {
		if tok != secret {
			valid = append(valid, tok)
		}
	}
	return stats, valid, nil
}

func runValidatePhase(ctx context.Context, engine *authbridge.Engine, tokens []string, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, func(r *rand.Rand, _ int) error {
		_, err := engine.GetSession(ctx, tokens[r.Intn(len(tokens))])
		return err
	})
}

// runPhase calls op ops times from concurrency workers and records each
// call's latency.
func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

// percentile expects sorted samples.
func percentile(samples []time.Duration, p int) time.Duration {
	switch {
	case len(samples) == 0:
		return 0
	case p <= 0:
		return samples[0]
	case p >= 100:
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
