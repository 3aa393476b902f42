// Command taskauth-loadtest measures gate and ledger latency against a
// Redis-backed revocation ledger.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/taskauth"
	"github.com/MrEthical07/taskauth/revocation/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	var (
		subjects    = pflag.Int("subjects", 10000, "number of credential pairs to issue")
		concurrency = pflag.Int("concurrency", 256, "number of concurrent workers")
		ops         = pflag.Int("ops", 200000, "operations per phase")
		revokeShare = pflag.Float64("revoke-share", 0.2, "fraction of access credentials revoked before the gate phase")
		redisAddr   = pflag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = pflag.String("prefix", "rv", "ledger key prefix")
	)
	pflag.Parse()

	if *subjects <= 0 || *concurrency <= 0 || *ops <= 0 || *revokeShare < 0 || *revokeShare > 1 {
		fmt.Fprintln(os.Stderr, "subjects, concurrency, and ops must be > 0; revoke-share must be within [0, 1]")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := taskauth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("loadtest-access-secret-0123456789")
	cfg.JWT.RefreshSecret = []byte("loadtest-refresh-secret-0123456789")
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := taskauth.New().
		WithConfig(cfg).
		WithRevocationStore(redisstore.New(client, redisstore.WithPrefix(*prefix))).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	pairs := make([]taskauth.TokenPair, *subjects)
	fmt.Printf("issuing %d credential pairs...\n", *subjects)
	startSeed := time.Now()
	for i := range pairs {
		pair, err := engine.IssuePair(ctx, int64(i+1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		pairs[i] = pair
	}

	revoked := int(float64(len(pairs)) * *revokeShare)
	for i := 0; i < revoked; i++ {
		if _, err := engine.Revoke(ctx, pairs[i].AccessToken); err != nil {
			fmt.Fprintf(os.Stderr, "revoke failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s (%d revoked)\n", time.Since(startSeed).Round(time.Millisecond), revoked)

	gateStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		p := pairs[r.Intn(len(pairs))]
		_, err := engine.AuthenticateToken(ctx, p.AccessToken)
		if err != nil && taskauth.ReasonOf(err) != taskauth.ReasonUnavailable {
			return nil
		}
		return err
	})
	refreshStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := engine.RefreshAccess(ctx, pairs[r.Intn(len(pairs))].RefreshToken)
		return err
	})
	revokeStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := engine.Revoke(ctx, pairs[r.Intn(len(pairs))].RefreshToken)
		return err
	})

	fmt.Println("---- results ----")
	printStats("authenticate", gateStats)
	printStats("refresh", refreshStats)
	printStats("revoke", revokeStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("gate: success=%d revoked=%d; revocations recorded=%d already=%d\n",
		snap.Counters[taskauth.MetricAuthenticateSuccess],
		snap.Counters[taskauth.MetricAuthenticateRevoked],
		snap.Counters[taskauth.MetricRevokeRecorded],
		snap.Counters[taskauth.MetricRevokeAlreadyRevoked],
	)
}

// runPhase executes ops calls of op across concurrency workers. op returns
// a non-nil error only for infrastructure failures.
func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
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
				err := op(r)
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
		return phaseStats{total: total}
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

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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
