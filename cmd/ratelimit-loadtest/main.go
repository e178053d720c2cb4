package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goRateLimit "github.com/MrEthical07/goRateLimit"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		apps        = flag.Int("apps", 64, "number of consumer applications")
		limit       = flag.Int64("limit", 500, "requests per application per hour")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "evaluations per mode")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "rl-load", "counter key prefix")
		mode        = flag.String("mode", "both", "strict, relaxed or both")
	)
	flag.Parse()

	if *apps <= 0 || *limit <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "apps, limit, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	var modes []bool
	switch *mode {
	case "strict":
		modes = []bool{false}
	case "relaxed":
		modes = []bool{true}
	case "both":
		modes = []bool{false, true}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

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
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	results := make(map[string]phaseStats, len(modes))
	for _, async := range modes {
		name := "strict"
		if async {
			name = "relaxed"
		}

		cfg := goRateLimit.DefaultConfig()
		cfg.Policy.Tiers = []goRateLimit.Tier{{Limit: *limit, PeriodTime: 1, PeriodTimeUnit: goRateLimit.Hours}}
		cfg.Policy.Async = async
		cfg.Store.RedisPrefix = *prefix + "-" + name + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
		cfg.Store.MaxUpdateRetries = 64
		cfg.Async.BufferSize = 4096
		cfg.Async.DropIfFull = false

		engine, err := goRateLimit.New().
			WithConfig(cfg).
			WithRedis(client).
			WithLogger(goRateLimit.NopLogger{}).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build %s engine: %v\n", name, err)
			os.Exit(1)
		}

		fmt.Printf("running %s: %d evaluations over %d applications...\n", name, *ops, *apps)
		results[name] = runPhase(context.Background(), engine, *apps, *limit, *ops, *concurrency)
		engine.Close()
	}

	fmt.Println("---- results ----")
	for _, name := range []string{"strict", "relaxed"} {
		if s, ok := results[name]; ok {
			printStats(name, s)
		}
	}
}

func runPhase(ctx context.Context, engine *goRateLimit.Engine, apps int, limit int64, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		admitted  = make([]int64, apps)
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
				app := r.Intn(apps)
				t0 := time.Now()
				out := engine.Evaluate(ctx, goRateLimit.Request{
					APIID:         "loadtest",
					ApplicationID: "app-" + strconv.Itoa(app),
					Path:          "/",
				})
				d := time.Since(t0)
				switch {
				case out.Err != nil:
					atomic.AddInt64(&failures, 1)
				case out.Admitted():
					atomic.AddInt64(&admitted[app], 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)

	s := computeStats(total, latencies, failures)
	for _, n := range admitted {
		s.admitted += n
		if n > limit {
			s.overAdmitted += n - limit
		}
	}
	return s
}

type phaseStats struct {
	total        time.Duration
	ops          int
	failures     int64
	admitted     int64
	overAdmitted int64
	p50          time.Duration
	p95          time.Duration
	p99          time.Duration
	opsPerS      float64
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
	fmt.Printf("%s: ops=%d admitted=%d over_admitted=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.admitted,
		s.overAdmitted,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
