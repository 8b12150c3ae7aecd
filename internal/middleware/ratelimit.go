package middleware

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/httpx"
)

// Limiter decides whether the client identified by key may proceed.
// retryAfter is a hint for denied calls and may be zero.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter is an in-process token bucket per client.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
	done    chan struct{}
	once    sync.Once
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}
	go rl.cleanup(time.Minute, 3*time.Minute)
	return rl
}

// cleanup drops clients idle for longer than ttl.
func (rl *RateLimiter) cleanup(every, ttl time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-t.C:
			rl.mu.Lock()
			for key, c := range rl.clients {
				if time.Since(c.seen) > ttl {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.clients[key]; ok {
		c.seen = time.Now()
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[key] = &client{lim: l, seen: time.Now()}
	return l
}

func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	lim := rl.get(key)
	if lim.Allow() {
		return true, 0, nil
	}
	var wait time.Duration
	if rl.r > 0 {
		wait = time.Duration(float64(time.Second) / float64(rl.r))
	}
	return false, wait, nil
}

// RedisLimiter is a fixed window counter shared by every instance. A client
// that exceeds limit inside window is blocked for block.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	block  time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window, block time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window, block: block}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	key = l.prefix + ":" + key
	blockKey := key + ":blocked"

	blocked, err := l.rdb.Get(ctx, blockKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return true, 0, err
	}
	if blocked == "1" {
		ttl, _ := l.rdb.TTL(ctx, blockKey).Result()
		return false, ttl, nil
	}

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, err
	}
	// a counter without expiry would never reset
	if ttl.Val() < 0 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return true, 0, err
		}
	}
	if incr.Val() > int64(l.limit) {
		if err := l.rdb.Set(ctx, blockKey, "1", l.block).Err(); err != nil {
			return false, l.block, err
		}
		return false, l.block, nil
	}
	return true, 0, nil
}

func clientIP(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}

// RateLimit throttles per socket peer address. Forwarding headers are
// ignored since any client can set them. Limiter errors fail open.
func RateLimit(l Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry, err := l.Allow(r.Context(), "ip:"+clientIP(r.RemoteAddr))
			if err != nil {
				log.Warn("rate limiter unavailable", zap.Error(err))
			}
			if !ok {
				if retry > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				}
				httpx.Error(w, http.StatusTooManyRequests, "Too many requests, please try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UnaryRateLimit throttles the listed gRPC methods per peer address.
func UnaryRateLimit(l Limiter, log *zap.Logger, methods ...string) grpc.UnaryServerInterceptor {
	limited := make(map[string]bool, len(methods))
	for _, m := range methods {
		limited[m] = true
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !limited[info.FullMethod] {
			return next(ctx, req)
		}
		ip := "unknown"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			ip = clientIP(p.Addr.String())
		}
		ok, _, err := l.Allow(ctx, "ip:"+ip)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
		}
		if !ok {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}
