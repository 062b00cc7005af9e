package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/ai/real"
	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/cache"
	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

// Services is the fully wired pipeline shared by the server and the CLI.
type Services struct {
	Extract    usecase.ExtractService
	Questions  usecase.QuestionService
	Scoring    usecase.ScoringService
	Summary    usecase.SummaryService
	Interviews usecase.InterviewService

	Tika  *tika.Client
	Redis *cache.Redis // nil unless CACHE_BACKEND=redis
}

// BuildServices connects the cache, Tika and the completion client and
// builds every usecase on top of them. The returned close func releases
// the Redis connection when one was opened.
func BuildServices(ctx context.Context, cfg config.Config) (Services, func(), error) {
	closeFn := func() {}

	var store domain.CacheStore
	var rc *cache.Redis
	var rdb *redis.Client
	if cfg.UsesRedisCache() {
		r, client, err := cache.NewRedisFromURL(cfg.RedisURL, cfg.CacheKeyPrefix)
		if err != nil {
			return Services{}, closeFn, fmt.Errorf("op=app.BuildServices: %w", err)
		}
		rdb = client
		closeFn = func() {
			if err := client.Close(); err != nil {
				slog.Warn("redis close failed", slog.Any("error", err))
			}
		}
		store, rc = r, r
		slog.Info("cache backend: redis", slog.String("prefix", cfg.CacheKeyPrefix))
	} else {
		store = cache.NewMemory(cfg.CacheMemoryCapacity)
		slog.Info("cache backend: memory", slog.Int("capacity", cfg.CacheMemoryCapacity))
	}

	gemini, err := real.NewFromConfig(ctx, cfg)
	if err != nil {
		closeFn()
		return Services{}, func() {}, fmt.Errorf("op=app.BuildServices: %w", err)
	}
	var completion domain.CompletionClient = gemini
	if cfg.SharedCompletionLimit() && rdb != nil {
		limiter := ratelimiter.NewRedisLuaLimiter(rdb, cfg.CacheKeyPrefix, nil)
		completion = ratelimiter.NewCompletionClient(gemini, limiter, cfg.CompletionRatePerMin)
		slog.Info("completion calls paced through redis", slog.Int("per_min", cfg.CompletionRatePerMin))
	}
	offline, err := usecase.DefaultOfflineContent()
	if err != nil {
		closeFn()
		return Services{}, func() {}, fmt.Errorf("op=app.BuildServices: %w", err)
	}

	tc := tika.New(cfg)
	rnd := usecase.NewRandom()
	scoring := usecase.NewScoringService(completion, store, offline, rnd, cfg)
	summary := usecase.NewSummaryService(completion, store, offline, rnd, cfg)
	return Services{
		Extract:    usecase.NewExtractService(tc, cfg),
		Questions:  usecase.NewQuestionService(completion, store, offline, rnd, cfg),
		Scoring:    scoring,
		Summary:    summary,
		Interviews: usecase.NewInterviewService(scoring, summary, cfg),
		Tika:       tc,
		Redis:      rc,
	}, closeFn, nil
}

// ReadinessChecks returns the probes for the wired backends.
func (s Services) ReadinessChecks() (tikaCheck, redisCheck func(ctx context.Context) error) {
	if s.Redis == nil {
		return BuildReadinessChecks(s.Tika, nil)
	}
	return BuildReadinessChecks(s.Tika, s.Redis)
}
