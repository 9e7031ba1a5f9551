package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkovar/news-sentiment-back/internal/cache"
	"github.com/pkovar/news-sentiment-back/internal/config"
	httpserver "github.com/pkovar/news-sentiment-back/internal/http"
	"github.com/pkovar/news-sentiment-back/internal/http/handlers"
	"github.com/pkovar/news-sentiment-back/internal/news"
	"github.com/pkovar/news-sentiment-back/internal/queue"
	"github.com/pkovar/news-sentiment-back/internal/rating"
	"github.com/pkovar/news-sentiment-back/internal/repository"
	"github.com/pkovar/news-sentiment-back/internal/service"
	"github.com/pkovar/news-sentiment-back/internal/worker"
)

func main() {
	logger := log.New(os.Stdout, "[news-sentiment] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, repoCloser := setupRepository(ctx, cfg, logger)
	defer repoCloser()

	producer, consumer, queueCloser := setupQueue(ctx, cfg, logger)
	defer queueCloser()

	searcher, err := setupNewsClient(cfg, logger)
	if err != nil {
		logger.Fatalf("news client: %v", err)
	}
	extractor := news.NewBodyExtractor(news.BodyExtractorConfig{
		Timeout: time.Duration(cfg.ExtractTimeoutMS) * time.Millisecond,
		Limiter: news.NewHostLimiter(cfg.ExtractRPS, cfg.ExtractBurst),
	})
	fetcher := news.NewFetcher(searcher, extractor, logger)

	chatClient, err := setupChatClient(cfg, logger)
	if err != nil {
		logger.Fatalf("scoring client: %v", err)
	}
	ratingCache := cache.NewRatingCache(cache.Config{
		TTL:        time.Duration(cfg.RatingCacheTTLSeconds) * time.Second,
		MaxEntries: cfg.RatingCacheMaxEntries,
	})
	rater := rating.NewRater(chatClient, ratingCache, logger, rating.RaterConfig{
		Model:         cfg.OpenAIModel,
		MaxNewsCount:  cfg.MaxNewsCount,
		MaxNewsLength: cfg.MaxNewsLength,
	})

	jobsService := service.NewJobsService(repo, producer)
	api := handlers.NewAPI(jobsService)

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	if cfg.WorkerEnabled {
		processor := worker.NewProcessor(consumer, repo, fetcher, rater, logger)
		go processor.StartPool(ctx, cfg.WorkerCount)
		logger.Printf("worker pool started workers=%d", cfg.WorkerCount)
	} else {
		logger.Printf("worker disabled by configuration")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("api listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func setupRepository(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (repository.JobsRepository, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory repository")
		return repository.NewMemoryJobsRepository(), func() {}
	}

	pgRepo, err := repository.NewPostgresJobsRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("failed to initialize postgres repository, fallback to memory: %v", err)
		return repository.NewMemoryJobsRepository(), func() {}
	}
	logger.Printf("postgres repository initialized")
	return pgRepo, func() {
		pgRepo.Close()
	}
}

func setupQueue(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (queue.Producer, queue.Consumer, func()) {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not configured, using local queue fallback")
		local := queue.NewLocalQueue(512, 3, logger)
		return local, local, func() {}
	}

	streams, err := queue.NewStreamsQueue(ctx, queue.StreamsConfig{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		Stream:      cfg.RedisStream,
		DLQStream:   cfg.RedisDLQ,
		Group:       cfg.RedisGroup,
		Consumer:    cfg.RedisConsumer,
		MaxAttempts: 3,
	})
	if err != nil {
		logger.Printf("failed to initialize redis streams queue, fallback to local: %v", err)
		local := queue.NewLocalQueue(512, 3, logger)
		return local, local, func() {}
	}
	logger.Printf("redis streams queue initialized stream=%s group=%s", cfg.RedisStream, cfg.RedisGroup)
	return streams, streams, func() {
		_ = streams.Close()
	}
}

// setupNewsClient fails fast on a missing key unless the configuration
// explicitly opts into degraded providers, in which case every fetch fails
// per company instead of the process refusing to start.
func setupNewsClient(cfg config.Config, logger *log.Logger) (news.Searcher, error) {
	if cfg.NewsAPIKey == "" && cfg.AllowDegradedProviders {
		logger.Printf("NEWS_API_KEY not configured, news search disabled")
		return news.NewDisabledClient(), nil
	}
	return news.NewClient(news.ClientConfig{
		APIKey:   cfg.NewsAPIKey,
		BaseURL:  cfg.NewsAPIBaseURL,
		PageSize: cfg.NewsPageSize,
		Timeout:  time.Duration(cfg.NewsTimeoutMS) * time.Millisecond,
	})
}

func setupChatClient(cfg config.Config, logger *log.Logger) (rating.ChatClient, error) {
	if cfg.OpenAIAPIKey == "" && cfg.AllowDegradedProviders {
		logger.Printf("OPENAI_API_KEY not configured, rating disabled")
		return rating.NewDisabledOpenAIClient(), nil
	}
	return rating.NewOpenAIClient(rating.OpenAIClientConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Timeout:    time.Duration(cfg.OpenAITimeoutMS) * time.Millisecond,
		MaxRetries: cfg.OpenAIMaxRetries,
	})
}
