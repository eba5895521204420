package main

import (
	"context"

	"github.com/whalefeed/whalefeed/internal/config"
	"github.com/whalefeed/whalefeed/internal/feed"
	"github.com/whalefeed/whalefeed/internal/feedproc"
	"github.com/whalefeed/whalefeed/internal/filterregistry"
	"github.com/whalefeed/whalefeed/internal/handlers/cli"
	"github.com/whalefeed/whalefeed/internal/infra/api"
	"github.com/whalefeed/whalefeed/internal/infra/storage/redis"
	"github.com/whalefeed/whalefeed/internal/infra/stream"
	"github.com/whalefeed/whalefeed/internal/livematch"
	"github.com/whalefeed/whalefeed/internal/pkg/logger"
	"github.com/whalefeed/whalefeed/internal/pkg/telemetry"
	transporthttp "github.com/whalefeed/whalefeed/internal/pkg/transport/http"
	"github.com/whalefeed/whalefeed/internal/txquery"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, cfg.ServiceName)
		if err != nil {
			logger.Fatal(ctx, "failed to initialize telemetry", "error", err)
		}
		defer shutdown(ctx)
	}

	filterOpts := make([]filterregistry.Option, 0, 1)
	if cfg.RedisAddr != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal(ctx, "failed to connect to redis", "error", err)
		}
		defer redisClient.Close()

		filterOpts = append(filterOpts, filterregistry.WithStorage(redisClient))
	}
	filters := filterregistry.New(filterOpts...)

	var (
		querier  = api.NewClient(cfg.QueryEndpoint, transporthttp.WithTimeout(cfg.HTTPTimeout))
		livefeed = stream.NewClient(cfg.FeedEndpoint)
		expander = feed.NewExpander()
	)

	feedSvc := feedproc.New(
		txquery.New(querier, txquery.WithExpander(expander)),
		livematch.New(expander),
		livefeed,
		feedproc.WithPageSize(cfg.PageSize),
		feedproc.WithDebounce(cfg.FilterDebounce),
		feedproc.WithFilterRegistry(filters),
	)

	if err := cli.Run(ctx, feedSvc, filters); err != nil {
		logger.Fatal(ctx, "application terminated with an error", "error", err)
	}
}
