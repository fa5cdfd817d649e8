package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/headwaycms/headway/handlers"
	"github.com/headwaycms/headway/internal/blocks"
	"github.com/headwaycms/headway/internal/config"
	"github.com/headwaycms/headway/internal/content"
	"github.com/headwaycms/headway/internal/content/cache"
	"github.com/headwaycms/headway/internal/content/repository"
	"github.com/headwaycms/headway/internal/projector"
	"github.com/headwaycms/headway/pkg/logging"
	"github.com/headwaycms/headway/pkg/metrics"
	"github.com/headwaycms/headway/pkg/middleware"
)

var startTime = time.Now()

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Info("config loaded", "mongo", cfg.MongoDB.URI != "", "redis", cfg.Redis.Host != "", "types", cfg.Site.Types)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	// Lightweight CORS for a read-only API consumed by browser front ends.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, X-Total, X-Total-Pages")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis early: the limiter and the read-through cache both want it.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, continuing without cache", "err", err)
			rdb = nil
		} else {
			log.Info("connected to redis", "addr", cfg.Redis.Host+":"+cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Content store: Mongo when configured, with retry to tolerate startup
	// races, otherwise the in-memory store for local development.
	var store content.Store
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var connected bool
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn := repository.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				defer func() { _ = client.Disconnect(ctx) }()
				store = repository.NewMongo(client.Database(cfg.MongoDB.Database))
				connected = true
				break
			}
			log.Warn("mongo connect failed", "attempt", attempt, "max", maxAttempts, "err", errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if !connected {
			log.Error("could not connect to mongo, serving from empty in-memory store")
		}
	}
	if store == nil {
		store = repository.NewMemory()
	}
	if rdb != nil && cfg.Redis.CacheTTL > 0 {
		store = cache.New(store, rdb, cfg.Redis.CacheTTL, log)
		log.Info("read-through cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	// The block projector and the field projector call into each other:
	// blocks embed media descriptors and field groups, both projected by
	// proj. The closures bind late, after proj is built.
	var proj *projector.Projector
	bp := blocks.NewProjector(store, blocks.DefaultRegistry(),
		blocks.WithLogger(log),
		blocks.WithMediaFunc(func(ctx context.Context, mediaID int) map[string]any {
			return proj.ProjectMedia(ctx, mediaID, cfg.Site.DefaultACFDepth)
		}),
		blocks.WithFieldsFunc(func(ctx context.Context, nodeID int) map[string]any {
			return proj.ObjectFields(ctx, nodeID, cfg.Site.DefaultACFDepth)
		}),
	)

	proj = projector.New(store, projector.Config{
		BaseURL:           cfg.Site.BaseURL,
		HomePath:          cfg.Site.HomePath,
		ExposedTypes:      cfg.Site.Types,
		HierarchicalTypes: cfg.Site.HierarchicalTypes,
		DefaultACFDepth:   cfg.Site.DefaultACFDepth,
		Rewrites:          cfg.Site.Rewrites,
	},
		projector.WithLogger(log),
		projector.WithCapability(func(ctx context.Context, n *content.Node) bool {
			claims := middleware.ClaimsFromStdContext(ctx)
			return claims.HasCap("read_private_" + n.Type) || claims.HasCap("edit_posts")
		}),
		projector.WithBlocks(bp),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{"store": true}
		if _, err := store.Option(c.Request.Context(), "blogname"); err != nil {
			deps["store"] = false
			ready = false
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = rdb != nil && rdb.Ping(c.Request.Context()).Err() == nil
			if cfg.RateLimit.UseRedis && !deps["redis"] {
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	handlers.NewContentHandler(proj, store).Register(api)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting content api", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}
