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
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/audit"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/config"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/database"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/document"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/draft"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/gitpub"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/httputil"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/media"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/metadata"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/navigation"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/oidc"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/tokens"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/users"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/webhook"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/metrics"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v github=%v minio=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.GitHub.Token != "", cfg.MinIO.Endpoint != "")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test. Production should sit behind
	// a stricter gateway policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Retry-After")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Connect to Redis early so the rate limiter can share its counters when
	// configured. A failed connection degrades to the in-process limiter.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		var limiterRedis *redis.Client
		if cfg.RateLimit.UseRedis {
			limiterRedis = redisClient
		}
		r.Use(middleware.RateLimitMiddleware(middleware.NewLimiter(limiterRedis, cfg.RateLimit.PerMinute)))
		logger.Infof("rate limiter enabled: %d requests/min (redis=%v)", cfg.RateLimit.PerMinute, limiterRedis != nil)
	}

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() { _ = mongoClient.Disconnect(ctx) }()
	}

	// Repositories: MongoDB when available, in-process otherwise (dev only)
	var draftRepo draft.Repository
	var metaRepo metadata.Repository
	var auditRepo audit.Repository
	var userRepo users.Repository
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		draftRepo = draft.NewMongoRepository(db.Collection("drafts"))
		metaRepo = metadata.NewMongoRepository(db.Collection("metadata"))
		auditRepo = audit.NewMongoRepository(db.Collection("audit"))
		userRepo = users.NewMongoRepository(db.Collection("users"))
	} else {
		logger.Warnf("MongoDB not configured, using in-process stores (data is not persisted)")
		draftRepo = draft.NewMemoryRepository()
		metaRepo = metadata.NewMemoryRepository()
		auditRepo = audit.NewMemoryRepository()
		userRepo = users.NewMemoryRepository()
	}

	recorder := audit.NewRecorder(auditRepo)
	indexer := metadata.NewIndexer(metaRepo)
	publisher := gitpub.NewClient(&cfg.GitHub)
	userSvc := users.NewService(userRepo, recorder)
	draftSvc := draft.NewService(draftRepo, publisher, indexer, recorder)
	documentSvc := document.NewService(publisher, indexer, recorder)

	var mediaSvc *media.Service
	if cfg.MinIO.Endpoint != "" {
		store, err := media.NewMinIOStore(&cfg.MinIO)
		if err != nil {
			logger.Warnf("failed to initialize MinIO: %v", err)
		} else {
			mediaSvc = media.NewService(store, recorder, cfg.MinIO.MaxUploadSize)
		}
	}

	// Token verifier: OIDC issuer when configured, HS256 otherwise. The
	// insecure verifier is a last resort for integration tests.
	var verifier middleware.Verifier
	if cfg.Auth.OIDCIssuer != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.Auth.JWTSecret != "" {
		verifier = tokens.NewHS256Verifier(cfg.Auth.JWTSecret)
		logger.Infof("using HS256 token verifier")
	}
	if verifier == nil && cfg.Auth.AllowInsecure {
		logger.Warnf("enabling insecure token verifier (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}
	if verifier == nil {
		logger.Fatalf("no token verifier configured: set OIDC_ISSUER, JWT_SECRET or ALLOW_INSECURE_TOKEN")
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongodb"] = mongoClient != nil
		if cfg.MongoDB.URI != "" && mongoClient == nil {
			ready = false
		}
		deps["redis"] = true
		if cfg.Redis.Host != "" && redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				deps["redis"] = false
				if cfg.RateLimit.UseRedis {
					ready = false
				}
			}
		}
		deps["github"] = cfg.GitHub.Token != ""
		deps["minio"] = mediaSvc != nil

		status := http.StatusOK
		body := gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status = http.StatusServiceUnavailable
			body["status"] = "not_ready"
		}
		c.JSON(status, body)
	})

	auth := middleware.AuthMiddleware(verifier, userSvc.ResolveActor)

	api := r.Group("/api/v1")
	api.Use(auth)

	api.GET("/me", func(c *gin.Context) {
		if user, ok := middleware.CurrentUser(c); ok {
			c.JSON(http.StatusOK, gin.H{"user": user})
			return
		}
		claims, _ := c.Get("claims")
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})

	draft.NewHandler(draftSvc).RegisterRoutes(api)
	document.NewHandler(documentSvc).RegisterRoutes(api)
	metadata.NewHandler(indexer).RegisterRoutes(api)
	navigation.NewHandler(navigation.NewService(publisher)).RegisterRoutes(api)
	if mediaSvc != nil {
		media.NewHandler(mediaSvc).RegisterRoutes(api)
	}

	// Webhook deliveries authenticate with an HMAC signature, not a bearer
	// token, so the route sits outside the auth group.
	if cfg.GitHub.WebhookSecret != "" {
		webhookSvc := webhook.NewService(publisher, indexer, recorder, cfg.GitHub.Branch)
		webhook.NewHandler(webhookSvc, cfg.GitHub.WebhookSecret).RegisterRoutes(r.Group("/api/v1"))
		logger.Infof("github webhook endpoint enabled")
	}

	adminAPI := r.Group("/api/v1")
	adminAPI.Use(auth, middleware.RequireRole(models.RoleAdmin))
	audit.NewHandler(recorder).RegisterRoutes(adminAPI)
	adminAPI.PUT("/users/:sub/role", func(c *gin.Context) {
		actor, _ := middleware.CurrentUser(c)
		var in struct {
			Role string `json:"role"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		u, err := userSvc.ChangeRole(c.Request.Context(), c.Param("sub"), models.Role(in.Role), actor)
		if err != nil {
			httputil.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting docs engine API on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
