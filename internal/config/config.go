package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration. It is constructed once in main
// and passed by reference into every component constructor.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	GitHub    GitHubConfig
	MinIO     MinIOConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GitHubConfig describes the repository that holds published documents.
type GitHubConfig struct {
	Token    string
	Owner    string
	Repo     string
	Branch   string
	DocsRoot string
	// BaseURL overrides the API endpoint (used by tests and GHE deployments)
	BaseURL string
	// WebhookSecret signs push webhook deliveries; empty disables the endpoint.
	WebhookSecret string
}

type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	MaxUploadSize int64
}

type RateLimitConfig struct {
	Enabled   bool
	PerMinute int
	UseRedis  bool
}

type AuthConfig struct {
	JWTSecret      string
	OIDCIssuer     string
	OIDCClientID   string
	AccessTokenTTL time.Duration
	// AllowInsecure enables the signature-skipping verifier for integration tests
	AllowInsecure bool
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "docsengine")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("GITHUB_BRANCH", "main")
	viper.SetDefault("GITHUB_DOCS_ROOT", "docs")
	viper.SetDefault("MINIO_BUCKET", "docsengine-media")
	viper.SetDefault("MINIO_MAX_UPLOAD_SIZE", 10*1024*1024)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", true)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		GitHub: GitHubConfig{
			Token:         os.Getenv("GITHUB_TOKEN"),
			Owner:         viper.GetString("GITHUB_OWNER"),
			Repo:          viper.GetString("GITHUB_REPO"),
			Branch:        viper.GetString("GITHUB_BRANCH"),
			DocsRoot:      viper.GetString("GITHUB_DOCS_ROOT"),
			BaseURL:       viper.GetString("GITHUB_API_BASE_URL"),
			WebhookSecret: os.Getenv("GITHUB_WEBHOOK_SECRET"),
		},
		MinIO: MinIOConfig{
			Endpoint:      viper.GetString("MINIO_ENDPOINT"),
			AccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey:     os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:        viper.GetBool("MINIO_USE_SSL"),
			Bucket:        viper.GetString("MINIO_BUCKET"),
			MaxUploadSize: viper.GetInt64("MINIO_MAX_UPLOAD_SIZE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:   viper.GetBool("RATE_LIMIT_ENABLED"),
			PerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
			UseRedis:  viper.GetBool("RATE_LIMIT_USE_REDIS"),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			OIDCIssuer:     viper.GetString("OIDC_ISSUER"),
			OIDCClientID:   viper.GetString("OIDC_CLIENT_ID"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			AllowInsecure:  viper.GetBool("ALLOW_INSECURE_TOKEN"),
		},
	}

	// Basic validation
	if cfg.Auth.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}
	if cfg.GitHub.Token == "" {
		log.Println("WARNING: GITHUB_TOKEN is not set; publishing will fail until configured")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
