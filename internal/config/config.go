package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI    string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName string `envconfig:"MONGO_DB_NAME" default:"newsflow"`

	APIKey     string `envconfig:"NEWS_API_KEY" required:"true"`
	APIBaseURL string `envconfig:"NEWS_API_BASE_URL" default:"https://newsdata.io/api/1/news"`
	Language   string `envconfig:"NEWS_LANGUAGE" default:"en"`
	Country    string `envconfig:"NEWS_COUNTRY" default:"in"`
	Categories string `envconfig:"NEWS_CATEGORIES" default:"top,world,business,science,technology,sports,health,entertainment,politics,environment"`

	MaxRequestsPerHour int           `envconfig:"MAX_REQUESTS_PER_HOUR" default:"200"`
	RateReserve        int           `envconfig:"RATE_RESERVE" default:"10"`
	RequestDelay       time.Duration `envconfig:"REQUEST_DELAY" default:"30s"`
	RetryDelay         time.Duration `envconfig:"RETRY_DELAY" default:"1m"`
	MaxRetries         int           `envconfig:"MAX_RETRIES" default:"3"`
	BackoffCap         time.Duration `envconfig:"BACKOFF_CAP" default:"5m"`
	FetchTimeout       time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.85"`
	MaxPerCategory      int     `envconfig:"MAX_PER_CATEGORY" default:"20"`
	SearchLimit         int     `envconfig:"SEARCH_LIMIT" default:"10"`

	CronSpec string `envconfig:"CRON_SPEC" default:"0 */2 * * *"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	RabbitURI        string `envconfig:"RABBITMQ_URI" default:""`
	RabbitExchange   string `envconfig:"RABBITMQ_EXCHANGE" default:"newsflow.events"`
	RabbitRoutingKey string `envconfig:"RABBITMQ_ROUTING_KEY" default:"article.ingested"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("NEWS_API_KEY is required")
	}
	if strings.TrimSpace(c.MongoURI) == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if strings.TrimSpace(c.MongoDBName) == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if len(c.CategoryList()) == 0 {
		return fmt.Errorf("NEWS_CATEGORIES must name at least one category")
	}
	if c.MaxRequestsPerHour < 1 {
		return fmt.Errorf("MAX_REQUESTS_PER_HOUR must be >= 1")
	}
	if c.RateReserve < 0 {
		return fmt.Errorf("RATE_RESERVE must be >= 0")
	}
	if c.RateReserve >= c.MaxRequestsPerHour {
		return fmt.Errorf("RATE_RESERVE (%d) must be below MAX_REQUESTS_PER_HOUR (%d)", c.RateReserve, c.MaxRequestsPerHour)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.MaxPerCategory < 1 {
		return fmt.Errorf("MAX_PER_CATEGORY must be >= 1")
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("SEARCH_LIMIT must be >= 1")
	}
	if strings.TrimSpace(c.CronSpec) == "" {
		return fmt.Errorf("CRON_SPEC is required")
	}
	return nil
}

// CategoryList splits the comma-separated category setting, trimming blanks
// and dropping duplicates while keeping the configured order.
func (c *Config) CategoryList() []string {
	parts := strings.Split(c.Categories, ",")
	categories := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		category := strings.ToLower(strings.TrimSpace(part))
		if category == "" {
			continue
		}
		if _, exists := seen[category]; exists {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	return categories
}
