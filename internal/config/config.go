package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"siteops/internal/domain"
)

type Config struct {
	Server   ServerConfig
	S3       S3Config
	Optimize OptimizeConfig
	Verify   VerifyConfig
	LogLevel string
}

type ServerConfig struct {
	Host string
	Port string
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
}

type OptimizeConfig struct {
	Files    []string
	MaxWidth int
	Quality  int
}

type VerifyConfig struct {
	URL         string
	MinFeatures int
	Timeout     time.Duration
	Guide       string
	Features    []domain.Feature
}

var DefaultFiles = []string{
	"/workspace/issb-portal/public/images/mosque-exterior.jpg",
	"/workspace/issb-portal/public/images/mosque-courtyard.jpg",
}

// DefaultFeatures are the marker tokens expected in the production bundle.
var DefaultFeatures = []domain.Feature{
	{Token: "accessibility-audit", Description: "Accessibility audit routes"},
	{Token: "admin", Description: "Admin routes"},
	{Token: "filter", Description: "Filter functionality"},
	{Token: "bulk", Description: "Bulk operations"},
	{Token: "supabase", Description: "Supabase integration"},
	{Token: "useQuery", Description: "TanStack Query hooks"},
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("S3_BACKUP_ENABLED", false)
	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_ACCESS_KEY_ID", "minioadmin")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "minioadmin")
	v.SetDefault("S3_BUCKET_NAME", "image-originals")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("OPTIMIZE_FILES", strings.Join(DefaultFiles, ","))
	v.SetDefault("OPTIMIZE_MAX_WIDTH", 1920)
	v.SetDefault("OPTIMIZE_QUALITY", 85)
	v.SetDefault("VERIFY_URL", "https://1dnr11xqb8pk.space.minimax.io")
	v.SetDefault("VERIFY_MIN_FEATURES", 4)
	v.SetDefault("VERIFY_TIMEOUT", "0s")
	v.SetDefault("VERIFY_GUIDE", "/workspace/phase3c2-manual-testing-guide.md")
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetString("SERVER_PORT"),
		},
		S3: S3Config{
			Enabled:         v.GetBool("S3_BACKUP_ENABLED"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("S3_BUCKET_NAME"),
			Region:          v.GetString("S3_REGION"),
		},
		Optimize: OptimizeConfig{
			Files:    splitList(v.GetString("OPTIMIZE_FILES")),
			MaxWidth: v.GetInt("OPTIMIZE_MAX_WIDTH"),
			Quality:  v.GetInt("OPTIMIZE_QUALITY"),
		},
		Verify: VerifyConfig{
			URL:         v.GetString("VERIFY_URL"),
			MinFeatures: v.GetInt("VERIFY_MIN_FEATURES"),
			Timeout:     v.GetDuration("VERIFY_TIMEOUT"),
			Guide:       v.GetString("VERIFY_GUIDE"),
			Features:    DefaultFeatures,
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Optimize.MaxWidth <= 0 {
		return fmt.Errorf("OPTIMIZE_MAX_WIDTH must be positive, got %d", c.Optimize.MaxWidth)
	}
	if c.Optimize.Quality < 1 || c.Optimize.Quality > 100 {
		return fmt.Errorf("OPTIMIZE_QUALITY must be in 1..100, got %d", c.Optimize.Quality)
	}
	if c.Verify.MinFeatures < 0 || c.Verify.MinFeatures > len(c.Verify.Features) {
		return fmt.Errorf("VERIFY_MIN_FEATURES must be in 0..%d, got %d", len(c.Verify.Features), c.Verify.MinFeatures)
	}
	if c.Verify.Timeout < 0 {
		return fmt.Errorf("VERIFY_TIMEOUT must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
