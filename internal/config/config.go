package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API server and the
// external collaborators.
type Config struct {
	ListenAddr string
	LogLevel   string
	MySQLDSN   string

	SynthesisAPIKey  string
	SynthesisBaseURL string
	SynthesisTimeout time.Duration

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PaymentCurrency   string

	GenerationPriceCredits int
	GenerationImageCount   int
	GenerationTimeout      time.Duration
	SignupBonusCredits     int

	AdminUsername string
	AdminPassword string

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:             getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		SynthesisBaseURL:       getEnv("SYNTHESIS_BASE_URL", "https://api.z-ai.dev"),
		SynthesisTimeout:       time.Second * time.Duration(getInt("SYNTHESIS_TIMEOUT_SECONDS", 60)),
		RazorpayBaseURL:        getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		PaymentCurrency:        getEnv("PAYMENT_CURRENCY", "INR"),
		GenerationPriceCredits: getInt("GENERATION_PRICE_CREDITS", 99),
		GenerationImageCount:   getInt("GENERATION_IMAGE_COUNT", 3),
		GenerationTimeout:      time.Second * time.Duration(getInt("GENERATION_TIMEOUT_SECONDS", 120)),
		SignupBonusCredits:     getInt("SIGNUP_BONUS_CREDITS", 999),
		AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:          getEnv("ADMIN_PASSWORD", "change-me"),
		S3Endpoint:             getEnv("S3_ENDPOINT", ""),
		S3Region:               os.Getenv("S3_REGION"),
		S3AccessKey:            os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:            os.Getenv("S3_SECRET_KEY"),
		S3Bucket:               os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:        os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:         getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:               getEnv("S3_PREFIX", "generated"),
	}

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.SynthesisAPIKey = os.Getenv("SYNTHESIS_API_KEY")
	cfg.RazorpayKeyID = os.Getenv("RAZORPAY_KEY_ID")
	cfg.RazorpayKeySecret = os.Getenv("RAZORPAY_KEY_SECRET")

	var missing []string
	if cfg.MySQLDSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if cfg.SynthesisAPIKey == "" {
		missing = append(missing, "SYNTHESIS_API_KEY")
	}
	if cfg.RazorpayKeyID == "" {
		missing = append(missing, "RAZORPAY_KEY_ID")
	}
	if cfg.RazorpayKeySecret == "" {
		missing = append(missing, "RAZORPAY_KEY_SECRET")
	}
	if cfg.S3Region == "" {
		missing = append(missing, "S3_REGION")
	}
	if cfg.S3AccessKey == "" {
		missing = append(missing, "S3_ACCESS_KEY")
	}
	if cfg.S3SecretKey == "" {
		missing = append(missing, "S3_SECRET_KEY")
	}
	if cfg.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if cfg.S3PublicBaseURL == "" {
		missing = append(missing, "S3_PUBLIC_BASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if cfg.GenerationPriceCredits <= 0 {
		return Config{}, fmt.Errorf("GENERATION_PRICE_CREDITS must be positive")
	}
	if cfg.GenerationImageCount <= 0 {
		return Config{}, fmt.Errorf("GENERATION_IMAGE_COUNT must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// No env file is fine; variables may come from the environment itself.
	return nil
}
