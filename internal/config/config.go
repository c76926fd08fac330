package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	StudentTokenTTL        time.Duration
	StaffTokenTTL          time.Duration
	TablesPath             string
	LeaderboardCacheTTL    time.Duration
	BulkBatchSize          int
	UploadMaxMB            int
	HTTPClientTimeout      time.Duration
	SendGridAPIKey         string
	MailFromAddress        string
	MailFromName           string
	RazorpayKeyID          string
	RazorpayKeySecret      string
	RazorpayBaseURL        string
	IFSCBaseURL            string
	NATSURL                string
	EventSubjectBase       string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	LoginRateLimit         int
	CallbackRateLimit      int
	CORSAllowOrigins       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OLYMPIAD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Olympiad API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("jwt.student_ttl", "24h")
	v.SetDefault("jwt.staff_ttl", "720h")
	v.SetDefault("tables.path", "config/tables.yaml")
	v.SetDefault("leaderboard.cache_ttl", "2m")
	v.SetDefault("bulk.batch_size", 50)
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("http.client_timeout", "10s")
	v.SetDefault("mail.from_address", "no-reply@globalinnovatorolympiad.com")
	v.SetDefault("mail.from_name", "Global Innovator Olympiad")
	v.SetDefault("razorpay.base_url", "https://api.razorpay.com")
	v.SetDefault("ifsc.base_url", "https://ifsc.razorpay.com")
	v.SetDefault("events.subject", "olympiad")
	v.SetDefault("cloudinary.folder", "olympiad/rosters")
	v.SetDefault("rate_limit.login", 10)
	v.SetDefault("rate_limit.callback", 5)
	v.SetDefault("cors.allow_origins", "*")

	studentTTL, err := duration(v, "jwt.student_ttl")
	if err != nil {
		return Config{}, err
	}

	staffTTL, err := duration(v, "jwt.staff_ttl")
	if err != nil {
		return Config{}, err
	}

	cacheTTL, err := duration(v, "leaderboard.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	clientTimeout, err := duration(v, "http.client_timeout")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		StudentTokenTTL:        studentTTL,
		StaffTokenTTL:          staffTTL,
		TablesPath:             v.GetString("tables.path"),
		LeaderboardCacheTTL:    cacheTTL,
		BulkBatchSize:          v.GetInt("bulk.batch_size"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		HTTPClientTimeout:      clientTimeout,
		SendGridAPIKey:         v.GetString("sendgrid.api_key"),
		MailFromAddress:        v.GetString("mail.from_address"),
		MailFromName:           v.GetString("mail.from_name"),
		RazorpayKeyID:          v.GetString("razorpay.key_id"),
		RazorpayKeySecret:      v.GetString("razorpay.key_secret"),
		RazorpayBaseURL:        v.GetString("razorpay.base_url"),
		IFSCBaseURL:            v.GetString("ifsc.base_url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectBase:       v.GetString("events.subject"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		LoginRateLimit:         v.GetInt("rate_limit.login"),
		CallbackRateLimit:      v.GetInt("rate_limit.callback"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.BulkBatchSize <= 0 {
		cfg.BulkBatchSize = 50
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 10
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	parsed, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ReplaceAll(key, "_", " "), err)
	}

	return parsed, nil
}
