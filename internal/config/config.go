package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Engine       EngineConfig
	Escalation   EscalationConfig
	Social       SocialConfig
	Kafka        KafkaConfig
	Links        LinksConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// EngineConfig locates the assistant engine that classifies, retrieves and
// generates on behalf of the service.
type EngineConfig struct {
	BaseURL        string
	TimeoutSeconds int
	RetrieveTopK   int
}

// Timeout returns the per-call engine timeout.
func (e EngineConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// EscalationConfig carries the keyword vocabularies and thresholds the
// escalation policy runs on. Defaults match the production vocabulary.
type EscalationConfig struct {
	Keywords           []string
	LegalKeywords      []string
	CancellationLabels []string
	MinConfidence      float64
	SevereSentiment    float64
	CriticalSentiment  float64
}

// SocialConfig controls the public post watch loop.
type SocialConfig struct {
	Enabled             bool
	BaseURL             string
	AccessToken         string
	Hashtags            []string
	PollIntervalSeconds int
	DedupWindowHours    int
	MaxRepliesPerAuthor int
	ReplyWindowMinutes  int
	ContactBaseURL      string
}

// PollInterval returns how often hashtags are polled.
func (s SocialConfig) PollInterval() time.Duration {
	if s.PollIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// DedupWindow returns how long processed post ids are remembered.
func (s SocialConfig) DedupWindow() time.Duration {
	if s.DedupWindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.DedupWindowHours) * time.Hour
}

// ReplyWindow returns the rolling window for the per-author reply cap.
func (s SocialConfig) ReplyWindow() time.Duration {
	if s.ReplyWindowMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.ReplyWindowMinutes) * time.Minute
}

// KafkaConfig configures the optional event relay. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether events should be relayed to kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// LinksConfig holds the self-service URLs suggested alongside answers.
type LinksConfig struct {
	HelpCenterURL string
	AccountURL    string
	ContactURL    string
}

// NotificationConfig holds notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults
// where possible, and fails fast on values the service cannot run with.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-assistant"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Engine: EngineConfig{
			BaseURL:        getEnv("ENGINE_BASE_URL", "http://127.0.0.1:8090"),
			TimeoutSeconds: getEnvAsInt("ENGINE_TIMEOUT_SECONDS", 10),
			RetrieveTopK:   getEnvAsInt("ENGINE_RETRIEVE_TOP_K", 3),
		},
		Escalation: EscalationConfig{
			Keywords:           getEnvAsList("ESCALATION_KEYWORDS", "plainte,réclamation,rémunération,dédommagement,résiliation immédiate"),
			LegalKeywords:      getEnvAsList("ESCALATION_LEGAL_KEYWORDS", "juridique,avocat,médiateur,arcep"),
			CancellationLabels: getEnvAsList("ESCALATION_CANCELLATION_LABELS", "resiliation"),
			MinConfidence:      getEnvAsFloat("ESCALATION_MIN_CONFIDENCE", 0.5),
			SevereSentiment:    getEnvAsFloat("ESCALATION_SEVERE_SENTIMENT", -0.7),
			CriticalSentiment:  getEnvAsFloat("ESCALATION_CRITICAL_SENTIMENT", -0.85),
		},
		Social: SocialConfig{
			Enabled:             getEnvAsBool("SOCIAL_WATCH_ENABLED", false),
			BaseURL:             getEnv("SOCIAL_BASE_URL", "https://mastodon.social"),
			AccessToken:         os.Getenv("SOCIAL_ACCESS_TOKEN"),
			Hashtags:            getEnvAsList("SOCIAL_HASHTAGS", "freemobile,free_mobile"),
			PollIntervalSeconds: getEnvAsInt("SOCIAL_POLL_INTERVAL_SECONDS", 60),
			DedupWindowHours:    getEnvAsInt("SOCIAL_DEDUP_WINDOW_HOURS", 24),
			MaxRepliesPerAuthor: getEnvAsInt("SOCIAL_MAX_REPLIES_PER_AUTHOR", 2),
			ReplyWindowMinutes:  getEnvAsInt("SOCIAL_REPLY_WINDOW_MINUTES", 60),
			ContactBaseURL:      getEnv("SOCIAL_CONTACT_BASE_URL", "http://localhost:3000/chat"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", ""),
			Topic:   getEnv("KAFKA_EVENTS_TOPIC", "support-assistant.events"),
		},
		Links: LinksConfig{
			HelpCenterURL: getEnv("LINKS_HELP_CENTER_URL", "https://assistance.example.com"),
			AccountURL:    getEnv("LINKS_ACCOUNT_URL", "https://account.example.com"),
			ContactURL:    getEnv("LINKS_CONTACT_URL", "https://assistance.example.com/contact"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would silently disable escalation
// rules or leave the watch loop spinning on nothing.
func (c *Config) Validate() error {
	if len(c.Escalation.Keywords) == 0 {
		return fmt.Errorf("ESCALATION_KEYWORDS must not be empty")
	}
	if c.Escalation.MinConfidence < 0 || c.Escalation.MinConfidence > 1 {
		return fmt.Errorf("ESCALATION_MIN_CONFIDENCE must be within [0,1], got %v", c.Escalation.MinConfidence)
	}
	if c.Escalation.SevereSentiment < -1 || c.Escalation.SevereSentiment > 0 {
		return fmt.Errorf("ESCALATION_SEVERE_SENTIMENT must be within [-1,0], got %v", c.Escalation.SevereSentiment)
	}
	if c.Escalation.CriticalSentiment > c.Escalation.SevereSentiment {
		return fmt.Errorf("ESCALATION_CRITICAL_SENTIMENT must not be above ESCALATION_SEVERE_SENTIMENT")
	}
	if c.Social.Enabled {
		if len(c.Social.Hashtags) == 0 {
			return fmt.Errorf("SOCIAL_HASHTAGS must not be empty when the watch loop is enabled")
		}
		if c.Social.MaxRepliesPerAuthor <= 0 {
			return fmt.Errorf("SOCIAL_MAX_REPLIES_PER_AUTHOR must be positive, got %d", c.Social.MaxRepliesPerAuthor)
		}
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvAsList splits a comma separated value, trimming blanks. An empty
// fallback yields an empty list.
func getEnvAsList(key, fallback string) []string {
	val := getEnv(key, fallback)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
