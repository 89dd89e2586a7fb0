// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Space       SpaceConfig
	Tool        ToolConfig
	Recommend   RecommendConfig
	Social      SocialConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// SpaceConfig holds space lifecycle configuration
type SpaceConfig struct {
	EventsTopic    string
	DormancyWindow time.Duration
	SweepInterval  time.Duration
	SweepLimit     int
}

// ToolConfig holds tool placement and surge detection configuration
type ToolConfig struct {
	SurgeThreshold float64
	SurgeHalfLife  time.Duration
}

// RecommendConfig holds recommendation scorer configuration
type RecommendConfig struct {
	RunInterval      time.Duration
	ActiveUserWindow time.Duration
	BatchLimit       int
	Concurrency      int
	MaxPerUser       int
	MinItemScore     float64
	MinPersonScore   float64
	InterestTagWeight float64
	SharedSpaceBonus  float64
	MutualWeight      float64
	MutualCap         float64
	RecencyBonus      float64
}

// SocialConfig holds engagement and social-graph aggregation configuration
type SocialConfig struct {
	DecayWindow       time.Duration
	EventWeight       float64
	SpaceWeight       float64
	SocialWeight      float64
	ContentWeight     float64
	StrongConnections int
	InsightsInterval  time.Duration
	InsightsBatch     int
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "hive"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Space: SpaceConfig{
			EventsTopic:    getEnv("SPACE_EVENTS_TOPIC", "hive.space"),
			DormancyWindow: getEnvAsDuration("SPACE_DORMANCY_WINDOW", 14*24*time.Hour),
			SweepInterval:  getEnvAsDuration("SPACE_SWEEP_INTERVAL", 1*time.Hour),
			SweepLimit:     getEnvAsInt("SPACE_SWEEP_LIMIT", 500),
		},
		Tool: ToolConfig{
			SurgeThreshold: getEnvAsFloat("TOOL_SURGE_THRESHOLD", 50.0),
			SurgeHalfLife:  getEnvAsDuration("TOOL_SURGE_HALF_LIFE", 24*time.Hour),
		},
		Recommend: RecommendConfig{
			RunInterval:       getEnvAsDuration("RECOMMEND_RUN_INTERVAL", 24*time.Hour),
			ActiveUserWindow:  getEnvAsDuration("RECOMMEND_ACTIVE_USER_WINDOW", 30*24*time.Hour),
			BatchLimit:        getEnvAsInt("RECOMMEND_BATCH_LIMIT", 500),
			Concurrency:       getEnvAsInt("RECOMMEND_CONCURRENCY", 10),
			MaxPerUser:        getEnvAsInt("RECOMMEND_MAX_PER_USER", 50),
			MinItemScore:      getEnvAsFloat("RECOMMEND_MIN_ITEM_SCORE", 15.0),
			MinPersonScore:    getEnvAsFloat("RECOMMEND_MIN_PERSON_SCORE", 20.0),
			InterestTagWeight: getEnvAsFloat("RECOMMEND_INTEREST_TAG_WEIGHT", 12.0),
			SharedSpaceBonus:  getEnvAsFloat("RECOMMEND_SHARED_SPACE_BONUS", 25.0),
			MutualWeight:      getEnvAsFloat("RECOMMEND_MUTUAL_WEIGHT", 5.0),
			MutualCap:         getEnvAsFloat("RECOMMEND_MUTUAL_CAP", 30.0),
			RecencyBonus:      getEnvAsFloat("RECOMMEND_RECENCY_BONUS", 5.0),
		},
		Social: SocialConfig{
			DecayWindow:       getEnvAsDuration("SOCIAL_DECAY_WINDOW", 30*24*time.Hour),
			EventWeight:       getEnvAsFloat("SOCIAL_EVENT_WEIGHT", 10.0),
			SpaceWeight:       getEnvAsFloat("SOCIAL_SPACE_WEIGHT", 8.0),
			SocialWeight:      getEnvAsFloat("SOCIAL_SOCIAL_WEIGHT", 5.0),
			ContentWeight:     getEnvAsFloat("SOCIAL_CONTENT_WEIGHT", 3.0),
			StrongConnections: getEnvAsInt("SOCIAL_STRONG_CONNECTIONS", 5),
			InsightsInterval:  getEnvAsDuration("SOCIAL_INSIGHTS_INTERVAL", 7*24*time.Hour),
			InsightsBatch:     getEnvAsInt("SOCIAL_INSIGHTS_BATCH", 500),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Tool.SurgeThreshold <= 0 {
		return fmt.Errorf("surge threshold must be positive")
	}
	if config.Recommend.Concurrency <= 0 {
		return fmt.Errorf("recommendation concurrency must be positive")
	}
	if config.Space.DormancyWindow <= 0 {
		return fmt.Errorf("dormancy window must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
