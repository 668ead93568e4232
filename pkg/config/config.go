package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Scheduling SchedulingConfig
	Events     EventsConfig
	Pairing    PairingConfig
	Slack      SlackConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CoPresenceRuleConfig is one parsed REQUIRED:PARTNER:MINUTES rule.
type CoPresenceRuleConfig struct {
	RequiredRole string
	PartnerRole  string
	MinMinutes   int
}

// SchedulingConfig governs conflict detection and block validation.
type SchedulingConfig struct {
	MinSlotMinutes        int
	ProviderBufferMinutes int
	PatientBufferMinutes  int
	RoomBufferMinutes     int
	BaseRole              string
	RequesterRoles        []string
	CoPresenceRules       []CoPresenceRuleConfig
	UtilizationThresholds []int
}

// EventsConfig tunes the subscriber stream.
type EventsConfig struct {
	Buffer       int
	PingInterval time.Duration
}

// PairingConfig controls the arm/couple handshake sessions.
type PairingConfig struct {
	SessionTTL time.Duration
}

// SlackConfig configures the best-effort notification sink.
type SlackConfig struct {
	Enabled   bool
	Token     string
	ChannelID string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduling = SchedulingConfig{
		MinSlotMinutes:        v.GetInt("MIN_SLOT_MINUTES"),
		ProviderBufferMinutes: v.GetInt("PROVIDER_BUFFER_MINUTES"),
		PatientBufferMinutes:  v.GetInt("PATIENT_BUFFER_MINUTES"),
		RoomBufferMinutes:     v.GetInt("ROOM_BUFFER_MINUTES"),
		BaseRole:              strings.ToUpper(v.GetString("BASE_PROVIDER_ROLE")),
		RequesterRoles:        upperAll(splitAndTrim(v.GetString("INTERRUPT_REQUESTER_ROLES"))),
		CoPresenceRules:       parseCoPresenceRules(v.GetString("COPRESENCE_RULES")),
		UtilizationThresholds: parseInts(v.GetString("UTILIZATION_THRESHOLDS")),
	}

	cfg.Events = EventsConfig{
		Buffer:       v.GetInt("EVENTS_BUFFER"),
		PingInterval: parseDuration(v.GetString("EVENTS_PING_INTERVAL"), 15*time.Second),
	}

	cfg.Pairing = PairingConfig{
		SessionTTL: parseDuration(v.GetString("PAIRING_SESSION_TTL"), 4*time.Hour),
	}

	cfg.Slack = SlackConfig{
		Enabled:   v.GetBool("SLACK_NOTIFICATIONS_ENABLED"),
		Token:     v.GetString("SLACK_BOT_TOKEN"),
		ChannelID: v.GetString("SLACK_CHANNEL_ID"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "clinic_scheduling")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MIN_SLOT_MINUTES", 15)
	v.SetDefault("PROVIDER_BUFFER_MINUTES", 0)
	v.SetDefault("PATIENT_BUFFER_MINUTES", 0)
	v.SetDefault("ROOM_BUFFER_MINUTES", 0)
	v.SetDefault("BASE_PROVIDER_ROLE", "RBT")
	v.SetDefault("INTERRUPT_REQUESTER_ROLES", "SLP,OT,PT")
	v.SetDefault("COPRESENCE_RULES", "")
	v.SetDefault("UTILIZATION_THRESHOLDS", "80,90,95")

	v.SetDefault("EVENTS_BUFFER", 32)
	v.SetDefault("EVENTS_PING_INTERVAL", "15s")
	v.SetDefault("PAIRING_SESSION_TTL", "4h")

	v.SetDefault("SLACK_NOTIFICATIONS_ENABLED", false)
	v.SetDefault("SLACK_BOT_TOKEN", "")
	v.SetDefault("SLACK_CHANNEL_ID", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func upperAll(values []string) []string {
	for i, value := range values {
		values[i] = strings.ToUpper(value)
	}
	return values
}

func parseInts(raw string) []int {
	var result []int
	for _, part := range splitAndTrim(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		result = append(result, n)
	}
	return result
}

// parseCoPresenceRules reads REQUIRED:PARTNER:MINUTES triples, e.g.
// "BCBA:RBT:15,SLP:RBT:10". Malformed entries are skipped.
func parseCoPresenceRules(raw string) []CoPresenceRuleConfig {
	var rules []CoPresenceRuleConfig
	for _, entry := range splitAndTrim(raw) {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			continue
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || minutes < 0 {
			continue
		}
		rules = append(rules, CoPresenceRuleConfig{
			RequiredRole: strings.ToUpper(strings.TrimSpace(parts[0])),
			PartnerRole:  strings.ToUpper(strings.TrimSpace(parts[1])),
			MinMinutes:   minutes,
		})
	}
	return rules
}
