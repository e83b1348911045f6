package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/studyplan-api/internal/planner"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Planner   PlannerConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig

	ShutdownTimeout time.Duration
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

type JWTConfig struct {
	Secret string
	Issuer string
	Leeway time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles Redis-backed caching of planner preferences.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RateLimitConfig throttles plan previews per user. A zero rate disables it.
type RateLimitConfig struct {
	PreviewRPS   float64
	PreviewBurst int
}

// JobsConfig schedules maintenance jobs.
type JobsConfig struct {
	PurgeSchedule string
	Timeout       time.Duration
}

// PlannerConfig holds application-wide study planner defaults, overridable per user.
type PlannerConfig struct {
	SessionDurationHours   float64
	Intervals              []int
	PreferredSlots         []planner.PreferredSlot
	MaxSessionsPerDeadline int
	Location               *time.Location
	ProposalTTL            time.Duration
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
		Leeway: parseDuration(v.GetString("JWT_LEEWAY"), 30*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		PreviewRPS:   v.GetFloat64("PLANNER_PREVIEW_RPS"),
		PreviewBurst: v.GetInt("PLANNER_PREVIEW_BURST"),
	}

	cfg.Jobs = JobsConfig{
		PurgeSchedule: v.GetString("JOB_PURGE_SCHEDULE"),
		Timeout:       parseDuration(v.GetString("JOB_TIMEOUT"), 30*time.Second),
	}

	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	plannerCfg, err := loadPlanner(v)
	if err != nil {
		return nil, err
	}
	cfg.Planner = plannerCfg

	return cfg, nil
}

func loadPlanner(v *viper.Viper) (PlannerConfig, error) {
	intervals, err := ParseIntervals(v.GetString("PLANNER_INTERVALS"))
	if err != nil {
		return PlannerConfig{}, fmt.Errorf("PLANNER_INTERVALS: %w", err)
	}
	slots, err := ParseSlots(v.GetString("PLANNER_SLOTS"))
	if err != nil {
		return PlannerConfig{}, fmt.Errorf("PLANNER_SLOTS: %w", err)
	}
	loc, err := loadLocation(v.GetString("PLANNER_LOCATION"))
	if err != nil {
		return PlannerConfig{}, fmt.Errorf("PLANNER_LOCATION: %w", err)
	}
	cfg := PlannerConfig{
		SessionDurationHours:   v.GetFloat64("PLANNER_SESSION_HOURS"),
		Intervals:              intervals,
		PreferredSlots:         slots,
		MaxSessionsPerDeadline: v.GetInt("PLANNER_MAX_SESSIONS"),
		Location:               loc,
		ProposalTTL:            parseDuration(v.GetString("PLANNER_PROPOSAL_TTL"), 30*time.Minute),
	}

	check := planner.Config{
		Now:                  time.Now(),
		SessionDurationHours: cfg.SessionDurationHours,
		Intervals:            cfg.Intervals,
		PreferredSlots:       cfg.PreferredSlots,
	}
	if err := check.Validate(); err != nil {
		return PlannerConfig{}, err
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
	v.SetDefault("DB_NAME", "studyplan")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_LEEWAY", "30s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("PLANNER_SESSION_HOURS", planner.DefaultSessionDurationHours)
	v.SetDefault("PLANNER_INTERVALS", "1,3,7,14")
	v.SetDefault("PLANNER_SLOTS", "evening:18-21:1,2,3,4,5;weekend-morning:9-12:0,6;morning:7-9:1,2,3,4,5")
	v.SetDefault("PLANNER_MAX_SESSIONS", planner.DefaultMaxSessionsPerDeadline)
	v.SetDefault("PLANNER_LOCATION", "Local")
	v.SetDefault("PLANNER_PROPOSAL_TTL", "30m")
	v.SetDefault("PLANNER_PREVIEW_RPS", 1)
	v.SetDefault("PLANNER_PREVIEW_BURST", 5)

	v.SetDefault("JOB_PURGE_SCHEDULE", "@every 5m")
	v.SetDefault("JOB_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

// ParseIntervals reads a comma separated list of day offsets.
func ParseIntervals(raw string) ([]int, error) {
	parts := splitAndTrim(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q", part)
		}
		result = append(result, value)
	}
	return result, nil
}

// ParseSlots reads slots in the form "label:start-end:days;..." where days is an
// optional comma separated weekday list (0=Sunday).
func ParseSlots(raw string) ([]planner.PreferredSlot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var slots []planner.PreferredSlot
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Split(entry, ":")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("invalid slot %q", entry)
		}
		hours := strings.SplitN(fields[1], "-", 2)
		if len(hours) != 2 {
			return nil, fmt.Errorf("invalid slot hours %q", fields[1])
		}
		start, err := strconv.Atoi(strings.TrimSpace(hours[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid slot start %q", hours[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(hours[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid slot end %q", hours[1])
		}
		slot := planner.PreferredSlot{Label: strings.TrimSpace(fields[0]), StartHour: start, EndHour: end}
		if len(fields) == 3 {
			for _, day := range splitAndTrim(fields[2]) {
				value, err := strconv.Atoi(day)
				if err != nil {
					return nil, fmt.Errorf("invalid slot weekday %q", day)
				}
				slot.Days = append(slot.Days, time.Weekday(value))
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
