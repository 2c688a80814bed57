package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Secrets have no defaults in code; provide them via config.json, .env or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	JWTTTLHours        int
	RateLimitPerMinute int
	AllowedOrigins     []string
	SuperuserUsernames []string
	ArticlePageSize    int
	ShutdownTimeoutSec int
	// Registration throttling per client IP; 0 disables
	RegisterCooldownSec    int
	RegisterMaxPerIPPerDay int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for caching and token revocation; empty host disables it
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// Load reads configuration once during boot.
// Precedence: config/config.json -> defaults -> .env -> environment variables.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	var c AppConfig
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &c); err != nil {
		log.Printf("ignoring config/config.json: %v", err)
	}
	applyDefaults(&c)

	// .env never overrides variables already present in the environment
	_ = godotenv.Load()
	applyEnvOverrides(&c)

	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()
	return Load()
}

// Set replaces the cached configuration.
func Set(c AppConfig) {
	mu.Lock()
	defer mu.Unlock()
	applyDefaults(&c)
	cfg = c
	loaded = true
}

// Validate reports settings the server cannot start without.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return errors.New("DB_DRIVER must be mysql or postgres")
	}
	return nil
}

// IsSuperuserName reports whether username is configured as a superuser.
func (c AppConfig) IsSuperuserName(username string) bool {
	for _, u := range c.SuperuserUsernames {
		if strings.EqualFold(strings.TrimSpace(u), username) {
			return true
		}
	}
	return false
}

// DatabasePort returns DBPort, falling back to the driver's well-known port.
func (c AppConfig) DatabasePort() string {
	if c.DBPort != "" {
		return c.DBPort
	}
	if c.DBDriver == "postgres" {
		return "5432"
	}
	return "3306"
}

// loadJSONConfig reads the JSON file into out if present. Both flat keys and
// grouped sections ("app", "database", "redis", "log") are accepted.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	sections := []map[string]any{raw}
	for _, name := range []string{"app", "database", "redis", "log"} {
		if m, ok := raw[name].(map[string]any); ok {
			sections = append(sections, m)
		}
	}
	for _, m := range sections {
		setString(m, "AppPort", &out.AppPort)
		setString(m, "JWTSecret", &out.JWTSecret)
		setInt(m, "JWTTTLHours", &out.JWTTTLHours)
		setInt(m, "RateLimitPerMinute", &out.RateLimitPerMinute)
		setStrings(m, "AllowedOrigins", &out.AllowedOrigins)
		setStrings(m, "SuperuserUsernames", &out.SuperuserUsernames)
		setInt(m, "ArticlePageSize", &out.ArticlePageSize)
		setInt(m, "ShutdownTimeoutSec", &out.ShutdownTimeoutSec)
		setInt(m, "RegisterCooldownSec", &out.RegisterCooldownSec)
		setInt(m, "RegisterMaxPerIPPerDay", &out.RegisterMaxPerIPPerDay)
		setString(m, "GinMode", &out.GinMode)
		setString(m, "GinPath", &out.GinPath)
		setString(m, "DBDriver", &out.DBDriver)
		setString(m, "DatabaseURI", &out.DatabaseURI)
		setString(m, "DBHost", &out.DBHost)
		setString(m, "DBPort", &out.DBPort)
		setString(m, "DBUser", &out.DBUser)
		setString(m, "DBPassword", &out.DBPassword)
		setString(m, "DBName", &out.DBName)
		setString(m, "RedisHost", &out.RedisHost)
		setInt(m, "RedisPort", &out.RedisPort)
		setInt(m, "RedisDB", &out.RedisDB)
		setString(m, "RedisPassword", &out.RedisPassword)
		setString(m, "LogLevel", &out.LogLevel)
		setString(m, "LogPath", &out.LogPath)
		setInt(m, "LogMaxSizeMB", &out.LogMaxSizeMB)
		setInt(m, "LogMaxBackups", &out.LogMaxBackups)
		setInt(m, "LogMaxAgeDays", &out.LogMaxAgeDays)
		setBool(m, "LogCompress", &out.LogCompress)
	}
	return nil
}

func setString(m map[string]any, key string, dst *string) {
	if s, ok := m[key].(string); ok && s != "" {
		*dst = s
	}
}

func setInt(m map[string]any, key string, dst *int) {
	if f, ok := m[key].(float64); ok && f != 0 {
		*dst = int(f)
	}
}

func setBool(m map[string]any, key string, dst *bool) {
	if b, ok := m[key].(bool); ok {
		*dst = b
	}
}

func setStrings(m map[string]any, key string, dst *[]string) {
	arr, ok := m[key].([]any)
	if !ok {
		return
	}
	res := make([]string, 0, len(arr))
	for _, it := range arr {
		if s, ok := it.(string); ok {
			res = append(res, s)
		}
	}
	*dst = res
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.JWTTTLHours == 0 {
		c.JWTTTLHours = 24
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.ArticlePageSize == 0 {
		c.ArticlePageSize = 3
	}
	if c.ShutdownTimeoutSec == 0 {
		c.ShutdownTimeoutSec = 30
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin.log"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBName == "" {
		c.DBName = "aiblog"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	strs := map[string]*string{
		"APP_PORT":       &c.AppPort,
		"JWT_SECRET":     &c.JWTSecret,
		"GIN_MODE":       &c.GinMode,
		"GIN_PATH":       &c.GinPath,
		"DB_DRIVER":      &c.DBDriver,
		"DATABASE_URI":   &c.DatabaseURI,
		"DB_HOST":        &c.DBHost,
		"DB_PORT":        &c.DBPort,
		"DB_USER":        &c.DBUser,
		"DB_PASSWORD":    &c.DBPassword,
		"DB_NAME":        &c.DBName,
		"REDIS_HOST":     &c.RedisHost,
		"REDIS_PASSWORD": &c.RedisPassword,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_PATH":       &c.LogPath,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"JWT_TTL_HOURS":         &c.JWTTTLHours,
		"RATE_LIMIT_PER_MINUTE": &c.RateLimitPerMinute,
		"ARTICLE_PAGE_SIZE":     &c.ArticlePageSize,
		"SHUTDOWN_TIMEOUT_SEC":  &c.ShutdownTimeoutSec,
		"REGISTER_COOLDOWN_SEC": &c.RegisterCooldownSec,
		"REGISTER_MAX_PER_DAY":  &c.RegisterMaxPerIPPerDay,
		"REDIS_PORT":            &c.RedisPort,
		"REDIS_DB":              &c.RedisDB,
		"LOG_MAX_SIZE_MB":       &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":       &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":      &c.LogMaxAgeDays,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			*dst = mustParseInt(key, v)
		}
	}

	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "true"
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("SUPERUSER_USERNAMES"); v != "" {
		c.SuperuserUsernames = splitAndTrim(v)
	}
}

func mustParseInt(key, val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value for %s=%q: %v", key, val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
