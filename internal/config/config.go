package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Approval store backends
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

var approvalStores = []string{StoreFile, StoreSQLite, StorePostgres, StoreMySQL, StoreRedis, StoreMemory}

// Config holds all configuration for the application
type Config struct {
	Port            string   `yaml:"port"`
	Version         string   `yaml:"version"`
	LogLevel        string   `yaml:"log_level"`
	DataDir         string   `yaml:"data_dir"`
	DatasetPath     string   `yaml:"dataset_path"`   // Thread dataset (ce_exercise_threads.json)
	CRMPath         string   `yaml:"crm_path"`       // Customer records (crm.json)
	ApprovalsPath   string   `yaml:"approvals_path"` // File approval store
	ExportPath      string   `yaml:"export_path"`    // Export artifact rewritten after each approval
	ApprovalStore   string   `yaml:"approval_store"` // file, sqlite, postgres, mysql, redis or memory
	DatabaseURL     string   `yaml:"database_url"`
	RedisAddr       string   `yaml:"redis_addr"`
	RedisPassword   string   `yaml:"redis_password"`
	RedisDB         int      `yaml:"redis_db"`
	RedisKey        string   `yaml:"redis_key"`
	KafkaBrokers    []string `yaml:"kafka_brokers"` // Approval events are only published when set
	KafkaTopic      string   `yaml:"kafka_topic"`
	DefaultApprover string   `yaml:"default_approver"`
	ExportCacheTTL  int      `yaml:"export_cache_ttl_seconds"`
	EnableSwagger   bool     `yaml:"enable_swagger"` // Serve /swagger/*
}

// Load initializes and returns application configuration. Values come from
// defaults, then an optional YAML file (CONFIG_FILE, or config.yaml when
// present), then environment variables.
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:            "8000",
		Version:         "1.0.0",
		LogLevel:        "info",
		DataDir:         "data",
		ApprovalStore:   StoreFile,
		RedisKey:        "ceassist:approvals",
		KafkaTopic:      "ce.approvals",
		DefaultApprover: "ce_associate",
		ExportCacheTTL:  300,
		EnableSwagger:   true,
	}

	if path := getEnv("CONFIG_FILE", "config.yaml"); path != "" {
		if err := config.loadYAML(path); err != nil {
			log.Printf("Ignoring config file %s: %v", path, err)
		}
	}

	config.Port = getEnv("PORT", config.Port)
	config.Version = getEnv("VERSION", config.Version)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.DataDir = getEnv("DATA_DIR", config.DataDir)
	config.DatasetPath = getEnv("DATASET_PATH", config.DatasetPath)
	config.CRMPath = getEnv("CRM_PATH", config.CRMPath)
	config.ApprovalsPath = getEnv("APPROVALS_PATH", config.ApprovalsPath)
	config.ExportPath = getEnv("EXPORT_PATH", config.ExportPath)
	config.ApprovalStore = strings.ToLower(getEnv("APPROVAL_STORE", config.ApprovalStore))
	config.DatabaseURL = getEnv("DATABASE_URL", config.DatabaseURL)
	config.RedisAddr = getEnv("REDIS_ADDR", config.RedisAddr)
	config.RedisPassword = getEnv("REDIS_PASSWORD", config.RedisPassword)
	config.RedisDB = getEnvInt("REDIS_DB", config.RedisDB)
	config.RedisKey = getEnv("REDIS_KEY", config.RedisKey)
	config.KafkaBrokers = getEnvList("KAFKA_BROKERS", config.KafkaBrokers)
	config.KafkaTopic = getEnv("KAFKA_TOPIC", config.KafkaTopic)
	config.DefaultApprover = getEnv("DEFAULT_APPROVER", config.DefaultApprover)
	config.ExportCacheTTL = getEnvInt("EXPORT_CACHE_TTL_SECONDS", config.ExportCacheTTL)
	config.EnableSwagger = getEnvBool("ENABLE_SWAGGER", config.EnableSwagger)

	config.applyDataDir()
	return config
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyDataDir places unset data files under DataDir.
func (c *Config) applyDataDir() {
	defaults := []struct {
		field *string
		name  string
	}{
		{&c.DatasetPath, "ce_exercise_threads.json"},
		{&c.CRMPath, "crm.json"},
		{&c.ApprovalsPath, "approvals.json"},
		{&c.ExportPath, "approved_export.json"},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = filepath.Join(c.DataDir, d.name)
		}
	}
}

// Validate reports configuration that cannot start the service.
func (c *Config) Validate() error {
	if !slices.Contains(approvalStores, c.ApprovalStore) {
		return fmt.Errorf("unknown APPROVAL_STORE %q (want one of %s)", c.ApprovalStore, strings.Join(approvalStores, ", "))
	}
	switch c.ApprovalStore {
	case StorePostgres, StoreMySQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s approval store", c.ApprovalStore)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis approval store")
		}
	}
	return nil
}

// SQLiteURL returns DATABASE_URL, or a database file under DataDir.
func (c *Config) SQLiteURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "sqlite://" + filepath.Join(c.DataDir, "approvals.db")
}

// ExportCacheDuration is ExportCacheTTL as a duration.
func (c *Config) ExportCacheDuration() time.Duration {
	return time.Duration(c.ExportCacheTTL) * time.Second
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as boolean with a default fallback
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "ceassist").
		Str("version", c.Version).
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
