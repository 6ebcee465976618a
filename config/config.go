package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) and can be
// overridden by a YAML file, see ApplyYAML.
type Config struct {
	// 日志配置
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	LogConsole bool   `yaml:"log_console"`

	// 播放器
	InitialVolume float64 `yaml:"initial_volume"`
	SampleRate    int     `yaml:"sample_rate"`

	// 网易云音乐 API
	NeteaseEnabled    bool   `yaml:"netease_enabled"`
	NeteaseAPIURL     string `yaml:"netease_api_url"`
	NeteasePageSize   int    `yaml:"netease_page_size"`
	NeteaseTimeoutSec int    `yaml:"netease_timeout_sec"`

	TidalEnabled bool `yaml:"tidal_enabled"`

	// MinIO配置
	MinioEnabled    bool   `yaml:"minio_enabled"`
	MinioEndpoint   string `yaml:"minio_endpoint"`
	MinioAccessKey  string `yaml:"minio_access_key"`
	MinioSecretKey  string `yaml:"minio_secret_key"`
	MinioUseSSL     bool   `yaml:"minio_use_ssl"`
	MinioRegion     string `yaml:"minio_region"`
	MinioBucket     string `yaml:"minio_bucket"`
	MinioPrefix     string `yaml:"minio_prefix"`
	MinioPresignSec int    `yaml:"minio_presign_sec"`

	// Redis配置 (search page cache)
	RedisEnabled      bool   `yaml:"redis_enabled"`
	RedisHost         string `yaml:"redis_host"`
	RedisPort         string `yaml:"redis_port"`
	RedisPassword     string `yaml:"redis_password"`
	RedisDB           int    `yaml:"redis_db"`
	SearchCacheTTLSec int    `yaml:"search_cache_ttl_sec"`

	// MySQL (play history)
	HistoryEnabled bool   `yaml:"history_enabled"`
	DBHost         string `yaml:"db_host"`
	DBPort         string `yaml:"db_port"`
	DBUser         string `yaml:"db_user"`
	DBPassword     string `yaml:"db_password"`
	DBName         string `yaml:"db_name"`

	// 控制服务
	ListenAddr string `yaml:"listen_addr"`
	JWTSecret  string `yaml:"jwt_secret"`
	WatchDir   string `yaml:"watch_dir"`
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without reading .env.
func FromEnv() *Config {
	return &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFile:    getEnv("LOG_FILE", ""),
		LogConsole: getEnvBool("LOG_CONSOLE", true),

		InitialVolume: getEnvFloat("PLAYER_VOLUME", 0.7),
		SampleRate:    getEnvInt("PLAYER_SAMPLE_RATE", 44100),

		NeteaseEnabled:    getEnvBool("NETEASE_ENABLED", false),
		NeteaseAPIURL:     getEnv("NETEASE_API_URL", "http://localhost:3000"),
		NeteasePageSize:   getEnvInt("NETEASE_PAGE_SIZE", 20),
		NeteaseTimeoutSec: getEnvInt("NETEASE_TIMEOUT_SEC", 10),

		TidalEnabled: getEnvBool("TIDAL_ENABLED", true),

		MinioEnabled:    getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:     getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:     getEnv("MINIO_REGION", "us-east-1"),
		MinioBucket:     getEnv("MINIO_BUCKET", "templeplayer"),
		MinioPrefix:     getEnv("MINIO_PREFIX", "music/"),
		MinioPresignSec: getEnvInt("MINIO_PRESIGN_SEC", 3600),

		RedisEnabled:      getEnvBool("REDIS_ENABLED", false),
		RedisHost:         getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		SearchCacheTTLSec: getEnvInt("SEARCH_CACHE_TTL_SEC", 600),

		HistoryEnabled: getEnvBool("HISTORY_ENABLED", false),
		DBHost:         getEnv("DB_HOST", "127.0.0.1"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBUser:         getEnv("DB_USER", "root"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         getEnv("DB_NAME", "templeplayer"),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		JWTSecret:  os.Getenv("CONTROL_JWT_SECRET"),
		WatchDir:   getEnv("WATCH_DIR", ""),
	}
}

// ApplyYAML overrides the fields present in the YAML file at path.
// Keys missing from the file keep their current values.
func (c *Config) ApplyYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// MySQLDSN returns the go-sql-driver DSN for the history database.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NeteaseTimeout() time.Duration {
	return time.Duration(c.NeteaseTimeoutSec) * time.Second
}

func (c *Config) SearchCacheTTL() time.Duration {
	return time.Duration(c.SearchCacheTTLSec) * time.Second
}

func (c *Config) MinioPresignExpiry() time.Duration {
	return time.Duration(c.MinioPresignSec) * time.Second
}
