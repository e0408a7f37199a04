// backend-go/internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	App     AppConfig
	Auth    AuthConfig
	Cache   CacheConfig
	Storage StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	UploadMaxBytes            int64
	DefaultWindowDays         int
	SessionTTLMinutes         int
	MaxConcurrentComputations int64
}

type AuthConfig struct {
	SecretsFile     string
	JWTSecret       string
	TokenTTLMinutes int
	MaxFailures     int
	LockoutMinutes  int
	AttemptStore    string
	AttemptTTLHours int
	LoginRate       string
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	ViewTTLSeconds int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 60)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("UPLOAD_MAX_BYTES", 50<<20)
	v.SetDefault("DEFAULT_WINDOW_DAYS", 56)
	v.SetDefault("SESSION_TTL_MINUTES", 120)
	v.SetDefault("MAX_CONCURRENT_COMPUTATIONS", 4)
	v.SetDefault("AUTH_SECRETS_FILE", "./secrets.toml")
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("AUTH_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("AUTH_MAX_FAILURES", 5)
	v.SetDefault("AUTH_LOCKOUT_MINUTES", 10)
	v.SetDefault("AUTH_ATTEMPT_STORE", "memory")
	v.SetDefault("AUTH_ATTEMPT_TTL_HOURS", 24)
	v.SetDefault("AUTH_LOGIN_RATE", "20-M")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_VIEW_TTL_SECONDS", 60)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		App: AppConfig{
			UploadMaxBytes:            v.GetInt64("UPLOAD_MAX_BYTES"),
			DefaultWindowDays:         v.GetInt("DEFAULT_WINDOW_DAYS"),
			SessionTTLMinutes:         v.GetInt("SESSION_TTL_MINUTES"),
			MaxConcurrentComputations: v.GetInt64("MAX_CONCURRENT_COMPUTATIONS"),
		},
		Auth: AuthConfig{
			SecretsFile:     v.GetString("AUTH_SECRETS_FILE"),
			JWTSecret:       v.GetString("AUTH_JWT_SECRET"),
			TokenTTLMinutes: v.GetInt("AUTH_TOKEN_TTL_MINUTES"),
			MaxFailures:     v.GetInt("AUTH_MAX_FAILURES"),
			LockoutMinutes:  v.GetInt("AUTH_LOCKOUT_MINUTES"),
			AttemptStore:    v.GetString("AUTH_ATTEMPT_STORE"),
			AttemptTTLHours: v.GetInt("AUTH_ATTEMPT_TTL_HOURS"),
			LoginRate:       v.GetString("AUTH_LOGIN_RATE"),
		},
		Cache: CacheConfig{
			Enabled:        v.GetBool("CACHE_ENABLED"),
			RedisURL:       v.GetString("REDIS_URL"),
			RedisHost:      v.GetString("REDIS_HOST"),
			RedisPort:      v.GetString("REDIS_PORT"),
			RedisPassword:  v.GetString("REDIS_PASSWORD"),
			RedisDB:        v.GetInt("REDIS_DB"),
			ViewTTLSeconds: v.GetInt("CACHE_VIEW_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
	}
}
