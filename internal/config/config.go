package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	StorageLocal = "local"
	StorageMinio = "minio"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Upload    UploadConfig
	Minio     MinioConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	BcryptCost  int
}

type DatabaseConfig struct {
	Driver string
	URI    string
	Name   string
}

type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

// AdminConfig describes the root account provisioned at startup.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type UploadConfig struct {
	Driver   string
	Dir      string
	MaxBytes int64
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// IsProduction reports whether NODE_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// a missing .env file is fine, the environment is the source of truth
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	expiresIn, err := ParseExpiry(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Environment: v.GetString("NODE_ENV"),
			BcryptCost:  v.GetInt("BCRYPT_COST"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			URI:    v.GetString("MONGO_URI"),
			Name:   v.GetString("MONGO_DB"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("JWT_SECRET"),
			ExpiresIn: expiresIn,
		},
		Admin: AdminConfig{
			Name:     v.GetString("ROOT_USER"),
			Email:    v.GetString("ROOT_USER_EMAIL"),
			Password: v.GetString("ROOT_USER_PASSWORD"),
		},
		Upload: UploadConfig{
			Driver:   strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Dir:      v.GetString("UPLOAD_DIR"),
			MaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Minio: MinioConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		RateLimit: RateLimitConfig{
			Max:    v.GetInt("RATE_LIMIT_MAX"),
			Window: v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("NODE_ENV", "development")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("DB_DRIVER", DriverMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "user_management")
	v.SetDefault("JWT_EXPIRES_IN", "1d")
	v.SetDefault("ROOT_USER", "admin")
	v.SetDefault("STORAGE_DRIVER", StorageLocal)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 5*1024*1024)
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "profile-pictures")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
}

// Validate rejects a missing JWT secret, unknown drivers and non-positive limits.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Upload.Driver {
	case StorageLocal, StorageMinio:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Upload.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	return nil
}

// ParseExpiry accepts Go durations ("90m", "24h") and whole days ("7d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("expiry must be positive, got %q", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
