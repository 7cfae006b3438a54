package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceHost string
	ServicePort int
	CORS        CORSConfig
	JWT         JWTConfig
	Redis       RedisConfig
	MinIO       MinIOConfig
}

type CORSConfig struct {
	Origins []string
}

type JWTConfig struct {
	Token         string
	ExpiresIn     time.Duration
	SigningMethod jwt.SigningMethod
}

type RedisConfig struct {
	Host        string
	Password    string
	Port        int
	User        string
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled сообщает, настроено ли объектное хранилище
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

const (
	envConfigName = "CONFIG_NAME"
	envConfigPath = "CONFIG_PATH"

	envJWTSecret = "JWT_SECRET"

	envRedisHost = "REDIS_HOST"
	envRedisPort = "REDIS_PORT"
	envRedisUser = "REDIS_USER"
	envRedisPass = "REDIS_PASSWORD"

	envMinIOEndpoint  = "MINIO_ENDPOINT"
	envMinIOAccessKey = "MINIO_ACCESS_KEY"
	envMinIOSecretKey = "MINIO_SECRET_KEY"
	envMinIOBucket    = "MINIO_BUCKET"
	envMinIOUseSSL    = "MINIO_USE_SSL"

	defaultRedisPort   = 6379
	defaultMinIOBucket = "mybucket"
	defaultJWTExpires  = time.Hour
)

func NewConfig() (*Config, error) {
	var err error

	configName := "config"
	_ = godotenv.Load()
	if os.Getenv(envConfigName) != "" {
		configName = os.Getenv(envConfigName)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	if p := os.Getenv(envConfigPath); p != "" {
		v.AddConfigPath(p)
	}
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	err = v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, err
	}

	// JWT: секрет только из окружения, если не задан в файле
	cfg.JWT.SigningMethod = jwt.SigningMethodHS256
	if secret := os.Getenv(envJWTSecret); secret != "" {
		cfg.JWT.Token = secret
	}
	if cfg.JWT.Token == "" {
		return nil, fmt.Errorf("jwt secret is empty, set %s", envJWTSecret)
	}
	if cfg.JWT.ExpiresIn <= 0 {
		cfg.JWT.ExpiresIn = defaultJWTExpires
	}

	// инициализация Redis конфигурации из env
	cfg.Redis.Host = os.Getenv(envRedisHost)
	cfg.Redis.Port = defaultRedisPort
	if p := os.Getenv(envRedisPort); p != "" {
		cfg.Redis.Port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis port must be int value: %w", err)
		}
	}
	cfg.Redis.Password = os.Getenv(envRedisPass)
	cfg.Redis.User = os.Getenv(envRedisUser)
	cfg.Redis.DialTimeout = 10 * time.Second
	cfg.Redis.ReadTimeout = 10 * time.Second

	// инициализация MinIO конфигурации из env
	cfg.MinIO.Endpoint = os.Getenv(envMinIOEndpoint)
	cfg.MinIO.AccessKey = os.Getenv(envMinIOAccessKey)
	cfg.MinIO.SecretKey = os.Getenv(envMinIOSecretKey)
	cfg.MinIO.Bucket = os.Getenv(envMinIOBucket)
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = defaultMinIOBucket
	}
	if s := os.Getenv(envMinIOUseSSL); s != "" {
		cfg.MinIO.UseSSL, err = strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("minio use ssl must be bool value: %w", err)
		}
	}

	log.Info("config parsed")

	return cfg, nil
}
