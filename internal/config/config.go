package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL        string `yaml:"ttl"`
		StartGrace string `yaml:"start_grace"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Points struct {
		LevelThresholds []int64 `yaml:"level_thresholds"`
	} `yaml:"points"`
	Certificate struct {
		RenderTimeout string `yaml:"render_timeout"`
		Issuer        string `yaml:"issuer"`
	} `yaml:"certificate"`
	MinIO struct {
		Endpoint        string `yaml:"endpoint"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		UseSSL          bool   `yaml:"use_ssl"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		PublicURL       string `yaml:"public_url"`
	} `yaml:"minio"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
}

// Load reads YAML config from path. A missing file yields an empty config so
// the service can run from environment variables alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets deployment secrets override the file.
func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"JWT_SECRET":         &cfg.Auth.JWTSecret,
		"DATABASE_URL":       &cfg.Postgres.URL,
		"REDIS_ADDR":         &cfg.Redis.Addr,
		"REDIS_PASSWORD":     &cfg.Redis.Password,
		"RABBITMQ_URL":       &cfg.RabbitMQ.URL,
		"MINIO_ENDPOINT":     &cfg.MinIO.Endpoint,
		"MINIO_ACCESS_KEY":   &cfg.MinIO.AccessKeyID,
		"MINIO_SECRET_KEY":   &cfg.MinIO.SecretAccessKey,
		"MINIO_PUBLIC_URL":   &cfg.MinIO.PublicURL,
		"CERTIFICATE_ISSUER": &cfg.Certificate.Issuer,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
