package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DB     *Postgres `yaml:"database"`
	RMQ    *RabbitMQ `yaml:"rabbitmq"`
	Events *Events   `yaml:"events"`
}

type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQ struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	VHost    string `yaml:"vhost"`
	// Enabled switches the broker mirror on. The in-process stream works
	// without a broker; out-of-process displays need it.
	Enabled bool `yaml:"enabled"`
}

type Events struct {
	HeartbeatSeconds int `yaml:"heartbeat_seconds"`
	BufferSize       int `yaml:"buffer_size"`
	ReconnectSeconds int `yaml:"reconnect_seconds"`
}

func (e *Events) Heartbeat() time.Duration {
	if e == nil || e.HeartbeatSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(e.HeartbeatSeconds) * time.Second
}

func (e *Events) Buffer() int {
	if e == nil || e.BufferSize <= 0 {
		return 16
	}
	return e.BufferSize
}

func (e *Events) Reconnect() time.Duration {
	if e == nil || e.ReconnectSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(e.ReconnectSeconds) * time.Second
}

// LoadConfig reads the YAML config at configPath, then overlays values from a
// .env file (if present) and the process environment. Environment wins over
// the file so deployments can override credentials without editing YAML.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cnf := &Config{}
	if err := yaml.Unmarshal(data, cnf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	if cnf.DB == nil {
		cnf.DB = &Postgres{}
	}
	if cnf.RMQ == nil {
		cnf.RMQ = &RabbitMQ{}
	}
	applyEnvOverrides(cnf)

	if cnf.DB.Host == "" || cnf.DB.Database == "" {
		return nil, fmt.Errorf("config: database host and name are required")
	}

	return cnf, nil
}

func applyEnvOverrides(cnf *Config) {
	cnf.DB.Host = getEnv("DB_HOST", cnf.DB.Host)
	cnf.DB.Port = getEnv("DB_PORT", cnf.DB.Port)
	cnf.DB.User = getEnv("DB_USER", cnf.DB.User)
	cnf.DB.Password = getEnv("DB_PASSWORD", cnf.DB.Password)
	cnf.DB.Database = getEnv("DB_NAME", cnf.DB.Database)

	cnf.RMQ.Host = getEnv("RMQ_HOST", cnf.RMQ.Host)
	cnf.RMQ.Port = getEnv("RMQ_PORT", cnf.RMQ.Port)
	cnf.RMQ.User = getEnv("RMQ_USER", cnf.RMQ.User)
	cnf.RMQ.Password = getEnv("RMQ_PASSWORD", cnf.RMQ.Password)
	cnf.RMQ.VHost = getEnv("RMQ_VHOST", cnf.RMQ.VHost)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
