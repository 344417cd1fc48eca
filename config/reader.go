package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Driver   string `yaml:"driver"` // postgres | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	// Path is the sqlite DSN, used only when Driver is sqlite.
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ConfigSchema struct {
	Databases struct {
		Master   DBConfig   `yaml:"master"`
		Replicas []DBConfig `yaml:"replicas"`
	} `yaml:"db"`
	Redis    RedisConfig `yaml:"redis"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
		Queue    string `yaml:"queue"`
	} `yaml:"rabbitmq"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
	Sessions struct {
		Backend      string        `yaml:"backend"` // db | redis
		TTL          time.Duration `yaml:"ttl"`
		CookieSecure bool          `yaml:"cookie_secure"`
	} `yaml:"sessions"`
}

var AppConfig *ConfigSchema

// LoadConfig reads the YAML file, applies env overrides and defaults and
// stores the result in AppConfig.
func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf, err := Parse(data)
	if err != nil {
		return err
	}
	AppConfig = conf
	return nil
}

func Parse(data []byte) (*ConfigSchema, error) {
	conf := &ConfigSchema{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	conf.applyEnv()
	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *ConfigSchema) applyEnv() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Databases.Master.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Databases.Master.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Databases.Master.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Databases.Master.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Databases.Master.DBName = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
}

func (c *ConfigSchema) applyDefaults() {
	if c.Databases.Master.Driver == "" {
		c.Databases.Master.Driver = "postgres"
	}
	if c.Databases.Master.Port == 0 {
		c.Databases.Master.Port = 5432
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "network_events"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "network_notifications"
	}
	if c.Backend.Port == 0 {
		c.Backend.Port = 8080
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "db"
	}
	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = 14 * 24 * time.Hour
	}
}

func (c *ConfigSchema) Validate() error {
	switch c.Databases.Master.Driver {
	case "postgres":
		if c.Databases.Master.Host == "" {
			return fmt.Errorf("master database host is missing")
		}
	case "sqlite":
		if c.Databases.Master.Path == "" {
			return fmt.Errorf("sqlite path is missing")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Databases.Master.Driver)
	}
	switch c.Sessions.Backend {
	case "db":
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("redis session backend requires redis.host")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Sessions.Backend)
	}
	return nil
}

func (c *ConfigSchema) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Backend.Host, c.Backend.Port)
}
