// Package config loads runtime configuration: a YAML file layered over
// environment variables, with a .env file picked up for local runs.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/bazar-khobor/pkg/extractor"
)

// Config is the full runtime configuration for every subcommand. Each
// subcommand reads only the sections it needs.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Producer ProducerConfig `mapstructure:"producer"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Server   ServerConfig   `mapstructure:"server"`

	Mongo  MongoConfig  `mapstructure:"mongo"`
	Vector VectorConfig `mapstructure:"vector"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	Novu   NovuConfig   `mapstructure:"novu"`
}

type ProducerConfig struct {
	Sources        []extractor.Source `mapstructure:"sources"`
	PublishersFile string             `mapstructure:"publishers_file"`
	Interval       time.Duration      `mapstructure:"interval"`
}

type ConsumerConfig struct {
	Queue    ConsumerQueueConfig `mapstructure:"queue"`
	IdleWait time.Duration       `mapstructure:"idle_wait"`
	Journal  string              `mapstructure:"journal"`
}

type ConsumerQueueConfig struct {
	URL             string `mapstructure:"url"`
	Region          string `mapstructure:"region"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	WaitTimeSeconds int32  `mapstructure:"wait_time_seconds"`
}

type NotifierConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	DocumentWindow int           `mapstructure:"document_window"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type VectorConfig struct {
	DSN string `mapstructure:"dsn"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type NovuConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Workflow string `mapstructure:"workflow"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load reads the YAML config file at path. ${VAR} references in the file are
// expanded from the environment before decoding, and BK_-prefixed environment
// variables override file values. A .env file in the working directory is
// loaded first when present.
func Load(path string) (Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(raw))

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadConfig(strings.NewReader(expanded)); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("producer.interval", "6h")
	v.SetDefault("producer.publishers_file", "publishers.yaml")
	v.SetDefault("consumer.idle_wait", "4h")
	v.SetDefault("consumer.journal", "consumer-journal.db")
	v.SetDefault("consumer.queue.wait_time_seconds", 10)
	v.SetDefault("notifier.interval", "12h")
	v.SetDefault("notifier.document_window", 3)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("mongo.database", "informatica_ai")
}

func validate(cfg Config) error {
	for i, src := range cfg.Producer.Sources {
		if src.ID == "" {
			return fmt.Errorf("producer.sources[%d]: id is required", i)
		}
		if src.URL == "" {
			return fmt.Errorf("producer source %s: url is required", src.ID)
		}
	}
	return nil
}
