package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for DocuChat
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Store   StoreConfig   `mapstructure:"store"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Indexer IndexerConfig `mapstructure:"indexer"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AdminConfig holds API authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// StoreConfig selects and configures the storage backend
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // memory or sqlite
	Path    string `mapstructure:"path"`
}

// WorkerConfig locates the AI worker scripts
type WorkerConfig struct {
	Interpreter string `mapstructure:"interpreter"`
	AgentScript string `mapstructure:"agent_script"`
	RAGScript   string `mapstructure:"rag_script"`
}

// UploadConfig holds file upload configuration
type UploadConfig struct {
	Dir       string `mapstructure:"dir"`
	MaxSizeMB int64  `mapstructure:"max_size_mb"`
}

// IndexerConfig holds background indexing configuration
type IndexerConfig struct {
	QueueSize int `mapstructure:"queue_size"`
	Workers   int `mapstructure:"workers"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DOCUCHAT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("admin.api_key", "")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.path", "./data/docuchat.db")

	v.SetDefault("worker.interpreter", "python3")
	v.SetDefault("worker.agent_script", "./workers/ai-agent.py")
	v.SetDefault("worker.rag_script", "./workers/rag-service.py")

	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_size_mb", 10)

	v.SetDefault("indexer.queue_size", 32)
	v.SetDefault("indexer.workers", 2)
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
