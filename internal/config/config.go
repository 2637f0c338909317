// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"unstakepool/internal/fixedpoint"
)

// Default configuration constants
const (
	DefaultPort          = 8080
	DefaultStorageDriver = StorageDriverMemory
)

// Storage driver names
const (
	StorageDriverMemory   = "memory"
	StorageDriverDynamoDB = "dynamodb"
)

type Config struct {
	Server  Server       `yaml:"server"`
	Storage Storage      `yaml:"storage"`
	Pools   []PoolConfig `yaml:"pools,omitempty"`
}

type Server struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key,omitempty"`
}

type Storage struct {
	Driver string `yaml:"driver"`
	Region string `yaml:"region,omitempty"`
	Table  string `yaml:"table,omitempty"`
}

// PoolConfig describes a pool created at startup if it does not exist yet.
// Amounts are decimal strings such as "1.5" or "0.001".
type PoolConfig struct {
	Name            string `yaml:"name"`
	Price           string `yaml:"price"`
	MinFee          string `yaml:"min_fee"`
	MaxFee          string `yaml:"max_fee"`
	LiquidityTarget string `yaml:"liquidity_target"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch config.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverDynamoDB:
		if config.Storage.Region == "" {
			return fmt.Errorf("storage.region is required for the dynamodb driver")
		}
		if config.Storage.Table == "" {
			return fmt.Errorf("storage.table is required for the dynamodb driver")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q", StorageDriverMemory, StorageDriverDynamoDB)
	}

	for i, p := range config.Pools {
		if p.Name == "" {
			return fmt.Errorf("pools[%d].name is required", i)
		}
		if _, _, _, _, err := p.Params(); err != nil {
			return fmt.Errorf("pools[%d] (%s): %w", i, p.Name, err)
		}
	}

	return nil
}

func setDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = DefaultPort
	}
	if config.Storage.Driver == "" {
		config.Storage.Driver = DefaultStorageDriver
	}
}

// Params parses the pool's decimal-string parameters.
func (p PoolConfig) Params() (price fixedpoint.Price, minFee, maxFee fixedpoint.Percentage, target fixedpoint.TokenAmount, err error) {
	if price, err = fixedpoint.Parse[fixedpoint.Price](p.Price); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("price: %w", err)
	}
	if minFee, err = fixedpoint.Parse[fixedpoint.Percentage](p.MinFee); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("min_fee: %w", err)
	}
	if maxFee, err = fixedpoint.Parse[fixedpoint.Percentage](p.MaxFee); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("max_fee: %w", err)
	}
	if target, err = fixedpoint.Parse[fixedpoint.TokenAmount](p.LiquidityTarget); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("liquidity_target: %w", err)
	}
	return price, minFee, maxFee, target, nil
}

func CreateSampleConfig(filename string) error {
	sampleConfig := Config{
		Server: Server{
			Port: DefaultPort,
		},
		Storage: Storage{
			Driver: StorageDriverMemory,
		},
		Pools: []PoolConfig{
			{
				Name:            "main",
				Price:           "1.5",
				MinFee:          "0.001",
				MaxFee:          "0.09",
				LiquidityTarget: "90",
			},
		},
	}

	data, err := yaml.Marshal(&sampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}

	return nil
}
