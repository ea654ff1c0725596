package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"APP_ENV" env-default:"local"`
	LogLevel   string           `yaml:"logLevel" env:"LOG_LEVEL" env-default:"info"`
	HTTPServer HTTPServerConfig `yaml:"httpServer"`
	DB         DBConfig         `yaml:"db"`
	AI         AIConfig         `yaml:"ai"`
}

type HTTPServerConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"0.0.0.0"`
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"30s"`
	Secret  string        `yaml:"secret" env:"API_SECRET" env-default:""`
}

type DBConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"data/interpreter.db"`
}

type AIConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"AI_TIMEOUT" env-default:"90s"`
}

// Load reads the optional yaml config then overlays environment variables.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env config: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load with a fatal exit path for binaries.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}
