package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Store struct {
		// Driver is one of memory, sqlite, redis, postgres.
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Key      string `yaml:"key"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Provider struct {
		// Kind is static (built-in catalog) or openai.
		Kind        string  `yaml:"kind"`
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		Timeout     string  `yaml:"timeout"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		Theme       string  `yaml:"theme"`
		Difficulty  string  `yaml:"difficulty"`
	} `yaml:"provider"`
	Riddles struct {
		ExcludeWindow int `yaml:"exclude_window"`
	} `yaml:"riddles"`
	Scoring struct {
		Enforce *bool `yaml:"enforce"`
	} `yaml:"scoring"`
	Leaderboard struct {
		Limit int `yaml:"limit"`
	} `yaml:"leaderboard"`
	Admin struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"admin"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("SCORING_ENFORCE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scoring.Enforce = &b
		}
	}
}

// StoreDriver resolves the configured store, inferring one from the connection settings.
func (c Config) StoreDriver() string {
	if c.Store.Driver != "" {
		return c.Store.Driver
	}
	switch {
	case c.Postgres.URL != "":
		return "postgres"
	case c.Redis.Addr != "":
		return "redis"
	case c.SQLite.Path != "":
		return "sqlite"
	}
	return "memory"
}

// ProviderKind resolves the riddle provider; an API key selects openai by default.
func (c Config) ProviderKind() string {
	if c.Provider.Kind != "" {
		return c.Provider.Kind
	}
	if c.Provider.APIKey != "" {
		return "openai"
	}
	return "static"
}

// EnforceScoring defaults to true when unset.
func (c Config) EnforceScoring() bool {
	if c.Scoring.Enforce == nil {
		return true
	}
	return *c.Scoring.Enforce
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
