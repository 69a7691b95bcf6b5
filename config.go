package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the serve settings. Values come from defaults, then an
// optional TOML file, then explicitly set flags or environment variables.
type Config struct {
	Listen    string `toml:"listen"`
	Proxy     string `toml:"proxy"`
	UserAgent string `toml:"user_agent"`
	LogLevel  string `toml:"log_level"`

	ClockDurations bool `toml:"clock_durations"`
}

func DefaultConfig() Config {
	return Config{
		Listen:    ":5000",
		UserAgent: "podview/1.0",
		LogLevel:  "info",
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("error parsing config file: %w", err)
	}
	return config, nil
}

func (c Config) Retriever() HTTPRetriever {
	return HTTPRetriever{Proxy: c.Proxy, UserAgent: c.UserAgent}
}

func (c Config) App() App {
	return NewApp(c.Retriever(), Mapper{ClockDurations: c.ClockDurations})
}
