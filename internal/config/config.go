// Package config loads the tandem configuration file.
package config

import "time"

// Config is the complete configuration of the tandem binary.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Search  SearchConfig  `yaml:"search"`
	Code    CodeConfig    `yaml:"code"`
	Run     RunConfig     `yaml:"run"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
}

// ModelConfig selects the chat model shared by both agents.
type ModelConfig struct {
	// APIKey defaults to $OPENAI_API_KEY.
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	Name     string `yaml:"name" validate:"required"`
	MaxTries uint   `yaml:"max_tries" validate:"gte=1,lte=10"`
}

// Search cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// SearchConfig configures the web search capability of the researcher.
type SearchConfig struct {
	// APIKey defaults to $TAVILY_API_KEY.
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url" validate:"omitempty,url"`
	MaxResults int           `yaml:"max_results" validate:"gte=1,lte=20"`
	Depth      string        `yaml:"depth" validate:"oneof=basic advanced"`
	Cache      string        `yaml:"cache" validate:"oneof=none memory redis"`
	RedisURL   string        `yaml:"redis_url" validate:"required_if=Cache redis"`
	TTL        time.Duration `yaml:"ttl" validate:"gte=0"`
}

// CodeConfig configures the code execution capability of the chart generator.
type CodeConfig struct {
	Interpreter    string        `yaml:"interpreter" validate:"required"`
	Args           []string      `yaml:"args"`
	Dir            string        `yaml:"dir"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxOutputLines int           `yaml:"max_output_lines" validate:"gte=0"`
	MaxOutputBytes int           `yaml:"max_output_bytes" validate:"gte=0"`
	MaskSecrets    bool          `yaml:"mask_secrets"`
	// Confirm asks before running generated code (interactive runs only).
	Confirm bool `yaml:"confirm"`
}

// RunConfig bounds a single run.
type RunConfig struct {
	// MaxSteps bounds agent invocations per run; 0 disables the limit.
	MaxSteps      int `yaml:"max_steps" validate:"gte=0"`
	MaxToolRounds int `yaml:"max_tool_rounds" validate:"gte=1"`
}

// Run history backends.
const (
	HistoryNone   = "none"
	HistoryMemory = "memory"
)

// HistoryConfig controls the in-process record of finished runs.
// Records are lost when the process exits.
type HistoryConfig struct {
	Backend string `yaml:"backend" validate:"oneof=none memory"`
	// MaxRuns bounds the records kept; the oldest are evicted first. 0 keeps all.
	MaxRuns int `yaml:"max_runs" validate:"gte=0"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ServerConfig configures `tandem serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Name:     "gpt-4o",
			MaxTries: 3,
		},
		Search: SearchConfig{
			MaxResults: 5,
			Depth:      "basic",
			Cache:      CacheMemory,
			TTL:        24 * time.Hour,
		},
		Code: CodeConfig{
			Interpreter:    "python3",
			Args:           []string{"-"},
			Timeout:        60 * time.Second,
			MaxOutputLines: 200,
			MaxOutputBytes: 16 * 1024,
			MaskSecrets:    true,
		},
		Run: RunConfig{
			MaxSteps:      25,
			MaxToolRounds: 10,
		},
		History: HistoryConfig{
			Backend: HistoryMemory,
			MaxRuns: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
