package config

import (
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "TINTUC_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	baseURLEnv        = "TINTUC_BASE_URL"
	geminiKeysEnv     = "GEMINI_API_KEYS"
	openAIKeyEnv      = "OPENAI_API_KEY"
	unsplashKeyEnv    = "UNSPLASH_ACCESS_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Site          SiteConfig         `yaml:"site"`
	Rewrite       RewriteConfig      `yaml:"rewrite"`
	Images        ImagesConfig       `yaml:"images"`
	Feeds         []FeedConfig       `yaml:"feeds"`
	Profiles      []ProfileConfig    `yaml:"profiles"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SiteConfig identifies the publishing site the pipeline writes for.
type SiteConfig struct {
	BaseURL         string `yaml:"baseUrl"`
	Brand           string `yaml:"brand"`
	DefaultCategory string `yaml:"defaultCategory"`
	DefaultAuthor   string `yaml:"defaultAuthor"`
}

// RewriteConfig selects the preferred provider and wires both backends.
type RewriteConfig struct {
	Provider string       `yaml:"provider"`
	Tone     string       `yaml:"tone"`
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
}

// GeminiConfig carries the candidate models and the ordered credential pool.
type GeminiConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Models   []string `yaml:"models"`
	APIKeys  []string `yaml:"apiKeys"`
}

// OpenAIConfig defines how to contact OpenAI-compatible chat APIs.
type OpenAIConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// ImagesConfig wires the stock-image fallback and the failed-URL cache.
type ImagesConfig struct {
	SearchEndpoint   string `yaml:"searchEndpoint"`
	SearchAccessKey  string `yaml:"searchAccessKey"`
	FailedTTLMinutes int    `yaml:"failedTtlMinutes"`
}

// FeedConfig describes one syndication feed to import from.
type FeedConfig struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// ProfileConfig adds or overrides a per-domain extraction profile.
type ProfileConfig struct {
	Host             string   `yaml:"host"`
	ContentSelectors []string `yaml:"contentSelectors"`
	TitleSelector    string   `yaml:"titleSelector"`
	RemoveSelectors  []string `yaml:"removeSelectors"`
}

// NotificationConfig encapsulates outbound operator channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig controls the recurring feed run.
type SchedulerConfig struct {
	IntervalMinutes int `yaml:"intervalMinutes"`
}

// Load reads YAML configuration (if present) over the defaults and applies
// environment overrides. An explicit path wins over the env variable.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(baseURLEnv); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv(geminiKeysEnv); v != "" {
		keys := make([]string, 0, 4)
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
		if len(keys) > 0 {
			c.Rewrite.Gemini.APIKeys = keys
		}
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Rewrite.OpenAI.APIKey = v
	}
	if v := os.Getenv(unsplashKeyEnv); v != "" {
		c.Images.SearchAccessKey = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		Site: SiteConfig{
			BaseURL:         "https://tintuc24h.example.com",
			Brand:           "Tin Tức 24h",
			DefaultCategory: "Tin tức",
			DefaultAuthor:   "Ban biên tập",
		},
		Rewrite: RewriteConfig{
			Provider: "gemini",
			Tone:     "trung lập, chuyên nghiệp",
		},
		Images:    ImagesConfig{FailedTTLMinutes: 60},
		Scheduler: SchedulerConfig{IntervalMinutes: 60},
	}
}
