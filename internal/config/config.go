package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Assets AssetConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	assets, err := loadAssetConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Assets: assets}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "7860"
	}

	if strings.ContainsAny(port, " \t") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// Allow ":7860" or "127.0.0.1:7860" directly.
		return ServerConfig{Addr: port}, nil
	}

	host := strings.TrimSpace(os.Getenv("HOST"))
	return ServerConfig{Addr: host + ":" + port}, nil
}

// AIConfig describes the generative model endpoint and request tuning.
type AIConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	Temperature   *float64
	MaxTokens     *int
	HistoryRounds int
}

// Enabled reports whether the required API key is present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewClient builds an API client from the configuration.
func (c AIConfig) NewClient() (openai.Client, error) {
	if !c.Enabled() {
		return openai.Client{}, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	return openai.NewClient(
		option.WithAPIKey(c.APIKey),
		option.WithBaseURL(c.BaseURL),
	), nil
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("GEMINI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("GEMINI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	historyRounds := 10
	if override, err := parseOptionalIntEnv("BOT_HISTORY_ROUNDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		historyRounds = *override
		if historyRounds < 0 {
			historyRounds = 0
		}
	}

	return AIConfig{
		APIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:         getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		BaseURL:       getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		Temperature:   temperature,
		MaxTokens:     maxTokens,
		HistoryRounds: historyRounds,
	}, nil
}

// AssetConfig describes the avatar and portrait image locations.
type AssetConfig struct {
	UserAvatar  string
	BotAvatar   string
	PortraitDir string
	CannedDelay time.Duration
}

func loadAssetConfig() (AssetConfig, error) {
	delayMS := 300
	if override, err := parseOptionalIntEnv("CANNED_DELAY_MS"); err != nil {
		return AssetConfig{}, err
	} else if override != nil {
		delayMS = *override
		if delayMS < 0 {
			delayMS = 0
		}
	}

	return AssetConfig{
		UserAvatar:  getEnvOrDefault("USER_AVATAR", "assets/imgs/user.png"),
		BotAvatar:   getEnvOrDefault("EMA_AVATAR", "assets/imgs/ema.png"),
		PortraitDir: getEnvOrDefault("EXPRESSION_IMGS_DIR", "assets/gen_imgs"),
		CannedDelay: time.Duration(delayMS) * time.Millisecond,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
