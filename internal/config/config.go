package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIME_ZONE must resolve in minimal images

	"github.com/joho/godotenv"
)

const defaultSystemPrompt = `You are FixaPhone AI Assistant, a helpful AI for a phone and computer repair shop in Nepal.
- Be friendly and professional
- Provide accurate information about device repairs
- Give estimated repair times and price ranges when asked
- Recommend appropriate repair services based on customer descriptions
- If unsure, recommend visiting the shop for a professional diagnosis
- Keep responses concise and relevant`

const defaultGreeting = "👋 Hello! I'm FixaPhone AI Assistant. How can I help you with your device repair needs today?"

const defaultSuggestions = "How much does a screen replacement cost?|How long does a battery replacement take?|Can you fix my laptop?"

// Config holds all configuration for the application.
type Config struct {
	CompletionEndpoint string
	LLMAPIKey          string
	LLMModelName       string
	LLMMaxTokens       int
	LLMTemperature     float32
	SystemPrompt       string

	ChatGreeting       string
	ChatSuggestions    []string
	SessionIdleTimeout time.Duration

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
	Location  *time.Location
	RatesFile string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		CompletionEndpoint: getEnv("COMPLETION_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-3.5-turbo"),
		SystemPrompt:       getEnv("SYSTEM_PROMPT", defaultSystemPrompt),
		ChatGreeting:       getEnv("CHAT_GREETING", defaultGreeting),
		ChatSuggestions:    splitList(getEnv("CHAT_SUGGESTIONS", defaultSuggestions)),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		RatesFile:          getEnv("RATES_FILE", ""),
	}

	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}

	maxTokens, err := strconv.Atoi(getEnv("LLM_MAX_TOKENS", "150"))
	if err != nil {
		return nil, fmt.Errorf("LLM_MAX_TOKENS must be a valid integer: %w", err)
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("LLM_MAX_TOKENS must be greater than 0")
	}
	cfg.LLMMaxTokens = maxTokens

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.7"), 32)
	if err != nil {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be a valid number: %w", err)
	}
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	cfg.LLMTemperature = float32(temperature)

	idle, err := time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT must be a valid duration: %w", err)
	}
	if idle < 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT must not be negative")
	}
	cfg.SessionIdleTimeout = idle

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	// Empty TIME_ZONE uses the host's local zone.
	loc, err := time.LoadLocation(getEnv("TIME_ZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("TIME_ZONE is not a known zone: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a |-separated value, dropping blank entries.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, "|") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
