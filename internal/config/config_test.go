package config

import (
	"log/slog"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"COMPLETION_ENDPOINT", "LLM_API_KEY", "LLM_MODEL", "LLM_MAX_TOKENS", "LLM_TEMPERATURE",
	"SYSTEM_PROMPT", "CHAT_GREETING", "CHAT_SUGGESTIONS", "SESSION_IDLE_TIMEOUT",
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "TIME_ZONE", "RATES_FILE",
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name:     "missing LLM_API_KEY",
			setupEnv: func(t *testing.T) {},
			wantErr:  true,
		},
		{
			name: "default values for optional fields",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.CompletionEndpoint != "https://api.openai.com/v1/chat/completions" {
					t.Errorf("CompletionEndpoint = %q", cfg.CompletionEndpoint)
				}
				if cfg.LLMModelName != "gpt-3.5-turbo" || cfg.LLMMaxTokens != 150 || cfg.LLMTemperature != 0.7 {
					t.Errorf("LLM params = %q/%d/%v", cfg.LLMModelName, cfg.LLMMaxTokens, cfg.LLMTemperature)
				}
				if !strings.HasPrefix(cfg.SystemPrompt, "You are FixaPhone AI Assistant") {
					t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
				}
				if !strings.Contains(cfg.ChatGreeting, "FixaPhone AI Assistant") {
					t.Errorf("ChatGreeting = %q", cfg.ChatGreeting)
				}
				if len(cfg.ChatSuggestions) != 3 {
					t.Errorf("ChatSuggestions = %v", cfg.ChatSuggestions)
				}
				if cfg.SessionIdleTimeout != 30*time.Minute {
					t.Errorf("SessionIdleTimeout = %v", cfg.SessionIdleTimeout)
				}
				if cfg.APIPort != "9000" || cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
					t.Errorf("server settings = %q/%v/%q", cfg.APIPort, cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.Location == nil {
					t.Error("Location should default to the local zone")
				}
				if cfg.RatesFile != "" {
					t.Errorf("RatesFile = %q, want built-in rates", cfg.RatesFile)
				}
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("COMPLETION_ENDPOINT", "http://localhost:8080/v1/chat/completions")
				setEnv("LLM_MODEL", "gpt-4o-mini")
				setEnv("LLM_MAX_TOKENS", "300")
				setEnv("LLM_TEMPERATURE", "0")
				setEnv("CHAT_SUGGESTIONS", " Screen price? | |Opening hours? ")
				setEnv("SESSION_IDLE_TIMEOUT", "0")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "JSON")
				setEnv("TIME_ZONE", "Asia/Kathmandu")
				setEnv("RATES_FILE", "/etc/fixaphone/rates.yaml")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.CompletionEndpoint != "http://localhost:8080/v1/chat/completions" {
					t.Errorf("CompletionEndpoint = %q", cfg.CompletionEndpoint)
				}
				if cfg.LLMModelName != "gpt-4o-mini" || cfg.LLMMaxTokens != 300 || cfg.LLMTemperature != 0 {
					t.Errorf("LLM params = %q/%d/%v", cfg.LLMModelName, cfg.LLMMaxTokens, cfg.LLMTemperature)
				}
				if want := []string{"Screen price?", "Opening hours?"}; !reflect.DeepEqual(cfg.ChatSuggestions, want) {
					t.Errorf("ChatSuggestions = %v, want %v", cfg.ChatSuggestions, want)
				}
				if cfg.SessionIdleTimeout != 0 {
					t.Errorf("SessionIdleTimeout = %v, want 0", cfg.SessionIdleTimeout)
				}
				if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
					t.Errorf("log settings = %v/%q", cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.Location.String() != "Asia/Kathmandu" {
					t.Errorf("Location = %v", cfg.Location)
				}
				if cfg.RatesFile != "/etc/fixaphone/rates.yaml" {
					t.Errorf("RatesFile = %q", cfg.RatesFile)
				}
			},
		},
		{
			name: "invalid LLM_MAX_TOKENS",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LLM_MAX_TOKENS", "many")
			},
			wantErr: true,
		},
		{
			name: "zero LLM_MAX_TOKENS",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LLM_MAX_TOKENS", "0")
			},
			wantErr: true,
		},
		{
			name: "invalid LLM_TEMPERATURE",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LLM_TEMPERATURE", "warm")
			},
			wantErr: true,
		},
		{
			name: "LLM_TEMPERATURE out of range",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LLM_TEMPERATURE", "2.5")
			},
			wantErr: true,
		},
		{
			name: "negative LLM_TEMPERATURE",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LLM_TEMPERATURE", "-0.1")
			},
			wantErr: true,
		},
		{
			name: "invalid SESSION_IDLE_TIMEOUT",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("SESSION_IDLE_TIMEOUT", "half an hour")
			},
			wantErr: true,
		},
		{
			name: "negative SESSION_IDLE_TIMEOUT",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("SESSION_IDLE_TIMEOUT", "-1m")
			},
			wantErr: true,
		},
		{
			name: "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LOG_LEVEL", "verbose")
			},
			wantErr: true,
		},
		{
			name: "invalid LOG_FORMAT",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LOG_FORMAT", "xml")
			},
			wantErr: true,
		},
		{
			name: "unknown TIME_ZONE",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("TIME_ZONE", "Mars/Olympus_Mons")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Change to a temp directory without .env file to avoid loading it
			tmpDir := t.TempDir()
			originalWd, _ := os.Getwd()
			_ = os.Chdir(tmpDir) // Ignore error - test will fail if this doesn't work
			defer func() {
				_ = os.Chdir(originalWd) // Ignore error in cleanup
			}()

			// Clean up env vars before each test
			for _, key := range envVars {
				unsetEnv(key)
			}

			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}

			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tmpDir := t.TempDir()
	if err := os.WriteFile(tmpDir+"/.env", []byte("LLM_API_KEY=from-dotenv\nLLM_MODEL=dotenv-model\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	originalWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	// Real environment variables win over .env values.
	setEnv("LLM_MODEL", "env-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMAPIKey != "from-dotenv" {
		t.Errorf("LLMAPIKey = %q, want value from .env", cfg.LLMAPIKey)
	}
	if cfg.LLMModelName != "env-model" {
		t.Errorf("LLMModelName = %q, want env-model", cfg.LLMModelName)
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a|b|c", []string{"a", "b", "c"}},
		{" a | | b ", []string{"a", "b"}},
		{"|", nil},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
